package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

const carunaBaseURL = "https://plus.caruna.fi/api"

// TimeSpan is the granularity of an energy query.
type TimeSpan string

const (
	TimeSpanDaily   TimeSpan = "DAILY"
	TimeSpanMonthly TimeSpan = "MONTHLY"
	TimeSpanYearly  TimeSpan = "YEARLY"
)

// CarunaService handles interactions with the Caruna Plus API.
type CarunaService struct {
	BaseURL string
	Client  *http.Client
	Token   string
}

// NewCarunaService creates a new CarunaService. The token may be empty for a
// client that is only going to log in.
func NewCarunaService(tr http.RoundTripper, token string) *CarunaService {
	return &CarunaService{
		BaseURL: carunaBaseURL,
		Client:  &http.Client{Transport: tr},
		Token:   token,
	}
}

// Authenticate exchanges username/password for a session token and the list
// of customer numbers owned by the account.
func (s *CarunaService) Authenticate(username, password string) (*LoginResult, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, s.BaseURL+"/authorization/login", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: calling login: %v", ErrAuth, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: login returned status %s", ErrAuth, resp.Status)
	}

	var result LoginResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decoding login response: %v", ErrDataShape, err)
	}
	if result.Token == "" {
		return nil, fmt.Errorf("%w: login response has no token", ErrDataShape)
	}
	return &result, nil
}

// GetUserProfile fetches the customer details for the given customer number.
func (s *CarunaService) GetUserProfile(customerID string) (*UserProfile, error) {
	var profile UserProfile
	if err := s.getJSON("/customers/"+customerID+"/info", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetContracts fetches the contracts attached to the customer account.
func (s *CarunaService) GetContracts(customerID string) ([]Contract, error) {
	var contracts []Contract
	if err := s.getJSON("/customers/"+customerID+"/contracts", nil, &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

// GetAssets fetches the metering points of the customer account.
func (s *CarunaService) GetAssets(customerID string) ([]MeteringPoint, error) {
	var assets []MeteringPoint
	if err := s.getJSON("/customers/"+customerID+"/assets", nil, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// GetEnergy fetches consumption records for a metering point. With
// TimeSpanDaily the year, month and day select a single calendar day; a day
// may still yield several records (metering sub-periods).
func (s *CarunaService) GetEnergy(customerID, assetID string, span TimeSpan, year, month, day int) ([]ConsumptionRecord, error) {
	query := url.Values{
		"timespan": {string(span)},
		"year":     {strconv.Itoa(year)},
		"month":    {strconv.Itoa(month)},
		"day":      {strconv.Itoa(day)},
	}

	var records []ConsumptionRecord
	path := "/customers/" + customerID + "/assets/" + assetID + "/energy"
	if err := s.getJSON(path, query, &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *CarunaService) getJSON(path string, query url.Values, out any) error {
	u := s.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.Token)

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("calling %s: unexpected status %s", path, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decoding %s response: %v", ErrDataShape, path, err)
	}
	return nil
}
