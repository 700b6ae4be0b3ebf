package main

import (
	"fmt"
	"log"
	"time"
)

// tokenMaxAge is the staleness threshold: a session token older than this is
// treated as expired and refreshed before fetching.
const tokenMaxAge = time.Hour

// Authenticator exchanges the stored username/password for a session token
// and keeps the secret store up to date.
type Authenticator struct {
	Store *SecretStore
	// NewClient builds an unauthenticated API client; injected so tests can
	// provide a mock transport.
	NewClient func() *CarunaService
}

// Authenticate logs in with the stored credentials, records the token issue
// time, and persists the result. The customer id is the first of the
// account's own customer numbers.
func (a *Authenticator) Authenticate(now time.Time) (*Credentials, error) {
	creds, err := a.Store.Load()
	if err != nil {
		return nil, err
	}

	login, err := a.NewClient().Authenticate(creds.Username, creds.Password)
	if err != nil {
		return nil, err
	}
	if len(login.User.OwnCustomerNumbers) == 0 {
		return nil, fmt.Errorf("%w: login returned no customer numbers", ErrDataShape)
	}

	creds.CustomerID = login.User.OwnCustomerNumbers[0]
	creds.Token = login.Token
	issued := now
	creds.TokenIssuedAt = &issued

	if err := a.Store.Save(creds); err != nil {
		return nil, err
	}
	log.Printf("Authenticated as customer %s", creds.CustomerID)

	// Reload so the caller sees exactly what was persisted.
	return a.Store.Load()
}

// EnsureFresh returns usable credentials, re-authenticating in process when
// the stored token is missing or older than tokenMaxAge. This runs before
// every batch fetch.
func (a *Authenticator) EnsureFresh(now time.Time) (*Credentials, error) {
	creds, err := a.Store.Load()
	if err != nil {
		return nil, err
	}

	if creds.Token != "" && creds.TokenIssuedAt != nil &&
		now.Sub(*creds.TokenIssuedAt) <= tokenMaxAge {
		return creds, nil
	}

	log.Println("Session token missing or stale, re-authenticating...")
	return a.Authenticate(now)
}
