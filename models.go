package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-openapi/strfmt"
)

// LoginResult is the payload returned by the Caruna Plus login endpoint.
type LoginResult struct {
	Token string    `json:"token"`
	User  LoginUser `json:"user"`
}

type LoginUser struct {
	OwnCustomerNumbers []string `json:"ownCustomerNumbers"`
}

// UserProfile holds the subset of the customer info endpoint we care about.
type UserProfile struct {
	CustomerNumber string `json:"customerNumber"`
	FirstName      string `json:"firstname"`
	LastName       string `json:"lastname"`
}

type Contract struct {
	ContractNumber string `json:"contractNumber"`
	AssetID        string `json:"assetId"`
}

// MeteringPoint is an "asset" in Caruna terms: an identifiable point of
// electricity measurement under a customer account.
type MeteringPoint struct {
	AssetID string `json:"assetId"`
}

// ConsumptionRecord is one raw per-day record from the energy endpoint.
// Optional numeric fields are pointers; absent values render as 0 in the
// dataset.
type ConsumptionRecord struct {
	Timestamp             strfmt.DateTime `json:"timestamp"`
	InvoicedConsumption   *float64        `json:"invoicedConsumption"`
	TotalConsumption      *float64        `json:"totalConsumption"`
	Production            *float64        `json:"production"`
	SoldProduction        *float64        `json:"soldProduction"`
	CompensatedProduction *float64        `json:"compensatedProduction"`
	Temperature           *float64        `json:"temperature"`
	DistributionFees      ProductFees     `json:"distributionFeeByTransferProductParts"`
}

type ProductFee struct {
	Product string
	Fee     float64
}

// ProductFees preserves the order of the distributionFeeByTransferProductParts
// JSON object. The dataset uses the first entry, so decoding into a Go map
// would lose the information that matters.
type ProductFees []ProductFee

func (p *ProductFees) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("distribution fees: expected object, got %v", tok)
	}

	var fees ProductFees
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		product, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("distribution fees: unexpected key %v", keyTok)
		}
		var fee float64
		if err := dec.Decode(&fee); err != nil {
			return fmt.Errorf("distribution fees: fee for %q: %w", product, err)
		}
		fees = append(fees, ProductFee{Product: product, Fee: fee})
	}
	*p = fees
	return nil
}

// Credentials is the record persisted in the secrets file. Token and
// TokenIssuedAt are set and cleared together by the Authenticator.
type Credentials struct {
	Username      string
	Password      string
	CustomerID    string
	Token         string
	TokenIssuedAt *time.Time
}
