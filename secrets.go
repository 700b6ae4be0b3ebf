package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/ini.v1"
)

const (
	secretsSection = "caruna"
	// token_timestamp is a naive local-clock string; the fractional part is
	// optional so files written by other tooling still parse.
	tokenTimeLayout      = "2006-01-02T15:04:05"
	tokenTimeParseLayout = "2006-01-02T15:04:05.999999999"
)

// SecretStore reads and writes the credential record in an INI-style secrets
// file. Sections and keys other than the caruna section are preserved
// untouched across saves.
type SecretStore struct {
	Path string
}

func (s *SecretStore) Load() (*Credentials, error) {
	cfg, err := ini.Load(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading secrets file %s: %v", ErrConfig, s.Path, err)
	}
	sec, err := cfg.GetSection(secretsSection)
	if err != nil {
		return nil, fmt.Errorf("%w: secrets file %s has no [%s] section", ErrConfig, s.Path, secretsSection)
	}

	creds := &Credentials{
		Username:   sec.Key("user").String(),
		Password:   sec.Key("password").String(),
		CustomerID: sec.Key("customer_id").String(),
		Token:      sec.Key("token").String(),
	}
	if creds.Username == "" || creds.Password == "" {
		return nil, fmt.Errorf("%w: user and password must be set in secrets file %s", ErrConfig, s.Path)
	}

	if raw := sec.Key("token_timestamp").String(); raw != "" {
		issued, err := time.ParseInLocation(tokenTimeParseLayout, raw, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid token_timestamp %q: %v", ErrConfig, raw, err)
		}
		creds.TokenIssuedAt = &issued
	}
	return creds, nil
}

// Save rewrites the managed keys and writes the file via a temp file and
// rename so a crash mid-write cannot truncate the secrets.
func (s *SecretStore) Save(creds *Credentials) error {
	cfg, err := ini.LooseLoad(s.Path)
	if err != nil {
		return fmt.Errorf("reading secrets file %s: %w", s.Path, err)
	}

	sec := cfg.Section(secretsSection)
	sec.Key("user").SetValue(creds.Username)
	sec.Key("password").SetValue(creds.Password)
	sec.Key("customer_id").SetValue(creds.CustomerID)
	sec.Key("token").SetValue(creds.Token)
	if creds.TokenIssuedAt != nil {
		sec.Key("token_timestamp").SetValue(creds.TokenIssuedAt.Format(tokenTimeLayout))
	} else {
		sec.DeleteKey("token_timestamp")
	}

	tmp := s.Path + ".tmp"
	if err := cfg.SaveTo(tmp); err != nil {
		return fmt.Errorf("writing secrets file %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return fmt.Errorf("replacing secrets file %s: %w", s.Path, err)
	}
	return nil
}
