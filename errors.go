package main

import "errors"

// Error categories. Wrap these with fmt.Errorf("...: %w", Err...) so callers
// can classify failures with errors.Is. All of them are fatal at top level;
// the only automatic recovery anywhere is the single re-authentication
// performed by the token freshness guard.
var (
	// ErrConfig covers missing or malformed settings and credentials.
	ErrConfig = errors.New("configuration error")
	// ErrAuth covers rejected logins and transport failures during login.
	ErrAuth = errors.New("authentication failed")
	// ErrDataShape covers API responses missing an expected field.
	ErrDataShape = errors.New("unexpected API response shape")
)
