package main

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const loginResponse = `{
	"token": "new-token",
	"user": {"ownCustomerNumbers": ["999", "111"]}
}`

func authenticatorWith(store *SecretStore, handler func(req *http.Request) (*http.Response, error)) *Authenticator {
	return &Authenticator{
		Store: store,
		NewClient: func() *CarunaService {
			return NewCarunaService(&MockRoundTripper{Handler: handler}, "")
		},
	}
}

func secretsWithToken(t *testing.T, age time.Duration, now time.Time) *SecretStore {
	t.Helper()
	issued := now.In(time.Local).Add(-age)
	return writeSecretsFile(t, fmt.Sprintf(`[caruna]
user = alice
password = hunter2
customer_id = 12345
token = old-token
token_timestamp = %s
`, issued.Format(tokenTimeLayout)))
}

func TestEnsureFreshKeepsRecentToken(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	store := secretsWithToken(t, 3599*time.Second, now)

	auth := authenticatorWith(store, func(req *http.Request) (*http.Response, error) {
		t.Fatalf("unexpected network call to %s", req.URL)
		return nil, nil
	})

	creds, err := auth.EnsureFresh(now)
	require.NoError(t, err)
	require.Equal(t, "old-token", creds.Token)
}

func TestEnsureFreshReauthenticatesStaleToken(t *testing.T) {
	now := time.Now().Truncate(time.Second)
	store := secretsWithToken(t, 3601*time.Second, now)

	auth := authenticatorWith(store, func(req *http.Request) (*http.Response, error) {
		require.Equal(t, http.MethodPost, req.Method)
		require.Equal(t, "/api/authorization/login", req.URL.Path)
		return jsonResponse(http.StatusOK, loginResponse), nil
	})

	creds, err := auth.EnsureFresh(now)
	require.NoError(t, err)
	require.Equal(t, "new-token", creds.Token)
	require.Equal(t, "999", creds.CustomerID, "customer id comes from the first own customer number")
	require.NotNil(t, creds.TokenIssuedAt)

	// The refreshed token must be persisted, not just held in memory.
	reloaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, "new-token", reloaded.Token)
}

func TestEnsureFreshTreatsMissingTimestampAsStale(t *testing.T) {
	store := writeSecretsFile(t, `[caruna]
user = alice
password = hunter2
token = old-token
`)

	called := false
	auth := authenticatorWith(store, func(req *http.Request) (*http.Response, error) {
		called = true
		return jsonResponse(http.StatusOK, loginResponse), nil
	})

	creds, err := auth.EnsureFresh(time.Now())
	require.NoError(t, err)
	require.True(t, called, "missing token_timestamp must trigger re-authentication")
	require.Equal(t, "new-token", creds.Token)
}

func TestAuthenticateFailsOnEmptyCustomerNumbers(t *testing.T) {
	store := writeSecretsFile(t, "[caruna]\nuser = alice\npassword = hunter2\n")

	auth := authenticatorWith(store, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusOK, `{"token": "t", "user": {"ownCustomerNumbers": []}}`), nil
	})

	_, err := auth.Authenticate(time.Now())
	require.ErrorIs(t, err, ErrDataShape)
}

func TestAuthenticatePropagatesRejectedLogin(t *testing.T) {
	store := writeSecretsFile(t, "[caruna]\nuser = alice\npassword = wrong\n")

	auth := authenticatorWith(store, func(req *http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusForbidden, `{}`), nil
	})

	_, err := auth.Authenticate(time.Now())
	require.ErrorIs(t, err, ErrAuth)
}
