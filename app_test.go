package main

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func collectApp(t *testing.T, handler func(req *http.Request) (*http.Response, error), assetIndex int) (*App, string) {
	t.Helper()
	loc := helsinki(t)
	now := time.Date(2024, time.June, 5, 10, 0, 0, 0, loc)

	issued := now.In(time.Local).Add(-10 * time.Minute)
	store := writeSecretsFile(t, fmt.Sprintf(`[caruna]
user = alice
password = hunter2
customer_id = 12345
token = fresh-token
token_timestamp = %s
`, issued.Format(tokenTimeLayout)))

	outputPath := filepath.Join(t.TempDir(), "consumption2024.csv")
	app := &App{
		Config: &Config{
			StartDate:  "2024-06-04",
			EndDateNow: true,
			AssetIndex: assetIndex,
			OutputCSV:  outputPath,
			Timezone:   "Europe/Helsinki",
			CacheDir:   "disable",
		},
		Store:     store,
		Transport: &MockRoundTripper{Handler: handler},
		Location:  loc,
		Now:       func() time.Time { return now },
	}
	return app, outputPath
}

func TestRunCollectsAndPersists(t *testing.T) {
	handler := func(req *http.Request) (*http.Response, error) {
		require.Equal(t, "Bearer fresh-token", req.Header.Get("Authorization"))

		switch {
		case strings.HasSuffix(req.URL.Path, "/info"):
			return jsonResponse(http.StatusOK, `{"customerNumber": "12345", "firstname": "Alice"}`), nil
		case strings.HasSuffix(req.URL.Path, "/contracts"):
			return jsonResponse(http.StatusOK, `[{"contractNumber": "C-1", "assetId": "A-2"}]`), nil
		case strings.HasSuffix(req.URL.Path, "/assets"):
			return jsonResponse(http.StatusOK, `[{"assetId": "A-1"}, {"assetId": "A-2"}]`), nil
		case strings.HasSuffix(req.URL.Path, "/energy"):
			require.Contains(t, req.URL.Path, "/assets/A-2/")
			require.Equal(t, "4", req.URL.Query().Get("day"))
			return jsonResponse(http.StatusOK, `[
				{
					"timestamp": "2024-06-04T00:00:00+03:00",
					"totalConsumption": 5.25,
					"distributionFeeByTransferProductParts": {"A": 1.1}
				}
			]`), nil
		default:
			t.Fatalf("unexpected request to %s", req.URL.Path)
			return nil, nil
		}
	}

	app, outputPath := collectApp(t, handler, 1)
	require.NoError(t, app.Run())

	content, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t,
		"startTime;invoicedConsumption;totalConsumption;production;soldProduction;compensatedProduction;product;fee;temperature\n"+
			"2024-06-03T21:00:00Z;0;5,25;0;0;0;A;1,1;0\n",
		string(content))

	// A second run against the same responses appends nothing.
	require.NoError(t, app.Run())
	again, err := os.ReadFile(outputPath)
	require.NoError(t, err)
	require.Equal(t, content, again)
}

func TestRunFailsWhenAssetIndexOutOfRange(t *testing.T) {
	handler := func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/info"):
			return jsonResponse(http.StatusOK, `{"customerNumber": "12345"}`), nil
		case strings.HasSuffix(req.URL.Path, "/contracts"):
			return jsonResponse(http.StatusOK, `[]`), nil
		case strings.HasSuffix(req.URL.Path, "/assets"):
			// Only one metering point on the account.
			return jsonResponse(http.StatusOK, `[{"assetId": "A-1"}]`), nil
		default:
			t.Fatalf("unexpected request to %s", req.URL.Path)
			return nil, nil
		}
	}

	app, outputPath := collectApp(t, handler, 1)
	err := app.Run()
	require.ErrorIs(t, err, ErrDataShape)
	require.NoFileExists(t, outputPath)
}

func TestRunFailedFetchAbortsBatch(t *testing.T) {
	handler := func(req *http.Request) (*http.Response, error) {
		switch {
		case strings.HasSuffix(req.URL.Path, "/info"):
			return jsonResponse(http.StatusOK, `{"customerNumber": "12345"}`), nil
		case strings.HasSuffix(req.URL.Path, "/contracts"):
			return jsonResponse(http.StatusOK, `[]`), nil
		case strings.HasSuffix(req.URL.Path, "/assets"):
			return jsonResponse(http.StatusOK, `[{"assetId": "A-1"}, {"assetId": "A-2"}]`), nil
		case strings.HasSuffix(req.URL.Path, "/energy"):
			return jsonResponse(http.StatusServiceUnavailable, `{}`), nil
		default:
			t.Fatalf("unexpected request to %s", req.URL.Path)
			return nil, nil
		}
	}

	app, outputPath := collectApp(t, handler, 1)
	require.Error(t, app.Run())
	require.NoFileExists(t, outputPath, "a failed fetch must persist nothing")
}
