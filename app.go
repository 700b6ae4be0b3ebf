package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"path"
	"time"
)

// App wires the collector components together.
type App struct {
	Config    *Config
	Store     *SecretStore
	Transport http.RoundTripper
	Location  *time.Location
	Now       func() time.Time
}

func NewApp(config *Config, secretsPath string) (*App, error) {
	loc, err := time.LoadLocation(config.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q: %v", ErrConfig, config.Timezone, err)
	}

	var rt http.RoundTripper = http.DefaultTransport
	if config.CacheDir != "disable" {
		cacheDir := config.CacheDir
		if cacheDir == "" {
			cacheDir = os.TempDir()
		}
		if err := os.MkdirAll(cacheDir, 0755); err != nil {
			return nil, fmt.Errorf("creating cache dir: %w", err)
		}
		rt = &CachingRoundTripper{CacheDir: path.Clean(cacheDir)}
		log.Printf("HTTP caching enabled in directory: %s", cacheDir)
	}

	return &App{
		Config:    config,
		Store:     &SecretStore{Path: secretsPath},
		Transport: rt,
		Location:  loc,
		Now:       time.Now,
	}, nil
}

func (app *App) authenticator() *Authenticator {
	return &Authenticator{
		Store: app.Store,
		NewClient: func() *CarunaService {
			return NewCarunaService(app.Transport, "")
		},
	}
}

// Authenticate runs the standalone authentication flow: log in with the
// stored username/password and rewrite the secrets file.
func (app *App) Authenticate() error {
	_, err := app.authenticator().Authenticate(app.Now())
	return err
}

// Run performs the full collection flow: token freshness guard, availability
// window, per-day energy fetch, then a single incremental append. Any
// per-day fetch failure aborts the batch before anything is persisted.
func (app *App) Run() error {
	creds, err := app.authenticator().EnsureFresh(app.Now())
	if err != nil {
		return err
	}

	start, err := time.Parse(dateLayout, app.Config.StartDate)
	if err != nil {
		return fmt.Errorf("%w: invalid start_date %q: %v", ErrConfig, app.Config.StartDate, err)
	}
	var end time.Time
	if !app.Config.EndDateNow {
		if end, err = time.Parse(dateLayout, app.Config.EndDate); err != nil {
			return fmt.Errorf("%w: invalid end_date %q: %v", ErrConfig, app.Config.EndDate, err)
		}
	}

	window := dateWindow(start, end, app.Config.EndDateNow, app.Now(), app.Location)
	if len(window) == 0 {
		log.Println("No published days in range, nothing to fetch")
		return nil
	}
	log.Printf("Fetching %d days from %s to %s",
		len(window),
		window[0].Format(dateLayout),
		window[len(window)-1].Format(dateLayout))

	client := NewCarunaService(app.Transport, creds.Token)

	profile, err := client.GetUserProfile(creds.CustomerID)
	if err != nil {
		return fmt.Errorf("fetching user profile: %w", err)
	}
	log.Printf("Collecting for customer %s", profile.CustomerNumber)

	contracts, err := client.GetContracts(creds.CustomerID)
	if err != nil {
		return fmt.Errorf("fetching contracts: %w", err)
	}
	log.Printf("Account has %d contracts", len(contracts))

	assets, err := client.GetAssets(creds.CustomerID)
	if err != nil {
		return fmt.Errorf("fetching metering points: %w", err)
	}
	if app.Config.AssetIndex >= len(assets) {
		return fmt.Errorf("%w: asset index %d out of range, account has %d metering points",
			ErrDataShape, app.Config.AssetIndex, len(assets))
	}
	assetID := assets[app.Config.AssetIndex].AssetID

	var records []ConsumptionRecord
	for _, day := range window {
		daily, err := client.GetEnergy(creds.CustomerID, assetID, TimeSpanDaily,
			day.Year(), int(day.Month()), day.Day())
		if err != nil {
			return fmt.Errorf("fetching energy for %s: %w", day.Format(dateLayout), err)
		}
		records = append(records, daily...)
	}
	log.Printf("Fetched %d consumption records", len(records))

	outputPath := app.Config.OutputPath()
	appended, err := mergeAndAppend(outputPath, records)
	if err != nil {
		return fmt.Errorf("updating dataset: %w", err)
	}
	log.Printf("Appended %d new rows to %s", appended, outputPath)

	return nil
}
