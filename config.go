package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

// Config holds the collector settings loaded from the YAML settings file.
type Config struct {
	StartDate  string `yaml:"start_date"`
	EndDate    string `yaml:"end_date"`
	EndDateNow bool   `yaml:"end_date_now"`
	AssetIndex int    `yaml:"asset_index"`
	OutputCSV  string `yaml:"output_csv"`
	Timezone   string `yaml:"timezone"`
	CacheDir   string `yaml:"cache_dir"`
}

func LoadConfig(path string) (*Config, error) {
	config := &Config{
		EndDateNow: true,
		AssetIndex: 1,
		Timezone:   "Europe/Helsinki",
		CacheDir:   "disable",
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading settings file: %v", ErrConfig, err)
	}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: parsing settings file %s: %v", ErrConfig, path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) Validate() error {
	if c.StartDate == "" {
		return fmt.Errorf("%w: start_date must be set", ErrConfig)
	}
	if _, err := time.Parse(dateLayout, c.StartDate); err != nil {
		return fmt.Errorf("%w: invalid start_date %q: %v", ErrConfig, c.StartDate, err)
	}
	if !c.EndDateNow {
		if c.EndDate == "" {
			return fmt.Errorf("%w: end_date must be set when end_date_now is false", ErrConfig)
		}
		if _, err := time.Parse(dateLayout, c.EndDate); err != nil {
			return fmt.Errorf("%w: invalid end_date %q: %v", ErrConfig, c.EndDate, err)
		}
	}
	if c.AssetIndex < 0 {
		return fmt.Errorf("%w: asset_index must not be negative", ErrConfig)
	}
	if c.Timezone == "" {
		return fmt.Errorf("%w: timezone must be set", ErrConfig)
	}
	return nil
}

// OutputPath returns the configured dataset path, defaulting to a file named
// after the start date's year.
func (c *Config) OutputPath() string {
	if c.OutputCSV != "" {
		return c.OutputCSV
	}
	start, _ := time.Parse(dateLayout, c.StartDate)
	return fmt.Sprintf("consumption%d.csv", start.Year())
}
