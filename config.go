package tickbook

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so it can be written as "90s" or "2m"
// in the YAML configuration file.
type Duration time.Duration

func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var raw string
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config carries every tunable of an invocation. It is an explicit
// value passed into each component's constructor: there is no hidden
// process-wide configuration state.
type Config struct {
	// WindowDays is N in the required window [today-N, today].
	WindowDays int `yaml:"window_days"`
	// ChunkDays bounds a single backfill range request.
	ChunkDays int `yaml:"chunk_days"`
	// Budget bounds the wall-clock time of one invocation's backfill.
	Budget Duration `yaml:"budget"`

	// MinCorrelationPairs is the minimum number of day-over-day return
	// pairs required to report a correlation.
	MinCorrelationPairs int `yaml:"min_correlation_pairs"`
	// OnboardingDays is the number of days a ticker stays "onboarding"
	// after entering its stage.
	OnboardingDays int `yaml:"onboarding_days"`
	// ReviewDays is the lifecycle review window.
	ReviewDays int `yaml:"review_days"`
	// MomentumDays is the lookback window of the momentum score.
	MomentumDays int `yaml:"momentum_days"`
	// DefaultProxy is the benchmark proxy used when a lifecycle entry
	// does not name one.
	DefaultProxy string `yaml:"default_proxy"`
	// Currency is the reporting currency for portfolio values.
	Currency string `yaml:"currency"`

	// Blob object names of the backing tables.
	HistoryObject  string `yaml:"history_object"`
	LedgerObject   string `yaml:"ledger_object"`
	HoldingsObject string `yaml:"holdings_object"`
	PolicyObject   string `yaml:"policy_object"`
	TrackerObject  string `yaml:"tracker_object"`

	Oracle OracleConfig `yaml:"oracle"`
}

// OracleConfig configures the price feed client.
type OracleConfig struct {
	APIKey string `yaml:"api_key"`
	// Exchange is appended to bare tickers (e.g. "US" turns NVDA into NVDA.US).
	Exchange string `yaml:"exchange"`
	// RatePerSec and Burst bound the request rate against the feed.
	RatePerSec float64 `yaml:"rate_per_sec"`
	Burst      int     `yaml:"burst"`
}

// DefaultConfig returns the configuration used when no file overrides it.
func DefaultConfig() Config {
	return Config{
		WindowDays:          365,
		ChunkDays:           30,
		Budget:              Duration(90 * time.Second),
		MinCorrelationPairs: 6,
		OnboardingDays:      14,
		ReviewDays:          30,
		MomentumDays:        180,
		DefaultProxy:        "VTI",
		Currency:            "USD",
		HistoryObject:       "ticker_history.csv",
		LedgerObject:        "recent_performance.csv",
		HoldingsObject:      "holdings.csv",
		PolicyObject:        "policy.json",
		TrackerObject:       "tracker.json",
		Oracle: OracleConfig{
			Exchange:   "US",
			RatePerSec: 5,
			Burst:      5,
		},
	}
}

// LoadConfig reads a YAML file over the defaults, then applies
// environment overrides. A missing file is not an error: defaults and
// environment apply.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("reading config %q: %w", path, err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %q: %w", path, err)
		}
	}

	if key := os.Getenv("EODHD_API_KEY"); key != "" {
		cfg.Oracle.APIKey = key
	}

	return cfg, cfg.Validate()
}

// Validate rejects configurations no component could run with.
func (c Config) Validate() error {
	if c.WindowDays <= 0 {
		return fmt.Errorf("window_days must be positive, got %d", c.WindowDays)
	}
	if c.ChunkDays <= 0 {
		return fmt.Errorf("chunk_days must be positive, got %d", c.ChunkDays)
	}
	if c.MinCorrelationPairs < 2 {
		return fmt.Errorf("min_correlation_pairs must be at least 2, got %d", c.MinCorrelationPairs)
	}
	return nil
}
