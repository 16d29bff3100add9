package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"quantfolio/internal/engine"
)

// Config holds application settings (in-memory representation).
// Loaded from YAML; the API key can be overridden by environment so it
// stays out of checked-in config files.
type Config struct {
	Data         DataConfig         `yaml:"data"`
	Optimization OptimizationConfig `yaml:"optimization"`
	Output       OutputConfig       `yaml:"output"`
}

// DataConfig selects where price history comes from.
type DataConfig struct {
	// Source is one of: csv, alphavantage, twelvedata.
	Source string `yaml:"source"`
	// File is the wide CSV path when Source is csv.
	File string `yaml:"file"`
	// APIKey authenticates against the market data provider.
	// Overridden by MARKET_DATA_API_KEY when set.
	APIKey  string   `yaml:"api_key"`
	Tickers []string `yaml:"tickers"`
	// StartDate/EndDate bound the history, ISO dates (inclusive).
	StartDate string `yaml:"start_date"`
	EndDate   string `yaml:"end_date"`
	// Timeframe is daily, weekly or monthly.
	Timeframe string `yaml:"timeframe"`
	// RawDir receives untouched provider responses for replay; empty
	// disables snapshots.
	RawDir string `yaml:"raw_dir"`
}

// OptimizationConfig carries the solver parameters.
type OptimizationConfig struct {
	Method         string  `yaml:"method"`
	Tau            float64 `yaml:"tau"`
	Theta          float64 `yaml:"theta"`
	RiskFreeRate   float64 `yaml:"risk_free_rate"`
	FrontierPoints int     `yaml:"frontier_points"`
	// VaRConfidence is the confidence level for the tail-risk report.
	VaRConfidence float64 `yaml:"var_confidence"`
}

// OutputConfig controls what artifacts a run writes.
type OutputConfig struct {
	// Dir is the root directory for CSVs and charts.
	Dir string `yaml:"dir"`
	// Database is the sqlite file for run history; empty disables
	// persistence.
	Database string `yaml:"database"`
	Charts   bool   `yaml:"charts"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Source:    "csv",
			Timeframe: "daily",
			RawDir:    "data/raw",
		},
		Optimization: OptimizationConfig{
			Method:         string(engine.MethodRiskAdjusted),
			Tau:            0.3,
			Theta:          0.95,
			RiskFreeRate:   0.02,
			FrontierPoints: 101,
			VaRConfidence:  0.95,
		},
		Output: OutputConfig{
			Dir:      "output",
			Database: "quantfolio.db",
			Charts:   true,
		},
	}
}

// Load reads path on top of the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if key := os.Getenv("MARKET_DATA_API_KEY"); key != "" {
		cfg.Data.APIKey = key
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects impossible settings up front so a bad run fails
// before any network call.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case "csv":
		if c.Data.File == "" {
			return fmt.Errorf("data.file is required when data.source is csv")
		}
	case "alphavantage", "twelvedata":
		if c.Data.APIKey == "" {
			return fmt.Errorf("data.api_key (or MARKET_DATA_API_KEY) is required for source %q", c.Data.Source)
		}
		if len(c.Data.Tickers) == 0 {
			return fmt.Errorf("data.tickers must not be empty for source %q", c.Data.Source)
		}
	default:
		return fmt.Errorf("unknown data.source %q", c.Data.Source)
	}

	switch c.Data.Timeframe {
	case "daily", "weekly", "monthly":
	default:
		return fmt.Errorf("unknown data.timeframe %q", c.Data.Timeframe)
	}

	switch engine.Method(c.Optimization.Method) {
	case engine.MethodRiskAdjusted:
	case engine.MethodNearOptimal:
		if c.Optimization.Theta <= 0 || c.Optimization.Theta > 1 {
			return fmt.Errorf("optimization.theta must be in (0,1], got %v", c.Optimization.Theta)
		}
	default:
		return fmt.Errorf("unknown optimization.method %q", c.Optimization.Method)
	}
	if c.Optimization.Tau <= 0 {
		return fmt.Errorf("optimization.tau must be > 0, got %v", c.Optimization.Tau)
	}
	if c.Optimization.FrontierPoints < 2 {
		return fmt.Errorf("optimization.frontier_points must be >= 2, got %d", c.Optimization.FrontierPoints)
	}
	if c.Optimization.VaRConfidence <= 0 || c.Optimization.VaRConfidence >= 1 {
		return fmt.Errorf("optimization.var_confidence must be in (0,1), got %v", c.Optimization.VaRConfidence)
	}
	return nil
}

// EngineConfig translates the YAML settings into the solver's config.
func (c *Config) EngineConfig() engine.OptimizeConfig {
	return engine.OptimizeConfig{
		Method:         engine.Method(c.Optimization.Method),
		Tau:            c.Optimization.Tau,
		Theta:          c.Optimization.Theta,
		RiskFreeAnnual: c.Optimization.RiskFreeRate,
		FrontierPoints: c.Optimization.FrontierPoints,
	}
}
