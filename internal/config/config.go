// Package config handles configuration management for retail-etl.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for retail-etl.
type Config struct {
	// Connection is the PostgreSQL connection string.
	Connection string `mapstructure:"connection"`

	// CSVPath is the path to the source order-line CSV export.
	CSVPath string `mapstructure:"csv_path"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Load holds configuration for the load phase.
	Load LoadConfig `mapstructure:"load"`

	// Reconcile holds configuration for the reconciliation phase.
	Reconcile ReconcileConfig `mapstructure:"reconcile"`

	// Seed holds configuration for the seed subcommand.
	Seed SeedConfig `mapstructure:"seed"`
}

// LoadConfig holds configuration for the load phase.
type LoadConfig struct {
	// TimeoutSeconds bounds the wipe+reload transaction. The load holds an
	// advisory lock and truncates live tables, so it must not hang forever.
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
}

// ReconcileConfig holds configuration for reconciliation.
type ReconcileConfig struct {
	// Tolerance is the maximum absolute difference allowed between the
	// source and loaded sales/profit sums. Row and quantity counts must
	// always match exactly.
	Tolerance float64 `mapstructure:"tolerance"`
}

// SeedConfig holds configuration for sample data generation.
type SeedConfig struct {
	// Rows is the number of order line items to generate.
	Rows int `mapstructure:"rows"`

	// Seed is the RNG seed (0 = time-based).
	Seed uint64 `mapstructure:"seed"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		LogLevel: "info",
		Load: LoadConfig{
			TimeoutSeconds: 600,
		},
		Reconcile: ReconcileConfig{
			Tolerance: 1.0,
		},
		Seed: SeedConfig{
			Rows: 1000,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./retail-etl.yaml
// 3. ~/.config/retail-etl/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("retail-etl")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "retail-etl"))
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	}

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error parsing config: %w", err)
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateRun checks configuration required for the run command.
func (c *Config) ValidateRun() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.CSVPath == "" {
		return fmt.Errorf("csv path is required")
	}
	if c.Load.TimeoutSeconds < 1 {
		return fmt.Errorf("load timeout must be at least 1 second")
	}
	if c.Reconcile.Tolerance < 0 {
		return fmt.Errorf("reconcile tolerance must be non-negative")
	}
	return nil
}

// ValidateSeed checks configuration required for the seed command.
func (c *Config) ValidateSeed() error {
	if c.Seed.Rows < 1 {
		return fmt.Errorf("seed rows must be at least 1")
	}
	return nil
}
