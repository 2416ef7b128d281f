//-------------------------------------------------------------------------
//
// salesdw - e-commerce data warehouse ETL
//
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package config handles configuration management for salesdw.
// Configuration is loaded from config files and CLI flags (no environment
// variables). CLI flags take precedence over config file values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds all configuration for salesdw.
type Config struct {
	// Connection is the PostgreSQL connection string for the warehouse.
	Connection string `mapstructure:"connection"`

	// DataDir is the directory holding the source files
	// (sales.csv, products.csv, customers.json, regions.xlsx).
	DataDir string `mapstructure:"data_dir"`

	// LogLevel controls logging verbosity (debug, info, warn, error).
	LogLevel string `mapstructure:"log_level"`

	// Generate holds configuration for the generate subcommand.
	Generate GenerateConfig `mapstructure:"generate"`

	// Load holds configuration for the load subcommand.
	Load LoadConfig `mapstructure:"load"`

	// Report holds configuration for the report subcommand.
	Report ReportConfig `mapstructure:"report"`
}

// GenerateConfig holds configuration for synthetic source generation.
type GenerateConfig struct {
	// Seed seeds the generator for reproducible output (0 = random).
	Seed uint64 `mapstructure:"seed"`

	// Customers is the number of customer records to generate.
	Customers int `mapstructure:"customers"`

	// Products is the approximate number of catalog products to generate.
	Products int `mapstructure:"products"`

	// Sales is the number of sales transactions to generate.
	Sales int `mapstructure:"sales"`
}

// LoadConfig holds configuration for the ETL load.
type LoadConfig struct {
	// BatchSize is the number of fact rows per batched insert.
	BatchSize int `mapstructure:"batch_size"`

	// RefreshViews refreshes the materialized view after a successful load.
	RefreshViews bool `mapstructure:"refresh_views"`
}

// ReportConfig holds configuration for dashboard rendering.
type ReportConfig struct {
	// Output is the path of the rendered HTML dashboard.
	Output string `mapstructure:"output"`

	// TopProducts is the N for the top-N products chart.
	TopProducts int `mapstructure:"top_products"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		DataDir:  "data",
		LogLevel: "info",
		Generate: GenerateConfig{
			Seed:      42,
			Customers: 1000,
			Products:  200,
			Sales:     10000,
		},
		Load: LoadConfig{
			BatchSize:    1000,
			RefreshViews: true,
		},
		Report: ReportConfig{
			Output:      "dashboard.html",
			TopProducts: 10,
		},
	}
}

// Load reads configuration from config files.
// Config file locations (in order of precedence):
// 1. Path specified by configFile parameter
// 2. ./salesdw.yaml
// 3. ~/.config/salesdw/config.yaml
func Load(configFile string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("salesdw")
	v.SetConfigType("yaml")

	v.AddConfigPath(".")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(filepath.Join(home, ".config", "salesdw"))
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

// Validate checks configuration shared by all warehouse-facing commands.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("connection string is required")
	}
	return nil
}

// ValidateGenerate checks configuration required for the generate command.
// Generation is file-only and does not need a warehouse connection.
func (c *Config) ValidateGenerate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Generate.Customers < 1 {
		return fmt.Errorf("generate.customers must be at least 1")
	}
	if c.Generate.Products < 1 {
		return fmt.Errorf("generate.products must be at least 1")
	}
	if c.Generate.Sales < 1 {
		return fmt.Errorf("generate.sales must be at least 1")
	}
	return nil
}

// ValidateLoad checks configuration required for the load command.
func (c *Config) ValidateLoad() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.DataDir == "" {
		return fmt.Errorf("data directory is required")
	}
	if c.Load.BatchSize < 1 {
		return fmt.Errorf("load.batch_size must be at least 1")
	}
	return nil
}

// ValidateReport checks configuration required for the report command.
func (c *Config) ValidateReport() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Report.Output == "" {
		return fmt.Errorf("report output path is required")
	}
	if c.Report.TopProducts < 1 {
		return fmt.Errorf("report.top_products must be at least 1")
	}
	return nil
}
