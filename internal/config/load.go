package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads, parses and validates a YAML configuration file, applying defaults first.
func LoadConfig(filename string) (*Config, error) {
	fileBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", filename, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(fileBytes, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML in '%s': %w", filename, err)
	}

	applyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills unset optional settings.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Source.ColumnPrefix == "" {
		cfg.Source.ColumnPrefix = DefaultColumnPrefix
	}
	if cfg.Destination.Type == DestinationTypeXLSX && cfg.Destination.SheetName == "" {
		cfg.Destination.SheetName = DefaultSheetName
	}
	if cfg.Dedup != nil && cfg.Dedup.Strategy == "" {
		cfg.Dedup.Strategy = DefaultDedupStrategy
	}
	if cfg.Destination.Loader != nil && cfg.Destination.Loader.BatchSize < 0 {
		cfg.Destination.Loader.BatchSize = DefaultLoaderBatchSize
	}
}
