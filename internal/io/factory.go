package io

import (
	"fmt"
	"strings"

	"csvrows/internal/config"
	"csvrows/internal/logging"
)

// NewOutputWriter returns the writer for the destination type in cfg.
// dbConnStr is required for the postgres destination only.
func NewOutputWriter(cfg config.DestinationConfig, dbConnStr string) (OutputWriter, error) {
	destType := strings.ToLower(cfg.Type)
	logging.Logf(logging.Debug, "Creating output writer for type: %s", destType)

	switch destType {
	case config.DestinationTypeJSON:
		return &JSONWriter{}, nil
	case config.DestinationTypeYAML:
		return &YAMLWriter{}, nil
	case config.DestinationTypeXLSX:
		return NewXLSXWriter(cfg.SheetName), nil
	case config.DestinationTypePostgres:
		if dbConnStr == "" {
			return nil, fmt.Errorf("database connection string (-db or DB_CREDENTIALS) is required for destination type 'postgres'")
		}
		if cfg.TargetTable == "" {
			return nil, fmt.Errorf("target_table is required in destination config for type 'postgres'")
		}
		return NewPostgresWriter(dbConnStr, cfg.TargetTable, cfg.Loader), nil
	default:
		return nil, fmt.Errorf("unsupported destination type '%s'", cfg.Type)
	}
}
