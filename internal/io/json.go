package io

import (
	"encoding/json"
	"fmt"
	"os"

	"csvrows/internal/logging"
)

// JSONWriter writes records as an indented JSON array.
type JSONWriter struct{}

// Write saves records to filePath. An empty or nil slice is written as "[]".
func (jw *JSONWriter) Write(records []map[string]interface{}, filePath string) error {
	logging.Logf(logging.Debug, "JSONWriter writing %d records to file: %s", len(records), filePath)
	if err := ensureDir("JSONWriter", filePath); err != nil {
		return err
	}

	if records == nil {
		records = []map[string]interface{}{}
	}
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("JSONWriter failed to marshal records to JSON: %w", err)
	}
	data = append(data, '\n')

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("JSONWriter failed to write file '%s': %w", filePath, err)
	}
	logging.Logf(logging.Info, "JSONWriter wrote %d records to %s", len(records), filePath)
	return nil
}

// Close is a no-op; Write closes the file itself.
func (jw *JSONWriter) Close() error {
	return nil
}
