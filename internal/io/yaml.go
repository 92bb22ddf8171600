package io

import (
	"bytes"
	"fmt"
	"os"

	"csvrows/internal/logging"

	"gopkg.in/yaml.v3"
)

// YAMLWriter writes records as a YAML sequence of mappings.
type YAMLWriter struct{}

// Write saves records to filePath. An empty or nil slice is written as "[]".
func (yw *YAMLWriter) Write(records []map[string]interface{}, filePath string) error {
	logging.Logf(logging.Debug, "YAMLWriter writing %d records to file: %s", len(records), filePath)
	if err := ensureDir("YAMLWriter", filePath); err != nil {
		return err
	}

	if records == nil {
		records = []map[string]interface{}{}
	}
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	err := encoder.Encode(records)
	if err == nil {
		err = encoder.Close()
	}
	if err != nil {
		return fmt.Errorf("YAMLWriter failed to marshal records to YAML: %w", err)
	}

	if err := os.WriteFile(filePath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("YAMLWriter failed to write file '%s': %w", filePath, err)
	}
	logging.Logf(logging.Info, "YAMLWriter wrote %d records to %s", len(records), filePath)
	return nil
}

// Close is a no-op.
func (yw *YAMLWriter) Close() error {
	return nil
}
