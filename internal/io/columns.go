package io

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// columnsOf returns the sorted union of the keys of records. Records built from
// rows of different lengths do not share one key set, so the first record alone
// is not enough.
func columnsOf(records []map[string]interface{}) []string {
	seen := make(map[string]struct{})
	var columns []string
	for _, rec := range records {
		for k := range rec {
			if _, ok := seen[k]; !ok {
				seen[k] = struct{}{}
				columns = append(columns, k)
			}
		}
	}
	sort.Strings(columns)
	return columns
}

// rowValues lays rec out in column order. Missing columns are nil.
func rowValues(rec map[string]interface{}, columns []string) []interface{} {
	row := make([]interface{}, len(columns))
	for i, c := range columns {
		row[i] = rec[c]
	}
	return row
}

// ensureDir creates the parent directory of filePath when needed.
func ensureDir(writer, filePath string) error {
	dir := filepath.Dir(filePath)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("%s failed to create directory for '%s': %w", writer, filePath, err)
	}
	return nil
}
