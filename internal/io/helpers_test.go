package io

import (
	"path/filepath"
	"reflect"
	"testing"

	"gopkg.in/yaml.v3"
)

// outputPath returns a path inside a fresh temp dir, under a subdirectory that does not exist yet.
func outputPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "out", name)
}

// compareRecordsDeep reports a YAML diff when got and want differ. Order matters.
func compareRecordsDeep(t *testing.T, got, want []map[string]interface{}) bool {
	t.Helper()
	if reflect.DeepEqual(got, want) {
		return true
	}
	gotYAML, errGot := yaml.Marshal(got)
	wantYAML, errWant := yaml.Marshal(want)
	if errGot != nil || errWant != nil {
		t.Errorf("Record mismatch (order matters):\ngot:\n%#v\nwant:\n%#v", got, want)
		return false
	}
	t.Errorf("Record mismatch (order matters):\n--- GOT ---\n%s\n--- WANT ---\n%s", gotYAML, wantYAML)
	return false
}

var sampleRecords = []map[string]interface{}{
	{"id": int64(1), "name": "Alice", "active": true},
	{"id": int64(2), "name": "Bob"},
}
