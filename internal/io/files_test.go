package io

import (
	"encoding/json"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"
)

func TestColumnsOf(t *testing.T) {
	got := columnsOf(sampleRecords)
	want := []string{"active", "id", "name"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("columnsOf() = %v, want %v", got, want)
	}
	if got := columnsOf(nil); got != nil {
		t.Errorf("columnsOf(nil) = %v, want nil", got)
	}
	row := rowValues(sampleRecords[1], want)
	if !reflect.DeepEqual(row, []interface{}{nil, int64(2), "Bob"}) {
		t.Errorf("rowValues() = %v", row)
	}
}

func TestJSONWriter_Write(t *testing.T) {
	testCases := []struct {
		name    string
		records []map[string]interface{}
		want    []map[string]interface{}
	}{
		{"Records", sampleRecords, []map[string]interface{}{
			{"id": float64(1), "name": "Alice", "active": true},
			{"id": float64(2), "name": "Bob"},
		}},
		{"Empty", []map[string]interface{}{}, []map[string]interface{}{}},
		{"Nil", nil, []map[string]interface{}{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := outputPath(t, "out.json")
			if err := (&JSONWriter{}).Write(tc.records, path); err != nil {
				t.Fatalf("Write() unexpected error: %v", err)
			}
			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatalf("Failed to read output: %v", err)
			}
			if !strings.HasSuffix(string(data), "\n") {
				t.Error("JSON output has no trailing newline")
			}
			var got []map[string]interface{}
			if err := json.Unmarshal(data, &got); err != nil {
				t.Fatalf("Output is not a JSON array: %v\n%s", err, data)
			}
			compareRecordsDeep(t, got, tc.want)
		})
	}
}

func TestJSONWriter_Write_Unmarshalable(t *testing.T) {
	records := []map[string]interface{}{{"bad": make(chan int)}}
	if err := (&JSONWriter{}).Write(records, outputPath(t, "bad.json")); err == nil {
		t.Error("Write() with a channel value returned nil error")
	}
}

func TestYAMLWriter_Write(t *testing.T) {
	path := outputPath(t, "out.yaml")
	if err := (&YAMLWriter{}).Write(sampleRecords, path); err != nil {
		t.Fatalf("Write() unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read output: %v", err)
	}
	var got []map[string]interface{}
	if err := yaml.Unmarshal(data, &got); err != nil {
		t.Fatalf("Output is not a YAML sequence: %v", err)
	}
	compareRecordsDeep(t, got, []map[string]interface{}{
		{"id": 1, "name": "Alice", "active": true},
		{"id": 2, "name": "Bob"},
	})

	emptyPath := outputPath(t, "empty.yaml")
	if err := (&YAMLWriter{}).Write(nil, emptyPath); err != nil {
		t.Fatalf("Write(nil) unexpected error: %v", err)
	}
	if data, _ := os.ReadFile(emptyPath); strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("Write(nil) output = %q, want []", data)
	}
}

func TestXLSXWriter_Write(t *testing.T) {
	testCases := []struct {
		name      string
		sheetName string
		wantSheet string
	}{
		{"Default sheet", "", "Sheet1"},
		{"Named sheet", "Rows", "Rows"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := outputPath(t, "out.xlsx")
			w := NewXLSXWriter(tc.sheetName)
			if err := w.Write(sampleRecords, path); err != nil {
				t.Fatalf("Write() unexpected error: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Errorf("Close() unexpected error: %v", err)
			}

			f, err := excelize.OpenFile(path)
			if err != nil {
				t.Fatalf("Failed to open workbook: %v", err)
			}
			defer f.Close()
			if sheets := f.GetSheetList(); !reflect.DeepEqual(sheets, []string{tc.wantSheet}) {
				t.Errorf("sheets = %v, want [%s]", sheets, tc.wantSheet)
			}
			rows, err := f.GetRows(tc.wantSheet)
			if err != nil {
				t.Fatalf("GetRows() error: %v", err)
			}
			want := [][]string{
				{"active", "id", "name"},
				{"true", "1", "Alice"},
				{"", "2", "Bob"},
			}
			if !reflect.DeepEqual(rows, want) {
				t.Errorf("rows = %v, want %v", rows, want)
			}
		})
	}
}

func TestXLSXWriter_Write_Empty(t *testing.T) {
	path := outputPath(t, "empty.xlsx")
	if err := NewXLSXWriter("").Write(nil, path); err != nil {
		t.Fatalf("Write(nil) unexpected error: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("empty workbook not saved: %v", err)
	}
}
