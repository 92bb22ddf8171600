package io

import (
	"fmt"
	"strconv"

	"csvrows/internal/config"
	"csvrows/internal/logging"

	"github.com/xuri/excelize/v2"
)

// XLSXWriter writes records to one sheet of an Excel workbook: a header row of
// sorted column names followed by one row per record.
type XLSXWriter struct {
	sheetName string
}

// NewXLSXWriter creates an XLSXWriter. An empty sheetName means config.DefaultSheetName.
func NewXLSXWriter(sheetName string) *XLSXWriter {
	if sheetName == "" {
		sheetName = config.DefaultSheetName
	}
	return &XLSXWriter{sheetName: sheetName}
}

// Write saves records to a new workbook at filePath, replacing any existing file.
func (xw *XLSXWriter) Write(records []map[string]interface{}, filePath string) error {
	logging.Logf(logging.Debug, "XLSXWriter writing %d records to file: %s (Sheet: '%s')", len(records), filePath, xw.sheetName)
	if err := ensureDir("XLSXWriter", filePath); err != nil {
		return err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			logging.Logf(logging.Warning, "XLSXWriter: failed to close workbook: %v", err)
		}
	}()

	// A new workbook always holds the default sheet; rename it rather than add another.
	if xw.sheetName != config.DefaultSheetName {
		if err := f.SetSheetName(config.DefaultSheetName, xw.sheetName); err != nil {
			return fmt.Errorf("XLSXWriter failed to name sheet '%s': %w", xw.sheetName, err)
		}
	}
	index, err := f.GetSheetIndex(xw.sheetName)
	if err != nil || index == -1 {
		return fmt.Errorf("XLSXWriter: sheet '%s' is not usable (index %d): %v", xw.sheetName, index, err)
	}
	f.SetActiveSheet(index)

	columns := columnsOf(records)
	if len(columns) > 0 {
		header := make([]interface{}, len(columns))
		for i, c := range columns {
			header[i] = c
		}
		if err := f.SetSheetRow(xw.sheetName, "A1", &header); err != nil {
			return fmt.Errorf("XLSXWriter failed to write header row to sheet '%s': %w", xw.sheetName, err)
		}
	}

	for i, rec := range records {
		row := rowValues(rec, columns)
		for j, v := range row {
			if b, ok := v.(bool); ok {
				row[j] = strconv.FormatBool(b)
			}
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return fmt.Errorf("XLSXWriter failed to calculate cell coordinates for record %d: %w", i, err)
		}
		if err := f.SetSheetRow(xw.sheetName, cell, &row); err != nil {
			return fmt.Errorf("XLSXWriter failed to write record %d to sheet '%s': %w", i, xw.sheetName, err)
		}
	}

	if err := f.SaveAs(filePath); err != nil {
		return fmt.Errorf("XLSXWriter failed to save file '%s': %w", filePath, err)
	}
	logging.Logf(logging.Info, "XLSXWriter wrote %d rows (plus header) to sheet '%s' in %s", len(records), xw.sheetName, filePath)
	return nil
}

// Close is a no-op; the workbook is closed inside Write.
func (xw *XLSXWriter) Close() error {
	return nil
}
