package io

// OutputWriter writes processed records to a destination.
type OutputWriter interface {
	// Write sends records to the destination. For file writers pathOrTable is the output
	// file path; database writers use their configured table and ignore it.
	Write(records []map[string]interface{}, pathOrTable string) error

	// Close releases any resources held by the writer. It is safe to call more than once.
	Close() error
}
