package config

// Configuration keys, types and defaults.
const (
	DestinationTypeJSON     = "json"
	DestinationTypeYAML     = "yaml"
	DestinationTypeXLSX     = "xlsx"
	DestinationTypePostgres = "postgres"

	LoaderModeSQL = "sql" // Custom SQL per record instead of COPY FROM

	DedupStrategyFirst = "first"
	DedupStrategyLast  = "last"
	DedupStrategyMin   = "min" // Keep the record with the smallest StrategyField value
	DedupStrategyMax   = "max"

	DefaultLogLevel        = "info"
	DefaultColumnPrefix    = "column_"
	DefaultSheetName       = "Sheet1"
	DefaultLoaderBatchSize = 0 // 0 means one transaction per record for custom SQL
	DefaultDedupStrategy   = DedupStrategyFirst
)

// Config is the structure of the csvrows YAML configuration file.
type Config struct {
	// Logging sets the verbosity level.
	Logging LoggingConfig `yaml:"logging"`
	// Source describes the delimited input file.
	Source SourceConfig `yaml:"source"`
	// Filter is an optional govaluate expression evaluated against each record.
	// Records for which it is false are dropped before mappings run.
	// Example: "status == 'active' && amount > 0"
	Filter string `yaml:"filter,omitempty"`
	// Mappings select, rename and convert columns. With no mappings every column is kept as is.
	Mappings []MappingRule `yaml:"mappings,omitempty"`
	// Dedup optionally collapses records sharing the same key columns (first record wins by default).
	Dedup *DedupConfig `yaml:"dedup,omitempty"`
	// Destination describes where records are written.
	Destination DestinationConfig `yaml:"destination"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is one of "none", "error", "warn", "info", "debug". Defaults to "info".
	Level string `yaml:"level"`
}

// SourceConfig describes the input file.
type SourceConfig struct {
	// File is the path of the delimited text file. Environment variables are expanded.
	File string `yaml:"file"`
	// Header, when true, takes column names from the first line.
	Header bool `yaml:"header,omitempty"`
	// ColumnPrefix names columns without a header: prefix + 1-based position. Defaults to "column_".
	ColumnPrefix string `yaml:"columnPrefix,omitempty"`
}

// MappingRule copies one column into the output record, optionally converting it.
type MappingRule struct {
	// Source column name (or an earlier mapping's target). Required.
	Source string `yaml:"source"`
	// Target column name in the output record. Required.
	Target string `yaml:"target"`
	// Transform names the conversion applied to the value (e.g. "trim", "toInt"). Optional.
	Transform string `yaml:"transform,omitempty"`
	// Params configures the transform (e.g. "old"/"new" for replaceAll). Optional.
	Params map[string]interface{} `yaml:"params,omitempty"`
}

// DedupConfig lists the columns forming a record's identity and which duplicate survives.
type DedupConfig struct {
	// Keys are output column names. Required.
	Keys []string `yaml:"keys"`
	// Strategy is one of "first", "last", "min", "max". Defaults to "first".
	Strategy string `yaml:"strategy,omitempty"`
	// StrategyField is the column compared by the "min" and "max" strategies.
	StrategyField string `yaml:"strategyField,omitempty"`
}

// DestinationConfig describes the output.
type DestinationConfig struct {
	// Type is one of "json", "yaml", "xlsx", "postgres". Required.
	Type string `yaml:"type"`
	// File is the output path for file destinations. Environment variables are expanded.
	File string `yaml:"file,omitempty"`
	// TargetTable is the table for "postgres". Required for that type.
	TargetTable string `yaml:"target_table,omitempty"`
	// Loader configures custom SQL loading for "postgres".
	Loader *LoaderConfig `yaml:"loader,omitempty"`
	// SheetName is the XLSX sheet to write. Defaults to "Sheet1".
	SheetName string `yaml:"sheetName,omitempty"`
	// RunIDColumn, when set, stamps every record with the run identifier under this name.
	RunIDColumn string `yaml:"runIdColumn,omitempty"`
}

// LoaderConfig holds PostgreSQL loading settings.
type LoaderConfig struct {
	// Mode is "" for COPY FROM or "sql" for Command per record.
	Mode string `yaml:"mode,omitempty"`
	// Command is the SQL run per record in "sql" mode. Placeholders $1..$n follow the
	// alphabetical order of the record's column names.
	Command string `yaml:"command,omitempty"`
	// Preload commands run once before loading, in one transaction.
	Preload []string `yaml:"preload,omitempty"`
	// Postload commands run once after loading, in one transaction.
	Postload []string `yaml:"postload,omitempty"`
	// BatchSize groups records per transaction in "sql" mode; 0 disables batching.
	BatchSize int `yaml:"batch_size,omitempty"`
}
