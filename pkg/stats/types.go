package stats

// NumericStats is the numeric statistics group of a column. Every field
// is optional: a null in the engine result (empty column, NaN) leaves
// the field nil without voiding the group.
type NumericStats struct {
	Min    *float64 `json:"min"`
	Max    *float64 `json:"max"`
	Mean   *float64 `json:"mean"`
	Median *float64 `json:"median"`
	Std    *float64 `json:"std"`
	Q1     *float64 `json:"q1"`
	Q3     *float64 `json:"q3"`
}

// StringStats is the character-length statistics group of a column.
type StringStats struct {
	MinLength *int64   `json:"min_length"`
	MaxLength *int64   `json:"max_length"`
	AvgLength *float64 `json:"avg_length"`
}

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int64  `json:"count"`
}

// ColumnStats holds the full per-column analysis. The optional groups
// (Numeric, String, TopValues) are absent when their computation failed
// or does not apply to the column's dtype category.
type ColumnStats struct {
	Name             string        `json:"name"`
	Dtype            string        `json:"dtype"`
	TotalCount       int64         `json:"total_count"`
	NullCount        int64         `json:"null_count"`
	NullPercentage   float64       `json:"null_percentage"`
	UniqueCount      int64         `json:"unique_count"`
	UniquePercentage float64       `json:"unique_percentage"`
	Numeric          *NumericStats `json:"numeric,omitempty"`
	String           *StringStats  `json:"string,omitempty"`
	TopValues        []ValueCount  `json:"top_values,omitempty"`
}

// TableStats is the cached whole-table analysis.
type TableStats struct {
	TableName    string           `json:"table_name"`
	RowCount     int64            `json:"row_count"`
	ColumnCount  int              `json:"column_count"`
	MemoryUsage  int64            `json:"memory_usage"`
	Columns      []ColumnStats    `json:"columns"`
	NullSummary  map[string]int64 `json:"null_summary"`
	DtypeSummary map[string]int   `json:"dtype_summary"`
}

// ColumnReport is the flattened single-column analysis shape.
type ColumnReport struct {
	ColumnName        string        `json:"column_name"`
	Dtype             string        `json:"dtype"`
	TotalRows         int64         `json:"total_rows"`
	UniqueCount       int64         `json:"unique_count"`
	MissingCount      int64         `json:"missing_count"`
	MissingPercentage float64       `json:"missing_percentage"`
	IsNumeric         bool          `json:"is_numeric"`
	TopValues         []ValueCount  `json:"top_values"`
	NumericStats      *NumericStats `json:"numeric_stats,omitempty"`
	StringStats       *StringStats  `json:"string_stats,omitempty"`
}

// MissingColumn is one column's null accounting in a missing-value report.
type MissingColumn struct {
	Name           string  `json:"name"`
	NullCount      int64   `json:"null_count"`
	NullPercentage float64 `json:"null_percentage"`
	HasMissing     bool    `json:"has_missing"`
}

// MissingSummary aggregates missing cells across the whole table.
type MissingSummary struct {
	TotalCells        int64   `json:"total_cells"`
	TotalMissing      int64   `json:"total_missing"`
	MissingPercentage float64 `json:"missing_percentage"`
}

// MissingReport is the table-wide missing-value report.
type MissingReport struct {
	TableName    string          `json:"table_name"`
	TotalRows    int64           `json:"total_rows"`
	TotalColumns int             `json:"total_columns"`
	Columns      []MissingColumn `json:"columns"`
	Summary      MissingSummary  `json:"summary"`
}

// NumericColumnSummary is one numeric column in a numeric summary.
type NumericColumnSummary struct {
	Name           string        `json:"name"`
	Dtype          string        `json:"dtype"`
	Stats          *NumericStats `json:"stats"`
	NullCount      int64         `json:"null_count"`
	NullPercentage float64       `json:"null_percentage"`
}

// NumericSummary filters a table analysis down to numeric columns.
type NumericSummary struct {
	TableName          string                 `json:"table_name"`
	NumericColumnCount int                    `json:"numeric_column_count"`
	Columns            []NumericColumnSummary `json:"columns"`
}

// HistogramBin is one equal-width bucket of a numeric distribution.
type HistogramBin struct {
	Bin   int64 `json:"bin"`
	Count int64 `json:"count"`
}

// Histogram is an equal-width distribution over a numeric column.
type Histogram struct {
	Bins     int            `json:"bins"`
	Min      float64        `json:"min"`
	Max      float64        `json:"max"`
	BinWidth float64        `json:"bin_width"`
	Data     []HistogramBin `json:"data"`
}

// Distribution describes how a column's values are spread: a histogram
// for numeric columns, a frequency table for everything else. An error
// in the distribution computation itself lands in Error rather than
// failing the call.
type Distribution struct {
	TableName  string       `json:"table_name"`
	ColumnName string       `json:"column_name"`
	Dtype      string       `json:"dtype"`
	Histogram  *Histogram   `json:"histogram,omitempty"`
	Frequency  []ValueCount `json:"frequency,omitempty"`
	Error      string       `json:"error,omitempty"`
}
