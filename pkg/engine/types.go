package engine

// ColumnInfo describes one column as reported by DESCRIBE.
type ColumnInfo struct {
	Name  string `json:"name"`
	Dtype string `json:"dtype"`
}

// TableInfo records a successfully ingested CSV table. Instances are
// immutable after registration; dropping the table removes the entry.
type TableInfo struct {
	Name     string       `json:"name"`
	FilePath string       `json:"file_path"`
	RowCount int64        `json:"row_count"`
	Columns  []ColumnInfo `json:"columns"`
	FileSize int64        `json:"file_size"`
	Encoding string       `json:"encoding"`
}

// QueryResult holds one page of query output. Engine-level failures are
// captured in Error rather than surfaced as Go errors, so a failed query
// still produces a well-formed result.
type QueryResult struct {
	Columns       []string `json:"columns"`
	Rows          [][]any  `json:"data"`
	RowCount      int      `json:"row_count"`
	TotalRows     int64    `json:"total_rows"`
	ExecutionTime float64  `json:"execution_time"`
	Error         string   `json:"error,omitempty"`
}
