// Package protocol defines the typed request/response contract between
// the RPC client and the backend worker. Kinds form a closed set; the
// worker's dispatch table is exhaustive over it.
package protocol

// Kind tags a message with the operation it requests.
type Kind string

const (
	// Table operations.
	KindLoadCSV      Kind = "load_csv"
	KindDropTable    Kind = "drop_table"
	KindGetTables    Kind = "get_tables"
	KindGetTableInfo Kind = "get_table_info"

	// Query operations.
	KindExecuteQuery Kind = "execute_query"
	KindGetTableData Kind = "get_table_data"

	// View operations.
	KindSaveView   Kind = "save_view"
	KindGetViews   Kind = "get_views"
	KindDeleteView Kind = "delete_view"

	// Analysis operations.
	KindAnalyzeTable          Kind = "analyze_table"
	KindAnalyzeColumn         Kind = "analyze_column"
	KindAnalyzeQueryColumn    Kind = "analyze_query_column"
	KindGetMissingReport      Kind = "get_missing_report"
	KindGetNumericSummary     Kind = "get_numeric_summary"
	KindGetColumnDistribution Kind = "get_column_distribution"
	KindClearStatsCache       Kind = "clear_stats_cache"

	// Export operations.
	KindExportCSV Kind = "export_csv"

	// System messages.
	KindShutdown Kind = "shutdown"
)

// Kinds lists every valid message kind.
func Kinds() []Kind {
	return []Kind{
		KindLoadCSV, KindDropTable, KindGetTables, KindGetTableInfo,
		KindExecuteQuery, KindGetTableData,
		KindSaveView, KindGetViews, KindDeleteView,
		KindAnalyzeTable, KindAnalyzeColumn, KindAnalyzeQueryColumn,
		KindGetMissingReport, KindGetNumericSummary, KindGetColumnDistribution,
		KindClearStatsCache,
		KindExportCSV,
		KindShutdown,
	}
}

// Message is one request. ID is unique per client; Payload is a flat
// key-value map of plain serializable values.
type Message struct {
	ID      string         `json:"id"`
	Kind    Kind           `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// Response answers exactly one Message. A Response is meaningful only
// while its request is still awaited; late responses for abandoned ids
// are dropped by the listener.
type Response struct {
	RequestID string `json:"request_id"`
	Success   bool   `json:"success"`
	Data      any    `json:"data"`
	Error     string `json:"error,omitempty"`
}

// OK builds a successful response for the given request id.
func OK(requestID string, data any) Response {
	return Response{RequestID: requestID, Success: true, Data: data}
}

// Fail builds a failed response carrying an error description.
func Fail(requestID, errMsg string) Response {
	return Response{RequestID: requestID, Success: false, Error: errMsg}
}
