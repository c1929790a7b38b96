package client

import (
	"time"

	"github.com/csvscope/csvscope/pkg/protocol"
)

// Per-kind convenience wrappers. Each translates typed arguments into
// the generic payload shape and calls with the configured timeout.

func (c *Client) call(kind protocol.Kind, payload map[string]any) protocol.Response {
	return c.Call(kind, payload, c.cfg.Client.CallTimeout)
}

// LoadCSV ingests a file; tableName may be empty to derive one.
func (c *Client) LoadCSV(filePath, tableName string) protocol.Response {
	payload := protocol.Payload("file_path", filePath)
	if tableName != "" {
		payload["table_name"] = tableName
	}
	return c.call(protocol.KindLoadCSV, payload)
}

// DropTable removes a table.
func (c *Client) DropTable(tableName string) protocol.Response {
	return c.call(protocol.KindDropTable, protocol.Payload("table_name", tableName))
}

// Tables lists all loaded tables.
func (c *Client) Tables() protocol.Response {
	return c.call(protocol.KindGetTables, nil)
}

// TableInfo fetches one table's registration.
func (c *Client) TableInfo(tableName string) protocol.Response {
	return c.call(protocol.KindGetTableInfo, protocol.Payload("table_name", tableName))
}

// ExecuteQuery runs SQL with pagination.
func (c *Client) ExecuteQuery(sql string, limit, offset int) protocol.Response {
	return c.call(protocol.KindExecuteQuery,
		protocol.Payload("sql", sql, "limit", limit, "offset", offset))
}

// ExecuteQueryTimeout runs SQL with pagination and a caller-chosen timeout.
func (c *Client) ExecuteQueryTimeout(sql string, limit, offset int, timeout time.Duration) protocol.Response {
	return c.Call(protocol.KindExecuteQuery,
		protocol.Payload("sql", sql, "limit", limit, "offset", offset), timeout)
}

// TableData reads one page of a table.
func (c *Client) TableData(tableName string, limit, offset int) protocol.Response {
	return c.call(protocol.KindGetTableData,
		protocol.Payload("table_name", tableName, "limit", limit, "offset", offset))
}

// SaveView creates or replaces a named view.
func (c *Client) SaveView(viewName, sql string) protocol.Response {
	return c.call(protocol.KindSaveView,
		protocol.Payload("view_name", viewName, "sql", sql))
}

// Views lists saved views.
func (c *Client) Views() protocol.Response {
	return c.call(protocol.KindGetViews, nil)
}

// DeleteView drops a view.
func (c *Client) DeleteView(viewName string) protocol.Response {
	return c.call(protocol.KindDeleteView, protocol.Payload("view_name", viewName))
}

// AnalyzeTable computes or fetches cached table statistics.
func (c *Client) AnalyzeTable(tableName string, forceRefresh bool) protocol.Response {
	return c.call(protocol.KindAnalyzeTable,
		protocol.Payload("table_name", tableName, "force_refresh", forceRefresh))
}

// AnalyzeColumn profiles one column of a table.
func (c *Client) AnalyzeColumn(tableName, columnName string) protocol.Response {
	return c.call(protocol.KindAnalyzeColumn,
		protocol.Payload("table_name", tableName, "column_name", columnName))
}

// AnalyzeQueryColumn profiles one column of an ad-hoc query result.
func (c *Client) AnalyzeQueryColumn(sql, columnName string) protocol.Response {
	return c.call(protocol.KindAnalyzeQueryColumn,
		protocol.Payload("sql", sql, "column_name", columnName))
}

// MissingReport fetches the missing-value report for a table.
func (c *Client) MissingReport(tableName string) protocol.Response {
	return c.call(protocol.KindGetMissingReport, protocol.Payload("table_name", tableName))
}

// NumericSummary fetches the numeric-columns summary for a table.
func (c *Client) NumericSummary(tableName string) protocol.Response {
	return c.call(protocol.KindGetNumericSummary, protocol.Payload("table_name", tableName))
}

// ColumnDistribution fetches a histogram or frequency table.
func (c *Client) ColumnDistribution(tableName, columnName string, bins int) protocol.Response {
	return c.call(protocol.KindGetColumnDistribution,
		protocol.Payload("table_name", tableName, "column_name", columnName, "bins", bins))
}

// ClearStatsCache drops cached statistics; empty tableName clears all.
func (c *Client) ClearStatsCache(tableName string) protocol.Response {
	payload := map[string]any{}
	if tableName != "" {
		payload["table_name"] = tableName
	}
	return c.call(protocol.KindClearStatsCache, payload)
}

// ExportCSV materializes a table or query to a CSV file.
func (c *Client) ExportCSV(sqlOrTable, outputPath string, isSQL bool) protocol.Response {
	return c.call(protocol.KindExportCSV,
		protocol.Payload("sql_or_table", sqlOrTable, "output_path", outputPath, "is_sql", isSQL))
}
