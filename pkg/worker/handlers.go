package worker

import (
	"github.com/csvscope/csvscope/pkg/protocol"
)

// Handlers accept a flat payload and return a plain serializable value.
// They never touch caller-process state.

func (w *Worker) handleLoadCSV(payload map[string]any) (any, error) {
	path, err := protocol.RequireString(payload, "file_path")
	if err != nil {
		return nil, err
	}
	name := protocol.GetString(payload, "table_name", "")

	info, err := w.engine.Load(path, name)
	if err != nil {
		return nil, err
	}
	// A reloaded name must not serve statistics from its previous life.
	w.analyzer.ClearCache(info.Name)
	return info, nil
}

func (w *Worker) handleDropTable(payload map[string]any) (any, error) {
	name, err := protocol.RequireString(payload, "table_name")
	if err != nil {
		return nil, err
	}
	if err := w.engine.DropTable(name); err != nil {
		return nil, err
	}
	w.analyzer.ClearCache(name)
	return true, nil
}

func (w *Worker) handleGetTables(map[string]any) (any, error) {
	return w.engine.Tables(), nil
}

func (w *Worker) handleGetTableInfo(payload map[string]any) (any, error) {
	name, err := protocol.RequireString(payload, "table_name")
	if err != nil {
		return nil, err
	}
	info, ok := w.engine.Table(name)
	if !ok {
		return nil, nil
	}
	return info, nil
}

func (w *Worker) handleExecuteQuery(payload map[string]any) (any, error) {
	sqlQuery, err := protocol.RequireString(payload, "sql")
	if err != nil {
		return nil, err
	}
	limit := protocol.GetInt(payload, "limit", 0)
	offset := protocol.GetInt(payload, "offset", 0)
	return w.engine.Query(sqlQuery, limit, offset), nil
}

func (w *Worker) handleGetTableData(payload map[string]any) (any, error) {
	name, err := protocol.RequireString(payload, "table_name")
	if err != nil {
		return nil, err
	}
	limit := protocol.GetInt(payload, "limit", 0)
	offset := protocol.GetInt(payload, "offset", 0)
	return w.engine.TableData(name, limit, offset), nil
}

func (w *Worker) handleSaveView(payload map[string]any) (any, error) {
	name, err := protocol.RequireString(payload, "view_name")
	if err != nil {
		return nil, err
	}
	sqlQuery, err := protocol.RequireString(payload, "sql")
	if err != nil {
		return nil, err
	}
	if err := w.engine.SaveView(name, sqlQuery); err != nil {
		return nil, err
	}
	return true, nil
}

func (w *Worker) handleGetViews(map[string]any) (any, error) {
	return w.engine.Views(), nil
}

func (w *Worker) handleDeleteView(payload map[string]any) (any, error) {
	name, err := protocol.RequireString(payload, "view_name")
	if err != nil {
		return nil, err
	}
	if err := w.engine.DeleteView(name); err != nil {
		return nil, err
	}
	return true, nil
}

func (w *Worker) handleAnalyzeTable(payload map[string]any) (any, error) {
	name, err := protocol.RequireString(payload, "table_name")
	if err != nil {
		return nil, err
	}
	force := protocol.GetBool(payload, "force_refresh", false)
	return w.analyzer.AnalyzeTable(name, force)
}

func (w *Worker) handleAnalyzeColumn(payload map[string]any) (any, error) {
	table, err := protocol.RequireString(payload, "table_name")
	if err != nil {
		return nil, err
	}
	column, err := protocol.RequireString(payload, "column_name")
	if err != nil {
		return nil, err
	}
	return w.analyzer.AnalyzeColumn(table, column)
}

func (w *Worker) handleAnalyzeQueryColumn(payload map[string]any) (any, error) {
	sqlQuery, err := protocol.RequireString(payload, "sql")
	if err != nil {
		return nil, err
	}
	column, err := protocol.RequireString(payload, "column_name")
	if err != nil {
		return nil, err
	}
	return w.analyzer.AnalyzeColumnFromQuery(sqlQuery, column)
}

func (w *Worker) handleGetMissingReport(payload map[string]any) (any, error) {
	name, err := protocol.RequireString(payload, "table_name")
	if err != nil {
		return nil, err
	}
	return w.analyzer.MissingValueReport(name)
}

func (w *Worker) handleGetNumericSummary(payload map[string]any) (any, error) {
	name, err := protocol.RequireString(payload, "table_name")
	if err != nil {
		return nil, err
	}
	return w.analyzer.NumericSummary(name)
}

func (w *Worker) handleGetColumnDistribution(payload map[string]any) (any, error) {
	table, err := protocol.RequireString(payload, "table_name")
	if err != nil {
		return nil, err
	}
	column, err := protocol.RequireString(payload, "column_name")
	if err != nil {
		return nil, err
	}
	bins := protocol.GetInt(payload, "bins", 0)
	return w.analyzer.ColumnDistribution(table, column, bins)
}

func (w *Worker) handleClearStatsCache(payload map[string]any) (any, error) {
	w.analyzer.ClearCache(protocol.GetString(payload, "table_name", ""))
	return true, nil
}

func (w *Worker) handleExportCSV(payload map[string]any) (any, error) {
	sqlOrTable, err := protocol.RequireString(payload, "sql_or_table")
	if err != nil {
		return nil, err
	}
	dest, err := protocol.RequireString(payload, "output_path")
	if err != nil {
		return nil, err
	}
	isSQL := protocol.GetBool(payload, "is_sql", false)
	if err := w.engine.ExportCSV(sqlOrTable, dest, isSQL); err != nil {
		return nil, err
	}
	return true, nil
}

func (w *Worker) handleShutdown(map[string]any) (any, error) {
	w.running.Store(false)
	return true, nil
}
