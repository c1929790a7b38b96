// Package engine owns the embedded DuckDB connection and every
// operation against it: CSV ingestion, SQL execution with pagination,
// view management, and CSV export.
package engine

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	_ "github.com/marcboeker/go-duckdb"
	"github.com/saintfish/chardet"
	"go.uber.org/zap"

	"github.com/csvscope/csvscope/pkg/apperrors"
	"github.com/csvscope/csvscope/pkg/config"
	"github.com/csvscope/csvscope/pkg/sqlutil"
)

// encodingSampleSize is how many leading bytes feed the charset
// detector. Enough for the detector to converge on real-world files
// without reading gigabyte inputs.
const encodingSampleSize = 100_000

// Engine is the adapter over one in-memory DuckDB database.
// The underlying connection is not safe for concurrent use, so every
// operation serializes behind mu.
type Engine struct {
	mu     sync.Mutex
	db     *sql.DB
	tables map[string]TableInfo
	views  map[string]string
	cfg    config.EngineConfig
	logger *zap.Logger
}

// New opens an in-memory DuckDB database and applies the configured
// thread count and memory limit.
func New(cfg config.EngineConfig, logger *zap.Logger) (*Engine, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	// One owner, one connection. Pooling would defeat the serialization
	// the adapter relies on.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(fmt.Sprintf("SET threads TO %d", cfg.Threads)); err != nil {
		db.Close()
		return nil, fmt.Errorf("set threads: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("SET memory_limit = %s", sqlutil.QuoteLiteral(cfg.MemoryLimit))); err != nil {
		db.Close()
		return nil, fmt.Errorf("set memory_limit: %w", err)
	}

	return &Engine{
		db:     db,
		tables: make(map[string]TableInfo),
		views:  make(map[string]string),
		cfg:    cfg,
		logger: logger.Named("engine"),
	}, nil
}

// Load ingests a CSV file into a new table. When name is empty, the
// table name derives from the file base name. A name collision gets an
// increasing numeric suffix until unique. The ingestion itself is
// fault-tolerant: malformed rows are skipped, and a failed first
// attempt is retried once with the detected encoding passed explicitly.
func (e *Engine) Load(path, name string) (TableInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	info, err := os.Stat(path)
	if err != nil {
		return TableInfo{}, fmt.Errorf("%w: %s", apperrors.ErrSourceNotFound, path)
	}

	encoding := e.detectEncoding(path)

	if name == "" {
		base := filepath.Base(path)
		name = sqlutil.SanitizeTableName(strings.TrimSuffix(base, filepath.Ext(base)))
	}
	if err := sqlutil.ValidateIdentifier(name); err != nil {
		return TableInfo{}, fmt.Errorf("table name: %w", err)
	}

	original := name
	for counter := 1; ; counter++ {
		if _, exists := e.tables[name]; !exists {
			break
		}
		name = fmt.Sprintf("%s_%d", original, counter)
	}

	if err := e.ingest(name, path, encoding); err != nil {
		return TableInfo{}, err
	}

	tableInfo, err := e.introspect(name, path, info.Size(), encoding)
	if err != nil {
		// A table we cannot introspect must not stay registered half-loaded.
		if _, dropErr := e.db.Exec("DROP TABLE IF EXISTS " + sqlutil.Quote(name)); dropErr != nil {
			e.logger.Warn("failed to drop table after introspection failure",
				zap.String("table", name), zap.Error(dropErr))
		}
		return TableInfo{}, err
	}

	e.tables[name] = tableInfo
	e.logger.Info("table loaded",
		zap.String("table", name),
		zap.String("path", path),
		zap.Int64("rows", tableInfo.RowCount),
		zap.String("encoding", encoding))
	return tableInfo, nil
}

// ingest runs CREATE TABLE AS over read_csv_auto, retrying once with an
// explicit encoding when DuckDB's sampling-based attempt fails.
func (e *Engine) ingest(name, path, encoding string) error {
	quotedName := sqlutil.Quote(name)
	quotedPath := sqlutil.QuoteLiteral(path)

	createSQL := fmt.Sprintf(
		"CREATE TABLE %s AS SELECT * FROM read_csv_auto(%s, header=true, ignore_errors=true, sample_size=10000)",
		quotedName, quotedPath)
	_, err := e.db.Exec(createSQL)
	if err == nil {
		return nil
	}
	e.logger.Debug("default ingestion failed, retrying with detected encoding",
		zap.String("table", name), zap.String("encoding", encoding), zap.Error(err))

	// CREATE TABLE AS is atomic, but clear any leftover before retrying.
	if _, dropErr := e.db.Exec("DROP TABLE IF EXISTS " + quotedName); dropErr != nil {
		return fmt.Errorf("ingest %s: %w", path, dropErr)
	}

	retrySQL := fmt.Sprintf(
		"CREATE TABLE %s AS SELECT * FROM read_csv_auto(%s, header=true, ignore_errors=true, encoding=%s)",
		quotedName, quotedPath, sqlutil.QuoteLiteral(duckdbEncoding(encoding)))
	if _, err := e.db.Exec(retrySQL); err != nil {
		return fmt.Errorf("ingest %s: %w", path, err)
	}
	return nil
}

// introspect reads back the row count and schema of a freshly created table.
func (e *Engine) introspect(name, path string, fileSize int64, encoding string) (TableInfo, error) {
	quotedName := sqlutil.Quote(name)

	var rowCount int64
	if err := e.db.QueryRow("SELECT COUNT(*) FROM " + quotedName).Scan(&rowCount); err != nil {
		return TableInfo{}, fmt.Errorf("count rows of %s: %w", name, err)
	}

	rows, err := e.db.Query("DESCRIBE " + quotedName)
	if err != nil {
		return TableInfo{}, fmt.Errorf("describe %s: %w", name, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return TableInfo{}, fmt.Errorf("describe %s: %w", name, err)
	}

	var columns []ColumnInfo
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return TableInfo{}, fmt.Errorf("describe %s: %w", name, err)
		}
		// DESCRIBE yields column_name, column_type, null, key, default, extra.
		columns = append(columns, ColumnInfo{
			Name:  asString(vals[0]),
			Dtype: asString(vals[1]),
		})
	}
	if err := rows.Err(); err != nil {
		return TableInfo{}, fmt.Errorf("describe %s: %w", name, err)
	}

	return TableInfo{
		Name:     name,
		FilePath: path,
		RowCount: rowCount,
		Columns:  columns,
		FileSize: fileSize,
		Encoding: encoding,
	}, nil
}

// detectEncoding samples the head of the file. Detection failure is not
// fatal; utf-8 is the fallback.
func (e *Engine) detectEncoding(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return "utf-8"
	}
	defer f.Close()

	buf := make([]byte, encodingSampleSize)
	n, err := f.Read(buf)
	if n == 0 || (err != nil && n <= 0) {
		return "utf-8"
	}

	result, err := chardet.NewTextDetector().DetectBest(buf[:n])
	if err != nil || result.Charset == "" {
		return "utf-8"
	}
	return result.Charset
}

// duckdbEncoding maps a detected charset name onto the encodings
// read_csv accepts.
func duckdbEncoding(charset string) string {
	switch {
	case strings.HasPrefix(strings.ToUpper(charset), "UTF-16"):
		return "utf-16"
	case strings.EqualFold(charset, "ISO-8859-1"),
		strings.EqualFold(charset, "windows-1252"):
		return "latin-1"
	default:
		return "utf-8"
	}
}

// Query executes arbitrary SQL with pagination. SELECT-shaped
// statements are counted first via a wrapped COUNT(*) and then
// re-executed bounded by limit/offset; everything else executes
// directly and returns an empty result shape. Engine failures never
// escape as errors: they land in QueryResult.Error.
func (e *Engine) Query(sqlQuery string, limit, offset int) QueryResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.queryLocked(sqlQuery, limit, offset)
}

func (e *Engine) queryLocked(sqlQuery string, limit, offset int) QueryResult {
	start := time.Now()
	fail := func(err error) QueryResult {
		e.logger.Debug("query failed", zap.Error(err))
		return QueryResult{
			Columns:       []string{},
			Rows:          [][]any{},
			ExecutionTime: time.Since(start).Seconds(),
			Error:         err.Error(),
		}
	}

	normalized, err := sqlutil.Normalize(sqlQuery)
	if err != nil {
		return fail(err)
	}
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if offset < 0 {
		offset = 0
	}

	if !sqlutil.IsSelect(normalized) {
		if _, err := e.db.Exec(normalized); err != nil {
			return fail(err)
		}
		return QueryResult{
			Columns:       []string{},
			Rows:          [][]any{},
			ExecutionTime: time.Since(start).Seconds(),
		}
	}

	var totalRows int64
	countSQL := fmt.Sprintf("SELECT COUNT(*) FROM (%s) AS _count_query", normalized)
	if err := e.db.QueryRow(countSQL).Scan(&totalRows); err != nil {
		return fail(err)
	}

	pagedSQL := fmt.Sprintf("%s LIMIT %d OFFSET %d", normalized, limit, offset)
	rows, err := e.db.Query(pagedSQL)
	if err != nil {
		return fail(err)
	}
	defer rows.Close()

	columns, data, err := scanAll(rows)
	if err != nil {
		return fail(err)
	}

	return QueryResult{
		Columns:       columns,
		Rows:          data,
		RowCount:      len(data),
		TotalRows:     totalRows,
		ExecutionTime: time.Since(start).Seconds(),
	}
}

// TableData returns one page of a table's rows.
func (e *Engine) TableData(name string, limit, offset int) QueryResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := sqlutil.ValidateIdentifier(name); err != nil {
		return QueryResult{Columns: []string{}, Rows: [][]any{}, Error: err.Error()}
	}
	return e.queryLocked("SELECT * FROM "+sqlutil.Quote(name), limit, offset)
}

// SaveView creates or replaces a named view over the given SQL.
func (e *Engine) SaveView(name, viewSQL string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := sqlutil.ValidateIdentifier(name); err != nil {
		return fmt.Errorf("view name: %w", err)
	}
	normalized, err := sqlutil.Normalize(viewSQL)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf("CREATE OR REPLACE VIEW %s AS %s", sqlutil.Quote(name), normalized)
	if _, err := e.db.Exec(stmt); err != nil {
		return fmt.Errorf("create view %s: %w", name, err)
	}
	e.views[name] = normalized
	return nil
}

// Views returns a copy of the view registry (name to defining SQL).
func (e *Engine) Views() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make(map[string]string, len(e.views))
	for k, v := range e.views {
		out[k] = v
	}
	return out
}

// DeleteView drops a view. Absence is not an error.
func (e *Engine) DeleteView(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := sqlutil.ValidateIdentifier(name); err != nil {
		return fmt.Errorf("view name: %w", err)
	}
	if _, err := e.db.Exec("DROP VIEW IF EXISTS " + sqlutil.Quote(name)); err != nil {
		return fmt.Errorf("drop view %s: %w", name, err)
	}
	delete(e.views, name)
	return nil
}

// DropTable drops a table and forgets its registration. Absence is not
// an error.
func (e *Engine) DropTable(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := sqlutil.ValidateIdentifier(name); err != nil {
		return fmt.Errorf("table name: %w", err)
	}
	if _, err := e.db.Exec("DROP TABLE IF EXISTS " + sqlutil.Quote(name)); err != nil {
		return fmt.Errorf("drop table %s: %w", name, err)
	}
	delete(e.tables, name)
	e.logger.Info("table dropped", zap.String("table", name))
	return nil
}

// Tables returns all registered tables, sorted by name.
func (e *Engine) Tables() []TableInfo {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]TableInfo, 0, len(e.tables))
	for _, t := range e.tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Table looks up a registered table by name.
func (e *Engine) Table(name string) (TableInfo, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tables[name]
	return t, ok
}

// ExportCSV materializes a query or a full table to a comma-delimited
// file with a header row.
func (e *Engine) ExportCSV(sqlOrTable, destination string, isSQL bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var query string
	if isSQL {
		normalized, err := sqlutil.Normalize(sqlOrTable)
		if err != nil {
			return err
		}
		query = normalized
	} else {
		if err := sqlutil.ValidateIdentifier(sqlOrTable); err != nil {
			return fmt.Errorf("table name: %w", err)
		}
		query = "SELECT * FROM " + sqlutil.Quote(sqlOrTable)
	}

	stmt := fmt.Sprintf("COPY (%s) TO %s (HEADER, DELIMITER ',')",
		query, sqlutil.QuoteLiteral(destination))
	if _, err := e.db.Exec(stmt); err != nil {
		return fmt.Errorf("export to %s: %w", destination, err)
	}
	e.logger.Info("exported csv", zap.String("destination", destination))
	return nil
}

// ScanRow runs a single-row query under the adapter's lock. The
// statistics engine issues its aggregate probes through this.
func (e *Engine) ScanRow(query string, dest ...any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.QueryRow(query).Scan(dest...)
}

// RawQuery runs a multi-row query under the adapter's lock, returning
// column names and row values.
func (e *Engine) RawQuery(query string) ([]string, [][]any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	rows, err := e.db.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()
	return scanAll(rows)
}

// Close releases the database connection.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

func scanAll(rows *sql.Rows) ([]string, [][]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("read columns: %w", err)
	}

	data := make([][]any, 0)
	for rows.Next() {
		vals := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, fmt.Errorf("scan row: %w", err)
		}
		data = append(data, vals)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate rows: %w", err)
	}
	return columns, data, nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprintf("%v", s)
	}
}
