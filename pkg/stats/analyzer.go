// Package stats derives per-column and per-table statistics by issuing
// aggregate SQL through the engine adapter. Individual statistic groups
// tolerate failure: a group that cannot be computed is absent from the
// result, and the rest of the analysis proceeds.
package stats

import (
	"fmt"
	"math"
	"strconv"

	gocache "github.com/patrickmn/go-cache"
	"go.uber.org/zap"

	"github.com/csvscope/csvscope/pkg/apperrors"
	"github.com/csvscope/csvscope/pkg/engine"
	"github.com/csvscope/csvscope/pkg/sqlutil"
)

// memoryBytesPerRow is the fixed per-row constant behind the memory
// estimate. A heuristic, not a measurement; DuckDB does not report
// per-table memory for in-memory databases.
const memoryBytesPerRow = 100

// topValuesLimit bounds the frequency table attached to every column.
const topValuesLimit = 10

// Analyzer computes statistics over tables owned by one engine
// adapter. Whole-table results are cached by table name; the cache is
// only invalidated explicitly (ClearCache, forceRefresh) or by the
// worker on structural mutation.
type Analyzer struct {
	engine *engine.Engine
	cache  *gocache.Cache
	logger *zap.Logger
}

// New creates an analyzer over the given engine.
func New(eng *engine.Engine, logger *zap.Logger) *Analyzer {
	return &Analyzer{
		engine: eng,
		cache:  gocache.New(gocache.NoExpiration, 0),
		logger: logger.Named("stats"),
	}
}

// AnalyzeTable computes (or returns the cached) whole-table statistics.
func (a *Analyzer) AnalyzeTable(tableName string, forceRefresh bool) (*TableStats, error) {
	if !forceRefresh {
		if cached, ok := a.cache.Get(tableName); ok {
			return cached.(*TableStats), nil
		}
	}

	info, ok := a.engine.Table(tableName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrTableNotFound, tableName)
	}

	stats := &TableStats{
		TableName:    tableName,
		RowCount:     info.RowCount,
		ColumnCount:  len(info.Columns),
		MemoryUsage:  info.RowCount * memoryBytesPerRow,
		Columns:      make([]ColumnStats, 0, len(info.Columns)),
		NullSummary:  make(map[string]int64),
		DtypeSummary: make(map[string]int),
	}

	for _, col := range info.Columns {
		stats.DtypeSummary[CategorizeDtype(col.Dtype)]++

		colStats, err := a.analyzeColumn(tableName, col.Name, col.Dtype)
		if err != nil {
			return nil, err
		}
		stats.Columns = append(stats.Columns, colStats)
		stats.NullSummary[col.Name] = colStats.NullCount
	}

	a.cache.Set(tableName, stats, gocache.NoExpiration)
	return stats, nil
}

// AnalyzeColumn computes the flattened report for one column without
// scanning the rest of the table. Unknown table or column names error
// immediately.
func (a *Analyzer) AnalyzeColumn(tableName, columnName string) (*ColumnReport, error) {
	info, ok := a.engine.Table(tableName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrTableNotFound, tableName)
	}

	var dtype string
	found := false
	for _, col := range info.Columns {
		if col.Name == columnName {
			dtype = col.Dtype
			found = true
			break
		}
	}
	if !found {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrColumnNotFound, columnName)
	}

	colStats, err := a.analyzeColumn(tableName, columnName, dtype)
	if err != nil {
		return nil, err
	}

	report := &ColumnReport{
		ColumnName:        columnName,
		Dtype:             dtype,
		TotalRows:         colStats.TotalCount,
		UniqueCount:       colStats.UniqueCount,
		MissingCount:      colStats.NullCount,
		MissingPercentage: colStats.NullPercentage,
		IsNumeric:         IsNumericDtype(dtype),
		TopValues:         colStats.TopValues,
		NumericStats:      colStats.Numeric,
		StringStats:       colStats.String,
	}
	if report.TopValues == nil {
		report.TopValues = []ValueCount{}
	}
	return report, nil
}

// analyzeColumn runs the per-column probes: one base-count query, then
// the dtype-appropriate statistics group, then the top-value frequency
// table. Group failures are logged and leave the group absent.
func (a *Analyzer) analyzeColumn(tableName, columnName, dtype string) (ColumnStats, error) {
	table := sqlutil.Quote(tableName)
	column := sqlutil.Quote(columnName)

	var totalCount, nonNullCount, uniqueCount int64
	baseSQL := fmt.Sprintf(
		"SELECT COUNT(*), COUNT(%s), COUNT(DISTINCT %s) FROM %s",
		column, column, table)
	if err := a.engine.ScanRow(baseSQL, &totalCount, &nonNullCount, &uniqueCount); err != nil {
		return ColumnStats{}, fmt.Errorf("base counts for %s.%s: %w", tableName, columnName, err)
	}

	nullCount := totalCount - nonNullCount
	colStats := ColumnStats{
		Name:             columnName,
		Dtype:            dtype,
		TotalCount:       totalCount,
		NullCount:        nullCount,
		NullPercentage:   percentage(nullCount, totalCount),
		UniqueCount:      uniqueCount,
		UniquePercentage: percentage(uniqueCount, totalCount),
	}

	switch {
	case IsNumericDtype(dtype):
		numeric, err := a.numericStats(table, column)
		if err != nil {
			a.logger.Warn("numeric stats failed",
				zap.String("table", tableName),
				zap.String("column", columnName),
				zap.Error(err))
		} else {
			colStats.Numeric = numeric
		}
	case CategorizeDtype(dtype) == CategoryString:
		str, err := a.stringStats(table, column)
		if err != nil {
			a.logger.Warn("string stats failed",
				zap.String("table", tableName),
				zap.String("column", columnName),
				zap.Error(err))
		} else {
			colStats.String = str
		}
	}

	top, err := a.topValues(fmt.Sprintf("FROM %s", table), column, topValuesLimit)
	if err != nil {
		a.logger.Warn("top values failed",
			zap.String("table", tableName),
			zap.String("column", columnName),
			zap.Error(err))
	} else {
		colStats.TopValues = top
	}

	return colStats, nil
}

// numericStats runs the single aggregate query for the numeric group.
// column and the FROM target are pre-quoted by the caller.
func (a *Analyzer) numericStats(table, column string) (*NumericStats, error) {
	query := fmt.Sprintf(`SELECT
		MIN(%[1]s), MAX(%[1]s), AVG(%[1]s), MEDIAN(%[1]s), STDDEV_POP(%[1]s),
		QUANTILE_CONT(%[1]s, 0.25), QUANTILE_CONT(%[1]s, 0.75)
		FROM %[2]s WHERE %[1]s IS NOT NULL`, column, table)
	return a.scanNumericStats(query)
}

func (a *Analyzer) scanNumericStats(query string) (*NumericStats, error) {
	var minV, maxV, mean, median, std, q1, q3 nullFloat
	if err := a.engine.ScanRow(query, &minV, &maxV, &mean, &median, &std, &q1, &q3); err != nil {
		return nil, err
	}
	return &NumericStats{
		Min:    minV.ptr(),
		Max:    maxV.ptr(),
		Mean:   mean.ptr(),
		Median: median.ptr(),
		Std:    std.ptr(),
		Q1:     q1.ptr(),
		Q3:     q3.ptr(),
	}, nil
}

// stringStats runs the single aggregate query for the length group.
func (a *Analyzer) stringStats(table, column string) (*StringStats, error) {
	query := fmt.Sprintf(`SELECT
		MIN(LENGTH(%[1]s)), MAX(LENGTH(%[1]s)), AVG(LENGTH(%[1]s))
		FROM %[2]s WHERE %[1]s IS NOT NULL`, column, table)

	var minLen, maxLen nullInt
	var avgLen nullFloat
	if err := a.engine.ScanRow(query, &minLen, &maxLen, &avgLen); err != nil {
		return nil, err
	}

	stats := &StringStats{
		MinLength: minLen.ptr(),
		MaxLength: maxLen.ptr(),
	}
	if p := avgLen.ptr(); p != nil {
		rounded := roundTo(*p, 2)
		stats.AvgLength = &rounded
	}
	return stats, nil
}

// topValues returns the most frequent non-null values with counts.
// fromClause is a pre-quoted "FROM ..." fragment so the same probe
// serves tables and wrapped subqueries.
func (a *Analyzer) topValues(fromClause, column string, limit int) ([]ValueCount, error) {
	query := fmt.Sprintf(`SELECT %[1]s AS value, COUNT(*) AS count
		%[2]s WHERE %[1]s IS NOT NULL
		GROUP BY %[1]s ORDER BY count DESC LIMIT %[3]d`, column, fromClause, limit)

	_, rows, err := a.engine.RawQuery(query)
	if err != nil {
		return nil, err
	}

	out := make([]ValueCount, 0, len(rows))
	for _, row := range rows {
		out = append(out, ValueCount{
			Value: renderValue(row[0]),
			Count: asInt64(row[1]),
		})
	}
	return out, nil
}

// ClearCache drops the cached analysis for one table, or every table
// when tableName is empty.
func (a *Analyzer) ClearCache(tableName string) {
	if tableName == "" {
		a.cache.Flush()
		return
	}
	a.cache.Delete(tableName)
}

func percentage(part, total int64) float64 {
	if total == 0 {
		return 0
	}
	return roundTo(float64(part)/float64(total)*100, 2)
}

func roundTo(v float64, places int) float64 {
	factor := math.Pow(10, float64(places))
	return math.Round(v*factor) / factor
}

// renderValue stringifies an engine value for frequency tables.
func renderValue(v any) string {
	switch s := v.(type) {
	case nil:
		return "NULL"
	case string:
		return s
	case []byte:
		return string(s)
	case float64:
		return strconv.FormatFloat(s, 'g', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(s), 'g', -1, 32)
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case uint64:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
