package stats

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/csvscope/csvscope/pkg/apperrors"
	"github.com/csvscope/csvscope/pkg/sqlutil"
)

// frequencyLimit bounds the non-numeric distribution frequency table.
const frequencyLimit = 50

// defaultBins is the histogram bucket count when the caller passes none.
const defaultBins = 20

// AnalyzeColumnFromQuery computes a column report against an arbitrary
// SELECT wrapped as a subquery, so a derived result set can be profiled
// without materializing it as a table. The declared type is unknown
// here; numeric statistics are probed by casting to DOUBLE, and the
// reported dtype is "numeric" or "text" depending on whether the probe
// produced values.
func (a *Analyzer) AnalyzeColumnFromQuery(sqlQuery, columnName string) (*ColumnReport, error) {
	normalized, err := sqlutil.Normalize(sqlQuery)
	if err != nil {
		return nil, err
	}
	subquery := fmt.Sprintf("(%s) AS _subquery", normalized)
	column := sqlutil.Quote(columnName)

	var totalCount, nonNullCount, uniqueCount int64
	baseSQL := fmt.Sprintf(
		"SELECT COUNT(*), COUNT(%s), COUNT(DISTINCT %s) FROM %s",
		column, column, subquery)
	if err := a.engine.ScanRow(baseSQL, &totalCount, &nonNullCount, &uniqueCount); err != nil {
		return nil, fmt.Errorf("analyze column %s from query: %w", columnName, err)
	}

	nullCount := totalCount - nonNullCount
	report := &ColumnReport{
		ColumnName:        columnName,
		Dtype:             "unknown",
		TotalRows:         totalCount,
		UniqueCount:       uniqueCount,
		MissingCount:      nullCount,
		MissingPercentage: percentage(nullCount, totalCount),
		TopValues:         []ValueCount{},
	}

	numericSQL := fmt.Sprintf(`SELECT
		MIN(CAST(%[1]s AS DOUBLE)), MAX(CAST(%[1]s AS DOUBLE)),
		AVG(CAST(%[1]s AS DOUBLE)), MEDIAN(CAST(%[1]s AS DOUBLE)),
		STDDEV_POP(CAST(%[1]s AS DOUBLE)),
		QUANTILE_CONT(CAST(%[1]s AS DOUBLE), 0.25),
		QUANTILE_CONT(CAST(%[1]s AS DOUBLE), 0.75)
		FROM %[2]s WHERE %[1]s IS NOT NULL`, column, subquery)
	numeric, err := a.scanNumericStats(numericSQL)
	if err == nil && numeric.Min != nil {
		report.IsNumeric = true
		report.Dtype = "numeric"
		report.NumericStats = numeric
	} else {
		report.Dtype = "text"
	}

	top, err := a.topValues("FROM "+subquery, column, topValuesLimit)
	if err != nil {
		a.logger.Warn("top values failed for query column",
			zap.String("column", columnName), zap.Error(err))
	} else {
		report.TopValues = top
	}

	return report, nil
}

// MissingValueReport aggregates per-column null counts into a
// table-wide picture. Uses the cached analysis when available.
func (a *Analyzer) MissingValueReport(tableName string) (*MissingReport, error) {
	stats, err := a.AnalyzeTable(tableName, false)
	if err != nil {
		return nil, err
	}

	report := &MissingReport{
		TableName:    tableName,
		TotalRows:    stats.RowCount,
		TotalColumns: stats.ColumnCount,
		Columns:      make([]MissingColumn, 0, len(stats.Columns)),
	}

	var totalMissing int64
	for _, col := range stats.Columns {
		report.Columns = append(report.Columns, MissingColumn{
			Name:           col.Name,
			NullCount:      col.NullCount,
			NullPercentage: col.NullPercentage,
			HasMissing:     col.NullCount > 0,
		})
		totalMissing += col.NullCount
	}

	totalCells := stats.RowCount * int64(stats.ColumnCount)
	report.Summary = MissingSummary{
		TotalCells:        totalCells,
		TotalMissing:      totalMissing,
		MissingPercentage: percentage(totalMissing, totalCells),
	}
	return report, nil
}

// NumericSummary filters the table analysis down to numeric-category
// columns.
func (a *Analyzer) NumericSummary(tableName string) (*NumericSummary, error) {
	stats, err := a.AnalyzeTable(tableName, false)
	if err != nil {
		return nil, err
	}

	summary := &NumericSummary{
		TableName: tableName,
		Columns:   make([]NumericColumnSummary, 0),
	}
	for _, col := range stats.Columns {
		if !IsNumericDtype(col.Dtype) {
			continue
		}
		summary.Columns = append(summary.Columns, NumericColumnSummary{
			Name:           col.Name,
			Dtype:          col.Dtype,
			Stats:          col.Numeric,
			NullCount:      col.NullCount,
			NullPercentage: col.NullPercentage,
		})
	}
	summary.NumericColumnCount = len(summary.Columns)
	return summary, nil
}

// ColumnDistribution computes an equal-width histogram for numeric
// columns and a top-value frequency table for everything else. A
// failure inside the distribution query itself is reported in the
// result's Error field; an unknown table or column errors immediately.
func (a *Analyzer) ColumnDistribution(tableName, columnName string, bins int) (*Distribution, error) {
	if bins <= 0 {
		bins = defaultBins
	}

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

	dist := &Distribution{
		TableName:  tableName,
		ColumnName: columnName,
		Dtype:      dtype,
	}
	table := sqlutil.Quote(tableName)
	column := sqlutil.Quote(columnName)

	if IsNumericDtype(dtype) {
		hist, err := a.histogram(table, column, bins)
		if err != nil {
			dist.Error = err.Error()
			return dist, nil
		}
		dist.Histogram = hist
		return dist, nil
	}

	freqSQL := fmt.Sprintf(`SELECT %[1]s AS value, COUNT(*) AS count
		FROM %[2]s GROUP BY %[1]s ORDER BY count DESC LIMIT %[3]d`,
		column, table, frequencyLimit)
	_, rows, err := a.engine.RawQuery(freqSQL)
	if err != nil {
		dist.Error = err.Error()
		return dist, nil
	}
	freq := make([]ValueCount, 0, len(rows))
	for _, row := range rows {
		freq = append(freq, ValueCount{Value: renderValue(row[0]), Count: asInt64(row[1])})
	}
	dist.Frequency = freq
	return dist, nil
}

// histogram buckets non-null values as floor((v-min)/width), clamped so
// the maximum value lands in the last bucket instead of one past it.
// Width is forced to 1 when min equals max to avoid a zero divisor.
func (a *Analyzer) histogram(table, column string, bins int) (*Histogram, error) {
	var minV, maxV nullFloat
	minMaxSQL := fmt.Sprintf("SELECT MIN(%[1]s), MAX(%[1]s) FROM %[2]s WHERE %[1]s IS NOT NULL",
		column, table)
	if err := a.engine.ScanRow(minMaxSQL, &minV, &maxV); err != nil {
		return nil, err
	}
	minPtr, maxPtr := minV.ptr(), maxV.ptr()
	if minPtr == nil || maxPtr == nil {
		// Column has no non-null values; an empty histogram is still valid.
		return &Histogram{Bins: bins, Data: []HistogramBin{}}, nil
	}

	binWidth := (*maxPtr - *minPtr) / float64(bins)
	if *maxPtr == *minPtr {
		binWidth = 1
	}

	histSQL := fmt.Sprintf(`SELECT
		LEAST(FLOOR((%[1]s - %[2]v) / %[3]v), %[4]d) AS bin, COUNT(*) AS count
		FROM %[5]s WHERE %[1]s IS NOT NULL
		GROUP BY bin ORDER BY bin`,
		column, *minPtr, binWidth, bins-1, table)
	_, rows, err := a.engine.RawQuery(histSQL)
	if err != nil {
		return nil, err
	}

	data := make([]HistogramBin, 0, len(rows))
	for _, row := range rows {
		data = append(data, HistogramBin{Bin: asInt64(row[0]), Count: asInt64(row[1])})
	}
	return &Histogram{
		Bins:     bins,
		Min:      *minPtr,
		Max:      *maxPtr,
		BinWidth: binWidth,
		Data:     data,
	}, nil
}
