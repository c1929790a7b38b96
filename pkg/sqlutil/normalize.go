package sqlutil

import (
	"errors"
	"strings"
)

// ErrMultipleStatements indicates the query contains multiple SQL
// statements. Single statements only: queries get wrapped in COUNT(*)
// and LIMIT/OFFSET subqueries, which a second statement would break.
var ErrMultipleStatements = errors.New("multiple SQL statements not allowed; only single statements are permitted")

// Normalize trims whitespace, strips one trailing semicolon, and rejects
// SQL that still contains a semicolon outside string literals.
func Normalize(sqlQuery string) (string, error) {
	sqlQuery = strings.TrimSpace(sqlQuery)
	if sqlQuery == "" {
		return "", nil
	}

	normalized := strings.TrimSpace(strings.TrimSuffix(sqlQuery, ";"))
	if hasSemicolonOutsideStrings(normalized) {
		return "", ErrMultipleStatements
	}
	return normalized, nil
}

// IsSelect reports whether the normalized statement is SELECT-shaped,
// including WITH-prefixed queries.
func IsSelect(sqlQuery string) bool {
	upper := strings.ToUpper(strings.TrimSpace(sqlQuery))
	return strings.HasPrefix(upper, "SELECT") || strings.HasPrefix(upper, "WITH")
}

// hasSemicolonOutsideStrings scans the SQL with a small state machine
// tracking single-quoted strings and double-quoted identifiers. The SQL
// standard '' escape is handled by re-entering string state on the
// doubled quote.
func hasSemicolonOutsideStrings(sqlQuery string) bool {
	const (
		stateNormal = iota
		stateSingleQuote
		stateDoubleQuote
	)

	state := stateNormal
	for _, char := range sqlQuery {
		switch state {
		case stateNormal:
			switch char {
			case ';':
				return true
			case '\'':
				state = stateSingleQuote
			case '"':
				state = stateDoubleQuote
			}
		case stateSingleQuote:
			if char == '\'' {
				state = stateNormal
			}
		case stateDoubleQuote:
			if char == '"' {
				state = stateNormal
			}
		}
	}
	return false
}
