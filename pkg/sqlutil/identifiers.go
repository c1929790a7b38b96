// Package sqlutil provides SQL identifier and statement hygiene for the
// engine adapter. Table and view names are partly derived from untrusted
// file names, so every identifier interpolated into SQL text passes
// through ValidateIdentifier and Quote.
package sqlutil

import (
	"fmt"
	"regexp"
	"strings"
)

// identifierPattern is the allow-list for table, view, and column names.
// Names are sanitized at load time to this shape; anything else is
// rejected before it can reach interpolated SQL.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// MaxIdentifierLength caps identifier size. DuckDB allows longer names,
// but nothing legitimate produces them here.
const MaxIdentifierLength = 255

// ValidateIdentifier checks a table, view, or column name against the
// allow-list pattern.
func ValidateIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("empty identifier")
	}
	if len(name) > MaxIdentifierLength {
		return fmt.Errorf("identifier exceeds %d characters", MaxIdentifierLength)
	}
	if !identifierPattern.MatchString(name) {
		return fmt.Errorf("invalid identifier %q", name)
	}
	return nil
}

// Quote wraps an identifier in double quotes, doubling any embedded
// quote characters. Callers validate first; quoting is the second layer.
func Quote(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// QuoteLiteral wraps a string value in single quotes with SQL standard
// '' escaping. Used for file paths in read_csv and COPY statements,
// which DuckDB does not accept as bound parameters.
func QuoteLiteral(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

// SanitizeTableName derives a valid identifier from an arbitrary string,
// typically a file base name with its extension already stripped.
// Non-alphanumeric characters become underscores and a leading digit
// gets a "t_" prefix. An empty result falls back to "table_1".
func SanitizeTableName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	out := b.String()
	if out == "" {
		return "table_1"
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "t_" + out
	}
	return out
}
