package stats

import "strings"

// Dtype categories derived from engine-reported column type strings.
const (
	CategoryInteger  = "integer"
	CategoryFloat    = "float"
	CategoryString   = "string"
	CategoryDatetime = "datetime"
	CategoryBoolean  = "boolean"
	CategoryOther    = "other"
)

// CategorizeDtype buckets a declared column type into a coarse category
// by case-insensitive substring matching. The same classification picks
// the numeric or string statistics branch everywhere.
func CategorizeDtype(dtype string) string {
	lower := strings.ToLower(dtype)

	switch {
	case containsAny(lower, "int", "bigint", "smallint", "tinyint"):
		return CategoryInteger
	case containsAny(lower, "float", "double", "decimal", "numeric", "real"):
		return CategoryFloat
	case containsAny(lower, "varchar", "char", "text", "string"):
		return CategoryString
	case containsAny(lower, "date", "time", "timestamp"):
		return CategoryDatetime
	case strings.Contains(lower, "bool"):
		return CategoryBoolean
	default:
		return CategoryOther
	}
}

// IsNumericDtype reports whether the declared type is integer or float
// categorized.
func IsNumericDtype(dtype string) bool {
	category := CategorizeDtype(dtype)
	return category == CategoryInteger || category == CategoryFloat
}

func containsAny(s string, fragments ...string) bool {
	for _, f := range fragments {
		if strings.Contains(s, f) {
			return true
		}
	}
	return false
}
