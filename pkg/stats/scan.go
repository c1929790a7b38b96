package stats

import (
	"fmt"
	"math"
	"strconv"
)

// nullFloat scans an engine value that may be NULL, integral, or a
// decimal rendered as text. NaN and infinity are treated as absent,
// matching the "each field independently nulled" contract.
type nullFloat struct {
	value float64
	valid bool
}

func (n *nullFloat) Scan(src any) error {
	n.valid = false
	switch v := src.(type) {
	case nil:
		return nil
	case float64:
		n.value, n.valid = v, true
	case float32:
		n.value, n.valid = float64(v), true
	case int64:
		n.value, n.valid = float64(v), true
	case int32:
		n.value, n.valid = float64(v), true
	case int:
		n.value, n.valid = float64(v), true
	case uint64:
		n.value, n.valid = float64(v), true
	case []byte:
		return n.parse(string(v))
	case string:
		return n.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into float", src)
	}
	return nil
}

func (n *nullFloat) parse(s string) error {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("cannot scan %q into float: %w", s, err)
	}
	n.value, n.valid = f, true
	return nil
}

// ptr returns the scanned value rounded to four decimals, or nil when
// absent or non-finite.
func (n nullFloat) ptr() *float64 {
	if !n.valid || math.IsNaN(n.value) || math.IsInf(n.value, 0) {
		return nil
	}
	rounded := roundTo(n.value, 4)
	return &rounded
}

// nullInt scans an engine value that may be NULL into an optional int64.
type nullInt struct {
	value int64
	valid bool
}

func (n *nullInt) Scan(src any) error {
	n.valid = false
	switch v := src.(type) {
	case nil:
		return nil
	case int64:
		n.value, n.valid = v, true
	case int32:
		n.value, n.valid = int64(v), true
	case int:
		n.value, n.valid = int64(v), true
	case uint64:
		n.value, n.valid = int64(v), true
	case float64:
		n.value, n.valid = int64(v), true
	default:
		return fmt.Errorf("cannot scan %T into int", src)
	}
	return nil
}

func (n nullInt) ptr() *int64 {
	if !n.valid {
		return nil
	}
	v := n.value
	return &v
}
