package worm

import (
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Value adaptation is deliberately caller-side: the backend's native
// type converter machinery is bypassed entirely. Values are reduced to
// driver primitives (int64, float64, string, []byte, nil) before they
// reach a statement, and read back out with the Row getters.

const (
	dateLayout      = "2006-01-02"
	timestampLayout = time.RFC3339
)

// adapt reduces a Go value to a driver primitive for the given field.
// A Model value persists as its primary key id; an unsaved one is an error.
func adapt(f Field, v any) (any, error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case Model:
		id, ok := modelKey(x)
		if !ok {
			return nil, fmt.Errorf("%w: %s refers to an unsaved %s row", ErrUnsaved, f.Name, x.Table())
		}
		return id, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case time.Time:
		if f.Type == TypeDate {
			return x.Format(dateLayout), nil
		}
		return x.Format(timestampLayout), nil
	default:
		return v, nil
	}
}

// Literal renders a value as SQL literal text. It is used for DEFAULT
// clauses in column definitions and for the interpolated debug form of a
// query; parameterized statements never embed literals.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		return "X'" + strings.ToUpper(hex.EncodeToString(x)) + "'"
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return "'" + x.Format(dateLayout) + "'"
		}
		return "'" + x.Format(timestampLayout) + "'"
	case Model:
		if id, ok := modelKey(x); ok {
			return strconv.FormatInt(id, 10)
		}
		return "NULL"
	default:
		return fmt.Sprint(v)
	}
}

// literalOK reports whether a value has a SQL literal rendering.
func literalOK(v any) bool {
	switch v.(type) {
	case nil, string, bool, int, int64, float64, []byte, time.Time:
		return true
	}
	return false
}

// toInt64 converts a stored value back to an integer.
func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int64:
		return x, true
	case int:
		return int64(x), true
	case float64:
		return int64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	}
	return 0, false
}

// toTime parses a stored date or timestamp back into time.Time.
func toTime(v any) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		if t, err := time.Parse(timestampLayout, x); err == nil {
			return t, nil
		}
		if t, err := time.Parse(dateLayout, x); err == nil {
			return t, nil
		}
		return time.Time{}, fmt.Errorf("worm: cannot parse time %q", x)
	case []byte:
		return toTime(string(x))
	}
	return time.Time{}, fmt.Errorf("worm: cannot convert %T to time", v)
}
