package typeutils

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Compare returns 0 for equal, -1 if a < b else 1 if a > b
func Compare(a, b any) int {
	if a == nil && b == nil {
		return 0
	}
	if a == nil {
		return -1
	}
	if b == nil {
		return 1
	}

	aFloat, aNum := toFloat(a)
	bFloat, bNum := toFloat(b)
	if aNum && bNum {
		return compareFloat(aFloat, bFloat)
	}

	switch aVal := a.(type) {
	case time.Time:
		if bTime, ok := b.(time.Time); ok {
			return aVal.Compare(bTime)
		}
	case Time:
		if bTime, ok := b.(Time); ok {
			return aVal.Compare(bTime)
		}
	case bool:
		if bBool, ok := b.(bool); ok {
			// false < true
			if !aVal && bBool {
				return -1
			} else if aVal && !bBool {
				return 1
			}
			return 0
		}
	}

	// For any other types, convert to string for comparison
	return strings.Compare(fmt.Sprintf("%v", a), fmt.Sprintf("%v", b))
}

// CompareCursor compares two replication-key values. Values that both read as
// points in time (timestamps or millisecond epochs) are compared
// chronologically, everything else falls back to Compare.
func CompareCursor(a, b any) int {
	if a == nil || b == nil {
		return Compare(a, b)
	}

	aTime, aOk := ToTime(a)
	bTime, bOk := ToTime(b)
	if aOk && bOk {
		return aTime.Compare(bTime)
	}

	return Compare(a, b)
}

// MaxCursor returns the greater of the two cursor values, nil being the smallest
func MaxCursor(a, b any) any {
	if CompareCursor(a, b) >= 0 {
		return a
	}
	return b
}

// MinCursor returns the smaller of the two cursor values ignoring nil
func MinCursor(a, b any) any {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if CompareCursor(a, b) <= 0 {
		return a
	}
	return b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}

func compareFloat(a, b float64) int {
	if math.IsNaN(a) {
		if math.IsNaN(b) {
			return 0
		}
		return -1
	}
	if math.IsNaN(b) {
		return 1
	}

	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
