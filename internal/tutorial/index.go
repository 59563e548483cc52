package tutorial

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseIndex coerces an index-like YAML value to an int. It accepts an
// integer, a string holding an integer optionally followed by "#" and free
// text (e.g. "3 # core/flow.py"), or a string that is an integer once
// trimmed. Anything else is rejected.
func ParseIndex(v any) (int, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		if x < math.MinInt || x > math.MaxInt {
			return 0, fmt.Errorf("%d overflows int", x)
		}
		return int(x), nil
	case uint64:
		if x > math.MaxInt {
			return 0, fmt.Errorf("%d overflows int", x)
		}
		return int(x), nil
	case string:
		s := x
		if i := strings.IndexByte(s, '#'); i >= 0 {
			s = s[:i]
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%v (%T) is not an integer", v, v)
	}
}
