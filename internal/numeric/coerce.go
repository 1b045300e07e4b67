// Package numeric converts the provider's inconsistent numeric
// representations into uniform nullable floats.
package numeric

import (
	"math"
	"strconv"
	"strings"

	"github.com/guregu/null/v5"
)

// multipliers are the magnitude suffixes accepted on financial figures
// such as "8.71B" or "439.26M". Matching is case-insensitive.
var multipliers = map[byte]float64{
	'K': 1e3,
	'M': 1e6,
	'B': 1e9,
	'T': 1e12,
}

// Coerce converts a raw provider value into a nullable float. It handles
// plain numbers, suffixed strings ("8.71B"), comma-grouped strings
// ("1,234.5") and missing markers (nil, "", "N/A"). Anything that cannot
// be parsed resolves to null. Coerce is pure and never panics.
func Coerce(value any) null.Float {
	switch v := value.(type) {
	case nil:
		return null.Float{}
	case float64:
		return fromFloat(v)
	case float32:
		return fromFloat(float64(v))
	case int:
		return null.FloatFrom(float64(v))
	case int64:
		return null.FloatFrom(float64(v))
	case string:
		return coerceString(v)
	default:
		return null.Float{}
	}
}

func fromFloat(v float64) null.Float {
	if math.IsNaN(v) {
		return null.Float{}
	}
	return null.FloatFrom(v)
}

func coerceString(s string) null.Float {
	s = strings.TrimSpace(s)
	if s == "" || s == "N/A" {
		return null.Float{}
	}

	if mult, ok := multipliers[upperByte(s[len(s)-1])]; ok {
		f, err := strconv.ParseFloat(s[:len(s)-1], 64)
		if err != nil {
			return null.Float{}
		}
		return fromFloat(f * mult)
	}

	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
	if err != nil {
		return null.Float{}
	}
	return fromFloat(f)
}

func upperByte(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - ('a' - 'A')
	}
	return b
}
