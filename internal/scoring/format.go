package scoring

import (
	"math"
	"strconv"
)

// FormatNumber renders large values with a magnitude suffix: the largest of
// K/M/B/T not exceeding the value, rounded to three significant figures with
// trailing zeros dropped. Values under 1000 render as a plain rounded integer.
func FormatNumber(n float64) string {
	switch {
	case n >= 1e12:
		return withSuffix(n/1e12, "T")
	case n >= 1e9:
		return withSuffix(n/1e9, "B")
	case n >= 1e6:
		return withSuffix(n/1e6, "M")
	case n >= 1e3:
		return withSuffix(n/1e3, "K")
	default:
		return strconv.Itoa(int(math.Round(n)))
	}
}

func withSuffix(v float64, suffix string) string {
	// round to three significant figures
	digits := math.Ceil(math.Log10(v))
	scale := math.Pow(10, 3-digits)
	rounded := math.Round(v*scale) / scale
	return strconv.FormatFloat(rounded, 'f', -1, 64) + suffix
}
