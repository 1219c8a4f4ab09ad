package pomi

import (
	"regexp"
	"strconv"
	"strings"
)

var numberPattern = regexp.MustCompile(`-?\d+\.?\d*`)

func trimLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// firstNumber extracts the first integer or decimal number in s, matching
// the reference's `-?\d+\.?\d*` regex.
func firstNumber(s string) (float64, bool) {
	match := numberPattern.FindString(s)
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return value, true
}
