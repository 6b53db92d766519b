package extract

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var countRe = regexp.MustCompile(`^\s*(\d[\d,]*(?:\.\d+)?)\s*([KMBkmb])?`)

// ParseCount converts displayed counts like "1,234", "1.2K", "5.7M" or
// "500+" to integers. Anything unparseable or too large for an int is 0.
func ParseCount(s string) int {
	m := countRe.FindStringSubmatch(s)
	if m == nil {
		return 0
	}

	value, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0
	}

	switch strings.ToUpper(m[2]) {
	case "K":
		value *= 1e3
	case "M":
		value *= 1e6
	case "B":
		value *= 1e9
	}

	value = math.Round(value)
	if value >= float64(math.MaxInt) {
		return 0
	}
	return int(value)
}

var percentRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)

// ParsePercent reads the number in front of the '%' in a line like "39%" or
// "12.5 % of viewers".
func ParsePercent(s string) (float64, bool) {
	m := percentRe.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
