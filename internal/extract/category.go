package extract

import (
	"strings"

	"github.com/ibeckermayer/lisync/internal/types"
)

type categoryRule struct {
	needles  []string
	category types.Category
}

var categoryRules = []categoryRule{
	{[]string{"location"}, types.CategoryLocation},
	{[]string{"experience level", "job title"}, types.CategoryJobTitle},
	{[]string{"companies", "company size"}, types.CategoryCompany},
	{[]string{"industry"}, types.CategoryIndustry},
}

// Classify maps a descriptive label ("From this location", "With this
// experience level", ...) to a category. Rules are checked in order.
func Classify(label string) (types.Category, bool) {
	l := strings.ToLower(label)
	for _, r := range categoryRules {
		for _, n := range r.needles {
			if strings.Contains(l, n) {
				return r.category, true
			}
		}
	}
	return "", false
}

// Demographic classifies a row. Rows with an unknown label, an empty value or
// a zero percentage are dropped.
func Demographic(lines []string) (types.Demographic, bool) {
	row, ok := PercentageRow(lines)
	if !ok || row.Value == "" || row.Percentage == 0 {
		return types.Demographic{}, false
	}
	cat, ok := Classify(row.Label)
	if !ok {
		return types.Demographic{}, false
	}
	return types.Demographic{Category: cat, Value: row.Value, Percentage: row.Percentage}, true
}
