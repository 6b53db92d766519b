package extract

import (
	"regexp"
	"strconv"
	"time"
)

type relativeUnit struct {
	re    *regexp.Regexp
	apply func(now time.Time, n int) time.Time
}

// Checked in order; the first unit present in the text decides the result,
// so "1d 3h" resolves by days only.
var relativeUnits = []relativeUnit{
	{regexp.MustCompile(`(?i)(\d+)yr`), func(t time.Time, n int) time.Time { return t.AddDate(-n, 0, 0) }},
	{regexp.MustCompile(`(?i)(\d+)mo`), func(t time.Time, n int) time.Time { return t.AddDate(0, -n, 0) }},
	{regexp.MustCompile(`(?i)(\d+)w`), func(t time.Time, n int) time.Time { return t.AddDate(0, 0, -7*n) }},
	{regexp.MustCompile(`(?i)(\d+)d`), func(t time.Time, n int) time.Time { return t.AddDate(0, 0, -n) }},
	{regexp.MustCompile(`(?i)(\d+)h`), func(t time.Time, n int) time.Time { return t.Add(-time.Duration(n) * time.Hour) }},
	{regexp.MustCompile(`(?i)(\d+)m\b`), func(t time.Time, n int) time.Time { return t.Add(-time.Duration(n) * time.Minute) }},
}

// ResolveRelative turns a feed timestamp such as "3mo • Edited" into an
// absolute time relative to now. Without a recognizable token it returns now
// and false.
func ResolveRelative(text string, now time.Time) (time.Time, bool) {
	for _, u := range relativeUnits {
		m := u.re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		return u.apply(now, n), true
	}
	return now, false
}
