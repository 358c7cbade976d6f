package extract

import (
	"regexp"
	"strconv"
	"time"
)

var (
	reISODate   = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	reSlashDate = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)

	monthPrefixes = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	reMonthDates  = compileMonthRules()
)

func compileMonthRules() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(monthPrefixes))
	for i, mon := range monthPrefixes {
		out[i] = regexp.MustCompile(`(?i)\b` + mon + `[a-z]*\s+(\d{1,2}),?\s+(\d{4})\b`)
	}
	return out
}

// dateRules run in order; the first one that yields a real date wins.
var dateRules = []func(string) (time.Time, bool){
	isoDate,
	slashDate,
	monthNameDate,
}

func extractDate(text string) (time.Time, bool) {
	for _, rule := range dateRules {
		if d, ok := rule(text); ok {
			return d, true
		}
	}
	return time.Time{}, false
}

func isoDate(text string) (time.Time, bool) {
	m := reISODate.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	return civilDate(atoi(m[1]), atoi(m[2]), atoi(m[3]))
}

// slashDate reads A/B/YYYY as month/day first, then day/month.
func slashDate(text string) (time.Time, bool) {
	m := reSlashDate.FindStringSubmatch(text)
	if m == nil {
		return time.Time{}, false
	}
	a, b, y := atoi(m[1]), atoi(m[2]), atoi(m[3])
	for _, md := range [][2]int{{a, b}, {b, a}} {
		mo, d := md[0], md[1]
		if mo < 1 || mo > 12 || d < 1 || d > 31 {
			continue
		}
		if t, ok := civilDate(y, mo, d); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// monthNameDate tries each month in calendar order, not by position in text.
func monthNameDate(text string) (time.Time, bool) {
	for i, re := range reMonthDates {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		if t, ok := civilDate(atoi(m[2]), i+1, atoi(m[1])); ok {
			return t, true
		}
	}
	return time.Time{}, false
}

// civilDate builds a naive midnight date, rejecting anything time.Date
// would have to normalise (Feb 30 and the like).
func civilDate(y, mo, d int) (time.Time, bool) {
	if y < 1 || mo < 1 || mo > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != mo || t.Day() != d {
		return time.Time{}, false
	}
	return t, true
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
