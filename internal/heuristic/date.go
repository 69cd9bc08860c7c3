package heuristic

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
)

// Plausibility window for receipt dates, relative to processing time.
const (
	dateMaxPast   = 365 * 24 * time.Hour
	dateMaxFuture = 31 * 24 * time.Hour
)

// datePatterns is ordered by specificity; the first pattern that yields a
// plausible date at the highest confidence wins. Do not reorder.
var datePatterns = []struct {
	re   *regexp.Regexp
	kind string
	conf float32
}{
	{regexp.MustCompile(`\b(\d{4})[/-](\d{1,2})[/-](\d{1,2})\b`), "ymd", 0.9},
	{regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`), "mdy", 0.85},
	{regexp.MustCompile(`(?i)\b(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+(\d{1,2}),?\s+(\d{4})\b`), "mon", 0.8},
	{regexp.MustCompile(`(?i)\b(\d{1,2})\s+(jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?,?\s+(\d{4})\b`), "dmon", 0.8},
	{regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{2})\b`), "mdy2", 0.7},
}

var monthAbbrevs = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// recognizeDate applies each format pattern in order, parses every candidate
// and discards anything outside the plausibility window. When nothing
// plausible matches, the processing date is returned at zero confidence.
func recognizeDate(text string, now time.Time) entity.Field[time.Time] {
	best := entity.Field[time.Time]{Value: &now}

	for _, p := range datePatterns {
		if p.conf <= best.Confidence {
			continue
		}
		for _, m := range p.re.FindAllStringSubmatch(text, -1) {
			d, ok := buildDate(p.kind, m, now.Location())
			if !ok || !plausibleDate(d, now) {
				continue
			}
			if p.conf > best.Confidence {
				best = entity.NewField(d, p.conf)
			}
		}
	}
	return best
}

func buildDate(kind string, m []string, loc *time.Location) (time.Time, bool) {
	atoi := func(s string) int { v, _ := strconv.Atoi(s); return v }

	var y, d int
	var mo time.Month
	switch kind {
	case "ymd":
		y, mo, d = atoi(m[1]), time.Month(atoi(m[2])), atoi(m[3])
	case "mdy":
		y, mo, d = atoi(m[3]), time.Month(atoi(m[1])), atoi(m[2])
		// day-first variant: swap when the month slot is impossible
		if mo > 12 && d <= 12 {
			mo, d = time.Month(d), int(mo)
		}
	case "mdy2":
		y, mo, d = 2000+atoi(m[3]), time.Month(atoi(m[1])), atoi(m[2])
		if mo > 12 && d <= 12 {
			mo, d = time.Month(d), int(mo)
		}
	case "mon":
		mo = monthAbbrevs[strings.ToLower(m[1])]
		d, y = atoi(m[2]), atoi(m[3])
	case "dmon":
		d = atoi(m[1])
		mo = monthAbbrevs[strings.ToLower(m[2])]
		y = atoi(m[3])
	default:
		return time.Time{}, false
	}

	if mo < 1 || mo > 12 || d < 1 || d > 31 || y < 2000 || y > 2100 {
		return time.Time{}, false
	}
	t := time.Date(y, mo, d, 0, 0, 0, 0, loc)
	// reject rollovers like Feb 31
	if t.Day() != d || t.Month() != mo {
		return time.Time{}, false
	}
	return t, true
}

func plausibleDate(d, now time.Time) bool {
	return !d.Before(now.Add(-dateMaxPast)) && !d.After(now.Add(dateMaxFuture))
}
