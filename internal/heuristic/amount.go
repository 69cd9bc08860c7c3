package heuristic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
)

// Sanity bounds for recognized money amounts.
const (
	maxTotalAmount = 10000.0
)

const money = `(\d{1,3}(?:,\d{3})*\.\d{2}|\d+\.\d{2})`

// totalPatterns is ordered by specificity; later entries are deliberately
// lower-priority fallbacks. Do not reorder.
var totalPatterns = []struct {
	re   *regexp.Regexp
	conf float32
}{
	{regexp.MustCompile(`(?im)\btotal\b[^\n\d]{0,12}` + money), 0.9},
	{regexp.MustCompile(`(?im)\b(?:amount\s+due|amount|balance\s+due|balance)\b[^\n\d]{0,12}` + money), 0.75},
	{regexp.MustCompile(`(?m)\$\s*(\d{1,3}(?:,\d{3})*\.\d{2})\s*$`), 0.5},
}

// recognizeTotal collects every bounded numeric match across the ordered
// pattern list and keeps the highest-confidence candidate. A "total" keyword
// in the surrounding context nudges fallback matches upward.
func recognizeTotal(text string) entity.Field[float64] {
	best := entity.ZeroField[float64]()

	for _, p := range totalPatterns {
		for _, m := range p.re.FindAllStringSubmatchIndex(text, -1) {
			raw := text[m[2]:m[3]]
			amt, ok := parseAmount(raw)
			if !ok || amt <= 0 || amt >= maxTotalAmount {
				continue
			}
			conf := p.conf
			if conf < 0.9 && strings.Contains(strings.ToLower(contextWindow(text, m[0], 24)), "total") {
				conf += 0.1
			}
			if conf > best.Confidence {
				best = entity.NewField(amt, conf)
			}
		}
	}
	return best
}

var taxPattern = regexp.MustCompile(`(?im)\b(?:sales\s+tax|tax|vat|gst|hst|pst)\b[^\n\d]{0,12}` + money)

// recognizeTax takes the first keyword-anchored tax amount at a fixed
// confidence; receipts rarely print more than one tax line worth keeping.
func recognizeTax(text string) entity.Field[float64] {
	m := taxPattern.FindStringSubmatch(text)
	if m == nil {
		return entity.ZeroField[float64]()
	}
	amt, ok := parseAmount(m[1])
	if !ok || amt <= 0 || amt >= maxTotalAmount {
		return entity.ZeroField[float64]()
	}
	return entity.NewField(amt, 0.75)
}

func parseAmount(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// contextWindow returns up to n bytes of text preceding offset, for keyword
// proximity checks.
func contextWindow(text string, offset, n int) string {
	start := offset - n
	if start < 0 {
		start = 0
	}
	return text[start:offset]
}
