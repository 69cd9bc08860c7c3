package heuristic

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
)

const (
	maxLineItems  = 20
	maxItemPrice  = 1000.0
	itemLineConf  = 0.6
	minDescLength = 2
	maxDescLength = 50
)

// reItemLine matches "<description> <trailing price>", with an optional
// leading quantity ("2 x Coffee 7.00").
var reItemLine = regexp.MustCompile(`^(?:(\d{1,2})\s*[xX@]\s+)?(.+?)\s+\$?(\d{1,3}(?:,\d{3})*\.\d{2})$`)

// summaryWords mark lines that look like totals/tenders, not purchases.
var summaryWords = []string{
	"total", "subtotal", "tax", "change", "cash", "credit", "debit",
	"balance", "amount", "due", "tender", "payment", "visa", "mastercard",
	"amex", "discount", "savings", "refund", "tip", "gratuity",
}

// recognizeItems walks each physical line for a description+price shape,
// skipping summary rows. The list is capped to bound downstream payloads.
func recognizeItems(lines []string) []entity.LineItem {
	var items []entity.LineItem
	for _, ln := range lines {
		m := reItemLine.FindStringSubmatch(ln)
		if m == nil {
			continue
		}
		desc := strings.TrimSpace(m[2])
		if len(desc) < minDescLength || len(desc) > maxDescLength {
			continue
		}
		if isSummaryLine(desc) || rePureNumeric.MatchString(desc) {
			continue
		}
		price, ok := parseAmount(m[3])
		if !ok || price <= 0 || price >= maxItemPrice {
			continue
		}

		item := entity.LineItem{
			Name:       desc,
			TotalPrice: &price,
			Confidence: itemLineConf,
		}
		if m[1] != "" {
			if qty, err := strconv.ParseFloat(m[1], 64); err == nil && qty > 0 {
				unit := price / qty
				item.Quantity = &qty
				item.UnitPrice = &unit
			}
		}
		items = append(items, item)
		if len(items) >= maxLineItems {
			break
		}
	}
	return items
}

func isSummaryLine(desc string) bool {
	lower := strings.ToLower(desc)
	for _, w := range summaryWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
