package heuristic

import (
	"regexp"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
)

// merchantScanLines bounds how deep into the receipt header we look.
const merchantScanLines = 5

var (
	rePureNumeric = regexp.MustCompile(`^[\d\s\-#*.,/]+$`)
	reAddressLine = regexp.MustCompile(`(?i)\b\d{1,5}\s+\w+(\s+\w+)*\s+(st|street|ave|avenue|rd|road|blvd|boulevard|dr|drive|ln|lane|hwy|highway|suite|ste|unit)\b|(?i)\bp\.?o\.?\s*box\b`)
	reDateInLine  = regexp.MustCompile(`\d{1,2}[/-]\d{1,2}[/-]\d{2,4}|\d{4}[/-]\d{1,2}[/-]\d{1,2}`)
	rePhoneLike   = regexp.MustCompile(`\(?\d{3}\)?[\s.-]?\d{3}[\s.-]\d{4}`)
)

// recognizeMerchant scans the top of the receipt for the first plausible
// store-name line. Receipts almost always print the merchant first, before
// address/phone boilerplate, so earlier position scores higher.
func recognizeMerchant(lines []string) entity.Field[string] {
	limit := merchantScanLines
	if len(lines) < limit {
		limit = len(lines)
	}

	for i := 0; i < limit; i++ {
		ln := lines[i]
		if len(ln) < 3 || len(ln) > 50 {
			continue
		}
		if rePureNumeric.MatchString(ln) ||
			reAddressLine.MatchString(ln) ||
			reDateInLine.MatchString(ln) ||
			rePhoneLike.MatchString(ln) {
			continue
		}

		conf := float32(0.55)
		conf += 0.25 * float32(merchantScanLines-i) / float32(merchantScanLines)
		if len(ln) >= 5 && len(ln) <= 30 {
			conf += 0.1
		}
		return entity.NewField(ln, conf)
	}
	return entity.ZeroField[string]()
}
