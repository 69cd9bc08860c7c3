package heuristic

import (
	"strings"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
)

// keywordRule pairs a case-insensitive substring with a label. Tables are
// ordered and immutable; the first match wins, which keeps classification
// deterministic and testable in isolation.
type keywordRule struct {
	keyword string
	label   string
}

var categoryRules = []keywordRule{
	{"walmart", string(constants.Groceries)},
	{"kroger", string(constants.Groceries)},
	{"safeway", string(constants.Groceries)},
	{"aldi", string(constants.Groceries)},
	{"whole foods", string(constants.Groceries)},
	{"trader joe", string(constants.Groceries)},
	{"grocery", string(constants.Groceries)},
	{"supermarket", string(constants.Groceries)},
	{"mcdonald", string(constants.Dining)},
	{"starbucks", string(constants.Dining)},
	{"chipotle", string(constants.Dining)},
	{"subway", string(constants.Dining)},
	{"restaurant", string(constants.Dining)},
	{"cafe", string(constants.Dining)},
	{"coffee", string(constants.Dining)},
	{"pizza", string(constants.Dining)},
	{"burger", string(constants.Dining)},
	{"diner", string(constants.Dining)},
	{"shell", string(constants.Transportation)},
	{"chevron", string(constants.Transportation)},
	{"exxon", string(constants.Transportation)},
	{"uber", string(constants.Transportation)},
	{"lyft", string(constants.Transportation)},
	{"gas station", string(constants.Transportation)},
	{"fuel", string(constants.Transportation)},
	{"parking", string(constants.Transportation)},
	{"transit", string(constants.Transportation)},
	{"cvs", string(constants.Healthcare)},
	{"walgreens", string(constants.Healthcare)},
	{"pharmacy", string(constants.Healthcare)},
	{"clinic", string(constants.Healthcare)},
	{"hospital", string(constants.Healthcare)},
	{"netflix", string(constants.Entertainment)},
	{"spotify", string(constants.Entertainment)},
	{"cinema", string(constants.Entertainment)},
	{"theater", string(constants.Entertainment)},
	{"hotel", string(constants.Travel)},
	{"motel", string(constants.Travel)},
	{"airline", string(constants.Travel)},
	{"airbnb", string(constants.Travel)},
	{"electric", string(constants.Utilities)},
	{"water bill", string(constants.Utilities)},
	{"internet", string(constants.Utilities)},
	{"comcast", string(constants.Utilities)},
	{"verizon", string(constants.Utilities)},
	{"amazon", string(constants.Shopping)},
	{"target", string(constants.Shopping)},
	{"best buy", string(constants.Shopping)},
	{"costco", string(constants.Shopping)},
	{"ikea", string(constants.Shopping)},
	{"mall", string(constants.Shopping)},
}

const (
	categoryMatchConf   = 0.7
	categoryDefaultConf = 0.2
)

// recognizeCategory suggests a spending category from known merchant and
// domain keywords; falls back to Other at low confidence.
func recognizeCategory(text string) entity.Field[string] {
	lower := strings.ToLower(text)
	for _, r := range categoryRules {
		if strings.Contains(lower, r.keyword) {
			return entity.NewField(r.label, categoryMatchConf)
		}
	}
	return entity.NewField(string(constants.Other), categoryDefaultConf)
}

var paymentRules = []keywordRule{
	{"visa", string(constants.PaymentCreditCard)},
	{"mastercard", string(constants.PaymentCreditCard)},
	{"master card", string(constants.PaymentCreditCard)},
	{"amex", string(constants.PaymentCreditCard)},
	{"american express", string(constants.PaymentCreditCard)},
	{"discover", string(constants.PaymentCreditCard)},
	{"credit", string(constants.PaymentCreditCard)},
	{"debit", string(constants.PaymentDebitCard)},
	{"apple pay", string(constants.PaymentMobile)},
	{"google pay", string(constants.PaymentMobile)},
	{"venmo", string(constants.PaymentMobile)},
	{"paypal", string(constants.PaymentMobile)},
	{"cash", string(constants.PaymentCash)},
	{"change due", string(constants.PaymentCash)},
}

const (
	paymentMatchConf   = 0.8
	paymentDefaultConf = 0.05
)

// recognizePayment classifies the payment method from indicator words.
func recognizePayment(text string) entity.Field[string] {
	lower := strings.ToLower(text)
	for _, r := range paymentRules {
		if strings.Contains(lower, r.keyword) {
			return entity.NewField(r.label, paymentMatchConf)
		}
	}
	return entity.NewField(string(constants.PaymentOther), paymentDefaultConf)
}
