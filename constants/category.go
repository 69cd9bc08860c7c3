package constants

import "strings"

type Category string

const (
	Groceries      Category = "Groceries"
	Dining         Category = "Dining"
	Transportation Category = "Transportation"
	Shopping       Category = "Shopping"
	Entertainment  Category = "Entertainment"
	Healthcare     Category = "Healthcare"
	Utilities      Category = "Utilities"
	Travel         Category = "Travel"
	Other          Category = "Other"
)

var allCategories = []Category{
	Groceries,
	Dining,
	Transportation,
	Shopping,
	Entertainment,
	Healthcare,
	Utilities,
	Travel,
	Other,
}

// CategoriesAsStrings returns the category taxonomy for prompt enums.
func CategoriesAsStrings() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// CanonicalizeCategory maps free-form labels onto the fixed taxonomy.
func CanonicalizeCategory(input string) (Category, bool) {
	if input == "" {
		return Other, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Category{
		"food":          Dining,
		"restaurant":    Dining,
		"food & drink":  Dining,
		"grocery":       Groceries,
		"supermarket":   Groceries,
		"transport":     Transportation,
		"gas":           Transportation,
		"fuel":          Transportation,
		"retail":        Shopping,
		"medical":       Healthcare,
		"pharmacy":      Healthcare,
		"bills":         Utilities,
		"subscriptions": Entertainment,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Other, false
}

// PaymentMethod labels for the closed-set payment classifier.
type PaymentMethod string

const (
	PaymentCreditCard PaymentMethod = "CreditCard"
	PaymentDebitCard  PaymentMethod = "DebitCard"
	PaymentCash       PaymentMethod = "Cash"
	PaymentMobile     PaymentMethod = "MobilePayment"
	PaymentOther      PaymentMethod = "Other"
)

// PaymentMethodsAsStrings returns the payment method labels for prompt enums.
func PaymentMethodsAsStrings() []string {
	all := []PaymentMethod{PaymentCreditCard, PaymentDebitCard, PaymentCash, PaymentMobile, PaymentOther}
	result := make([]string, len(all))
	for i, pm := range all {
		result[i] = string(pm)
	}
	return result
}
