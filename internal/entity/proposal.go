package entity

import "time"

// Correction holds user-supplied per-field overrides. It is stored alongside
// the raw extraction result, never merged into it; when a field is present
// here it strictly takes precedence over the extracted value, regardless of
// confidence.
type Correction struct {
	MerchantName  *string    `json:"merchant_name,omitempty"`
	TotalAmount   *float64   `json:"total_amount,omitempty"`
	Date          *time.Time `json:"date,omitempty"`
	TaxAmount     *float64   `json:"tax_amount,omitempty"`
	Category      *string    `json:"category,omitempty"`
	PaymentMethod *string    `json:"payment_method,omitempty"`
}

// TransactionProposal is what the (external) transaction-creation step reads.
type TransactionProposal struct {
	Merchant      string    `json:"merchant"`
	Amount        float64   `json:"amount"`
	Date          time.Time `json:"date"`
	Tax           float64   `json:"tax"`
	Category      string    `json:"category"`
	PaymentMethod string    `json:"payment_method"`
}

// ProposeTransaction flattens an extraction result into transaction fields,
// applying corrections first. Extracted values contribute only when their
// confidence is non-zero; corrections always win.
func ProposeTransaction(res *ExtractionResult, corr *Correction) TransactionProposal {
	var p TransactionProposal

	if res != nil {
		if res.MerchantName.Set() {
			p.Merchant = *res.MerchantName.Value
		}
		if res.TotalAmount.Set() {
			p.Amount = *res.TotalAmount.Value
		}
		if res.Date.Set() {
			p.Date = *res.Date.Value
		}
		if res.TaxAmount.Set() {
			p.Tax = *res.TaxAmount.Value
		}
		if res.SuggestedCategory.Set() {
			p.Category = *res.SuggestedCategory.Value
		}
		if res.PaymentMethod.Set() {
			p.PaymentMethod = *res.PaymentMethod.Value
		}
	}

	if corr == nil {
		return p
	}
	if corr.MerchantName != nil {
		p.Merchant = *corr.MerchantName
	}
	if corr.TotalAmount != nil {
		p.Amount = *corr.TotalAmount
	}
	if corr.Date != nil {
		p.Date = *corr.Date
	}
	if corr.TaxAmount != nil {
		p.Tax = *corr.TaxAmount
	}
	if corr.Category != nil {
		p.Category = *corr.Category
	}
	if corr.PaymentMethod != nil {
		p.PaymentMethod = *corr.PaymentMethod
	}
	return p
}
