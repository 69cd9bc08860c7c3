package entity

import (
	"time"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
)

// Field is the atomic unit of every recognized attribute: a value plus a
// [0,1] confidence. Confidence 0 means the value is unreliable/unset and
// must not be used downstream without explicit user confirmation.
type Field[T any] struct {
	Value      *T      `json:"value"`
	Confidence float32 `json:"confidence"`
}

// NewField builds a scored field, clamping confidence into [0,1].
func NewField[T any](v T, conf float32) Field[T] {
	return Field[T]{Value: &v, Confidence: ClampConfidence(conf)}
}

// ZeroField is a field with no value and zero confidence.
func ZeroField[T any]() Field[T] {
	return Field[T]{}
}

// Set reports whether the field carries a usable value.
func (f Field[T]) Set() bool {
	return f.Value != nil && f.Confidence > 0
}

// ClampConfidence bounds a confidence score into [0,1].
func ClampConfidence(c float32) float32 {
	if c < 0 {
		return 0
	}
	if c > 1 {
		return 1
	}
	return c
}

// LineItem is a single purchased item recovered from the receipt body.
type LineItem struct {
	Name       string   `json:"name"`
	Quantity   *float64 `json:"quantity,omitempty"`
	UnitPrice  *float64 `json:"unit_price,omitempty"`
	TotalPrice *float64 `json:"total_price,omitempty"`
	Confidence float32  `json:"confidence"`
}

// ExtractionResult is the canonical output of one extraction attempt. It is
// created whole and never partially mutated; a reprocess replaces it.
type ExtractionResult struct {
	MerchantName      Field[string]    `json:"merchant_name"`
	TotalAmount       Field[float64]   `json:"total_amount"`
	Date              Field[time.Time] `json:"date"`
	Items             []LineItem       `json:"items,omitempty"`
	TaxAmount         Field[float64]   `json:"tax_amount"`
	SuggestedCategory Field[string]    `json:"suggested_category"`
	PaymentMethod     Field[string]    `json:"payment_method"`

	RawText           string           `json:"raw_text,omitempty"`
	OverallConfidence float32          `json:"overall_confidence"`
	Method            constants.Method `json:"method"`
	ProcessingTimeMs  int64            `json:"processing_time_ms"`
	Error             string           `json:"error,omitempty"`
}

// ComputeOverall derives the aggregate score: the mean of all non-zero field
// confidences across the independently scored fields. Zero when no field has
// any confidence at all.
func (r *ExtractionResult) ComputeOverall() float32 {
	confs := []float32{
		r.MerchantName.Confidence,
		r.TotalAmount.Confidence,
		r.Date.Confidence,
		r.SuggestedCategory.Confidence,
	}
	var sum float32
	var n int
	for _, c := range confs {
		if c > 0 {
			sum += c
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return ClampConfidence(sum / float32(n))
}

// ErrorResult builds the zero-confidence result returned when the pipeline
// cannot produce anything better. The caller still receives a result object;
// failure is signalled by Method, never by absence.
func ErrorResult(msg string, elapsed time.Duration) *ExtractionResult {
	return &ExtractionResult{
		Method:           constants.MethodError,
		Error:            msg,
		ProcessingTimeMs: elapsed.Milliseconds(),
	}
}
