package heuristic

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/ocr"
)

type fakeEngine struct {
	pages []ocr.Page
	err   error
}

func (f *fakeEngine) RecognizeAll(_ context.Context, _ []string) ([]ocr.Page, error) {
	return f.pages, f.err
}

const sampleReceipt = `WALMART SUPERCENTER
123 Main Street
01/15/2024 14:32
Bananas 1.25
2 x Coffee 7.00
SUBTOTAL 8.25
TAX 0.66
TOTAL $8.91
VISA ****1234`

func TestExtractEndToEnd(t *testing.T) {
	engine := &fakeEngine{pages: []ocr.Page{{Text: sampleReceipt, Confidence: 0.9}}}
	e := NewExtractor(engine, nil)
	e.now = func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) }

	res, err := e.Extract(context.Background(), []string{"page-1.png"})
	require.NoError(t, err)

	assert.Equal(t, constants.MethodHeuristic, res.Method)
	require.True(t, res.MerchantName.Set())
	assert.Equal(t, "WALMART SUPERCENTER", *res.MerchantName.Value)
	require.True(t, res.TotalAmount.Set())
	assert.InDelta(t, 8.91, *res.TotalAmount.Value, 0.001)
	require.True(t, res.Date.Set())
	assert.Equal(t, "2024-01-15", res.Date.Value.Format("2006-01-02"))
	require.True(t, res.TaxAmount.Set())
	assert.InDelta(t, 0.66, *res.TaxAmount.Value, 0.001)
	require.True(t, res.SuggestedCategory.Set())
	assert.Equal(t, string(constants.Groceries), *res.SuggestedCategory.Value)
	require.True(t, res.PaymentMethod.Set())
	assert.Equal(t, string(constants.PaymentCreditCard), *res.PaymentMethod.Value)
	assert.Len(t, res.Items, 2)
	assert.Greater(t, res.OverallConfidence, float32(0.5))
	assert.Equal(t, sampleReceipt, res.RawText)
}

func TestExtractBlendsEngineConfidence(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	clean := ParseText(sampleReceipt, now)

	noisy := &fakeEngine{pages: []ocr.Page{{Text: sampleReceipt, Confidence: 0.2}}}
	e := NewExtractor(noisy, nil)
	e.now = func() time.Time { return now }

	res, err := e.Extract(context.Background(), []string{"p.png"})
	require.NoError(t, err)
	assert.Less(t, res.OverallConfidence, clean.OverallConfidence,
		"a low engine confidence must pull the aggregate down")
}

func TestExtractJoinsPagesInOrder(t *testing.T) {
	engine := &fakeEngine{pages: []ocr.Page{
		{Text: "CORNER CAFE", Confidence: 0.8},
		{Text: "TOTAL 5.00", Confidence: 0.8},
	}}
	e := NewExtractor(engine, nil)

	res, err := e.Extract(context.Background(), []string{"p1.png", "p2.png"})
	require.NoError(t, err)
	assert.Equal(t, "CORNER CAFE\nTOTAL 5.00", res.RawText)
	require.True(t, res.MerchantName.Set())
	assert.Equal(t, "CORNER CAFE", *res.MerchantName.Value)
	require.True(t, res.TotalAmount.Set())
	assert.InDelta(t, 5.00, *res.TotalAmount.Value, 0.001)
}

func TestExtractPropagatesEngineError(t *testing.T) {
	engine := &fakeEngine{err: errors.New("binary not found")}
	e := NewExtractor(engine, nil)

	_, err := e.Extract(context.Background(), []string{"p.png"})
	assert.Error(t, err)
}

func TestParseTextEmptyIsZeroResult(t *testing.T) {
	res := ParseText("   \n  ", time.Now())
	assert.Equal(t, constants.MethodHeuristic, res.Method)
	assert.False(t, res.MerchantName.Set())
	assert.False(t, res.TotalAmount.Set())
	assert.Equal(t, float32(0), res.OverallConfidence)
}

func TestParseTextIsDeterministic(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	a := ParseText(sampleReceipt, now)
	b := ParseText(sampleReceipt, now)
	assert.Equal(t, a, b)
}
