package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
)

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"code fence", "```json\n{\"a\":1}\n```", `{"a":1}`, true},
		{"fence without language tag", "```\n{\"a\":1}\n```", `{"a":1}`, true},
		{"surrounding prose", `Here is the result: {"a":1} hope that helps`, `{"a":1}`, true},
		{"nested objects", `{"a":{"b":{"c":2}}}`, `{"a":{"b":{"c":2}}}`, true},
		{"braces inside strings", `{"a":"close } brace"}`, `{"a":"close } brace"}`, true},
		{"escaped quotes", `{"a":"she said \"}\""}`, `{"a":"she said \"}\""}`, true},
		{"unbalanced", `{"a":1`, "", false},
		{"no object at all", "sorry, I cannot read this receipt", "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSONObject(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, string(got))
			}
		})
	}
}

func TestCoerceResultWellFormed(t *testing.T) {
	raw := []byte(`{
		"merchant_name": {"value": "Corner Cafe", "confidence": 0.95},
		"total_amount": {"value": 18.25, "confidence": 0.9},
		"date": {"value": "2024-01-15", "confidence": 0.85},
		"items": [
			{"name": "Latte", "quantity": 2, "unit_price": 4.5, "total_price": 9.0, "confidence": 0.8}
		],
		"tax_amount": {"value": 1.25, "confidence": 0.7},
		"suggested_category": {"value": "Dining", "confidence": 0.9},
		"payment_method": {"value": "Credit Card", "confidence": 0.6},
		"raw_text": "CORNER CAFE..."
	}`)

	res := CoerceResult(raw)
	assert.Equal(t, constants.MethodVision, res.Method)
	require.True(t, res.MerchantName.Set())
	assert.Equal(t, "Corner Cafe", *res.MerchantName.Value)
	assert.Equal(t, float32(0.95), res.MerchantName.Confidence)
	require.True(t, res.TotalAmount.Set())
	assert.InDelta(t, 18.25, *res.TotalAmount.Value, 0.001)
	require.True(t, res.Date.Set())
	assert.Equal(t, "2024-01-15", res.Date.Value.Format("2006-01-02"))
	require.Len(t, res.Items, 1)
	assert.Equal(t, "Latte", res.Items[0].Name)
	require.NotNil(t, res.Items[0].Quantity)
	assert.InDelta(t, 2, *res.Items[0].Quantity, 0.001)
	assert.Equal(t, "Dining", *res.SuggestedCategory.Value)
	assert.Equal(t, "CORNER CAFE...", res.RawText)
	assert.Greater(t, res.OverallConfidence, float32(0.8))
}

func TestCoerceResultDegradesGracefully(t *testing.T) {
	t.Run("garbage bytes", func(t *testing.T) {
		res := CoerceResult([]byte("not json"))
		assert.Equal(t, constants.MethodVision, res.Method)
		assert.False(t, res.MerchantName.Set())
		assert.Equal(t, float32(0), res.OverallConfidence)
	})

	t.Run("mistyped fields become zero fields", func(t *testing.T) {
		res := CoerceResult([]byte(`{
			"merchant_name": {"value": 42, "confidence": 0.9},
			"total_amount": {"value": "not a number", "confidence": 0.9},
			"date": {"value": "15th of January", "confidence": 0.9},
			"items": "nope"
		}`))
		assert.False(t, res.MerchantName.Set())
		assert.False(t, res.TotalAmount.Set())
		assert.False(t, res.Date.Set())
		assert.Empty(t, res.Items)
	})

	t.Run("missing fields", func(t *testing.T) {
		res := CoerceResult([]byte(`{}`))
		assert.False(t, res.MerchantName.Set())
		assert.Equal(t, float32(0), res.OverallConfidence)
	})
}

func TestCoerceResultNormalizes(t *testing.T) {
	t.Run("quoted numbers are accepted", func(t *testing.T) {
		res := CoerceResult([]byte(`{"total_amount": {"value": "12.50", "confidence": 0.8}}`))
		require.True(t, res.TotalAmount.Set())
		assert.InDelta(t, 12.50, *res.TotalAmount.Value, 0.001)
	})

	t.Run("confidence is clamped", func(t *testing.T) {
		res := CoerceResult([]byte(`{"merchant_name": {"value": "X Y", "confidence": 3.0}}`))
		assert.Equal(t, float32(1), res.MerchantName.Confidence)
	})

	t.Run("category synonyms are canonicalized", func(t *testing.T) {
		res := CoerceResult([]byte(`{"suggested_category": {"value": "food", "confidence": 0.7}}`))
		require.True(t, res.SuggestedCategory.Set())
		assert.Equal(t, string(constants.Dining), *res.SuggestedCategory.Value)
	})

	t.Run("rfc3339 dates are accepted", func(t *testing.T) {
		res := CoerceResult([]byte(`{"date": {"value": "2024-01-15T00:00:00Z", "confidence": 0.8}}`))
		require.True(t, res.Date.Set())
		assert.Equal(t, "2024-01-15", res.Date.Value.Format("2006-01-02"))
	})

	t.Run("item list is capped at twenty", func(t *testing.T) {
		raw := `{"items": [`
		for i := 0; i < 30; i++ {
			if i > 0 {
				raw += ","
			}
			raw += `{"name": "item", "confidence": 0.5}`
		}
		raw += `]}`
		res := CoerceResult([]byte(raw))
		assert.Len(t, res.Items, 20)
	})
}

func TestValidateAgainstSchema(t *testing.T) {
	schema := BuildResultJSONSchema()

	valid := []byte(`{
		"merchant_name": {"value": "Corner Cafe", "confidence": 0.95},
		"total_amount": {"value": 18.25, "confidence": 0.9},
		"date": {"value": "2024-01-15", "confidence": 0.85},
		"tax_amount": {"value": null, "confidence": 0},
		"suggested_category": {"value": "Dining", "confidence": 0.9},
		"payment_method": {"value": null, "confidence": 0}
	}`)
	assert.NoError(t, ValidateAgainstSchema(schema, valid))

	t.Run("confidence out of range", func(t *testing.T) {
		bad := []byte(`{
			"merchant_name": {"value": "X", "confidence": 1.5},
			"total_amount": {"value": 1, "confidence": 0},
			"date": {"value": null, "confidence": 0},
			"tax_amount": {"value": null, "confidence": 0},
			"suggested_category": {"value": null, "confidence": 0},
			"payment_method": {"value": null, "confidence": 0}
		}`)
		assert.Error(t, ValidateAgainstSchema(schema, bad))
	})

	t.Run("unknown category", func(t *testing.T) {
		bad := []byte(`{
			"merchant_name": {"value": "X", "confidence": 0.5},
			"total_amount": {"value": 1, "confidence": 0.5},
			"date": {"value": null, "confidence": 0},
			"tax_amount": {"value": null, "confidence": 0},
			"suggested_category": {"value": "Snacks", "confidence": 0.5},
			"payment_method": {"value": null, "confidence": 0}
		}`)
		assert.Error(t, ValidateAgainstSchema(schema, bad))
	})

	t.Run("missing required field", func(t *testing.T) {
		assert.Error(t, ValidateAgainstSchema(schema, []byte(`{}`)))
	})
}
