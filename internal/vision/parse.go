package vision

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
)

// ExtractJSONObject strips any non-JSON wrapping from a model response and
// returns the first balanced JSON object. Models wrap answers in code fences
// or prose often enough that bare json.Unmarshal is not an option.
func ExtractJSONObject(s string) ([]byte, bool) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, "```"); i >= 0 {
		s = s[i+3:]
		s = strings.TrimPrefix(s, "json")
		if j := strings.Index(s, "```"); j >= 0 {
			s = s[:j]
		}
	}

	start := strings.IndexByte(s, '{')
	if start < 0 {
		return nil, false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return []byte(s[start : i+1]), true
			}
		}
	}
	return nil, false
}

// CoerceResult maps a parsed model response onto the canonical result shape.
// Missing or mistyped fields become {value: nil, confidence: 0}; confidences
// are clamped into [0,1]. It never fails: garbage in, zero-confidence out.
func CoerceResult(raw []byte) *entity.ExtractionResult {
	res := &entity.ExtractionResult{Method: constants.MethodVision}

	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return res
	}

	res.MerchantName = coerceString(m["merchant_name"])
	res.TotalAmount = coerceNumber(m["total_amount"])
	res.Date = coerceDate(m["date"])
	res.Items = coerceItems(m["items"])
	res.TaxAmount = coerceNumber(m["tax_amount"])
	res.SuggestedCategory = coerceCategory(m["suggested_category"])
	res.PaymentMethod = coerceString(m["payment_method"])
	if s, ok := m["raw_text"].(string); ok {
		res.RawText = s
	}
	res.OverallConfidence = res.ComputeOverall()
	return res
}

func fieldParts(v any) (any, float32, bool) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, 0, false
	}
	conf, _ := obj["confidence"].(float64)
	return obj["value"], entity.ClampConfidence(float32(conf)), true
}

func coerceString(v any) entity.Field[string] {
	val, conf, ok := fieldParts(v)
	if !ok {
		return entity.ZeroField[string]()
	}
	s, ok := val.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return entity.ZeroField[string]()
	}
	return entity.NewField(strings.TrimSpace(s), conf)
}

func coerceNumber(v any) entity.Field[float64] {
	val, conf, ok := fieldParts(v)
	if !ok {
		return entity.ZeroField[float64]()
	}
	switch n := val.(type) {
	case float64:
		return entity.NewField(n, conf)
	case string:
		// models occasionally quote numbers
		var f float64
		if err := json.Unmarshal([]byte(strings.TrimSpace(n)), &f); err == nil {
			return entity.NewField(f, conf)
		}
	}
	return entity.ZeroField[float64]()
}

func coerceDate(v any) entity.Field[time.Time] {
	val, conf, ok := fieldParts(v)
	if !ok {
		return entity.ZeroField[time.Time]()
	}
	s, ok := val.(string)
	if !ok {
		return entity.ZeroField[time.Time]()
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, strings.TrimSpace(s)); err == nil {
			return entity.NewField(t, conf)
		}
	}
	return entity.ZeroField[time.Time]()
}

func coerceCategory(v any) entity.Field[string] {
	f := coerceString(v)
	if f.Value == nil {
		return f
	}
	canon, _ := constants.CanonicalizeCategory(*f.Value)
	return entity.NewField(string(canon), f.Confidence)
}

func coerceItems(v any) []entity.LineItem {
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	items := make([]entity.LineItem, 0, len(arr))
	for _, el := range arr {
		obj, ok := el.(map[string]any)
		if !ok {
			continue
		}
		name, _ := obj["name"].(string)
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		conf, _ := obj["confidence"].(float64)
		item := entity.LineItem{Name: name, Confidence: entity.ClampConfidence(float32(conf))}
		if q, ok := obj["quantity"].(float64); ok {
			item.Quantity = &q
		}
		if u, ok := obj["unit_price"].(float64); ok {
			item.UnitPrice = &u
		}
		if t, ok := obj["total_price"].(float64); ok {
			item.TotalPrice = &t
		}
		items = append(items, item)
		if len(items) >= 20 {
			break
		}
	}
	return items
}
