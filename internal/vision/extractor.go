package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/common"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
)

// Extract sends one normalized page image to the inference service and maps
// the response onto the canonical result. Transport failures are returned as
// errors so the orchestrator can fall back; an answer we cannot parse is NOT
// an error, it degrades to a zero-confidence vision result.
func (c *Client) Extract(ctx context.Context, imagePath, mimeType string) (*entity.ExtractionResult, error) {
	if !c.Configured() {
		return nil, common.ErrNotConfigured
	}

	rid := uuid.New().String()
	start := time.Now()
	c.logger.Info("vision.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"prompt_version", PromptVersion,
		"image", imagePath,
	)

	dataURL, err := readAsDataURL(imagePath, mimeType)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}

	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt()},
			{"role": "user", "content": []map[string]any{
				{"type": "text", "text": "Extract the receipt fields from this image. Return ONLY the JSON object."},
				{"type": "image_url", "image_url": map[string]any{"url": dataURL}},
			}},
		},
	}

	raw, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		c.logger.Error("vision.extract.http_error",
			"req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
		return nil, err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return nil, fmt.Errorf("decode inference response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return nil, fmt.Errorf("no choices in inference response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)

	res := c.parseContent(rid, content)
	res.ProcessingTimeMs = time.Since(start).Milliseconds()

	c.logger.Info("vision.extract.ok",
		"req_id", rid,
		"overall", res.OverallConfidence,
		"merchant_conf", res.MerchantName.Confidence,
		"total_conf", res.TotalAmount.Confidence,
		"elapsed_ms", res.ProcessingTimeMs,
	)
	return res, nil
}

// parseContent turns whatever the model said into a canonical result.
func (c *Client) parseContent(rid, content string) *entity.ExtractionResult {
	obj, ok := ExtractJSONObject(content)
	if !ok {
		c.logger.Warn("vision.extract.no_json", "req_id", rid, "content_bytes", len(content))
		return &entity.ExtractionResult{Method: constants.MethodVision}
	}

	if err := ValidateAgainstSchema(BuildResultJSONSchema(), obj); err != nil {
		// coercion below still salvages what it can
		c.logger.Warn("vision.extract.schema_mismatch", "req_id", rid, "error", err)
	}
	return CoerceResult(obj)
}
