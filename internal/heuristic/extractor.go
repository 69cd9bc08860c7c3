// Package heuristic is the fallback extraction tier: local OCR followed by
// pattern-based field recognizers, each producing a value and an independent
// confidence score. It needs no network and no credentials, so it always
// runs when the vision tier cannot.
package heuristic

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/ocr"
)

// TextRecognizer is the OCR engine surface this tier depends on.
type TextRecognizer interface {
	RecognizeAll(ctx context.Context, paths []string) ([]ocr.Page, error)
}

type Extractor struct {
	engine TextRecognizer
	logger *slog.Logger
	now    func() time.Time
}

func NewExtractor(engine TextRecognizer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{engine: engine, logger: logger, now: time.Now}
}

// Extract OCRs every page image, reassembles the text in page order, and
// runs the field recognizers over the combined text. Empty recognition is a
// valid zero-confidence outcome, not an error.
func (e *Extractor) Extract(ctx context.Context, pages []string) (*entity.ExtractionResult, error) {
	start := time.Now()

	recognized, err := e.engine.RecognizeAll(ctx, pages)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	var confSum float32
	var confN int
	for _, pg := range recognized {
		if pg.Text != "" {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(pg.Text)
		}
		if pg.Confidence > 0 {
			confSum += pg.Confidence
			confN++
		}
	}
	text := b.String()
	var ocrConf float32
	if confN > 0 {
		ocrConf = confSum / float32(confN)
	}

	res := ParseText(text, e.now())
	if ocrConf > 0 {
		// weight field agreement higher, but let engine certainty pull the
		// aggregate down on noisy scans
		res.OverallConfidence = entity.ClampConfidence(0.7*res.OverallConfidence + 0.3*ocrConf)
	}
	res.ProcessingTimeMs = time.Since(start).Milliseconds()

	e.logger.Debug("heuristic extract done",
		"pages", len(pages),
		"text_bytes", len(text),
		"ocr_confidence", ocrConf,
		"overall", res.OverallConfidence,
	)
	return res, nil
}

// ParseText applies every field recognizer to the combined OCR text. It is a
// pure function of (text, now): identical input yields identical values and
// confidences.
func ParseText(text string, now time.Time) *entity.ExtractionResult {
	res := &entity.ExtractionResult{
		Method:  constants.MethodHeuristic,
		RawText: text,
	}
	if strings.TrimSpace(text) == "" {
		return res
	}

	lines := nonEmptyLines(text)
	res.MerchantName = recognizeMerchant(lines)
	res.TotalAmount = recognizeTotal(text)
	res.Date = recognizeDate(text, now)
	res.Items = recognizeItems(lines)
	res.TaxAmount = recognizeTax(text)
	res.SuggestedCategory = recognizeCategory(text)
	res.PaymentMethod = recognizePayment(text)
	res.OverallConfidence = res.ComputeOverall()
	return res
}

func nonEmptyLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, ln := range raw {
		if s := strings.TrimSpace(ln); s != "" {
			lines = append(lines, s)
		}
	}
	return lines
}
