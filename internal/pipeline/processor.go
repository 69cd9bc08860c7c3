// Package pipeline orchestrates extraction: normalize the source, try the
// vision tier, fall back to the heuristic tier, persist the outcome on the
// document. One result per attempt, whole-result tier selection.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/common"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/entity"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/normalize"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/repository"
)

// VisionTier is the primary extraction surface. Configured() lets the
// orchestrator skip the tier silently when no credentials are set.
type VisionTier interface {
	Configured() bool
	Extract(ctx context.Context, imagePath, mimeType string) (*entity.ExtractionResult, error)
}

// HeuristicTier is the local OCR fallback surface.
type HeuristicTier interface {
	Extract(ctx context.Context, pages []string) (*entity.ExtractionResult, error)
}

// SourceNormalizer produces OCR-ready page images from an uploaded file.
type SourceNormalizer interface {
	Normalize(ctx context.Context, path, mimeType string) (*normalize.Output, error)
}

type Config struct {
	Method          string  // vision | heuristic | hybrid (default hybrid)
	AcceptThreshold float32 // vision acceptance bar, default constants.VisionAcceptThreshold
	MaxAttempts     int     // default constants.MaxAttempts
}

type Processor struct {
	cfg        Config
	normalizer SourceNormalizer
	vision     VisionTier
	heuristic  HeuristicTier
	docs       repository.DocumentRepository
	logger     *slog.Logger
}

func NewProcessor(cfg Config, n SourceNormalizer, v VisionTier, h HeuristicTier, docs repository.DocumentRepository, logger *slog.Logger) *Processor {
	if cfg.Method == "" {
		cfg.Method = constants.ExtractionHybrid
	}
	if cfg.AcceptThreshold <= 0 {
		cfg.AcceptThreshold = constants.VisionAcceptThreshold
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = constants.MaxAttempts
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		cfg:        cfg,
		normalizer: n,
		vision:     v,
		heuristic:  h,
		docs:       docs,
		logger:     logger,
	}
}

// Process runs one extraction attempt for the document. A document that holds
// any result, even a zero-confidence one, becomes processed; failed is
// reserved for attempts that died before producing a result. Documents at the
// attempt cap are refused up front.
func (p *Processor) Process(ctx context.Context, docID uuid.UUID) (*entity.ExtractionResult, error) {
	doc, err := p.docs.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.Attempts >= p.cfg.MaxAttempts {
		return nil, fmt.Errorf("document %s after %d attempts: %w", docID, doc.Attempts, common.ErrAttemptsExhausted)
	}

	if err := p.docs.SetStatus(ctx, docID, constants.DocStatusProcessing); err != nil {
		return nil, err
	}

	start := time.Now()
	p.logger.Info("processing document",
		"id", docID, "path", doc.SourcePath, "mime", doc.MimeType, "attempt", doc.Attempts+1)

	res, fatal := p.run(ctx, doc.SourcePath, doc.MimeType)
	if fatal != nil {
		errRes := entity.ErrorResult(fatal.Error(), time.Since(start))
		if serr := p.docs.SaveResult(ctx, docID, constants.DocStatusFailed, errRes); serr != nil {
			p.logger.Error("saving error result failed", "id", docID, "error", serr)
		}
		if _, ferr := p.docs.RecordFailure(ctx, docID, fatal.Error()); ferr != nil {
			p.logger.Error("recording failure failed", "id", docID, "error", ferr)
		}
		return errRes, fatal
	}

	if err := p.docs.SaveResult(ctx, docID, constants.DocStatusProcessed, res); err != nil {
		return nil, err
	}
	p.logger.Info("document processed",
		"id", docID,
		"method", res.Method,
		"overall", res.OverallConfidence,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return res, nil
}

// Reprocess clears the document's extraction state and attempt counter, then
// runs a fresh attempt. This is the operator escape hatch for documents at
// the attempt cap.
func (p *Processor) Reprocess(ctx context.Context, docID uuid.UUID) (*entity.ExtractionResult, error) {
	if err := p.docs.ResetForReprocess(ctx, docID); err != nil {
		return nil, err
	}
	p.logger.Info("document reset for reprocess", "id", docID)
	return p.Process(ctx, docID)
}

// run executes normalize + tiers and always returns either a usable result or
// a fatal error, never both. Temp artifacts are removed on every exit path.
func (p *Processor) run(ctx context.Context, path, mimeType string) (*entity.ExtractionResult, error) {
	out, err := p.normalizer.Normalize(ctx, path, mimeType)
	if err != nil {
		// unsupported/empty/oversized input, nothing a retry can fix
		return nil, err
	}
	defer out.Cleanup()

	for _, w := range out.Warnings {
		p.logger.Warn("normalize warning", "path", path, "warning", w)
	}
	return p.extract(ctx, out)
}

// extract applies the tier policy: vision first when allowed and configured,
// heuristic as fallback or when vision scores below the acceptance bar. The
// winning tier's result is used whole; per-field merging is deliberately not
// done, partial cross-tier results are harder to reason about than one
// attributable result.
func (p *Processor) extract(ctx context.Context, out *normalize.Output) (*entity.ExtractionResult, error) {
	var visionErr error

	if p.cfg.Method != constants.ExtractionHeuristic && p.vision != nil && p.vision.Configured() {
		// vision reads the first page only; multi-page receipts are rare and
		// page one carries the header and totals
		res, err := p.vision.Extract(ctx, out.Pages[0], out.MimeType)
		switch {
		case err != nil:
			visionErr = err
			p.logger.Warn("vision tier failed, falling back", "error", err)
		case res.OverallConfidence > p.cfg.AcceptThreshold:
			return res, nil
		default:
			p.logger.Info("vision result below threshold, falling back",
				"overall", res.OverallConfidence, "threshold", p.cfg.AcceptThreshold)
		}
		if p.cfg.Method == constants.ExtractionVision {
			if visionErr != nil {
				return nil, fmt.Errorf("vision extraction: %w", visionErr)
			}
			// vision-only mode keeps the weak result rather than guessing
			return res, nil
		}
	} else if p.cfg.Method == constants.ExtractionVision {
		return nil, common.ErrNotConfigured
	}

	res, err := p.heuristic.Extract(ctx, out.Pages)
	if err != nil {
		if visionErr != nil {
			return nil, fmt.Errorf("all tiers failed: vision: %v; heuristic: %w", visionErr, err)
		}
		return nil, fmt.Errorf("heuristic extraction: %w", err)
	}
	return res, nil
}

// IsFatalInput reports whether the error marks input the pipeline can never
// process, as opposed to a transient tier failure.
func IsFatalInput(err error) bool {
	return errors.Is(err, common.ErrUnsupportedInput) ||
		errors.Is(err, common.ErrEmptyFile) ||
		errors.Is(err, common.ErrFileTooLarge)
}
