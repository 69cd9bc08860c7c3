package ocr

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"log/slog"
)

type Config struct {
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	Lang        string // default "eng"
	TessdataDir string

	PSM int // 6 is good for a uniform block of text
	OEM int // 1 = LSTM; leave 0 to use the default
}

// Page is the text recognition output for a single image.
type Page struct {
	Text       string
	Confidence float32 // mean word confidence in [0,1]; 0 when unavailable
}

// Engine is the shared text-recognition handle. A single engine is wired at
// startup and injected into the heuristic tier; the mutex serializes access
// so concurrent extractions queue on it instead of racing the binary's
// scratch state.
type Engine struct {
	cfg    Config
	runner Runner
	logger *slog.Logger

	mu sync.Mutex
}

func NewEngine(cfg Config, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.Lang == "" {
		cfg.Lang = "eng"
	}
	return &Engine{cfg: cfg, runner: execRunner{}, logger: logger}
}

// RecognizeAll OCRs every image sequentially under one acquisition of the
// engine, returning pages in input order so multi-page text reassembly stays
// deterministic.
func (e *Engine) RecognizeAll(ctx context.Context, paths []string) ([]Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	pages := make([]Page, 0, len(paths))
	var firstErr error
	for _, p := range paths {
		pg, err := e.recognize(ctx, p)
		if err != nil {
			e.logger.Warn("ocr page failed", "path", p, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			pages = append(pages, Page{})
			continue
		}
		pages = append(pages, pg)
	}
	if len(paths) > 0 && firstErr != nil && allEmpty(pages) {
		return pages, fmt.Errorf("ocr failed for all %d page(s): %w", len(paths), firstErr)
	}
	return pages, nil
}

func allEmpty(pages []Page) bool {
	for _, p := range pages {
		if p.Text != "" {
			return false
		}
	}
	return true
}

func (e *Engine) recognize(ctx context.Context, path string) (Page, error) {
	txt, err := e.tesseractText(ctx, path)
	if err != nil {
		return Page{}, err
	}
	txt = NormalizeText(txt)

	conf, err := e.tesseractTSVConfidence(ctx, path)
	if err != nil {
		// text already recovered; degrade to content heuristics
		e.logger.Debug("tsv confidence unavailable", "path", path, "error", err)
		conf = contentConfidence(txt)
	}
	return Page{Text: txt, Confidence: conf}, nil
}

func (e *Engine) baseArgs(path string) []string {
	args := []string{path, "stdout", "-l", e.cfg.Lang}
	if e.cfg.PSM > 0 {
		args = append(args, "--psm", strconv.Itoa(e.cfg.PSM))
	}
	if e.cfg.OEM > 0 {
		args = append(args, "--oem", strconv.Itoa(e.cfg.OEM))
	}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	return args
}

func (e *Engine) tesseractText(ctx context.Context, path string) (string, error) {
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.baseArgs(path)...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w (%s)", err, truncate(string(errb), 512))
	}
	return string(out), nil
}

// tesseractTSVConfidence runs tesseract in TSV mode and returns the mean
// word confidence scaled to 0..1.
func (e *Engine) tesseractTSVConfidence(ctx context.Context, path string) (float32, error) {
	args := append(e.baseArgs(path), "tsv")

	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, args...)
	if err != nil {
		return 0, fmt.Errorf("tesseract tsv: %w (%s)", err, truncate(string(errb), 512))
	}

	lines := strings.Split(string(out), "\n")
	var sum, n float64
	for i, ln := range lines {
		if i == 0 || len(ln) == 0 {
			continue // header
		}
		cols := strings.Split(ln, "\t")
		if len(cols) < 12 {
			continue
		}
		confStr := cols[len(cols)-2]
		word := strings.TrimSpace(cols[len(cols)-1])
		if confStr == "" || confStr == "-1" || word == "" {
			continue
		}
		if v, err := strconv.ParseFloat(confStr, 64); err == nil {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, nil
	}
	mean := sum / n // 0..100
	return float32(mean / 100.0), nil
}
