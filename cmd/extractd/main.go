// extractd ingests a directory of receipt images/PDFs, runs the extraction
// pipeline over them on a worker pool, and writes an XLSX summary of every
// processed document.
package main

import (
	"context"
	"flag"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/common"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/export"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/heuristic"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/normalize"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/ocr"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/pipeline"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/repository"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/vision"
)

func main() {
	var (
		dir     = flag.String("dir", ".", "directory of receipt files to ingest")
		out     = flag.String("out", "receipts.xlsx", "XLSX output path")
		dsn     = flag.String("dsn", "", "document store DSN (overrides RECEIPTS_DB)")
		workers = flag.Int("workers", 4, "concurrent extraction workers")
	)
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}

	cfg := common.LoadConfig()
	if *dsn != "" {
		cfg.Store.DSN = *dsn
	}
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	docs, err := repository.Open(ctx, cfg.Store.DSN, logger)
	if err != nil {
		logger.Error("opening document store", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := docs.Close(); cerr != nil {
			logger.Warn("closing document store", "error", cerr)
		}
	}()

	proc := buildProcessor(cfg, docs, logger)
	queue := pipeline.NewQueue(proc, logger,
		pipeline.WithWorkers(*workers),
		pipeline.WithJobTimeout(5*time.Minute),
	)

	enqueued, skipped := ingestDir(ctx, *dir, docs, queue, logger)
	logger.Info("ingest complete", "enqueued", enqueued, "skipped", skipped)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	queue.Shutdown(shutdownCtx)
	cancel()

	svc := export.NewService(docs, logger)
	xlsx, err := svc.ExportProcessedXLSX(ctx)
	if err != nil {
		logger.Error("export failed", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsx, 0o644); err != nil {
		logger.Error("writing workbook", "path", *out, "error", err)
		os.Exit(1)
	}

	processed, _ := docs.ListByStatus(ctx, constants.DocStatusProcessed)
	failed, _ := docs.ListByStatus(ctx, constants.DocStatusFailed)
	logger.Info("run complete",
		"processed", len(processed),
		"failed", len(failed),
		"workbook", *out,
	)
}

func buildProcessor(cfg *common.Config, docs repository.DocumentRepository, logger *slog.Logger) *pipeline.Processor {
	engine := ocr.NewEngine(ocr.Config{
		Tesseract:   cfg.OCR.Tesseract,
		Lang:        cfg.OCR.Lang,
		TessdataDir: cfg.OCR.TessdataDir,
		PSM:         cfg.OCR.PSM,
	}, logger)

	normalizer := normalize.NewNormalizer(normalize.Config{
		ArtifactDir: cfg.Extraction.ArtifactDir,
		DPI:         cfg.OCR.DPI,
		MaxPages:    cfg.OCR.MaxPages,
		MaxFileSize: cfg.Extraction.MaxFileSize,
	}, logger)

	visionClient := vision.NewClient(vision.Config{
		APIKey:      cfg.Vision.APIKey,
		BaseURL:     cfg.Vision.BaseURL,
		Model:       cfg.Vision.Model,
		Temperature: cfg.Vision.Temperature,
		Timeout:     cfg.Vision.Timeout,
	}, logger)

	heur := heuristic.NewExtractor(engine, logger)

	return pipeline.NewProcessor(pipeline.Config{
		Method: cfg.Extraction.Method,
	}, normalizer, visionClient, heur, docs, logger)
}

// ingestDir walks the directory, creates a document per supported file and
// queues it for extraction. Unsupported extensions are skipped, not fatal.
func ingestDir(ctx context.Context, dir string, docs repository.DocumentRepository, queue *pipeline.Queue, logger *slog.Logger) (enqueued, skipped int) {
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		mime := constants.MimeForExt(filepath.Ext(path))
		if mime == "" {
			logger.Debug("skipping unsupported file", "path", path)
			skipped++
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		doc, err := docs.Create(ctx, path, mime, info.Size())
		if err != nil {
			return err
		}
		if err := queue.Enqueue(ctx, pipeline.Job{DocID: doc.ID}); err != nil {
			return err
		}
		enqueued++
		return nil
	})
	if err != nil {
		logger.Error("directory walk failed", "dir", dir, "error", err)
	}
	return enqueued, skipped
}
