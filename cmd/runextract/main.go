// runextract processes a single receipt file end to end against an in-memory
// store and prints the extraction result as indented JSON. Debugging aid for
// recognizer and prompt changes.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/common"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/heuristic"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/normalize"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/ocr"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/pipeline"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/repository"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/vision"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)

	if len(os.Args) < 2 {
		logger.Error("usage: runextract <receipt file>")
		os.Exit(2)
	}
	path := os.Args[1]

	mime := constants.MimeForExt(filepath.Ext(path))
	if mime == "" {
		logger.Error("unsupported file extension", "path", path)
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		logger.Debug("no .env file loaded", "error", err)
	}
	cfg := common.LoadConfig()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	// throwaway store; each connection to a plain in-memory DSN would get its
	// own empty database, so use a scratch file instead
	scratch, err := os.MkdirTemp("", "runextract-*")
	if err != nil {
		logger.Error("creating scratch dir", "error", err)
		os.Exit(1)
	}
	defer os.RemoveAll(scratch)

	docs, err := repository.Open(ctx, "file:"+filepath.Join(scratch, "docs.db"), logger)
	if err != nil {
		logger.Error("opening scratch store", "error", err)
		os.Exit(1)
	}
	defer docs.Close()

	info, err := os.Stat(path)
	if err != nil {
		logger.Error("stat input", "path", path, "error", err)
		os.Exit(1)
	}
	doc, err := docs.Create(ctx, path, mime, info.Size())
	if err != nil {
		logger.Error("creating document", "error", err)
		os.Exit(1)
	}

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

	proc := pipeline.NewProcessor(pipeline.Config{
		Method: cfg.Extraction.Method,
	}, normalizer, visionClient, heuristic.NewExtractor(engine, logger), docs, logger)

	res, err := proc.Process(ctx, doc.ID)
	if err != nil {
		logger.Error("processing failed", "error", err)
		if res == nil {
			os.Exit(1)
		}
	}

	b, _ := json.MarshalIndent(res, "", "  ")
	fmt.Println(string(b))
}
