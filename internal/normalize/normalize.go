package normalize

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/Venkatesh01777/Personal-Finance-Assistant/constants"
	"github.com/Venkatesh01777/Personal-Finance-Assistant/internal/common"
)

// MaxDimension caps normalized images at 2000x2000 to bound memory.
const MaxDimension = 2000

type Config struct {
	ArtifactDir string // scratch root for normalized pages, default "./tmp"
	DPI         int    // PDF rasterization density, default 300
	MaxPages    int    // 0 = all pages
	MaxFileSize int64  // default constants.MaxFileSizeBytes
}

// Output is the normalizer's product: one or more OCR-ready page images.
// Cleanup removes every temporary artifact; the orchestrator calls it on all
// exit paths.
type Output struct {
	Pages    []string // normalized image paths, page order
	MimeType string   // mime of the produced pages
	Warnings []string

	tmpDir string
}

// Cleanup removes the normalizer's temporary artifacts. Safe to call twice.
func (o *Output) Cleanup() {
	if o == nil || o.tmpDir == "" {
		return
	}
	if err := os.RemoveAll(o.tmpDir); err != nil {
		slog.Warn("normalize cleanup failed", "dir", o.tmpDir, "error", err)
	}
	o.tmpDir = ""
}

type Normalizer struct {
	cfg    Config
	logger *slog.Logger
}

func NewNormalizer(cfg Config, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.ArtifactDir == "" {
		cfg.ArtifactDir = "./tmp"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = constants.MaxFileSizeBytes
	}
	return &Normalizer{cfg: cfg, logger: logger}
}

// ValidateSource rejects inputs the pipeline must not attempt: unknown mime
// types, zero-byte files, and oversized files. These are fatal for the
// invocation, not retryable.
func (n *Normalizer) ValidateSource(path, mimeType string) error {
	if constants.MapMimeToFormat(mimeType) == "" {
		return fmt.Errorf("%w: mime type %q", common.ErrUnsupportedInput, mimeType)
	}
	st, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrUnsupportedInput, err)
	}
	if st.Size() == 0 {
		return fmt.Errorf("%w: %s", common.ErrEmptyFile, path)
	}
	if st.Size() > n.cfg.MaxFileSize {
		return fmt.Errorf("%w: %d bytes (max %d)", common.ErrFileTooLarge, st.Size(), n.cfg.MaxFileSize)
	}
	return nil
}

// Normalize converts the input into canonical OCR-ready page images: PDFs
// are rasterized per page, raster images are bounded, contrast-normalized,
// sharpened and grayscaled. When processing fails the original file is
// returned as-is with a warning; the orchestrator decides whether that is
// fatal.
func (n *Normalizer) Normalize(ctx context.Context, path, mimeType string) (*Output, error) {
	if err := n.ValidateSource(path, mimeType); err != nil {
		return nil, err
	}

	tmpDir, err := os.MkdirTemp(n.cfg.ArtifactDir, "norm-*")
	if err != nil {
		// cannot write artifacts: hand back the original untouched
		n.logger.Warn("normalize scratch dir failed, deferring to original", "error", err)
		return &Output{Pages: []string{path}, MimeType: mimeType,
			Warnings: []string{fmt.Sprintf("scratch dir: %v", err)}}, nil
	}

	out := &Output{MimeType: "image/png", tmpDir: tmpDir}
	switch constants.MapMimeToFormat(mimeType) {
	case constants.PDF:
		err = n.rasterizePDF(ctx, path, tmpDir, out)
	default:
		err = n.normalizeImage(path, tmpDir, out)
	}
	if err != nil || len(out.Pages) == 0 {
		// defer gracefully: original bytes, original mime
		if err != nil {
			out.Warnings = append(out.Warnings, err.Error())
			n.logger.Warn("normalize failed, deferring to original", "path", path, "error", err)
		}
		out.Pages = []string{path}
		out.MimeType = mimeType
	}
	return out, nil
}

func (n *Normalizer) normalizeImage(path, tmpDir string, out *Output) error {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return fmt.Errorf("decode image: %w", err)
	}
	dst := filepath.Join(tmpDir, "page-1.png")
	if err := imaging.Save(n.enhance(img), dst); err != nil {
		return fmt.Errorf("save normalized image: %w", err)
	}
	out.Pages = append(out.Pages, dst)
	return nil
}

// enhance applies the OCR-accuracy chain: bounded downscale (never upscale),
// brightness/contrast normalization, sharpen, grayscale.
func (n *Normalizer) enhance(img image.Image) image.Image {
	b := img.Bounds()
	if b.Dx() > MaxDimension || b.Dy() > MaxDimension {
		img = imaging.Fit(img, MaxDimension, MaxDimension, imaging.Lanczos)
	}
	img = imaging.AdjustBrightness(img, 4)
	img = imaging.AdjustContrast(img, 12)
	img = imaging.Sharpen(img, 0.8)
	return imaging.Grayscale(img)
}
