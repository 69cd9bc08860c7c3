package normalize

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/gen2brain/go-fitz"
)

// rasterizePDF renders each page to a normalized PNG at the configured DPI.
// Pages that fail to render are skipped with a warning; the document only
// fails as a whole when nothing renders.
func (n *Normalizer) rasterizePDF(ctx context.Context, path, tmpDir string, out *Output) error {
	doc, err := fitz.New(path)
	if err != nil {
		return fmt.Errorf("open pdf: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if n.cfg.MaxPages > 0 && pages > n.cfg.MaxPages {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("pdf has %d pages, rasterizing first %d", pages, n.cfg.MaxPages))
		pages = n.cfg.MaxPages
	}

	for i := 0; i < pages; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		img, err := doc.ImageDPI(i, float64(n.cfg.DPI))
		if err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			n.logger.Warn("pdf page render failed", "path", path, "page", i+1, "error", err)
			continue
		}
		dst := filepath.Join(tmpDir, fmt.Sprintf("page-%d.png", i+1))
		if err := imaging.Save(n.enhance(img), dst); err != nil {
			out.Warnings = append(out.Warnings, fmt.Sprintf("page %d: %v", i+1, err))
			continue
		}
		out.Pages = append(out.Pages, dst)
	}
	if len(out.Pages) == 0 {
		return fmt.Errorf("pdf rendered no pages")
	}
	return nil
}
