package ocr

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// Rasterizer converts PDF pages to PNG images via poppler's pdftoppm.
type Rasterizer struct {
	pdftoppmPath string
}

func NewRasterizer(pdftoppmPath string) *Rasterizer {
	if pdftoppmPath == "" {
		pdftoppmPath = "pdftoppm"
	}
	return &Rasterizer{pdftoppmPath: pdftoppmPath}
}

// FirstPage renders the first PDF page to PNG bytes. Scanned
// documents carry their content on page one often enough that a
// single page keeps OCR latency bounded.
func (r *Rasterizer) FirstPage(ctx context.Context, pdfData []byte) ([]byte, error) {
	dir, err := os.MkdirTemp("", "agridocs-ocr")
	if err != nil {
		return nil, fmt.Errorf("ocr.Rasterizer.FirstPage: temp dir: %w", err)
	}
	defer os.RemoveAll(dir)

	input := filepath.Join(dir, "in.pdf")
	if err := os.WriteFile(input, pdfData, 0o600); err != nil {
		return nil, fmt.Errorf("ocr.Rasterizer.FirstPage: write input: %w", err)
	}

	prefix := filepath.Join(dir, "page")
	cmd := exec.CommandContext(ctx, r.pdftoppmPath, "-png", "-r", "200", "-f", "1", "-l", "1", input, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ocr.Rasterizer.FirstPage: pdftoppm: %w (%s)", err, string(out))
	}

	matches, err := filepath.Glob(prefix + "-*.png")
	if err != nil || len(matches) == 0 {
		return nil, fmt.Errorf("ocr.Rasterizer.FirstPage: no page image produced")
	}
	return os.ReadFile(matches[0])
}
