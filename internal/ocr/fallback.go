package ocr

import (
	"context"
	"fmt"

	"agridocs/internal/config"
	"agridocs/internal/domain"
	"agridocs/internal/port"
	"agridocs/internal/sniff"
)

// Outcome reports what the fallback did for one document.
type Outcome struct {
	Attempted  bool
	Replaced   bool
	Text       string
	Confidence float64
}

// Fallback decides when OCR runs and whether its output replaces the
// primary extraction. The engine is injected so tests run without a
// tesseract install.
type Fallback struct {
	engine     port.OCREngine
	rasterizer *Rasterizer
	cfg        config.OCRConfig
}

func NewFallback(engine port.OCREngine, rasterizer *Rasterizer, cfg config.OCRConfig) *Fallback {
	return &Fallback{engine: engine, rasterizer: rasterizer, cfg: cfg}
}

// Run applies the fallback to one document. data is the original file;
// mimeType is the sniffed type. An OCR failure returns an error with
// Attempted set so the caller can record the attempt and keep the
// primary text.
func (f *Fallback) Run(ctx context.Context, mimeType string, data []byte, primaryText string) (*Outcome, error) {
	out := &Outcome{Text: primaryText}
	if !f.cfg.Enabled || f.engine == nil {
		return out, nil
	}

	isImage := sniff.IsImage(mimeType)
	if !isImage && !ShouldAttempt(len(primaryText), len(data), f.cfg) {
		return out, nil
	}
	if !isImage && mimeType != domain.MIMEPDF {
		// Only PDFs can be rasterized; other formats keep their
		// primary extraction however sparse.
		return out, nil
	}

	out.Attempted = true

	image := data
	if mimeType == domain.MIMEPDF {
		rendered, err := f.rasterizer.FirstPage(ctx, data)
		if err != nil {
			return out, fmt.Errorf("ocr.Fallback.Run: rasterize: %w", err)
		}
		image = rendered
	}

	result, err := f.engine.Recognize(ctx, image)
	if err != nil {
		return out, fmt.Errorf("ocr.Fallback.Run: recognize: %w", err)
	}

	out.Confidence = result.Confidence
	if ShouldReplace(len(primaryText), len(result.Text), result.Confidence, f.cfg) {
		out.Replaced = true
		out.Text = result.Text
	}
	return out, nil
}
