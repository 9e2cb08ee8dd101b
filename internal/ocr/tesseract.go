package ocr

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"agridocs/internal/port"
)

// TesseractEngine runs OCR through the tesseract C library. A fresh
// client per call keeps the engine safe for concurrent use.
type TesseractEngine struct {
	languages []string
}

func NewTesseractEngine(languages string) *TesseractEngine {
	langs := strings.Split(languages, "+")
	if languages == "" {
		langs = []string{"eng"}
	}
	return &TesseractEngine{languages: langs}
}

func (e *TesseractEngine) Recognize(_ context.Context, image []byte) (*port.OCRResult, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.languages...); err != nil {
		return nil, fmt.Errorf("ocr.TesseractEngine.Recognize: set language: %w", err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return nil, fmt.Errorf("ocr.TesseractEngine.Recognize: set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("ocr.TesseractEngine.Recognize: extract text: %w", err)
	}

	return &port.OCRResult{
		Text:       strings.TrimSpace(text),
		Confidence: wordConfidence(client),
	}, nil
}

// wordConfidence averages tesseract's per-word confidences, scaled
// from 0..100 to 0..1. Errors degrade to zero confidence rather than
// failing the recognition.
func wordConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}
	var sum float64
	for _, b := range boxes {
		sum += b.Confidence
	}
	return sum / float64(len(boxes)) / 100.0
}
