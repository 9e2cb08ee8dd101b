package port

import "context"

// OCRResult is the output of one optical character recognition run.
type OCRResult struct {
	Text       string
	Confidence float64 // 0..1, mean word confidence
}

// OCREngine abstracts image-based text recognition.
type OCREngine interface {
	Recognize(ctx context.Context, image []byte) (*OCRResult, error)
}
