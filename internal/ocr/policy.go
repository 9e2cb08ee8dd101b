// Package ocr provides the OCR fallback for scanned and image-heavy
// documents.
package ocr

import "agridocs/internal/config"

// ShouldAttempt reports whether primary extraction produced too little
// text for the file's size, making an OCR pass worthwhile. The floor
// is the larger of the absolute character minimum and the
// size-proportional coverage minimum.
func ShouldAttempt(primaryTextLen, fileSize int, cfg config.OCRConfig) bool {
	threshold := cfg.MinTextChars
	if byCoverage := int(float64(fileSize) * cfg.MinCoverageRatio); byCoverage > threshold {
		threshold = byCoverage
	}
	return primaryTextLen < threshold
}

// minReasonableConfidence gates the length branch of ShouldReplace:
// more text alone is not enough when recognition was this poor.
const minReasonableConfidence = 0.5

// ShouldReplace decides whether OCR output replaces the primary text.
// The policy is asymmetric: OCR wins on substantially more text at a
// reasonable recognition confidence, or on high confidence alone. All
// comparisons are strict, so output sitting exactly on a threshold
// keeps the primary text.
func ShouldReplace(primaryTextLen, ocrTextLen int, ocrConfidence float64, cfg config.OCRConfig) bool {
	if ocrTextLen == 0 {
		return false
	}
	if primaryTextLen == 0 {
		// Nothing to lose: any recognized text beats an empty primary.
		return true
	}
	if float64(ocrTextLen) > cfg.ReplaceLengthRatio*float64(primaryTextLen) && ocrConfidence > minReasonableConfidence {
		return true
	}
	return ocrConfidence > cfg.ReplaceConfidence
}
