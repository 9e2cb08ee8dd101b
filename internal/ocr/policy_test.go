package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"agridocs/internal/config"
)

func testConfig() config.OCRConfig {
	return config.OCRConfig{
		Enabled:            true,
		MinCoverageRatio:   0.002,
		MinTextChars:       100,
		ReplaceLengthRatio: 1.5,
		ReplaceConfidence:  0.7,
	}
}

func TestShouldAttempt(t *testing.T) {
	cfg := testConfig()

	t.Run("sparse text triggers", func(t *testing.T) {
		assert.True(t, ShouldAttempt(40, 10_000, cfg))
	})

	t.Run("enough text skips", func(t *testing.T) {
		assert.False(t, ShouldAttempt(5_000, 10_000, cfg))
	})

	t.Run("large file raises the floor", func(t *testing.T) {
		// 5 MB file: coverage floor is 10_000 chars, above the
		// absolute minimum.
		assert.True(t, ShouldAttempt(800, 5_000_000, cfg))
		assert.False(t, ShouldAttempt(800, 10_000, cfg))
	})

	t.Run("threshold is exclusive", func(t *testing.T) {
		assert.False(t, ShouldAttempt(100, 1_000, cfg))
		assert.True(t, ShouldAttempt(99, 1_000, cfg))
	})
}

func TestShouldReplace(t *testing.T) {
	cfg := testConfig()

	t.Run("substantially longer text at reasonable confidence wins", func(t *testing.T) {
		assert.True(t, ShouldReplace(100, 151, 0.6, cfg))
	})

	t.Run("longer text alone is not enough", func(t *testing.T) {
		// Twice the text at poor recognition quality keeps the primary.
		assert.False(t, ShouldReplace(50, 100, 0.4, cfg))
		assert.False(t, ShouldReplace(100, 151, 0.1, cfg))
		assert.False(t, ShouldReplace(100, 151, 0.5, cfg))
	})

	t.Run("high confidence wins", func(t *testing.T) {
		assert.True(t, ShouldReplace(100, 50, 0.9, cfg))
	})

	t.Run("short low-confidence output loses", func(t *testing.T) {
		assert.False(t, ShouldReplace(100, 110, 0.5, cfg))
	})

	t.Run("exactly the length ratio does not replace", func(t *testing.T) {
		assert.False(t, ShouldReplace(100, 150, 0.6, cfg))
	})

	t.Run("exactly the confidence threshold does not replace", func(t *testing.T) {
		assert.False(t, ShouldReplace(100, 50, 0.7, cfg))
	})

	t.Run("empty output never replaces", func(t *testing.T) {
		assert.False(t, ShouldReplace(0, 0, 0.99, cfg))
	})

	t.Run("anything beats empty primary text", func(t *testing.T) {
		assert.True(t, ShouldReplace(0, 1, 0.0, cfg))
	})
}
