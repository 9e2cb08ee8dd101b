package ocr

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agridocs/internal/domain"
	"agridocs/internal/port"
)

type fakeEngine struct {
	result *port.OCRResult
	err    error
	calls  int
}

func (f *fakeEngine) Recognize(_ context.Context, _ []byte) (*port.OCRResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func TestFallbackSkipsWhenDisabled(t *testing.T) {
	engine := &fakeEngine{result: &port.OCRResult{Text: "ocr", Confidence: 0.99}}
	cfg := testConfig()
	cfg.Enabled = false
	fb := NewFallback(engine, NewRasterizer(""), cfg)

	out, err := fb.Run(context.Background(), domain.MIMEPNG, []byte{1, 2}, "")
	require.NoError(t, err)
	assert.False(t, out.Attempted)
	assert.Equal(t, 0, engine.calls)
}

func TestFallbackSkipsWhenTextSufficient(t *testing.T) {
	engine := &fakeEngine{result: &port.OCRResult{Text: "ocr"}}
	fb := NewFallback(engine, NewRasterizer(""), testConfig())

	primary := make([]byte, 200)
	out, err := fb.Run(context.Background(), domain.MIMEPDF, []byte{1}, string(primary))
	require.NoError(t, err)
	assert.False(t, out.Attempted)
	assert.Equal(t, 0, engine.calls)
}

func TestFallbackRunsOnImages(t *testing.T) {
	// Images always go through OCR regardless of primary text volume.
	engine := &fakeEngine{result: &port.OCRResult{Text: "recognized subsidy text", Confidence: 0.92}}
	fb := NewFallback(engine, NewRasterizer(""), testConfig())

	out, err := fb.Run(context.Background(), domain.MIMEPNG, []byte{0x89}, "")
	require.NoError(t, err)
	assert.True(t, out.Attempted)
	assert.True(t, out.Replaced)
	assert.Equal(t, "recognized subsidy text", out.Text)
	assert.Equal(t, 0.92, out.Confidence)
}

func TestFallbackKeepsPrimaryOnWeakOCR(t *testing.T) {
	engine := &fakeEngine{result: &port.OCRResult{Text: "x", Confidence: 0.2}}
	fb := NewFallback(engine, NewRasterizer(""), testConfig())

	out, err := fb.Run(context.Background(), domain.MIMEPNG, []byte{0x89}, "primary text stays")
	require.NoError(t, err)
	assert.True(t, out.Attempted)
	assert.False(t, out.Replaced)
	assert.Equal(t, "primary text stays", out.Text)
}

func TestFallbackEngineErrorKeepsPrimary(t *testing.T) {
	engine := &fakeEngine{err: errors.New("tesseract unavailable")}
	fb := NewFallback(engine, NewRasterizer(""), testConfig())

	out, err := fb.Run(context.Background(), domain.MIMEPNG, []byte{0x89}, "primary")
	require.Error(t, err)
	assert.True(t, out.Attempted)
	assert.Equal(t, "primary", out.Text)
}

func TestFallbackNonRasterizableFormat(t *testing.T) {
	engine := &fakeEngine{result: &port.OCRResult{Text: "ocr"}}
	fb := NewFallback(engine, NewRasterizer(""), testConfig())

	out, err := fb.Run(context.Background(), domain.MIMEDOCX, []byte{1}, "tiny")
	require.NoError(t, err)
	assert.False(t, out.Attempted)
	assert.Equal(t, 0, engine.calls)
}
