//go:build !cgo

package ocr

import (
	"context"
	"image"
)

// TesseractEngine is unavailable in builds without cgo.
type TesseractEngine struct {
	language string
}

// NewTesseractEngine returns an engine that always reports itself unavailable.
func NewTesseractEngine(language string) *TesseractEngine {
	return &TesseractEngine{language: language}
}

// Name implements Engine.
func (t *TesseractEngine) Name() string { return "tesseract" }

// Available implements Engine.
func (t *TesseractEngine) Available() bool { return false }

// Detect implements Engine.
func (t *TesseractEngine) Detect(ctx context.Context, img image.Image) (RawResult, error) {
	return RawResult{}, WrapOCRError("Detect", ErrEngineUnavailable, "built without cgo")
}

// Close implements Engine.
func (t *TesseractEngine) Close() error { return nil }
