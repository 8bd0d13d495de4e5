//go:build cgo

package ocr

import (
	"context"
	"image"
	"slices"

	"github.com/otiai10/gosseract/v2"
)

// TesseractEngine implements Engine with a local Tesseract installation.
// Each text line becomes one item.
type TesseractEngine struct {
	language  string
	available bool
}

// NewTesseractEngine creates a Tesseract engine for a Tesseract language code
// (e.g. "jpn"). The engine is available only when the language data for
// that code is installed.
func NewTesseractEngine(language string) *TesseractEngine {
	langs, err := gosseract.GetAvailableLanguages()
	return &TesseractEngine{
		language:  language,
		available: err == nil && slices.Contains(langs, language),
	}
}

// Name implements Engine.
func (t *TesseractEngine) Name() string { return "tesseract" }

// Available implements Engine.
func (t *TesseractEngine) Available() bool { return t.available }

// Detect implements Engine.
func (t *TesseractEngine) Detect(ctx context.Context, img image.Image) (RawResult, error) {
	const op = "Detect"

	if !t.available {
		return RawResult{}, WrapOCRError(op, ErrEngineUnavailable, "tesseract language data missing: "+t.language)
	}
	if err := ctx.Err(); err != nil {
		return RawResult{}, err
	}

	content, err := encodePNG(img)
	if err != nil {
		return RawResult{}, WrapOCRError(op, err, "failed to encode image")
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.language); err != nil {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, "failed to set language: "+err.Error())
	}
	if err := client.SetImageFromBytes(content); err != nil {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, "failed to set image: "+err.Error())
	}

	boxes, err := client.GetBoundingBoxes(gosseract.RIL_TEXTLINE)
	if err != nil {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, err.Error())
	}

	items := make([]RawItem, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		items = append(items, RawItem{
			Text:    box.Word,
			Score:   box.Confidence / 100.0,
			Polygon: rectPolygon(box.Box.Min.X, box.Box.Min.Y, box.Box.Max.X, box.Box.Max.Y),
		})
	}
	return RawResult{Items: items}, nil
}

// Close implements Engine.
func (t *TesseractEngine) Close() error { return nil }
