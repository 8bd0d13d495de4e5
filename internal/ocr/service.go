// Package ocr turns screenshots into ordered, confidence-filtered text items.
//
// Recognition is delegated to an Engine. Three engines are provided:
//
//   - tesseract: local Tesseract via gosseract (cgo builds only)
//   - vision: Google Cloud Vision text detection
//   - paddle: a PaddleOCR serving endpoint reached over HTTP
//
// Engines report results in whichever shape is natural to them (columns of
// texts, scores and polygons, or a list of rows); Normalize folds both into
// []TextItem in detection order.
//
// The Adapter wraps an engine with image loading, optional binarization and
// the confidence filter. It fails soft: an unavailable engine, an unreadable
// image or an engine error all produce an empty result, never an error.
//
// Required Environment Variables (vision engine only):
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
package ocr

import (
	"context"
	"image"
)

// Point is a vertex of a detection polygon in image pixel coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is the quadrilateral around a detected text region, in the order
// the engine reported its vertices.
type Polygon []Point

// TextItem is one recognized text region. Items are never modified after
// Normalize creates them.
type TextItem struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Polygon    Polygon `json:"polygon"`
}

// RawItem is a single row of engine output.
type RawItem struct {
	Text    string
	Score   float64
	Polygon Polygon
}

// RawResult is engine output before normalization. Engines fill either the
// columnar fields or Items; when Items is non-empty the columns are ignored.
type RawResult struct {
	Texts    []string
	Scores   []float64
	Polygons []Polygon

	Items []RawItem
}

// Engine is an external text recognition engine.
type Engine interface {
	// Name identifies the engine in logs and readiness reports.
	Name() string

	// Available reports whether the engine could be initialized. It is
	// computed once at construction.
	Available() bool

	// Detect runs recognition over img.
	Detect(ctx context.Context, img image.Image) (RawResult, error)

	// Close releases engine resources.
	Close() error
}
