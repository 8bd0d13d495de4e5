package region

import "ocrtranslate/internal/ocr"

// GeometryBox is the axis-aligned pixel rectangle enclosing a polygon.
type GeometryBox struct {
	X      int
	Y      int
	Width  int
	Height int
}

// BoxFromPolygon derives the bounding box of p. Coordinates are truncated to
// whole pixels. An empty polygon yields the zero box.
func BoxFromPolygon(p ocr.Polygon) GeometryBox {
	if len(p) == 0 {
		return GeometryBox{}
	}

	minX, minY := p[0].X, p[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p[1:] {
		minX = min(minX, pt.X)
		minY = min(minY, pt.Y)
		maxX = max(maxX, pt.X)
		maxY = max(maxY, pt.Y)
	}

	return GeometryBox{
		X:      int(minX),
		Y:      int(minY),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}
}

// TranslatedBlock is a recognized item with its box and translation.
type TranslatedBlock struct {
	ocr.TextItem
	Box        GeometryBox
	Translated string
}
