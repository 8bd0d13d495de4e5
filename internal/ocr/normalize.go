package ocr

// Normalize converts engine output into text items in detection order.
//
// Row-shaped output is used when present. Columnar output is zipped up to the
// shortest column, so a missing score or polygon never shifts later items.
// Items without any polygon vertex are dropped because no geometry can be
// derived for them; a two-point polygon is read as opposite rectangle corners.
func Normalize(raw RawResult) []TextItem {
	rows := raw.Items
	if len(rows) == 0 {
		n := min(len(raw.Texts), len(raw.Scores), len(raw.Polygons))
		rows = make([]RawItem, 0, n)
		for i := 0; i < n; i++ {
			rows = append(rows, RawItem{
				Text:    raw.Texts[i],
				Score:   raw.Scores[i],
				Polygon: raw.Polygons[i],
			})
		}
	}

	items := make([]TextItem, 0, len(rows))
	for _, row := range rows {
		poly := normalizePolygon(row.Polygon)
		if len(poly) == 0 {
			continue
		}
		items = append(items, TextItem{
			Text:       row.Text,
			Confidence: row.Score,
			Polygon:    poly,
		})
	}
	return items
}

func normalizePolygon(p Polygon) Polygon {
	switch len(p) {
	case 0:
		return nil
	case 2:
		a, b := p[0], p[1]
		return Polygon{{a.X, a.Y}, {b.X, a.Y}, {b.X, b.Y}, {a.X, b.Y}}
	default:
		out := make(Polygon, len(p))
		copy(out, p)
		return out
	}
}

// FilterByConfidence drops items whose confidence is below threshold and
// returns the survivors in their original order along with the drop count.
func FilterByConfidence(items []TextItem, threshold float64) ([]TextItem, int) {
	kept := make([]TextItem, 0, len(items))
	dropped := 0
	for _, item := range items {
		if item.Confidence < threshold {
			dropped++
			continue
		}
		kept = append(kept, item)
	}
	return kept, dropped
}

// ContainsJapanese reports whether any item holds hiragana, katakana or CJK
// unified ideographs.
func ContainsJapanese(items []TextItem) bool {
	for _, item := range items {
		for _, r := range item.Text {
			switch {
			case r >= 0x3040 && r <= 0x309F,
				r >= 0x30A0 && r <= 0x30FF,
				r >= 0x4E00 && r <= 0x9FFF:
				return true
			}
		}
	}
	return false
}

// rectPolygon returns the clockwise corners of an axis-aligned rectangle.
func rectPolygon(x1, y1, x2, y2 int) Polygon {
	return Polygon{
		{float64(x1), float64(y1)},
		{float64(x2), float64(y1)},
		{float64(x2), float64(y2)},
		{float64(x1), float64(y2)},
	}
}
