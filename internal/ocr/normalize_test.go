package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func square(x, y, side float64) Polygon {
	return Polygon{{x, y}, {x + side, y}, {x + side, y + side}, {x, y + side}}
}

func TestNormalizeColumns(t *testing.T) {
	raw := RawResult{
		Texts:    []string{"こんにちは", "世界", "extra"},
		Scores:   []float64{0.9, 0.4, 0.8},
		Polygons: []Polygon{square(0, 0, 10), square(20, 0, 10)},
	}

	items := Normalize(raw)
	if assert.Len(t, items, 2) {
		assert.Equal(t, "こんにちは", items[0].Text)
		assert.Equal(t, 0.9, items[0].Confidence)
		assert.Equal(t, "世界", items[1].Text)
		assert.Equal(t, square(20, 0, 10), items[1].Polygon)
	}
}

func TestNormalizeRowsTakePrecedence(t *testing.T) {
	raw := RawResult{
		Texts:    []string{"ignored"},
		Scores:   []float64{1},
		Polygons: []Polygon{square(0, 0, 1)},
		Items: []RawItem{
			{Text: "a", Score: 0.7, Polygon: square(1, 1, 2)},
			{Text: "b", Score: 0.6, Polygon: nil},
			{Text: "c", Score: 0.5, Polygon: Polygon{{0, 0}, {4, 2}}},
		},
	}

	items := Normalize(raw)
	if assert.Len(t, items, 2) {
		assert.Equal(t, "a", items[0].Text)
		assert.Equal(t, "c", items[1].Text)
		assert.Equal(t, Polygon{{0, 0}, {4, 0}, {4, 2}, {0, 2}}, items[1].Polygon)
	}
}

func TestNormalizeEmpty(t *testing.T) {
	assert.Empty(t, Normalize(RawResult{}))
}

func TestFilterByConfidence(t *testing.T) {
	items := []TextItem{
		{Text: "keep", Confidence: 0.5},
		{Text: "drop", Confidence: 0.49},
		{Text: "keep too", Confidence: 0.99},
	}

	kept, dropped := FilterByConfidence(items, 0.5)
	assert.Equal(t, 1, dropped)
	if assert.Len(t, kept, 2) {
		assert.Equal(t, "keep", kept[0].Text)
		assert.Equal(t, "keep too", kept[1].Text)
	}
	for _, item := range kept {
		assert.GreaterOrEqual(t, item.Confidence, 0.5)
	}
}

func TestContainsJapanese(t *testing.T) {
	tests := []struct {
		name string
		text string
		want bool
	}{
		{"hiragana", "ありがとう", true},
		{"katakana", "カタカナ", true},
		{"kanji", "漢字", true},
		{"latin", "hello world", false},
		{"hangul", "안녕하세요", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ContainsJapanese([]TextItem{{Text: tt.text}}))
		})
	}
	assert.False(t, ContainsJapanese(nil))
}
