package ocr

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeEngine struct {
	available bool
	raw       RawResult
	err       error
	calls     int
	lastImage image.Image
}

func (f *fakeEngine) Name() string    { return "fake" }
func (f *fakeEngine) Available() bool { return f.available }
func (f *fakeEngine) Close() error    { return nil }

func (f *fakeEngine) Detect(ctx context.Context, img image.Image) (RawResult, error) {
	f.calls++
	f.lastImage = img
	return f.raw, f.err
}

func TestAdapterFiltersByThreshold(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		raw: RawResult{
			Texts:    []string{"高い", "低い", "境界"},
			Scores:   []float64{0.95, 0.2, 0.5},
			Polygons: []Polygon{square(0, 0, 5), square(10, 0, 5), square(20, 0, 5)},
		},
	}
	adapter := NewAdapter(engine, AdapterConfig{Threshold: 0.5})

	items := adapter.RecognizeImage(context.Background(), textLikeImage(32, 32))
	if assert.Len(t, items, 2) {
		assert.Equal(t, "高い", items[0].Text)
		assert.Equal(t, "境界", items[1].Text)
	}
}

func TestAdapterRecognizeFile(t *testing.T) {
	engine := &fakeEngine{
		available: true,
		raw:       RawResult{Items: []RawItem{{Text: "テスト", Score: 0.8, Polygon: square(1, 1, 4)}}},
	}
	adapter := NewAdapter(engine, AdapterConfig{Threshold: DefaultConfidenceThreshold})

	items := adapter.RecognizeFile(context.Background(), writePNG(t, textLikeImage(16, 16)))
	assert.Len(t, items, 1)
	assert.Equal(t, 1, engine.calls)
}

func TestAdapterPreprocessFlag(t *testing.T) {
	engine := &fakeEngine{available: true}

	NewAdapter(engine, AdapterConfig{Preprocess: true}).RecognizeImage(context.Background(), textLikeImage(16, 16))
	_, isGray := engine.lastImage.(*image.Gray)
	assert.True(t, isGray)

	NewAdapter(engine, AdapterConfig{Preprocess: false}).RecognizeImage(context.Background(), textLikeImage(16, 16))
	_, isRGBA := engine.lastImage.(*image.RGBA)
	assert.True(t, isRGBA)
}

func TestAdapterFailsSoft(t *testing.T) {
	ctx := context.Background()

	t.Run("unavailable engine", func(t *testing.T) {
		engine := &fakeEngine{available: false}
		items := NewAdapter(engine, AdapterConfig{}).RecognizeImage(ctx, textLikeImage(8, 8))
		assert.NotNil(t, items)
		assert.Empty(t, items)
		assert.Zero(t, engine.calls)
	})

	t.Run("nil engine", func(t *testing.T) {
		adapter := NewAdapter(nil, AdapterConfig{})
		assert.False(t, adapter.Available())
		assert.Equal(t, "none", adapter.EngineName())
		assert.Empty(t, adapter.RecognizeFile(ctx, "whatever.png"))
		assert.NoError(t, adapter.Close())
	})

	t.Run("missing image", func(t *testing.T) {
		engine := &fakeEngine{available: true}
		items := NewAdapter(engine, AdapterConfig{}).RecognizeFile(ctx, filepath.Join(t.TempDir(), "nope.png"))
		assert.Empty(t, items)
		assert.Zero(t, engine.calls)
	})

	t.Run("engine error", func(t *testing.T) {
		engine := &fakeEngine{available: true, err: errors.New("boom")}
		assert.Empty(t, NewAdapter(engine, AdapterConfig{}).RecognizeImage(ctx, textLikeImage(8, 8)))
	})

	t.Run("nothing above threshold", func(t *testing.T) {
		engine := &fakeEngine{
			available: true,
			raw:       RawResult{Items: []RawItem{{Text: "x", Score: 0.1, Polygon: square(0, 0, 1)}}},
		}
		assert.Empty(t, NewAdapter(engine, AdapterConfig{Threshold: 0.5}).RecognizeImage(ctx, textLikeImage(8, 8)))
	})
}

func TestNewEngineUnknown(t *testing.T) {
	engine, err := NewEngine(context.Background(), EngineOptions{Name: "abbyy"})
	assert.Nil(t, engine)
	assert.Error(t, err)
}

func TestCompensatesInternally(t *testing.T) {
	assert.True(t, CompensatesInternally("vision"))
	assert.True(t, CompensatesInternally("paddle"))
	assert.False(t, CompensatesInternally("tesseract"))
}
