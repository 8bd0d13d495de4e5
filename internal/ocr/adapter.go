package ocr

import (
	"context"
	"image"
	"time"

	"github.com/rs/zerolog"
	"ocrtranslate/internal/logger"
)

// DefaultConfidenceThreshold is the minimum confidence an item needs to be
// returned by the Adapter.
const DefaultConfidenceThreshold = 0.5

// AdapterConfig configures an Adapter.
type AdapterConfig struct {
	// Threshold drops items with confidence strictly below it.
	Threshold float64

	// Preprocess binarizes the image before detection.
	Preprocess bool
}

// Adapter runs an Engine over screenshots and returns confidence-filtered
// items. All failures are logged and reported as an empty result.
type Adapter struct {
	engine Engine
	config AdapterConfig
	log    zerolog.Logger
}

// NewAdapter wraps engine. A nil engine yields an adapter that is never
// available.
func NewAdapter(engine Engine, config AdapterConfig) *Adapter {
	return &Adapter{
		engine: engine,
		config: config,
		log:    logger.WithComponent("ocr"),
	}
}

// Available reports whether the wrapped engine can recognize text.
func (a *Adapter) Available() bool {
	return a.engine != nil && a.engine.Available()
}

// EngineName returns the wrapped engine's name, or "none".
func (a *Adapter) EngineName() string {
	if a.engine == nil {
		return "none"
	}
	return a.engine.Name()
}

// RecognizeFile loads the image at path and recognizes it.
func (a *Adapter) RecognizeFile(ctx context.Context, path string) []TextItem {
	if !a.Available() {
		a.log.Warn().Str("engine", a.EngineName()).Msg("Recognition engine unavailable")
		return []TextItem{}
	}

	a.log.Debug().Str("file", path).Msg("Loading image")
	img, err := LoadImage(path)
	if err != nil {
		a.log.Error().Err(err).Str("file", path).Msg("Failed to load image")
		return []TextItem{}
	}
	return a.RecognizeImage(ctx, img)
}

// RecognizeImage recognizes an in-memory image.
func (a *Adapter) RecognizeImage(ctx context.Context, img image.Image) []TextItem {
	if !a.Available() {
		a.log.Warn().Str("engine", a.EngineName()).Msg("Recognition engine unavailable")
		return []TextItem{}
	}

	bounds := img.Bounds()
	a.log.Debug().
		Int("width", bounds.Dx()).
		Int("height", bounds.Dy()).
		Bool("preprocess", a.config.Preprocess).
		Msg("Running recognition")

	var input image.Image = img
	if a.config.Preprocess {
		input = Preprocess(img)
	}

	start := time.Now()
	raw, err := a.engine.Detect(ctx, input)
	if err != nil {
		a.log.Error().Err(err).Str("engine", a.engine.Name()).Msg("Recognition failed")
		return []TextItem{}
	}

	items, dropped := FilterByConfidence(Normalize(raw), a.config.Threshold)
	for i, item := range items {
		a.log.Debug().
			Int("index", i+1).
			Str("text", item.Text).
			Float64("confidence", item.Confidence).
			Msg("Recognized text")
	}
	if dropped > 0 {
		a.log.Info().
			Int("dropped", dropped).
			Float64("threshold", a.config.Threshold).
			Msg("Filtered low-confidence results")
	}
	a.log.Info().
		Int("items", len(items)).
		Dur("duration", time.Since(start)).
		Msg("Recognition completed")

	return items
}

// Close releases the wrapped engine.
func (a *Adapter) Close() error {
	if a.engine == nil {
		return nil
	}
	return a.engine.Close()
}
