package ocr

import (
	"context"
	"fmt"
)

// EngineOptions selects and configures a recognition engine.
type EngineOptions struct {
	// Name is one of "tesseract", "vision" or "paddle".
	Name string

	// Language is a recognition language in PaddleOCR naming ("japan",
	// "korean", "ch", ...). It is translated for the other engines.
	Language string

	// PaddleURL is the serving endpoint for the paddle engine.
	PaddleURL string
}

// languageCodes maps PaddleOCR language names to Tesseract and Vision codes.
var languageCodes = map[string]struct{ tesseract, vision string }{
	"japan":       {"jpn", "ja"},
	"ch":          {"chi_sim", "zh"},
	"chinese_cht": {"chi_tra", "zh-TW"},
	"korean":      {"kor", "ko"},
	"en":          {"eng", "en"},
	"french":      {"fra", "fr"},
	"german":      {"deu", "de"},
}

// NewEngine builds the engine named in opts. The error is informational: the
// returned engine is always usable and reports Available() == false when it
// could not be initialized. An unknown name is the only case returning nil.
func NewEngine(ctx context.Context, opts EngineOptions) (Engine, error) {
	codes, known := languageCodes[opts.Language]
	if !known {
		codes.tesseract, codes.vision = opts.Language, opts.Language
	}

	switch opts.Name {
	case "tesseract":
		return NewTesseractEngine(codes.tesseract), nil
	case "vision":
		return NewVisionEngine(ctx, codes.vision)
	case "paddle":
		return NewPaddleEngine(ctx, opts.PaddleURL), nil
	default:
		return nil, fmt.Errorf("unknown recognition engine %q", opts.Name)
	}
}

// CompensatesInternally reports whether the named engine already binarizes
// or enhances its input, so local preprocessing should be skipped by default.
func CompensatesInternally(name string) bool {
	return name == "vision" || name == "paddle"
}
