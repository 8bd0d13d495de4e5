package ocr

import (
	"errors"
	"fmt"
)

// Common recognition errors. The Adapter logs these and returns an empty
// result; they only surface from engines and loaders.
var (
	// ErrEngineUnavailable is returned when the recognition engine is not
	// installed, not configured, or not reachable.
	ErrEngineUnavailable = errors.New("recognition engine unavailable")

	// ErrImageLoad is returned when the screenshot cannot be opened or decoded.
	ErrImageLoad = errors.New("failed to load image")

	// ErrRecognitionFailed is returned when the engine call itself fails.
	ErrRecognitionFailed = errors.New("text recognition failed")
)

// OCRError wraps errors with additional context about the recognition failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "Detect", "LoadImage").
	Op string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// Is implements error matching for Go 1.13+ error handling.
func (e *OCRError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}

	return &OCRError{Op: op, Err: err, Details: details}
}
