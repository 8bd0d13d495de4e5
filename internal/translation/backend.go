// Package translation provides the translation backends used for recognized
// screenshot text.
//
// Two backends implement Backend:
//
//   - LLMBackend sends every text of a request to a local language model in
//     one numbered prompt, asking it to repair OCR misreadings while it
//     translates. It is reached through the model server's OpenAI-compatible
//     API.
//   - BaiduBackend calls the Baidu translation API once per text with a
//     signed GET request.
//
// Backends never return errors. Failures become literal in-band strings (see
// the Msg* constants) so every input position always has a translation.
package translation

import (
	"context"
	"errors"
)

// Kind tells the orchestrator how a backend prefers to be driven.
type Kind int

const (
	// KindBatch backends translate a whole request in one dependency call.
	KindBatch Kind = iota
	// KindPerItem backends make one dependency call per text.
	KindPerItem
)

func (k Kind) String() string {
	switch k {
	case KindBatch:
		return "batch"
	case KindPerItem:
		return "per-item"
	default:
		return "unknown"
	}
}

// Backend translates text from the configured source to the target language.
type Backend interface {
	// Name identifies the backend in logs and cache keys.
	Name() string

	// Kind reports whether the backend works in batches or per item.
	Kind() Kind

	// Available reports whether the backend's dependency was usable at
	// construction time. The value never changes afterwards.
	Available() bool

	// Translate returns the translation of text. Empty or whitespace-only
	// input returns "" without calling the dependency.
	Translate(ctx context.Context, text string) string

	// TranslateMany returns one translation per input, in input order.
	// Empty inputs map to "".
	TranslateMany(ctx context.Context, texts []string) []string
}

// In-band results returned in place of a translation.
const (
	MsgIncomplete        = "incomplete result"
	MsgNotConfigured     = "please configure API credentials"
	MsgLLMUnavailable    = "local translator unavailable"
	MsgTranslationFailed = "translation failed"

	failedPrefix    = "translation failed: "
	exceptionPrefix = "translation exception: "
	apiErrorPrefix  = "translation error: "
)

// Errors carried inside an Outcome.
var (
	// ErrBackendUnavailable means the dependency could not be used at all.
	ErrBackendUnavailable = errors.New("translation backend unavailable")

	// ErrRemoteAPI means the remote service answered with an error code.
	ErrRemoteAPI = errors.New("translation API error")

	// ErrEmptyResponse means the dependency answered without any text.
	ErrEmptyResponse = errors.New("empty translation response")

	// ErrAlignmentMismatch means a batch response had the wrong number of lines.
	ErrAlignmentMismatch = errors.New("batch result count mismatch")
)

// Status tags the result of one dependency call.
type Status int

const (
	StatusOK Status = iota
	StatusUnavailable
	StatusError
)

// Outcome is the tagged result of a single dependency call.
type Outcome struct {
	Status Status
	Text   string // set when Status is StatusOK
	Code   string // remote error code, when the remote service supplied one
	Err    error
}

func ok(text string) Outcome { return Outcome{Status: StatusOK, Text: text} }

func failed(err error) Outcome { return Outcome{Status: StatusError, Err: err} }
