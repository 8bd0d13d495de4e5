package models

import (
	"encoding/json"
	"io"
)

// UsageError is reported when fewer than five arguments are given.
const UsageError = "insufficient arguments: requires 5 parameters: screenshot_path x y width height"

// Response is the result of one region translation request.
type Response struct {
	Success    bool        `json:"success"`
	TextBlocks []TextBlock `json:"textBlocks"`
}

// TextBlock is one translated text region in screenshot pixel coordinates.
type TextBlock struct {
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Original   string  `json:"original"`   // recognized text
	Translated string  `json:"translated"` // translation or an in-band failure notice
	Confidence float64 `json:"confidence"` // recognition confidence in [0,1]
}

// ErrorResponse reports invalid invocations.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DetectResponse is the result of a Japanese text check.
type DetectResponse struct {
	HasJapanese bool `json:"hasJapanese"`
	Items       int  `json:"items"`
}

// Failed returns the response for a request that failed as a whole.
func Failed() Response {
	return Response{Success: false, TextBlocks: []TextBlock{}}
}

// Write encodes v as one line of JSON. Non-ASCII text and HTML characters are
// written verbatim.
func Write(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}
