// Package region turns a screenshot into translated, geometry-anchored text
// blocks for an overlay renderer.
package region

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"ocrtranslate/internal/logger"
	"ocrtranslate/internal/sheets"
	"ocrtranslate/internal/translation"
)

var (
	// ErrNoBackend means the backend chain is empty.
	ErrNoBackend = errors.New("no translation backend configured")

	// ErrPipelinePanic wraps a panic recovered inside a request.
	ErrPipelinePanic = errors.New("region translation panicked")
)

// Request describes one screenshot region. The region is recorded in logs;
// recognition always runs over the whole screenshot.
type Request struct {
	ImagePath string
	X         int
	Y         int
	Width     int
	Height    int
}

// Orchestrator runs region translation requests against a shared Services.
// Requests run one stage after another; nothing inside a request is
// parallelized.
type Orchestrator struct {
	services *Services
	tracer   trace.Tracer
}

// NewOrchestrator creates an orchestrator using services.
func NewOrchestrator(services *Services) *Orchestrator {
	return &Orchestrator{
		services: services,
		tracer:   otel.Tracer("region-orchestrator"),
	}
}

// run tracks the state of a single request.
type run struct {
	state State
	log   zerolog.Logger
}

func (r *run) enter(s State) {
	r.log.Debug().Stringer("from", r.state).Stringer("to", s).Msg("State transition")
	r.state = s
}

// Translate recognizes the screenshot, translates every recognized item and
// returns the blocks in recognition order. Zero recognized items is a
// successful empty result. Any error means the request failed as a whole and
// no blocks are returned.
func (o *Orchestrator) Translate(ctx context.Context, req Request) (blocks []TranslatedBlock, err error) {
	requestID := uuid.NewString()
	r := &run{
		state: StateIdle,
		log:   logger.WithRequestID(requestID).With().Str("component", "region").Logger(),
	}
	start := time.Now()

	ctx, span := o.tracer.Start(ctx, "region.translate")
	span.SetAttributes(
		attribute.String("request_id", requestID),
		attribute.String("image_path", req.ImagePath),
	)

	defer func() {
		defer span.End()
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrPipelinePanic, p)
		}
		if err != nil {
			r.log.Error().Err(err).Stringer("stage", r.state).Msg("Region translation failed")
			span.RecordError(err)
			span.SetStatus(codes.Error, r.state.String())
			r.enter(StateFailed)
			blocks = nil
			return
		}
		span.SetAttributes(attribute.Int("blocks_count", len(blocks)))
		r.enter(StateDone)
		r.log.Info().
			Int("blocks", len(blocks)).
			Dur("duration", time.Since(start)).
			Msg("Region translation completed")
	}()

	r.log.Info().
		Str("file", req.ImagePath).
		Int("x", req.X).
		Int("y", req.Y).
		Int("width", req.Width).
		Int("height", req.Height).
		Msg("Region translation requested")

	r.enter(StateInitializing)
	if err := o.services.Init(ctx); err != nil {
		return nil, err
	}
	r.log = logger.WithRequestID(requestID).With().Str("component", "region").Logger()

	r.enter(StateRecognizing)
	recognizeStart := time.Now()
	items := o.services.Recognizer().RecognizeFile(ctx, req.ImagePath)
	r.log.Info().
		Int("items", len(items)).
		Dur("duration", time.Since(recognizeStart)).
		Msg("Recognition finished")
	if len(items) == 0 {
		return []TranslatedBlock{}, nil
	}

	r.enter(StateSelectingBackend)
	backend, err := SelectBackend(o.services.Backends())
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("backend", backend.Name()))
	r.log.Info().
		Str("backend", backend.Name()).
		Stringer("kind", backend.Kind()).
		Bool("available", backend.Available()).
		Msg("Selected translation backend")

	r.enter(StateTranslating)
	texts := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.Text
	}
	translated := translateAll(ctx, backend, texts)
	if len(translated) != len(texts) {
		r.log.Warn().
			Err(translation.ErrAlignmentMismatch).
			Int("expected", len(texts)).
			Int("received", len(translated)).
			Msg("Backend returned wrong number of translations")
		translated, _ = translation.Align(translated, len(texts))
	}

	r.enter(StateMerging)
	blocks = make([]TranslatedBlock, len(items))
	for i, item := range items {
		blocks[i] = TranslatedBlock{
			TextItem:   item,
			Box:        BoxFromPolygon(item.Polygon),
			Translated: translated[i],
		}
	}

	if journal := o.services.Journal(); journal != nil {
		if err := journal.Append(ctx, journalRows(req.ImagePath, blocks)); err != nil {
			r.log.Warn().Err(err).Msg("Failed to record translations")
		}
	}
	return blocks, nil
}

func journalRows(source string, blocks []TranslatedBlock) []sheets.Row {
	rows := make([]sheets.Row, len(blocks))
	for i, b := range blocks {
		rows[i] = sheets.Row{
			Source:     source,
			Original:   b.Text,
			Translated: b.Translated,
			Confidence: b.Confidence,
			X:          b.Box.X,
			Y:          b.Box.Y,
			Width:      b.Box.Width,
			Height:     b.Box.Height,
		}
	}
	return rows
}

// SelectBackend returns the first available backend. When none is available
// the last one is returned, so its own unavailable placeholder fills the
// result.
func SelectBackend(backends []translation.Backend) (translation.Backend, error) {
	if len(backends) == 0 {
		return nil, ErrNoBackend
	}
	for _, b := range backends {
		if b.Available() {
			return b, nil
		}
	}
	return backends[len(backends)-1], nil
}

func translateAll(ctx context.Context, backend translation.Backend, texts []string) []string {
	if backend.Kind() == translation.KindBatch {
		return backend.TranslateMany(ctx, texts)
	}

	results := make([]string, len(texts))
	for i, text := range texts {
		results[i] = backend.Translate(ctx, text)
	}
	return results
}
