package translation

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"ocrtranslate/internal/cache"
	"ocrtranslate/internal/logger"
)

// availabilityTimeout bounds the model listing done at construction.
const availabilityTimeout = 3 * time.Second

// LLMConfig configures the local language model backend.
type LLMConfig struct {
	BaseURL string // OpenAI-compatible endpoint, e.g. http://localhost:11434/v1
	Model   string // model name as listed by the server, e.g. qwen2.5:7b
	APIKey  string // local servers accept any non-empty key

	SourceLanguage string // language code, e.g. "jp"
	TargetLanguage string // language code, e.g. "zh"

	// FixOCR asks the model to correct OCR misreadings before translating.
	FixOCR bool
}

// LLMBackend translates through a local language model. It has no request
// timeout of its own; calls are bounded only by the caller's context.
type LLMBackend struct {
	client    *openai.Client
	config    LLMConfig
	cache     cache.Cache
	available bool
	log       zerolog.Logger
}

// NewLLMBackend creates the backend and checks once whether the server is
// reachable and serves config.Model. c may be nil.
func NewLLMBackend(ctx context.Context, config LLMConfig, c cache.Cache) *LLMBackend {
	clientConfig := openai.DefaultConfig(config.APIKey)
	clientConfig.BaseURL = config.BaseURL

	b := &LLMBackend{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
		cache:  c,
		log:    logger.WithComponent("translation-llm"),
	}
	b.available = b.checkModel(ctx)
	return b
}

func (b *LLMBackend) checkModel(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	defer cancel()

	models, err := b.client.ListModels(ctx)
	if err != nil {
		b.log.Warn().
			Err(err).
			Str("base_url", b.config.BaseURL).
			Msg("Local language model server unavailable")
		return false
	}

	found := slices.ContainsFunc(models.Models, func(m openai.Model) bool {
		return m.ID == b.config.Model
	})
	if !found {
		b.log.Warn().
			Str("model", b.config.Model).
			Msg("Model not found on local language model server")
		return false
	}

	b.log.Info().Str("model", b.config.Model).Msg("Local language model backend available")
	return true
}

// Name implements Backend.
func (b *LLMBackend) Name() string { return "llm" }

// Kind implements Backend.
func (b *LLMBackend) Kind() Kind { return KindBatch }

// Available implements Backend.
func (b *LLMBackend) Available() bool { return b.available }

// Translate implements Backend. A call that yields no usable text returns
// "translation failed: <text>".
func (b *LLMBackend) Translate(ctx context.Context, text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	if !b.available {
		return MsgLLMUnavailable
	}
	if cached, hit := b.lookup(ctx, text); hit {
		return cached
	}

	source, target := LanguageName(b.config.SourceLanguage), LanguageName(b.config.TargetLanguage)
	outcome := b.complete(ctx, SinglePrompt(text, source, target, b.config.FixOCR))
	if outcome.Status == StatusOK {
		if result := CleanTranslation(outcome.Text); result != "" {
			b.store(ctx, text, result)
			return result
		}
	}
	return failedPrefix + text
}

// TranslateMany implements Backend. All non-empty texts that are not cached
// go to the model in a single numbered prompt.
func (b *LLMBackend) TranslateMany(ctx context.Context, texts []string) []string {
	results := make([]string, len(texts))
	if len(texts) == 0 {
		return results
	}

	var pending []int
	for i, text := range texts {
		if strings.TrimSpace(text) == "" {
			continue
		}
		if !b.available {
			results[i] = MsgLLMUnavailable
			continue
		}
		if cached, hit := b.lookup(ctx, text); hit {
			results[i] = cached
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return results
	}

	batch := make([]string, len(pending))
	for j, i := range pending {
		batch[j] = texts[i]
	}

	source, target := LanguageName(b.config.SourceLanguage), LanguageName(b.config.TargetLanguage)
	b.log.Debug().Int("texts", len(batch)).Msg("Sending batch translation request")
	outcome := b.complete(ctx, BatchPrompt(batch, source, target, b.config.FixOCR))
	if outcome.Status != StatusOK {
		for _, i := range pending {
			results[i] = failedPrefix + texts[i]
		}
		return results
	}

	parsed := ParseNumbered(outcome.Text)
	aligned, _ := Align(parsed, len(batch))
	// A miscounted reply may be shifted against its sources, so none of it
	// is cached.
	mismatch := len(parsed) != len(batch)
	if mismatch {
		b.log.Warn().
			Err(ErrAlignmentMismatch).
			Int("expected", len(batch)).
			Int("received", len(parsed)).
			Msg("Repaired batch translation result")
	}

	for j, i := range pending {
		results[i] = aligned[j]
		if !mismatch {
			b.store(ctx, texts[i], aligned[j])
		}
	}
	return results
}

// complete sends prompt as a single user message.
func (b *LLMBackend) complete(ctx context.Context, prompt string) Outcome {
	resp, err := b.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("Local language model request failed")
		return failed(err)
	}
	if len(resp.Choices) == 0 {
		return failed(ErrEmptyResponse)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return failed(ErrEmptyResponse)
	}
	return ok(content)
}

func (b *LLMBackend) cacheKey(text string) string {
	return cache.Key(b.Name(), b.config.Model, b.config.SourceLanguage, b.config.TargetLanguage, text)
}

func (b *LLMBackend) lookup(ctx context.Context, text string) (string, bool) {
	if b.cache == nil {
		return "", false
	}
	value, err := b.cache.Get(ctx, b.cacheKey(text))
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			b.log.Warn().Err(err).Msg("Translation cache lookup failed")
		}
		return "", false
	}
	return value, true
}

func (b *LLMBackend) store(ctx context.Context, text, translated string) {
	if b.cache == nil || translated == "" {
		return
	}
	if err := b.cache.Set(ctx, b.cacheKey(text), translated); err != nil {
		b.log.Warn().Err(err).Msg("Translation cache store failed")
	}
}
