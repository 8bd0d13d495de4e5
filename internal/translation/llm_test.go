package translation

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"ocrtranslate/internal/cache"
)

type chatRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// fakeModelServer emulates the OpenAI-compatible API of a local model server.
type fakeModelServer struct {
	*httptest.Server
	models []string
	reply  func(prompt string) string
	calls  atomic.Int32

	mu      sync.Mutex
	prompts []string
}

func (f *fakeModelServer) takePrompts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	prompts := f.prompts
	f.prompts = nil
	return prompts
}

func newFakeModelServer(t *testing.T, reply func(prompt string) string, models ...string) *fakeModelServer {
	t.Helper()
	f := &fakeModelServer{models: models, reply: reply}

	mux := http.NewServeMux()
	mux.HandleFunc("/v1/models", func(w http.ResponseWriter, r *http.Request) {
		data := make([]map[string]string, len(f.models))
		for i, m := range f.models {
			data[i] = map[string]string{"id": m, "object": "model"}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"object": "list", "data": data})
	})
	mux.HandleFunc("/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		f.calls.Add(1)
		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)
		f.mu.Lock()
		f.prompts = append(f.prompts, req.Messages[0].Content)
		f.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":     "chatcmpl-1",
			"object": "chat.completion",
			"model":  req.Model,
			"choices": []map[string]any{{
				"index":         0,
				"finish_reason": "stop",
				"message":       map[string]string{"role": "assistant", "content": f.reply(req.Messages[0].Content)},
			}},
		})
	})

	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Close)
	return f
}

func newTestLLM(t *testing.T, srv *fakeModelServer, c cache.Cache) *LLMBackend {
	t.Helper()
	return NewLLMBackend(context.Background(), LLMConfig{
		BaseURL:        srv.URL + "/v1",
		Model:          "qwen2.5:7b",
		APIKey:         "ollama",
		SourceLanguage: "jp",
		TargetLanguage: "zh",
		FixOCR:         true,
	}, c)
}

func TestLLMBackendAvailability(t *testing.T) {
	present := newFakeModelServer(t, nil, "llama3:8b", "qwen2.5:7b")
	assert.True(t, newTestLLM(t, present, nil).Available())

	missing := newFakeModelServer(t, nil, "llama3:8b")
	assert.False(t, newTestLLM(t, missing, nil).Available())

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	b := NewLLMBackend(context.Background(), LLMConfig{BaseURL: down.URL + "/v1", Model: "qwen2.5:7b", APIKey: "x"}, nil)
	assert.False(t, b.Available())
	assert.Equal(t, KindBatch, b.Kind())
}

func TestLLMBackendTranslateManyPreservesPositions(t *testing.T) {
	srv := newFakeModelServer(t, func(prompt string) string {
		return "1. 你好\n2. 谢谢"
	}, "qwen2.5:7b")
	b := newTestLLM(t, srv, nil)

	got := b.TranslateMany(context.Background(), []string{"", "こんにちは", "  ", "ありがとう"})
	assert.Equal(t, []string{"", "你好", "", "谢谢"}, got)
	assert.EqualValues(t, 1, srv.calls.Load())
	prompts := srv.takePrompts()
	require.Len(t, prompts, 1)
	assert.Contains(t, prompts[0], "1. こんにちは\n2. ありがとう")
}

func TestLLMBackendTranslateManyRepairsShortResponse(t *testing.T) {
	srv := newFakeModelServer(t, func(prompt string) string {
		return "1. 一\n2. 二"
	}, "qwen2.5:7b")
	mem := cache.NewMemory(0)
	b := newTestLLM(t, srv, mem)

	got := b.TranslateMany(context.Background(), []string{"いち", "に", "さん"})
	assert.Equal(t, []string{"一", "二", MsgIncomplete}, got)

	for _, text := range []string{"いち", "に", "さん"} {
		_, err := mem.Get(context.Background(), b.cacheKey(text))
		assert.ErrorIs(t, err, cache.ErrMiss, "a repaired batch is not cached: %s", text)
	}
}

func TestLLMBackendShiftedBatchIsNotCached(t *testing.T) {
	var reply atomic.Value
	reply.Store("2. 谢谢\n3. 再见")
	srv := newFakeModelServer(t, func(prompt string) string {
		return reply.Load().(string)
	}, "qwen2.5:7b")
	b := newTestLLM(t, srv, cache.NewMemory(0))

	got := b.TranslateMany(context.Background(), []string{"こんにちは", "ありがとう", "さようなら"})
	assert.Equal(t, []string{"谢谢", "再见", MsgIncomplete}, got)

	reply.Store("1. 你好")
	got = b.TranslateMany(context.Background(), []string{"こんにちは"})
	assert.Equal(t, []string{"你好"}, got)
	assert.EqualValues(t, 2, srv.calls.Load(), "the second batch reaches the model")
}

func TestLLMBackendTranslateManyTruncatesExtras(t *testing.T) {
	srv := newFakeModelServer(t, func(prompt string) string {
		return "1. 一\n2. 二\n3. 多余"
	}, "qwen2.5:7b")

	got := newTestLLM(t, srv, nil).TranslateMany(context.Background(), []string{"いち", "に"})
	assert.Equal(t, []string{"一", "二"}, got)
}

func TestLLMBackendTranslateManyUsesCache(t *testing.T) {
	srv := newFakeModelServer(t, func(prompt string) string {
		return "1. 谢谢"
	}, "qwen2.5:7b")
	mem := cache.NewMemory(0)
	b := newTestLLM(t, srv, mem)
	require.NoError(t, mem.Set(context.Background(), b.cacheKey("こんにちは"), "你好"))

	got := b.TranslateMany(context.Background(), []string{"こんにちは", "ありがとう"})
	assert.Equal(t, []string{"你好", "谢谢"}, got)
	prompts := srv.takePrompts()
	require.Len(t, prompts, 1)
	assert.NotContains(t, prompts[0], "こんにちは")

	got = b.TranslateMany(context.Background(), []string{"こんにちは", "ありがとう"})
	assert.Equal(t, []string{"你好", "谢谢"}, got)
	assert.Empty(t, srv.takePrompts())
}

func TestLLMBackendTranslateManyEmptyReply(t *testing.T) {
	srv := newFakeModelServer(t, func(prompt string) string { return "   " }, "qwen2.5:7b")

	got := newTestLLM(t, srv, nil).TranslateMany(context.Background(), []string{"猫", ""})
	assert.Equal(t, []string{"translation failed: 猫", ""}, got)
}

func TestLLMBackendUnavailable(t *testing.T) {
	srv := newFakeModelServer(t, func(prompt string) string { return "x" }, "other")
	b := newTestLLM(t, srv, nil)

	assert.Equal(t, MsgLLMUnavailable, b.Translate(context.Background(), "猫"))
	assert.Equal(t, []string{MsgLLMUnavailable, ""}, b.TranslateMany(context.Background(), []string{"猫", ""}))
	assert.Zero(t, srv.calls.Load())
}

func TestLLMBackendTranslate(t *testing.T) {
	srv := newFakeModelServer(t, func(prompt string) string {
		if strings.Contains(prompt, "空っぽ") {
			return ""
		}
		return "你好...这是模型额外附加的解释"
	}, "qwen2.5:7b")
	b := newTestLLM(t, srv, nil)
	ctx := context.Background()

	assert.Equal(t, "你好", b.Translate(ctx, "こんにちは"))
	assert.Equal(t, "translation failed: 空っぽ", b.Translate(ctx, "空っぽ"))

	calls := srv.calls.Load()
	assert.Equal(t, "", b.Translate(ctx, " \t"))
	assert.Equal(t, calls, srv.calls.Load())
}

func TestLLMBackendTranslateManyEmptyInput(t *testing.T) {
	srv := newFakeModelServer(t, func(prompt string) string { return "x" }, "qwen2.5:7b")
	b := newTestLLM(t, srv, nil)

	assert.Empty(t, b.TranslateMany(context.Background(), nil))
	assert.Equal(t, []string{"", ""}, b.TranslateMany(context.Background(), []string{"", " "}))
	assert.Zero(t, srv.calls.Load())
}
