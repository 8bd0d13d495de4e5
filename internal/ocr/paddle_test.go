package ocr

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPaddleServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPaddleEngineDetect(t *testing.T) {
	srv := newPaddleServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req paddleRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.File)
		assert.Equal(t, 1, req.FileType)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"errorCode": 0,
			"errorMsg": "Success",
			"result": {"ocrResults": [{"prunedResult": {
				"rec_texts": ["おはよう", "ございます"],
				"rec_scores": [0.98, 0.76],
				"rec_polys": [
					[[5,5],[25,5],[25,15],[5,15]],
					[[5,20],[40,20],[40,30],[5,30]]
				]
			}}]}
		}`))
	})

	engine := NewPaddleEngine(context.Background(), srv.URL)
	require.True(t, engine.Available())

	raw, err := engine.Detect(context.Background(), textLikeImage(50, 40))
	require.NoError(t, err)

	items := Normalize(raw)
	if assert.Len(t, items, 2) {
		assert.Equal(t, "おはよう", items[0].Text)
		assert.Equal(t, 0.98, items[0].Confidence)
		assert.Equal(t, Polygon{{5, 5}, {25, 5}, {25, 15}, {5, 15}}, items[0].Polygon)
		assert.Equal(t, "ございます", items[1].Text)
	}
}

func TestPaddleEngineServiceError(t *testing.T) {
	srv := newPaddleServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errorCode": 500, "errorMsg": "model not loaded"}`))
	})

	engine := NewPaddleEngine(context.Background(), srv.URL)
	_, err := engine.Detect(context.Background(), textLikeImage(8, 8))
	assert.ErrorIs(t, err, ErrRecognitionFailed)
}

func TestPaddleEngineUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	engine := NewPaddleEngine(context.Background(), url)
	assert.False(t, engine.Available())

	_, err := engine.Detect(context.Background(), textLikeImage(8, 8))
	assert.ErrorIs(t, err, ErrEngineUnavailable)
}
