package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"
)

// probeTimeout bounds the reachability check done at construction.
const probeTimeout = 2 * time.Second

// PaddleEngine implements Engine against a PaddleOCR serving endpoint. The
// service answers with column arrays (rec_texts, rec_scores, rec_polys).
type PaddleEngine struct {
	url        string
	httpClient *http.Client
	available  bool
}

type paddleRequest struct {
	File     string `json:"file"`
	FileType int    `json:"fileType"`
}

type paddleResponse struct {
	ErrorCode int    `json:"errorCode"`
	ErrorMsg  string `json:"errorMsg"`
	Result    struct {
		OCRResults []struct {
			PrunedResult struct {
				RecTexts  []string       `json:"rec_texts"`
				RecScores []float64      `json:"rec_scores"`
				RecPolys  [][][2]float64 `json:"rec_polys"`
			} `json:"prunedResult"`
		} `json:"ocrResults"`
	} `json:"result"`
}

// NewPaddleEngine creates an engine for the serving endpoint at url. The
// endpoint is probed once; any HTTP answer counts as reachable.
func NewPaddleEngine(ctx context.Context, url string) *PaddleEngine {
	p := &PaddleEngine{
		url:        url,
		httpClient: &http.Client{},
	}
	p.available = p.probe(ctx)
	return p
}

func (p *PaddleEngine) probe(ctx context.Context) bool {
	if p.url == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return false
	}
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return true
}

// Name implements Engine.
func (p *PaddleEngine) Name() string { return "paddle" }

// Available implements Engine.
func (p *PaddleEngine) Available() bool { return p.available }

// Detect implements Engine.
func (p *PaddleEngine) Detect(ctx context.Context, img image.Image) (RawResult, error) {
	const op = "Detect"

	if !p.available {
		return RawResult{}, WrapOCRError(op, ErrEngineUnavailable, "paddle endpoint unreachable: "+p.url)
	}

	content, err := encodePNG(img)
	if err != nil {
		return RawResult{}, WrapOCRError(op, err, "failed to encode image")
	}

	body, err := json.Marshal(paddleRequest{
		File:     base64.StdEncoding.EncodeToString(content),
		FileType: 1,
	})
	if err != nil {
		return RawResult{}, WrapOCRError(op, err, "failed to marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return RawResult{}, WrapOCRError(op, err, "failed to create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, err.Error())
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, "failed to read response: "+err.Error())
	}
	if resp.StatusCode != http.StatusOK {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("status %d: %s", resp.StatusCode, string(data)))
	}

	var parsed paddleResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, "failed to parse response: "+err.Error())
	}
	if parsed.ErrorCode != 0 {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("error %d: %s", parsed.ErrorCode, parsed.ErrorMsg))
	}
	if len(parsed.Result.OCRResults) == 0 {
		return RawResult{}, nil
	}

	pruned := parsed.Result.OCRResults[0].PrunedResult
	raw := RawResult{
		Texts:    pruned.RecTexts,
		Scores:   pruned.RecScores,
		Polygons: make([]Polygon, len(pruned.RecPolys)),
	}
	for i, poly := range pruned.RecPolys {
		raw.Polygons[i] = make(Polygon, len(poly))
		for j, pt := range poly {
			raw.Polygons[i][j] = Point{X: pt[0], Y: pt[1]}
		}
	}
	return raw, nil
}

// Close implements Engine.
func (p *PaddleEngine) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}
