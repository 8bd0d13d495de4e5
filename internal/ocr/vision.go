package ocr

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"google.golang.org/api/option"
)

// VisionEngine implements Engine using Google Cloud Vision document text
// detection. Each paragraph of the full text annotation becomes one item.
type VisionEngine struct {
	client        *vision.ImageAnnotatorClient
	languageHints []string
}

// NewVisionEngine creates a Vision engine with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS
// JSON in env and falls back to application default credentials. A failure
// yields an engine that reports itself unavailable together with the error.
func NewVisionEngine(ctx context.Context, languageHints ...string) (*VisionEngine, error) {
	const op = "NewVisionEngine"

	var client *vision.ImageAnnotatorClient
	var err error

	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsJSON([]byte(credJSON)))
		if err != nil {
			return &VisionEngine{}, WrapOCRError(op, ErrEngineUnavailable, "failed to create client with GOOGLE_CREDENTIALS: "+err.Error())
		}
	} else if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		client, err = vision.NewImageAnnotatorClient(ctx, option.WithCredentialsFile(credFile))
		if err != nil {
			return &VisionEngine{}, WrapOCRError(op, ErrEngineUnavailable, "failed to create client with GOOGLE_APPLICATION_CREDENTIALS: "+err.Error())
		}
	} else {
		client, err = vision.NewImageAnnotatorClient(ctx)
		if err != nil {
			return &VisionEngine{}, WrapOCRError(op, ErrEngineUnavailable, "no credentials found in environment")
		}
	}

	return &VisionEngine{
		client:        client,
		languageHints: languageHints,
	}, nil
}

// Name implements Engine.
func (v *VisionEngine) Name() string { return "vision" }

// Available implements Engine.
func (v *VisionEngine) Available() bool { return v.client != nil }

// Detect implements Engine.
func (v *VisionEngine) Detect(ctx context.Context, img image.Image) (RawResult, error) {
	const op = "Detect"

	if v.client == nil {
		return RawResult{}, WrapOCRError(op, ErrEngineUnavailable, "vision client not initialized")
	}

	content, err := encodePNG(img)
	if err != nil {
		return RawResult{}, WrapOCRError(op, err, "failed to encode image")
	}

	req := &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: content},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
				ImageContext: &visionpb.ImageContext{LanguageHints: v.languageHints},
			},
		},
	}

	resp, err := v.client.BatchAnnotateImages(ctx, req)
	if err != nil {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API call failed: %v", err))
	}
	if len(resp.Responses) == 0 {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, "no response from Vision API")
	}

	imgResp := resp.Responses[0]
	if imgResp.Error != nil {
		return RawResult{}, WrapOCRError(op, ErrRecognitionFailed, fmt.Sprintf("Vision API error: %s", imgResp.Error.Message))
	}

	return RawResult{Items: paragraphItems(imgResp.FullTextAnnotation)}, nil
}

// Close closes the underlying Vision client.
func (v *VisionEngine) Close() error {
	if v.client != nil {
		return v.client.Close()
	}
	return nil
}

// paragraphItems flattens a full text annotation into one row per paragraph,
// in page/block/paragraph order.
func paragraphItems(ann *visionpb.TextAnnotation) []RawItem {
	if ann == nil {
		return nil
	}

	var items []RawItem
	for _, page := range ann.Pages {
		for _, block := range page.Blocks {
			for _, paragraph := range block.Paragraphs {
				text := paragraphText(paragraph)
				if text == "" {
					continue
				}
				items = append(items, RawItem{
					Text:    text,
					Score:   float64(paragraph.Confidence),
					Polygon: polygonFromVertices(paragraph.BoundingBox.GetVertices()),
				})
			}
		}
	}
	return items
}

func paragraphText(paragraph *visionpb.Paragraph) string {
	var sb strings.Builder
	for _, word := range paragraph.Words {
		for _, symbol := range word.Symbols {
			sb.WriteString(symbol.Text)
			switch symbol.GetProperty().GetDetectedBreak().GetType() {
			case visionpb.TextAnnotation_DetectedBreak_SPACE,
				visionpb.TextAnnotation_DetectedBreak_SURE_SPACE,
				visionpb.TextAnnotation_DetectedBreak_EOL_SURE_SPACE:
				sb.WriteByte(' ')
			case visionpb.TextAnnotation_DetectedBreak_HYPHEN:
				sb.WriteByte('-')
			}
		}
	}
	return strings.TrimSpace(sb.String())
}

func polygonFromVertices(vertices []*visionpb.Vertex) Polygon {
	poly := make(Polygon, 0, len(vertices))
	for _, v := range vertices {
		poly = append(poly, Point{X: float64(v.GetX()), Y: float64(v.GetY())})
	}
	return poly
}
