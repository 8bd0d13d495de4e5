package ocr_test

import (
	"context"
	"fmt"
	"log"

	"ocrtranslate/internal/ocr"
)

// Example demonstrates recognizing a screenshot with a local engine.
func Example() {
	ctx := context.Background()

	engine, err := ocr.NewEngine(ctx, ocr.EngineOptions{Name: "tesseract", Language: "japan"})
	if err != nil {
		log.Fatalf("Failed to create engine: %v", err)
	}

	adapter := ocr.NewAdapter(engine, ocr.AdapterConfig{
		Threshold:  ocr.DefaultConfidenceThreshold,
		Preprocess: !ocr.CompensatesInternally(engine.Name()),
	})
	defer adapter.Close()

	// Failures yield an empty slice rather than an error.
	for _, item := range adapter.RecognizeFile(ctx, "screenshot.png") {
		fmt.Printf("%s (%.2f) %v\n", item.Text, item.Confidence, item.Polygon)
	}
}

// ExamplePaddleEngine demonstrates using a PaddleOCR serving endpoint.
func ExamplePaddleEngine() {
	ctx := context.Background()

	engine := ocr.NewPaddleEngine(ctx, "http://localhost:8080/ocr")
	if !engine.Available() {
		log.Printf("PaddleOCR service is not reachable")
		return
	}

	adapter := ocr.NewAdapter(engine, ocr.AdapterConfig{Threshold: 0.6})
	items := adapter.RecognizeFile(ctx, "screenshot.png")
	fmt.Printf("Recognized %d items, Japanese: %v\n", len(items), ocr.ContainsJapanese(items))
}
