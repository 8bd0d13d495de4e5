package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"ocrtranslate/internal/logger"
	"ocrtranslate/internal/ocr"
	"ocrtranslate/internal/region"
	"ocrtranslate/pkg/models"
)

var detectCmd = &cobra.Command{
	Use:   "detect <screenshot_path>",
	Short: "Report whether a screenshot contains Japanese text",
	Long: `Recognize the screenshot and print {"hasJapanese": bool, "items": n},
where items counts the recognized lines above the confidence threshold.
Nothing is translated.`,
	Example: `  ocrtranslate detect /tmp/shot.png --threshold 0.6`,
	Args:    cobra.ExactArgs(1),
	RunE:    runDetect,
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func runDetect(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("detect")

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := createContextWithTimeout(secondsDuration(timeoutSecs), log)
	defer cancel()

	opts := servicesOptions(cmd)
	opts.NoLLM = true
	services := region.NewServices(opts)
	defer services.Close()

	if err := services.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	items := services.Recognizer().RecognizeFile(ctx, args[0])
	hasJapanese := ocr.ContainsJapanese(items)
	log.Info().
		Str("file", args[0]).
		Int("items", len(items)).
		Bool("has_japanese", hasJapanese).
		Msg("Detection completed")

	return writeResult(cmd, models.DetectResponse{HasJapanese: hasJapanese, Items: len(items)})
}
