package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"ocrtranslate/internal/logger"
	"ocrtranslate/internal/region"
	"ocrtranslate/pkg/models"
)

var version = "1.0.0"

// errReported marks failures whose JSON answer was already written to stdout.
var errReported = errors.New("invalid invocation")

var rootCmd = &cobra.Command{
	Use:   "ocrtranslate <screenshot_path> <x> <y> <width> <height>",
	Short: "Recognize and translate text in a screenshot region",
	Long: `ocrtranslate recognizes the text in a screenshot, translates every
recognized line and prints one JSON object with the translated blocks and
their pixel boxes, ready for an overlay renderer.

Translation prefers a local language model server (OpenAI-compatible API,
e.g. Ollama) and falls back to the Baidu translation API. Logs go to stderr;
stdout carries only the JSON result.

Environment variables:
  OCR_ENGINE        - tesseract (default), vision or paddle
  OCR_LANGUAGE      - recognition language (default: japan)
  LLM_BASE_URL      - local model endpoint (default: http://localhost:11434/v1)
  LLM_MODEL         - local model name (default: qwen2.5:7b)
  BAIDU_APPID       - Baidu translation app id
  BAIDU_SECRET_KEY  - Baidu translation secret
  CACHE_REDIS_URL   - optional Redis translation cache
  SHEETS_URL        - optional Google Sheet receiving every translation`,
	Example: `  # Translate a captured region
  ocrtranslate /tmp/shot.png 120 80 640 200

  # Use Google Cloud Vision and skip the local model
  ocrtranslate /tmp/shot.png 0 0 1920 1080 --engine vision --no-llm`,
	Version:       version,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runTranslate,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errReported) {
			log.Error().
				Err(err).
				Msg("Command execution failed")
			fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		}
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.String("engine", "", "Recognition engine: tesseract, vision or paddle (default from OCR_ENGINE)")
	flags.Float64("threshold", 0.5, "Minimum recognition confidence in [0,1] (default from OCR_CONFIDENCE_THRESHOLD)")
	flags.String("preprocess", "", "Image preprocessing: auto, on or off (default from OCR_PREPROCESS)")
	flags.Bool("no-llm", false, "Do not use the local language model backend")
	flags.String("config", "", "JSON configuration file (default from CONFIG_FILE, then config.json)")
	flags.String("sheet", "", "Google Sheet URL to append translations to (default from SHEETS_URL)")
	flags.Int("timeout", 120, "Per-request timeout in seconds")

	// Region values may be negative (displays left of or above the main
	// one), so flag parsing stops at the screenshot path. Flags following
	// the five region arguments are parsed in runTranslate.
	rootCmd.Flags().SetInterspersed(false)
}

// servicesOptions collects the configuration overrides given on the command
// line. Unset flags keep the configured values.
func servicesOptions(cmd *cobra.Command) region.Options {
	flags := cmd.Flags()

	opts := region.Options{}
	opts.ConfigFile, _ = flags.GetString("config")
	opts.Engine, _ = flags.GetString("engine")
	opts.Preprocess, _ = flags.GetString("preprocess")
	opts.NoLLM, _ = flags.GetBool("no-llm")
	opts.SheetURL, _ = flags.GetString("sheet")
	if flags.Changed("threshold") {
		threshold, _ := flags.GetFloat64("threshold")
		opts.Threshold = &threshold
	}
	return opts
}

// writeResult prints v to the command's stdout as a single JSON line.
func writeResult(cmd *cobra.Command, v any) error {
	if err := models.Write(cmd.OutOrStdout(), v); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
