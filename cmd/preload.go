package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"ocrtranslate/internal/logger"
	"ocrtranslate/internal/region"
)

var preloadCmd = &cobra.Command{
	Use:   "preload",
	Short: "Initialize the recognition engine and translation backends",
	Long: `Initialize every dependency once and report whether it is ready. Run it
when the host application starts so engine setup and model downloads happen
before the first screenshot. Exits non-zero when the recognition engine is not
usable.`,
	Args: cobra.NoArgs,
	RunE: runPreload,
}

func init() {
	rootCmd.AddCommand(preloadCmd)
}

func runPreload(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("preload")
	out := cmd.ErrOrStderr()

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := createContextWithTimeout(secondsDuration(timeoutSecs), log)
	defer cancel()

	services := region.NewServices(servicesOptions(cmd))
	defer services.Close()

	if err := services.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize services: %w", err)
	}

	recognizer := services.Recognizer()
	fmt.Fprintf(out, "Recognition engine %s: %s\n", recognizer.EngineName(), readiness(recognizer.Available()))
	for _, b := range services.Backends() {
		fmt.Fprintf(out, "Translation backend %s (%s): %s\n", b.Name(), b.Kind(), readiness(b.Available()))
	}
	if !services.Config().CredentialsComplete() {
		fmt.Fprintln(out, "Baidu credentials missing: set BAIDU_APPID and BAIDU_SECRET_KEY")
	}

	if !recognizer.Available() {
		return fmt.Errorf("recognition engine %s is not available", recognizer.EngineName())
	}

	log.Info().Msg("Preload completed")
	return nil
}

func readiness(available bool) string {
	if available {
		return "ready"
	}
	return "unavailable"
}
