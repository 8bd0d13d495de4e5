package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"ocrtranslate/internal/logger"
	"ocrtranslate/internal/region"
	"ocrtranslate/pkg/models"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer region translation requests read from stdin",
	Long: `Run as a resident process. Each stdin line is one request in the form

  <screenshot_path> <x> <y> <width> <height>

and is answered with one JSON line on stdout, in the same format as the root
command. Recognition and translation backends are set up once and reused for
every request. The process exits at end of input.`,
	Example: `  printf '/tmp/shot.png 0 0 800 600\n' | ocrtranslate serve`,
	Args:    cobra.NoArgs,
	RunE:    runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	ctx, cancel := createContextWithTimeout(0, log)
	defer cancel()

	services := region.NewServices(servicesOptions(cmd))
	defer func() {
		if err := services.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to release services")
		}
	}()
	if err := services.Init(ctx); err != nil {
		log.Warn().Err(err).Msg("Initial service setup failed, retrying on first request")
	}

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	timeout := secondsDuration(timeoutSecs)
	orchestrator := region.NewOrchestrator(services)

	log.Info().Msg("Waiting for requests on stdin")
	return serveLines(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), func(ctx context.Context, req region.Request) models.Response {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		return translateRegion(ctx, orchestrator, req)
	})
}

// serveLines answers each non-blank line of in with one JSON line on out,
// strictly one request at a time.
func serveLines(ctx context.Context, in io.Reader, out io.Writer, handle func(context.Context, region.Request) models.Response) error {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		var answer any
		if len(fields) < 5 {
			answer = models.ErrorResponse{Error: models.UsageError}
		} else if req, err := parseRequest(fields); err != nil {
			answer = models.ErrorResponse{Error: err.Error()}
		} else {
			answer = handle(ctx, req)
		}

		if err := models.Write(out, answer); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return scanner.Err()
}
