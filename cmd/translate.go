package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"ocrtranslate/internal/logger"
	"ocrtranslate/internal/region"
	"ocrtranslate/pkg/models"
)

func runTranslate(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("translate")

	if len(args) < 5 {
		if err := writeResult(cmd, models.ErrorResponse{Error: models.UsageError}); err != nil {
			return err
		}
		return errReported
	}

	if err := cmd.Flags().Parse(args[5:]); err != nil {
		if werr := writeResult(cmd, models.ErrorResponse{Error: err.Error()}); werr != nil {
			return werr
		}
		return errReported
	}
	if help, _ := cmd.Flags().GetBool("help"); help {
		return cmd.Help()
	}

	req, err := parseRequest(args)
	if err != nil {
		if werr := writeResult(cmd, models.ErrorResponse{Error: err.Error()}); werr != nil {
			return werr
		}
		return errReported
	}

	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	ctx, cancel := createContextWithTimeout(secondsDuration(timeoutSecs), log)
	defer cancel()

	services := region.NewServices(servicesOptions(cmd))
	defer func() {
		if err := services.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to release services")
		}
	}()

	resp := translateRegion(ctx, region.NewOrchestrator(services), req)
	return writeResult(cmd, resp)
}

// parseRequest reads the screenshot path and the four integer region values.
// Arguments beyond the fifth are ignored.
func parseRequest(args []string) (region.Request, error) {
	var values [4]int
	for i := range values {
		v, err := strconv.Atoi(args[i+1])
		if err != nil {
			return region.Request{}, fmt.Errorf("invalid region argument: %s", args[i+1])
		}
		values[i] = v
	}

	return region.Request{
		ImagePath: args[0],
		X:         values[0],
		Y:         values[1],
		Width:     values[2],
		Height:    values[3],
	}, nil
}

// translateRegion runs one request and converts the outcome to its wire form.
// A failed request is reported in-band as success=false.
func translateRegion(ctx context.Context, o *region.Orchestrator, req region.Request) models.Response {
	blocks, err := o.Translate(ctx, req)
	if err != nil {
		return models.Failed()
	}
	return toResponse(blocks)
}

func toResponse(blocks []region.TranslatedBlock) models.Response {
	resp := models.Response{
		Success:    true,
		TextBlocks: make([]models.TextBlock, len(blocks)),
	}
	for i, b := range blocks {
		resp.TextBlocks[i] = models.TextBlock{
			X:          b.Box.X,
			Y:          b.Box.Y,
			Width:      b.Box.Width,
			Height:     b.Box.Height,
			Original:   b.Text,
			Translated: b.Translated,
			Confidence: b.Confidence,
		}
	}
	return resp
}

func secondsDuration(secs int) time.Duration {
	return time.Duration(secs) * time.Second
}

// createContextWithTimeout creates a context canceled by SIGINT/SIGTERM and,
// when timeout is positive, by the deadline.
func createContextWithTimeout(timeout time.Duration, log zerolog.Logger) (context.Context, context.CancelFunc) {
	var ctx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			log.Info().
				Str("signal", sig.String()).
				Msg("Received interrupt signal, canceling")
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, cancel
}
