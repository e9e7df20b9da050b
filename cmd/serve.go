// File: cmd/serve.go
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sitelens/internal/analysis"
	"github.com/xkilldash9x/sitelens/internal/browser"
	"github.com/xkilldash9x/sitelens/internal/capture"
	"github.com/xkilldash9x/sitelens/internal/config"
	"github.com/xkilldash9x/sitelens/internal/extract"
	"github.com/xkilldash9x/sitelens/internal/observability"
	"github.com/xkilldash9x/sitelens/internal/orchestrator"
	"github.com/xkilldash9x/sitelens/internal/server"
)

// newServeCmd creates and configures the `serve` command.
func newServeCmd() *cobra.Command {
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Starts the website analysis HTTP service",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.FromContext(cmd.Context())

			// Command-line flags override config file and environment.
			if cmd.Flags().Changed("port") {
				cfg.Server.Port, _ = cmd.Flags().GetInt("port")
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless, _ = cmd.Flags().GetBool("headless")
			}

			return runServe(cmd.Context(), cfg)
		},
	}

	serveCmd.Flags().Int("port", 0, "listen port (overrides config)")
	serveCmd.Flags().Bool("headless", true, "run the browser headless")

	return serveCmd
}

// runServe wires the pipeline together and serves until the context is
// cancelled.
func runServe(ctx context.Context, cfg *config.Config) error {
	logger := observability.GetLogger()

	manager := browser.NewManager(cfg.Browser, cfg.Network, logger)
	extractor := extract.New(logger)
	capturer := capture.New(cfg.Browser.ViewportWidth, logger)

	generator, err := analysis.NewOpenAIClient(cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("failed to create generation client: %w", err)
	}
	defer func() {
		if err := generator.Close(); err != nil {
			logger.Debug("Generation client close failed", zap.Error(err))
		}
	}()

	orch, err := orchestrator.New(cfg, orchestrator.NewBrowserSource(manager), extractor, capturer, generator, logger)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}

	srv := server.New(cfg.Server, orch, Version, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutdown signal received, draining requests")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("Server stopped")
	return <-errCh
}
