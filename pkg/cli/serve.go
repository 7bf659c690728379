package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LankeSathwik7/sql-query-assistant/pkg/handlers"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/mcp"
	"github.com/LankeSathwik7/sql-query-assistant/pkg/mcp/tools"
)

const shutdownTimeout = 30 * time.Second

func newServeCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API and MCP endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, opts)
		},
	}
}

func runServe(ctx context.Context, cmd *cobra.Command, opts *options) error {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a, err := opts.newApp(ctx, cmd.ErrOrStderr(), appOptions{withLLM: true, registry: registry})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.schema.TestConnection(ctx); err != nil {
		// Keep serving: /health reports the outage and questions fail cleanly.
		a.logger.Warn("Datasource not reachable at startup", zap.Error(err))
	}

	deps := handlers.RouterDeps{
		Config:    a.cfg,
		Questions: a.questions,
		Schema:    a.schema,
		Gatherer:  registry,
		Logger:    a.logger,
	}
	if a.cfg.Server.MCPEnabled {
		deps.MCP = mcp.NewServer(&tools.ToolDeps{
			Questions: a.questions,
			Schema:    a.schema,
			Version:   a.cfg.Version,
		}, a.logger.Named("mcp"))
	}

	srv := &http.Server{
		Addr:              a.cfg.Server.Addr(),
		Handler:           handlers.NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// A question makes two model calls.
		WriteTimeout: 2*a.cfg.LLM.RequestTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting server",
			zap.String("addr", srv.Addr),
			zap.String("version", a.cfg.Version),
			zap.String("datasource", a.cfg.Datasource.Type),
			zap.String("model", a.cfg.LLM.Model),
			zap.Bool("mcp", a.cfg.Server.MCPEnabled))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		a.logger.Info("Shutdown signal received, draining connections")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	a.logger.Info("Server stopped")
	return nil
}
