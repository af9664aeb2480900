package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wilhg/mcp-ci/pkg/config"
	"github.com/wilhg/mcp-ci/pkg/dispatch"
	"github.com/wilhg/mcp-ci/pkg/github"
	"github.com/wilhg/mcp-ci/pkg/mcpserver"
	"github.com/wilhg/mcp-ci/pkg/otel"
	"github.com/wilhg/mcp-ci/pkg/store/sqlstore"
	"github.com/wilhg/mcp-ci/pkg/tool"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdin/stdout",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	logger, err := newLogger(cmd, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	settings, err := loadSettings(cmd)
	if err != nil {
		return exitError(1, "config: %v", err)
	}
	if err := settings.Validate(); err != nil {
		if errors.Is(err, config.ErrMissingToken) {
			return exitError(1, "%v", err)
		}
		return exitError(1, "config: %v", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, cleanup, err := buildServer(ctx, settings, logger, cmd.ErrOrStderr())
	if err != nil {
		return exitError(1, "%v", err)
	}
	defer cleanup()

	logger.Info("mcp-ci server starting", "settings", settings.String(), "version", version)
	if err := srv.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return exitError(1, "serve: %v", err)
	}
	return nil
}

// buildServer assembles telemetry, the optional audit journal, the GitHub
// client and the dispatcher behind an MCP server. cleanup flushes and
// closes whatever was opened.
func buildServer(ctx context.Context, settings config.Settings, logger *slog.Logger, telemetryOut io.Writer) (*mcpserver.Server, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	shutdown, err := otel.Init(ctx, otel.Config{ServiceName: "mcp-ci", ServiceVersion: version, Export: settings.Trace, Writer: telemetryOut})
	if err != nil {
		return nil, cleanup, fmt.Errorf("telemetry: %w", err)
	}
	closers = append(closers, func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Warn("telemetry shutdown", "error", err)
		}
	})

	opts := []dispatch.Option{dispatch.WithLogger(logger)}
	if settings.AuditDSN != "" {
		st, err := sqlstore.Open(ctx, settings.AuditDSN)
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("audit journal: %w", err)
		}
		closers = append(closers, func() { _ = st.Close() })
		if err := st.Migrate(ctx); err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("audit journal: %w", err)
		}
		opts = append(opts, dispatch.WithJournal(st))
	}

	client, err := github.NewClient(github.Config{
		BaseURL: settings.BaseURL,
		Token:   settings.Token,
		Timeout: settings.Timeout,
		Logger:  logger,
	})
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	d, err := dispatch.New(settings, tool.NewCIRegistry(), client, opts...)
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	srv, err := mcpserver.New(d, mcpserver.WithLogger(logger))
	if err != nil {
		cleanup()
		return nil, func() {}, err
	}
	return srv, cleanup, nil
}
