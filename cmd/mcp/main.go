package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"

	mcpadapter "github.com/fintechsquad01/imagescout/internal/adapters/mcp"
	"github.com/fintechsquad01/imagescout/internal/bootstrap"
	"github.com/fintechsquad01/imagescout/internal/config"
	"github.com/fintechsquad01/imagescout/internal/observability/logging"
)

var version = "dev"

// stdout carries the MCP protocol, so logs go to stderr.
func main() {
	cfg := config.Load()
	logger := logging.NewJSONLoggerTo(os.Stderr, "mcp", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, "mcp")
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	s := mcpadapter.NewServer("imagescout", version, mcpadapter.NewTools(app.ScoreUC, app.ConfigUC, app.ImagesUC))
	logger.Info("mcp_stdio_started", "version", version)
	if err := server.ServeStdio(s); err != nil {
		logger.Error("mcp_stdio_failed", "error", err)
	}
}
