package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/a3tai/mcp-pdf-regions/internal/config"
	"github.com/a3tai/mcp-pdf-regions/internal/mcp"
	"github.com/a3tai/mcp-pdf-regions/internal/regions"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// setupLogging builds the process logger. Output always goes to stderr so
// the stdio protocol stream on stdout stays clean; stdio mode is quiet unless
// debug is enabled.
func setupLogging(cfg *config.Config, w io.Writer) *slog.Logger {
	level := cfg.SlogLevel()
	if cfg.IsStdioMode() && !cfg.IsDebug() {
		level = slog.LevelWarn
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: cfg.IsServerMode() && cfg.IsDebug()}
	return slog.New(slog.NewTextHandler(w, opts))
}

// newServer creates the service, loads the startup template if one is
// configured and wraps both in an MCP server.
func newServer(cfg *config.Config, logger *slog.Logger) (*mcp.Server, error) {
	service, err := regions.NewService(cfg, regions.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}

	if cfg.Template != "" {
		res, err := service.LoadTemplate(cfg.Template)
		if err != nil {
			return nil, fmt.Errorf("failed to load template: %w", err)
		}
		logger.Info("template loaded", "path", res.Path, "selectors", res.Loaded, "skipped", len(res.Skipped))
	}

	return mcp.NewServer(cfg, service, logger)
}

// runServerMode handles server mode execution with signal handling
func runServerMode(ctx context.Context, cancel context.CancelFunc, server *mcp.Server, logger *slog.Logger) {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- server.Run(ctx)
	}()

	select {
	case sig := <-signalCh:
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()

		if err := <-serverErrCh; err != nil {
			logger.Error("server shutdown with error", "error", err)
			os.Exit(1)
		}

	case err := <-serverErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("server stopped")
}

// runStdioMode handles stdio mode execution
func runStdioMode(ctx context.Context, server *mcp.Server, logger *slog.Logger) {
	// the parent process controls our lifecycle; exit when stdin closes
	if err := server.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func main() {
	cfg, err := config.LoadFromFlags()
	if errors.Is(err, config.ErrVersionRequested) {
		printVersion(os.Stdout)
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if version != "dev" {
		cfg.Version = version
	}

	logger := setupLogging(cfg, os.Stderr)
	logger.Debug("starting", "config", cfg.String())

	server, err := newServer(cfg, logger)
	if err != nil {
		logger.Error("failed to create MCP server", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.IsServerMode() {
		runServerMode(ctx, cancel, server, logger)
	} else {
		runStdioMode(ctx, server, logger)
	}
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "MCP PDF Regions\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
