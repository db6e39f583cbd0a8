package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/pdf-field-extractor/internal/config"
	"github.com/a3tai/pdf-field-extractor/internal/logging"
	"github.com/a3tai/pdf-field-extractor/internal/mcp"
	"github.com/a3tai/pdf-field-extractor/internal/pdf"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[0], os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run serves MCP over stdin/stdout. Logs go to stderr so they never mix
// with protocol messages.
func run(ctx context.Context, program string, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cfg, err := config.Load(program, args, stderr)
	switch {
	case errors.Is(err, config.ErrVersionRequested):
		printVersion(stdout)
		return 0
	case errors.Is(err, pflag.ErrHelp):
		return 0
	case err != nil:
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 2
	}

	logger, err := logging.New(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to set up logging: %v\n", err)
		return 2
	}

	if version != "dev" {
		cfg.Version = version
	}
	logger.WithField("config", cfg.String()).Debug("starting with configuration")

	pdfService, err := pdf.NewService(cfg, logger)
	if err != nil {
		logger.WithError(err).Error("failed to create PDF service")
		return 1
	}

	server, err := mcp.NewServer(cfg, pdfService, logger)
	if err != nil {
		logger.WithError(err).Error("failed to create MCP server")
		return 1
	}

	if err := server.Run(ctx, stdin, stdout); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("server stopped with error")
		return 1
	}

	logger.Info("server stopped")
	return 0
}

// printVersion prints version information
func printVersion(w io.Writer) {
	fmt.Fprintf(w, "PDF Field Extractor\n")
	fmt.Fprintf(w, "Version: %s\n", version)
	fmt.Fprintf(w, "Build Time: %s\n", buildTime)
	fmt.Fprintf(w, "Git Commit: %s\n", gitCommit)
	fmt.Fprintf(w, "Built with: %s\n", runtime.Version())
}
