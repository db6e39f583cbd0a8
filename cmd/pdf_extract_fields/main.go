// Command pdf_extract_fields prints the fillable fields of a single PDF.
// It reads the file directly and does not apply the server's directory
// restrictions.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/a3tai/pdf-field-extractor/internal/config"
	"github.com/a3tai/pdf-field-extractor/internal/logging"
	"github.com/a3tai/pdf-field-extractor/internal/pdf"
	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
)

type options struct {
	format   string
	lines    bool
	library  string
	logLevel string
	maxPages int
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, path, err := parseArgs(args, stderr)
	if errors.Is(err, pflag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	logger, err := logging.New(opts.logLevel, stderr)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	// Serve the file through a service rooted at its own directory
	cfg := config.DefaultConfig()
	cfg.PDFDirectory = filepath.Dir(absPath)
	cfg.Library = opts.library
	cfg.LogLevel = opts.logLevel
	cfg.MaxPages = opts.maxPages
	cfg.CacheEntries = 0
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	svc, err := pdf.NewService(cfg, logger)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	result, err := svc.ExtractFields(ctx, pdf.PDFExtractFieldsRequest{
		Path:         absPath,
		IncludeLines: opts.lines,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if opts.format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}

	printText(stdout, result)
	return 0
}

func parseArgs(args []string, stderr io.Writer) (options, string, error) {
	var opts options
	flags := pflag.NewFlagSet("pdf_extract_fields", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVarP(&opts.format, "format", "f", "text", "Output format: text or json")
	flags.BoolVarP(&opts.lines, "lines", "l", false, "Also print the clustered text lines")
	flags.StringVar(&opts.library, "library", config.DefaultLibrary, "PDF library: auto, pdfcpu or ledongthuc")
	flags.StringVar(&opts.logLevel, "loglevel", "warn", "Log level (debug, info, warn, error)")
	flags.IntVar(&opts.maxPages, "maxpages", extraction.DefaultMaxPages, "Maximum pages per document (0 = unlimited)")
	flags.Usage = func() {
		fmt.Fprintf(stderr, "Usage: pdf_extract_fields [options] <pdf-file>\n\n")
		fmt.Fprintf(stderr, "Prints the fillable fields of a PDF, from its AcroForm when present\n")
		fmt.Fprintf(stderr, "and from blank-line patterns in its text otherwise.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		flags.PrintDefaults()
	}

	if err := flags.Parse(args); err != nil {
		return opts, "", err
	}
	if opts.format != "text" && opts.format != "json" {
		return opts, "", fmt.Errorf("invalid format %q (must be text or json)", opts.format)
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return opts, "", errors.New("exactly one PDF file is required")
	}
	return opts, flags.Arg(0), nil
}

func printText(w io.Writer, result *pdf.PDFExtractFieldsResult) {
	source := "text patterns"
	if result.HasAcroForm {
		source = "AcroForm"
	}
	fmt.Fprintf(w, "%s: %d fields on %d page(s) from %s\n",
		filepath.Base(result.Path), result.FieldCount, result.PageCount, source)

	if len(result.CountByKind) > 0 {
		kinds := make([]string, 0, len(result.CountByKind))
		for kind := range result.CountByKind {
			kinds = append(kinds, string(kind))
		}
		sort.Strings(kinds)
		for _, kind := range kinds {
			fmt.Fprintf(w, "  %-10s %d\n", kind, result.CountByKind[extraction.FieldKind(kind)])
		}
	}

	for i, f := range result.Fields {
		fmt.Fprintf(w, "\n[%d] %s\n", i+1, f.FieldID)
		fmt.Fprintf(w, "    Kind: %s  Page: %d", f.Kind, f.Page)
		if f.Required {
			fmt.Fprint(w, "  required")
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "    Rect: x=%.2f%% y=%.2f%% w=%.2f%% h=%.2f%%\n",
			f.Rect.X, f.Rect.Y, f.Rect.Width, f.Rect.Height)
		if f.SourceRect != nil {
			fmt.Fprintf(w, "    Source: [%.1f %.1f %.1f %.1f]\n",
				f.SourceRect.X1, f.SourceRect.Y1, f.SourceRect.X2, f.SourceRect.Y2)
		}
		if f.Group != nil {
			fmt.Fprintf(w, "    Group: %s\n", *f.Group)
		}
		if f.Value != nil {
			fmt.Fprintf(w, "    Value: %s\n", *f.Value)
		}
	}

	if len(result.TextLines) > 0 {
		fmt.Fprintf(w, "\nText lines:\n")
		for _, line := range result.TextLines {
			fmt.Fprintf(w, "  p%d #%d y=%.1f  %s\n", line.Page, line.Index, line.Y, line.Text())
		}
	}
}
