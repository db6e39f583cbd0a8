package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
	"github.com/a3tai/pdf-field-extractor/internal/pdf/wrapper"
)

const (
	// EnvPrefix is prepended to every environment variable, e.g. PDF_FIELDS_DIR
	EnvPrefix = "PDF_FIELDS"

	// Default values
	DefaultLogLevel    = "info"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100MB
	DefaultLibrary     = string(wrapper.LibraryAuto)
	DefaultCacheSize   = 32

	// Directory permissions
	DefaultDirPerm = 0o750
)

// ErrVersionRequested is returned when --version is on the command line
var ErrVersionRequested = errors.New("version requested")

// Config holds all configuration for the field extractor
type Config struct {
	// PDF configuration
	PDFDirectory string
	MaxFileSize  int64 // Maximum PDF file size in bytes
	Library      string

	// Extraction limits and heuristics
	MaxPages      int
	MaxTextRuns   int
	Workers       int
	LineTolerance float64
	LabelWindow   float64 // fraction of page width searched for checkbox labels
	CacheEntries  int     // extraction results kept in memory, 0 disables

	// Application configuration
	Version    string
	ServerName string
	LogLevel   string
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	currentDir, err := os.Getwd()
	if err != nil {
		currentDir = "."
	}

	detector := extraction.DefaultDetectorOptions()
	return &Config{
		PDFDirectory:  currentDir,
		MaxFileSize:   DefaultMaxFileSize,
		Library:       DefaultLibrary,
		MaxPages:      extraction.DefaultMaxPages,
		MaxTextRuns:   extraction.DefaultMaxTextRuns,
		Workers:       runtime.NumCPU(),
		LineTolerance: extraction.DefaultLineTolerance,
		LabelWindow:   detector.LabelWindow,
		CacheEntries:  DefaultCacheSize,
		Version:       "1.0.0",
		ServerName:    "pdf-field-extractor",
		LogLevel:      DefaultLogLevel,
	}
}

// LoadFromFlags parses the process command line and environment
func LoadFromFlags() (*Config, error) {
	return Load(os.Args[0], os.Args[1:], os.Stderr)
}

// Load parses args (without the program name) on a private flag set and
// viper instance, so it can be called repeatedly
func Load(program string, args []string, usageOut io.Writer) (*Config, error) {
	cfg := DefaultConfig()

	if versionRequested(args) {
		return nil, ErrVersionRequested
	}

	v := viper.New()
	setupViperEnvironment(v, cfg)

	flags := pflag.NewFlagSet(program, pflag.ContinueOnError)
	flags.SetOutput(usageOut)
	defineCommandLineFlags(flags, cfg)
	flags.Usage = usage(program, flags, usageOut)

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}

	populateConfigFromViper(v, cfg)

	if cfg.PDFDirectory != "" {
		if expandedPath, err := filepath.Abs(cfg.PDFDirectory); err == nil {
			cfg.PDFDirectory = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(v *viper.Viper, cfg *Config) {
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	v.SetDefault("dir", cfg.PDFDirectory)
	v.SetDefault("loglevel", cfg.LogLevel)
	v.SetDefault("maxfilesize", cfg.MaxFileSize)
	v.SetDefault("maxpages", cfg.MaxPages)
	v.SetDefault("maxtextruns", cfg.MaxTextRuns)
	v.SetDefault("workers", cfg.Workers)
	v.SetDefault("linetolerance", cfg.LineTolerance)
	v.SetDefault("labelwindow", cfg.LabelWindow)
	v.SetDefault("library", cfg.Library)
	v.SetDefault("cacheentries", cfg.CacheEntries)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(flags *pflag.FlagSet, cfg *Config) {
	flags.String("dir", cfg.PDFDirectory, "Directory containing PDF files")
	flags.String("loglevel", cfg.LogLevel, "Log level (debug, info, warn, error)")
	flags.Int64("maxfilesize", cfg.MaxFileSize, "Maximum PDF file size in bytes")
	flags.Int("maxpages", cfg.MaxPages, "Maximum pages per document (0 = unlimited)")
	flags.Int("maxtextruns", cfg.MaxTextRuns, "Maximum text runs per document (0 = unlimited)")
	flags.Int("workers", cfg.Workers, "Pages processed in parallel")
	flags.Float64("linetolerance", cfg.LineTolerance, "Vertical distance in PDF units that still counts as one text line")
	flags.Float64("labelwindow", cfg.LabelWindow, "Fraction of page width searched for checkbox labels")
	flags.String("library", cfg.Library, "PDF library: auto, pdfcpu or ledongthuc")
	flags.Int("cacheentries", cfg.CacheEntries, "Extraction results kept in memory (0 = disabled)")
	flags.BoolP("version", "v", false, "Print version and exit")
}

// usage builds the custom usage message
func usage(program string, flags *pflag.FlagSet, out io.Writer) func() {
	return func() {
		fmt.Fprintf(out, "Usage of %s:\n", program)
		fmt.Fprintf(out, "\nPDF Field Extractor - finds fillable fields in lease and contract PDFs\n\n")
		fmt.Fprintf(out, "Options:\n")
		flags.PrintDefaults()
		fmt.Fprintf(out, "\nExamples:\n")
		fmt.Fprintf(out, "  %s                          # current directory (default)\n", program)
		fmt.Fprintf(out, "  %s --dir=/path/to/leases    # custom directory\n", program)
		fmt.Fprintf(out, "  %s --library=pdfcpu         # widgets only, no text fallback\n", program)
		fmt.Fprintf(out, "\nEnvironment Variables:\n")
		fmt.Fprintf(out, "  %s_DIR            PDF directory\n", EnvPrefix)
		fmt.Fprintf(out, "  %s_LOGLEVEL       Log level\n", EnvPrefix)
		fmt.Fprintf(out, "  %s_MAXFILESIZE    Maximum file size\n", EnvPrefix)
		fmt.Fprintf(out, "  %s_MAXPAGES       Maximum pages\n", EnvPrefix)
		fmt.Fprintf(out, "  %s_MAXTEXTRUNS    Maximum text runs\n", EnvPrefix)
		fmt.Fprintf(out, "  %s_WORKERS        Parallel page workers\n", EnvPrefix)
		fmt.Fprintf(out, "  %s_LINETOLERANCE  Line clustering tolerance\n", EnvPrefix)
		fmt.Fprintf(out, "  %s_LABELWINDOW    Checkbox label window\n", EnvPrefix)
		fmt.Fprintf(out, "  %s_LIBRARY        PDF library\n", EnvPrefix)
		fmt.Fprintf(out, "  %s_CACHEENTRIES   Cached extraction results\n", EnvPrefix)
	}
}

// versionRequested checks if version flag was requested
func versionRequested(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(v *viper.Viper, cfg *Config) {
	cfg.PDFDirectory = v.GetString("dir")
	cfg.LogLevel = v.GetString("loglevel")
	cfg.MaxFileSize = v.GetInt64("maxfilesize")
	cfg.MaxPages = v.GetInt("maxpages")
	cfg.MaxTextRuns = v.GetInt("maxtextruns")
	cfg.Workers = v.GetInt("workers")
	cfg.LineTolerance = v.GetFloat64("linetolerance")
	cfg.LabelWindow = v.GetFloat64("labelwindow")
	cfg.Library = v.GetString("library")
	cfg.CacheEntries = v.GetInt("cacheentries")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.PDFDirectory == "" {
		return errors.New("PDF directory cannot be empty")
	}

	// Check if PDF directory exists, create if it doesn't
	if _, err := os.Stat(c.PDFDirectory); os.IsNotExist(err) {
		if err := os.MkdirAll(c.PDFDirectory, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create PDF directory %s: %w", c.PDFDirectory, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access PDF directory %s: %w", c.PDFDirectory, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}
	if c.MaxPages < 0 {
		return errors.New("maximum pages cannot be negative")
	}
	if c.MaxTextRuns < 0 {
		return errors.New("maximum text runs cannot be negative")
	}
	if c.Workers < 1 {
		return errors.New("workers must be at least 1")
	}
	if c.CacheEntries < 0 {
		return errors.New("cache entries cannot be negative")
	}
	if c.LineTolerance <= 0 {
		return errors.New("line tolerance must be positive")
	}
	if c.LabelWindow <= 0 || c.LabelWindow > 1 {
		return fmt.Errorf("label window must be in (0, 1], got %g", c.LabelWindow)
	}
	if _, err := wrapper.ParseLibraryType(c.Library); err != nil {
		return fmt.Errorf("invalid library: %w", err)
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	return nil
}

// ExtractionOptions maps the configuration onto engine options
func (c *Config) ExtractionOptions() extraction.Options {
	opts := extraction.DefaultOptions()
	opts.MaxPages = c.MaxPages
	opts.MaxTextRuns = c.MaxTextRuns
	opts.Workers = c.Workers
	opts.LineTolerance = c.LineTolerance
	opts.Detector.LabelWindow = c.LabelWindow
	return opts
}

// LibraryType returns the configured PDF library
func (c *Config) LibraryType() wrapper.LibraryType {
	return wrapper.LibraryType(c.Library)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{PDFDirectory: %s, Library: %s, LogLevel: %s, MaxFileSize: %d, MaxPages: %d, MaxTextRuns: %d, Workers: %d}",
		c.PDFDirectory, c.Library, c.LogLevel, c.MaxFileSize, c.MaxPages, c.MaxTextRuns, c.Workers)
}
