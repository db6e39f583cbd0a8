package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
	"github.com/a3tai/pdf-field-extractor/internal/pdf/wrapper"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "1.0.0", cfg.Version)
	assert.Equal(t, "pdf-field-extractor", cfg.ServerName)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxFileSize)
	assert.Equal(t, "auto", cfg.Library)
	assert.Equal(t, 500, cfg.MaxPages)
	assert.Equal(t, 250000, cfg.MaxTextRuns)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, 5.0, cfg.LineTolerance)
	assert.Equal(t, 0.60, cfg.LabelWindow)
	assert.Equal(t, 32, cfg.CacheEntries)

	currentDir, _ := os.Getwd()
	assert.Equal(t, currentDir, cfg.PDFDirectory)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr string
	}{
		{name: "valid defaults", modify: func(c *Config) {}},
		{name: "unlimited pages and runs", modify: func(c *Config) { c.MaxPages, c.MaxTextRuns = 0, 0 }},
		{name: "empty directory", modify: func(c *Config) { c.PDFDirectory = "" }, wantErr: "PDF directory cannot be empty"},
		{name: "zero file size", modify: func(c *Config) { c.MaxFileSize = 0 }, wantErr: "maximum file size must be positive"},
		{name: "negative pages", modify: func(c *Config) { c.MaxPages = -1 }, wantErr: "maximum pages cannot be negative"},
		{name: "negative text runs", modify: func(c *Config) { c.MaxTextRuns = -5 }, wantErr: "maximum text runs cannot be negative"},
		{name: "cache disabled", modify: func(c *Config) { c.CacheEntries = 0 }},
		{name: "negative cache", modify: func(c *Config) { c.CacheEntries = -1 }, wantErr: "cache entries cannot be negative"},
		{name: "no workers", modify: func(c *Config) { c.Workers = 0 }, wantErr: "workers must be at least 1"},
		{name: "zero tolerance", modify: func(c *Config) { c.LineTolerance = 0 }, wantErr: "line tolerance must be positive"},
		{name: "label window too wide", modify: func(c *Config) { c.LabelWindow = 1.5 }, wantErr: "label window"},
		{name: "unknown library", modify: func(c *Config) { c.Library = "custom" }, wantErr: "invalid library"},
		{name: "bad log level", modify: func(c *Config) { c.LogLevel = "verbose" }, wantErr: "invalid log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.PDFDirectory = t.TempDir()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfigValidateDirectoryCreation(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "leases")
	cfg := DefaultConfig()
	cfg.PDFDirectory = dir

	require.NoError(t, cfg.Validate())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestConfigValidateLogLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.PDFDirectory = t.TempDir()
			cfg.LogLevel = level
			assert.NoError(t, cfg.Validate())
			assert.Equal(t, level == "debug", cfg.IsDebug())
		})
	}
}

func TestConfigExtractionOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxPages = 10
	cfg.MaxTextRuns = 1000
	cfg.Workers = 3
	cfg.LineTolerance = 2.5
	cfg.LabelWindow = 0.4

	opts := cfg.ExtractionOptions()

	assert.Equal(t, 10, opts.MaxPages)
	assert.Equal(t, 1000, opts.MaxTextRuns)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, 2.5, opts.LineTolerance)
	assert.Equal(t, 0.4, opts.Detector.LabelWindow)
	assert.Equal(t, extraction.DefaultDetectorOptions().MinBlankWidth, opts.Detector.MinBlankWidth)
}

func TestConfigLibraryType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Library = "pdfcpu"
	assert.Equal(t, wrapper.LibraryPDFCPU, cfg.LibraryType())
}

func TestConfigString(t *testing.T) {
	cfg := &Config{
		PDFDirectory: "/tmp/leases",
		Library:      "auto",
		LogLevel:     "debug",
		MaxFileSize:  1024,
		MaxPages:     5,
		MaxTextRuns:  50,
		Workers:      2,
	}

	expected := "Config{PDFDirectory: /tmp/leases, Library: auto, LogLevel: debug, MaxFileSize: 1024, MaxPages: 5, MaxTextRuns: 50, Workers: 2}"
	assert.Equal(t, expected, cfg.String())
}
