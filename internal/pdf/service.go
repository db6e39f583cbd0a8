package pdf

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/pdf-field-extractor/internal/config"
	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
	"github.com/a3tai/pdf-field-extractor/internal/pdf/security"
	"github.com/a3tai/pdf-field-extractor/internal/pdf/wrapper"
)

// Service handles field extraction requests by orchestrating the path
// guard, validator, loader and engine
type Service struct {
	maxFileSize   int64
	maxPages      int
	validator     *Validator
	pathValidator *security.PathValidator
	loader        wrapper.Loader
	engine        extraction.Engine
	cache         *ResultCache
	serverInfo    *PDFServerInfo
	log           logrus.FieldLogger
}

// NewService creates a PDF service from configuration
func NewService(cfg *config.Config, log logrus.FieldLogger) (*Service, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	pathValidator, err := security.NewPathValidator(cfg.PDFDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	loader, err := wrapper.NewLoader(cfg.LibraryType(), log)
	if err != nil {
		return nil, fmt.Errorf("failed to create loader: %w", err)
	}

	s := &Service{
		maxFileSize:   cfg.MaxFileSize,
		maxPages:      cfg.MaxPages,
		validator:     NewValidator(cfg.MaxFileSize),
		pathValidator: pathValidator,
		loader:        loader,
		engine:        extraction.NewEngine(cfg.ExtractionOptions(), log),
		cache:         NewResultCache(cfg.CacheEntries),
		log:           log,
	}
	s.serverInfo = NewPDFServerInfo(s)
	return s, nil
}

// ExtractFields loads a PDF and returns its fillable fields. Results are
// cached until the file's size or modification time changes.
func (s *Service) ExtractFields(ctx context.Context, req PDFExtractFieldsRequest) (*PDFExtractFieldsResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	info, err := s.validator.checkFile(path)
	if err != nil {
		return nil, err
	}

	id := uuid.NewString()
	log := s.log.WithFields(logrus.Fields{
		"extraction_id": id,
		"path":          path,
	})

	res, cached, err := s.cache.Do(ctx, cacheKey(path, info), func(ctx context.Context) (*extraction.ExtractionResult, error) {
		return s.extract(ctx, path, log)
	})
	if err != nil {
		return nil, err
	}
	if cached {
		log.Debug("served extraction from cache")
	}

	result := &PDFExtractFieldsResult{
		ExtractionID: id,
		Path:         path,
		Library:      string(s.loader.LibraryType()),
		PageCount:    res.PageCount,
		HasAcroForm:  res.HasAcroForm,
		Cached:       cached,
		FieldCount:   len(res.Fields),
		CountByKind:  res.CountByKind(),
		Fields:       res.Fields,
	}
	if req.IncludeLines {
		result.TextLines = res.TextLines
	}
	return result, nil
}

func (s *Service) extract(ctx context.Context, path string, log logrus.FieldLogger) (*extraction.ExtractionResult, error) {
	start := time.Now()

	doc, err := s.loader.Load(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}

	res, err := s.engine.Extract(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to extract fields from %s: %w", path, err)
	}

	log.WithFields(logrus.Fields{
		"pages":         res.PageCount,
		"fields":        len(res.Fields),
		"has_acro_form": res.HasAcroForm,
		"duration_ms":   time.Since(start).Milliseconds(),
	}).Info("extracted fields")
	return res, nil
}

// PDFValidateFile performs validation on a PDF file
func (s *Service) PDFValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.pathValidator.Resolve(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	return s.validator.ValidateFile(PDFValidateFileRequest{Path: path})
}

// PDFServerInfo returns server information and usage guidance
func (s *Service) PDFServerInfo(ctx context.Context, serverName, version string) (*PDFServerInfoResult, error) {
	return s.serverInfo.GetServerInfo(ctx, serverName, version)
}

// CacheStats returns result cache statistics
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// IsValidPDF performs a quick validation check on a file
func (s *Service) IsValidPDF(filePath string) bool {
	path, err := s.pathValidator.Resolve(filePath)
	if err != nil {
		return false
	}
	return s.validator.IsValidPDF(path)
}
