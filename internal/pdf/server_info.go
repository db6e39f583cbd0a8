package pdf

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/a3tai/pdf-field-extractor/internal/descriptions"
)

// DirectoryCache provides TTL-based caching for directory listings
type DirectoryCache struct {
	entries map[string]*CacheEntry
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
}

// CacheEntry represents a cached directory scan result
type CacheEntry struct {
	files      []FileInfo
	truncated  bool
	lastUpdate time.Time
}

// LazyDirectoryScanner walks a directory for PDFs within depth, count and
// time limits
type LazyDirectoryScanner struct {
	maxDepth  int
	fileLimit int
	timeLimit time.Duration
}

// ScanResult represents the result of a directory scan
type ScanResult struct {
	Files     []FileInfo
	FromCache bool
	Truncated bool
}

// NewDirectoryCache creates a new directory cache with specified TTL
func NewDirectoryCache(ttl time.Duration) *DirectoryCache {
	return &DirectoryCache{
		entries: make(map[string]*CacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get retrieves cached directory contents if still fresh
func (c *DirectoryCache) Get(path string) (*CacheEntry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[path]
	if !ok || c.now().Sub(entry.lastUpdate) > c.ttl {
		return nil, false
	}
	return entry, true
}

// Set stores directory contents in cache
func (c *DirectoryCache) Set(path string, result *ScanResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[path] = &CacheEntry{
		files:      result.Files,
		truncated:  result.Truncated,
		lastUpdate: c.now(),
	}
}

// NewLazyDirectoryScanner creates a new lazy directory scanner
func NewLazyDirectoryScanner(maxDepth, fileLimit int, timeLimit time.Duration) *LazyDirectoryScanner {
	return &LazyDirectoryScanner{
		maxDepth:  maxDepth,
		fileLimit: fileLimit,
		timeLimit: timeLimit,
	}
}

// ScanDirectory lists PDFs below root. Hidden entries and symlinks are
// skipped. Hitting a limit sets Truncated rather than failing.
func (s *LazyDirectoryScanner) ScanDirectory(ctx context.Context, root string) (*ScanResult, error) {
	if s.timeLimit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeLimit)
		defer cancel()
	}

	result := &ScanResult{Files: []FileInfo{}}
	err := s.scan(ctx, root, 0, result)
	if errors.Is(err, context.DeadlineExceeded) {
		result.Truncated = true
		err = nil
	}
	return result, err
}

func (s *LazyDirectoryScanner) scan(ctx context.Context, dir string, depth int, result *ScanResult) error {
	if s.maxDepth > 0 && depth >= s.maxDepth {
		return nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil // unreadable directories are skipped
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.fileLimit > 0 && len(result.Files) >= s.fileLimit {
			result.Truncated = true
			return nil
		}

		name := entry.Name()
		if strings.HasPrefix(name, ".") || entry.Type()&os.ModeSymlink != 0 {
			continue
		}

		path := filepath.Join(dir, name)
		if entry.IsDir() {
			if err := s.scan(ctx, path, depth+1, result); err != nil {
				return err
			}
			continue
		}
		if !isPDFName(name) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		result.Files = append(result.Files, FileInfo{
			Name:         name,
			Path:         path,
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}

	return nil
}

// PDFServerInfo answers pdf_server_info with a cached listing of the
// configured directory
type PDFServerInfo struct {
	cache   *DirectoryCache
	scanner *LazyDirectoryScanner
	service *Service
}

// NewPDFServerInfo creates a new server info handler
func NewPDFServerInfo(service *Service) *PDFServerInfo {
	return &PDFServerInfo{
		cache:   NewDirectoryCache(5 * time.Minute),             // 5-minute cache TTL
		scanner: NewLazyDirectoryScanner(5, 100, 3*time.Second), // max 5 levels, 100 files, 3 second limit
		service: service,
	}
}

// GetServerInfo builds the server description and directory listing
func (p *PDFServerInfo) GetServerInfo(ctx context.Context, serverName, version string) (*PDFServerInfoResult, error) {
	root := p.service.pathValidator.Root()

	scan, ok := p.cachedScan(root)
	if !ok {
		var err error
		scan, err = p.scanner.ScanDirectory(ctx, root)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", root, err)
		}
		p.cache.Set(root, scan)
	}

	return &PDFServerInfoResult{
		ServerName:        serverName,
		Version:           version,
		DefaultDirectory:  root,
		MaxFileSize:       p.service.maxFileSize,
		Library:           string(p.service.loader.LibraryType()),
		MaxPages:          p.service.maxPages,
		AvailableTools:    p.availableTools(),
		DirectoryContents: scan.Files,
		Truncated:         scan.Truncated,
		Cache:             p.service.CacheStats(),
		UsageGuidance:     p.usageGuidance(),
	}, nil
}

func (p *PDFServerInfo) cachedScan(root string) (*ScanResult, bool) {
	entry, ok := p.cache.Get(root)
	if !ok {
		return nil, false
	}
	return &ScanResult{Files: entry.files, Truncated: entry.truncated, FromCache: true}, true
}

func (p *PDFServerInfo) availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        descriptions.ToolExtractFields,
			Description: descriptions.GetToolDescription(descriptions.ToolExtractFields),
			Usage:       "Use this tool to list the fillable fields of a lease or contract with page-relative positions.",
			Parameters: "path (required): PDF path, absolute or relative to the default directory; " +
				"include_lines (optional): also return the clustered text lines",
		},
		{
			Name:        descriptions.ToolValidateFile,
			Description: descriptions.GetToolDescription(descriptions.ToolValidateFile),
			Usage:       "Use this tool to check that a file opens before extracting fields from it.",
			Parameters:  "path (required): PDF path, absolute or relative to the default directory",
		},
		{
			Name:        descriptions.ToolServerInfo,
			Description: descriptions.GetToolDescription(descriptions.ToolServerInfo),
			Usage:       "Use this tool to see limits, the active PDF library and the PDFs available.",
			Parameters:  "No parameters required",
		},
	}
}

func (p *PDFServerInfo) usageGuidance() string {
	maxFileSizeMB := p.service.maxFileSize / (1024 * 1024)

	return fmt.Sprintf(`PDF Field Extractor Usage Guide:

1. FIND DOCUMENTS:
   - The directory contents below list the PDFs this server may open

2. VALIDATE:
   - Use 'pdf_validate_file' to confirm a file parses and see its page count

3. EXTRACT FIELDS:
   - Use 'pdf_extract_fields' to get field_id, kind, page and rect for each field
   - rect values are percentages of the page, measured from the top-left corner
   - has_acro_form tells whether fields came from embedded form widgets or were
     inferred from the text (labels with blanks, colons and checkbox glyphs)
   - Inferred fields have no source_rect

IMPORTANT NOTES:
- Paths outside the default directory are rejected
- The server can handle files up to %dMB
- Scanned PDFs without a text layer produce no inferred fields`, maxFileSizeMB)
}
