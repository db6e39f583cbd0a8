package pdf

import (
	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
)

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// PDFExtractFieldsRequest represents a request to find the fillable fields of a PDF
type PDFExtractFieldsRequest struct {
	Path         string `json:"path"`
	IncludeLines bool   `json:"include_lines"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// PDFServerInfoRequest represents a request to get server information
type PDFServerInfoRequest struct{}

// Response Types

// PDFExtractFieldsResult is the extraction result plus request bookkeeping.
// TextLines is only populated when the request asked for it.
type PDFExtractFieldsResult struct {
	ExtractionID string                       `json:"extraction_id"`
	Path         string                       `json:"path"`
	Library      string                       `json:"library"`
	PageCount    int                          `json:"page_count"`
	HasAcroForm  bool                         `json:"has_acro_form"`
	Cached       bool                         `json:"cached"`
	FieldCount   int                          `json:"field_count"`
	CountByKind  map[extraction.FieldKind]int `json:"count_by_kind"`
	Fields       []extraction.ExtractedField  `json:"fields"`
	TextLines    []extraction.TextLine        `json:"text_lines,omitempty"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid   bool   `json:"valid"`
	Path    string `json:"path"`
	Pages   int    `json:"pages,omitempty"`
	Size    int64  `json:"size,omitempty"`
	Message string `json:"message,omitempty"`
}

// ToolInfo represents information about an available tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

// PDFServerInfoResult represents server information and usage guidance
type PDFServerInfoResult struct {
	ServerName        string     `json:"server_name"`
	Version           string     `json:"version"`
	DefaultDirectory  string     `json:"default_directory"`
	MaxFileSize       int64      `json:"max_file_size"`
	Library           string     `json:"library"`
	MaxPages          int        `json:"max_pages"`
	AvailableTools    []ToolInfo `json:"available_tools"`
	DirectoryContents []FileInfo `json:"directory_contents"`
	Truncated         bool       `json:"truncated,omitempty"`
	Cache             CacheStats `json:"cache"`
	UsageGuidance     string     `json:"usage_guidance"`
}
