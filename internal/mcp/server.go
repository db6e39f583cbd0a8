package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/pdf-field-extractor/internal/config"
	"github.com/a3tai/pdf-field-extractor/internal/descriptions"
	"github.com/a3tai/pdf-field-extractor/internal/pdf"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	log        *logrus.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger *logrus.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // tool list is fixed at startup
	)

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		mcpServer:  mcpServer,
		log:        logger,
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	extractFieldsTool := mcp.NewTool(
		descriptions.ToolExtractFields,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolExtractFields)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
		mcp.WithBoolean("include_lines",
			mcp.Description("Also return the clustered text lines of every page"),
		),
	)
	s.mcpServer.AddTool(extractFieldsTool, s.handleExtractFields)

	validateFileTool := mcp.NewTool(
		descriptions.ToolValidateFile,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolValidateFile)),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the PDF file, absolute or relative to the configured directory"),
		),
	)
	s.mcpServer.AddTool(validateFileTool, s.handleValidateFile)

	serverInfoTool := mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.GetToolDescription(descriptions.ToolServerInfo)),
	)
	s.mcpServer.AddTool(serverInfoTool, s.handleServerInfo)
}

// Handler functions
func (s *Server) handleExtractFields(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	includeLines := false
	if v, ok := request.GetArguments()["include_lines"]; ok {
		b, isBool := v.(bool)
		if !isBool {
			return mcp.NewToolResultError("include_lines must be a boolean"), nil
		}
		includeLines = b
	}

	result, err := s.pdfService.ExtractFields(ctx, pdf.PDFExtractFieldsRequest{
		Path:         path,
		IncludeLines: includeLines,
	})
	if err != nil {
		s.log.WithError(err).WithField("path", path).Warn("field extraction failed")
		return mcp.NewToolResultError(err.Error()), nil
	}

	body, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(body)), nil
}

func (s *Server) handleValidateFile(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.pdfService.PDFValidateFile(pdf.PDFValidateFileRequest{Path: path})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var responseText string
	if result.Valid {
		responseText = fmt.Sprintf("PDF file %s is valid and readable (%d pages, %d bytes)",
			result.Path, result.Pages, result.Size)
	} else {
		responseText = fmt.Sprintf("PDF validation failed for %s: %s", result.Path, result.Message)
	}

	return mcp.NewToolResultText(responseText), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := s.pdfService.PDFServerInfo(ctx, s.config.ServerName, s.config.Version)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// Formatting methods
func (s *Server) formatServerInfoResult(result *pdf.PDFServerInfoResult) string {
	var b strings.Builder

	fmt.Fprintf(&b, "%s v%s - Server Information\n", result.ServerName, result.Version)
	fmt.Fprintf(&b, "Default Directory: %s\n", result.DefaultDirectory)
	fmt.Fprintf(&b, "PDF Library: %s\n", result.Library)
	fmt.Fprintf(&b, "Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	if result.MaxPages > 0 {
		fmt.Fprintf(&b, "Max Pages: %d\n", result.MaxPages)
	}
	fmt.Fprintf(&b, "Cached Extractions: %d/%d (hits: %d, misses: %d)\n\n",
		result.Cache.Size, result.Cache.Capacity, result.Cache.Hits, result.Cache.Misses)

	if len(result.DirectoryContents) > 0 {
		fmt.Fprintf(&b, "Directory Contents (%d PDF files found):\n", len(result.DirectoryContents))
		for i, file := range result.DirectoryContents {
			if i >= 10 { // first 10 only
				fmt.Fprintf(&b, "   ... and %d more files\n", len(result.DirectoryContents)-10)
				break
			}
			fmt.Fprintf(&b, "   %d. %s (%d bytes)\n", i+1, file.Name, file.Size)
		}
		if result.Truncated {
			b.WriteString("   (listing truncated)\n")
		}
		b.WriteString("\n")
	} else {
		b.WriteString("Directory Contents: No PDF files found in default directory\n\n")
	}

	b.WriteString("Available Tools:\n")
	for _, tool := range result.AvailableTools {
		fmt.Fprintf(&b, "\n• %s\n", tool.Name)
		fmt.Fprintf(&b, "  Usage: %s\n", tool.Usage)
		fmt.Fprintf(&b, "  Parameters: %s\n", tool.Parameters)
	}

	b.WriteString("\n" + result.UsageGuidance)
	return b.String()
}

// Run serves MCP over the process stdio until ctx is cancelled or stdin closes
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	s.log.WithFields(logrus.Fields{
		"directory": s.config.PDFDirectory,
		"library":   s.config.Library,
	}).Info("starting PDF field extractor in stdio mode")

	errWriter := s.log.WriterLevel(logrus.ErrorLevel)
	defer errWriter.Close()

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(errWriter, "", 0))

	if err := stdio.Listen(ctx, stdin, stdout); err != nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}
