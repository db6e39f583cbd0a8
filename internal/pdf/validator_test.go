package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-field-extractor/internal/testpdf"
)

func TestValidator_ValidateFile(t *testing.T) {
	dir := t.TempDir()
	valid := writePDF(t, dir, "valid.pdf", testpdf.Letter(testpdf.Page{}))
	upper := writePDF(t, dir, "UPPER.PDF", testpdf.Letter(testpdf.Page{}))
	empty := filepath.Join(dir, "empty.pdf")
	require.NoError(t, os.WriteFile(empty, nil, 0o644))
	text := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))
	garbage := filepath.Join(dir, "garbage.pdf")
	require.NoError(t, os.WriteFile(garbage, []byte("definitely not a pdf"), 0o644))

	tests := []struct {
		name        string
		path        string
		maxSize     int64
		wantValid   bool
		wantMessage string
	}{
		{name: "valid", path: valid, maxSize: 1 << 20, wantValid: true},
		{name: "uppercase extension", path: upper, maxSize: 1 << 20, wantValid: true},
		{name: "empty path", path: "", maxSize: 1 << 20, wantMessage: "path cannot be empty"},
		{name: "missing", path: filepath.Join(dir, "missing.pdf"), maxSize: 1 << 20, wantMessage: "file does not exist"},
		{name: "directory", path: dir, maxSize: 1 << 20, wantMessage: "path is a directory"},
		{name: "wrong extension", path: text, maxSize: 1 << 20, wantMessage: "file is not a PDF"},
		{name: "empty file", path: empty, maxSize: 1 << 20, wantMessage: "file is empty"},
		{name: "too large", path: valid, maxSize: 16, wantMessage: "file too large"},
		{name: "unparseable", path: garbage, maxSize: 1 << 20, wantMessage: "invalid PDF file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewValidator(tt.maxSize)
			result, err := v.ValidateFile(PDFValidateFileRequest{Path: tt.path})
			require.NoError(t, err)

			assert.Equal(t, tt.wantValid, result.Valid)
			assert.Equal(t, tt.path, result.Path)
			if tt.wantValid {
				assert.Equal(t, 1, result.Pages)
				assert.Empty(t, result.Message)
			} else {
				assert.Contains(t, result.Message, tt.wantMessage)
			}
			assert.Equal(t, tt.wantValid, v.IsValidPDF(tt.path))
		})
	}
}
