package wrapper

import (
	"context"
	"fmt"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/errors"
	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
)

// Loader turns a PDF file into the extraction engine's input model
type Loader interface {
	// Load reads every page's geometry, widget annotations and text runs
	Load(ctx context.Context, path string) (*extraction.Document, error)

	// LibraryType identifies the underlying PDF library
	LibraryType() LibraryType
}

// LibraryType represents the underlying PDF library being used
type LibraryType string

const (
	LibraryPDFCPU     LibraryType = "pdfcpu"
	LibraryLedongthuc LibraryType = "ledongthuc"
	LibraryAuto       LibraryType = "auto" // pdfcpu for forms, ledongthuc for text
)

// SupportedLibraries lists the accepted library names
func SupportedLibraries() []LibraryType {
	return []LibraryType{LibraryAuto, LibraryPDFCPU, LibraryLedongthuc}
}

// ParseLibraryType validates a configured library name
func ParseLibraryType(name string) (LibraryType, error) {
	for _, lib := range SupportedLibraries() {
		if string(lib) == name {
			return lib, nil
		}
	}
	return "", &WrapperError{
		Library: LibraryType(name),
		Op:      "parse",
		Err:     fmt.Errorf("unsupported library type: %q", name),
	}
}

// Ff flag bits shared by both loaders (PDF 32000 table 226/228)
const (
	flagRequired   = 1 << 1
	flagRadio      = 1 << 15
	flagPushButton = 1 << 16
)

// maxParentDepth bounds /Parent traversal on malformed field trees
const maxParentDepth = 32

// defaultPageGeometry is US Letter, used when no page box can be read
var defaultPageGeometry = extraction.PageGeometry{Width: 612, Height: 792}

// WrapperError reports a failure inside a PDF library
type WrapperError struct {
	Library LibraryType `json:"library"`
	Op      string      `json:"operation"`
	Err     error       `json:"error"`
}

func (e *WrapperError) Error() string {
	return fmt.Sprintf("PDF %s library error in %s: %v", e.Library, e.Op, e.Err)
}

func (e *WrapperError) Unwrap() error {
	return e.Err
}

// corrupted wraps a read failure so callers can match errors.ErrCorruptedData
func corrupted(lib LibraryType, op string, err error) *WrapperError {
	return &WrapperError{
		Library: lib,
		Op:      op,
		Err:     errors.WrapError(err, errors.ErrorTypeCorruptedData, "cannot read document"),
	}
}

// classifyButton sets the checkbox/radio flags of a Btn widget from Ff
func classifyButton(annot *extraction.WidgetAnnotation, flags int64) {
	if annot.FieldType != extraction.FieldTypeButton {
		return
	}
	switch {
	case flags&flagRadio != 0:
		annot.Radio = true
	case flags&flagPushButton != 0:
		// push buttons carry no value
	default:
		annot.Checkbox = true
	}
}

// geometryFromBox converts a [llx lly urx ury] page box, in any corner order
func geometryFromBox(box []float64) (extraction.PageGeometry, bool) {
	if len(box) != 4 {
		return extraction.PageGeometry{}, false
	}
	llx, lly, urx, ury := box[0], box[1], box[2], box[3]
	if llx > urx {
		llx, urx = urx, llx
	}
	if lly > ury {
		lly, ury = ury, lly
	}
	return extraction.PageGeometry{
		Width:   urx - llx,
		Height:  ury - lly,
		OffsetX: llx,
		OffsetY: lly,
	}, true
}
