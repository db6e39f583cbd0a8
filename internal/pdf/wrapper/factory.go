package wrapper

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
)

// NewLoader creates the loader for a library type
func NewLoader(libType LibraryType, log logrus.FieldLogger) (Loader, error) {
	switch libType {
	case LibraryPDFCPU:
		return NewPDFCPULoader(log), nil
	case LibraryLedongthuc:
		return NewLedongthucLoader(log), nil
	case LibraryAuto, "":
		return NewCombinedLoader(log), nil
	default:
		return nil, &WrapperError{
			Library: libType,
			Op:      "create",
			Err:     fmt.Errorf("unknown library type: %s", libType),
		}
	}
}

// CombinedLoader takes page geometry and widgets from pdfcpu and text runs
// from ledongthuc. When pdfcpu cannot read a file, ledongthuc supplies
// everything.
type CombinedLoader struct {
	forms *PDFCPULoader
	text  *LedongthucLoader
	log   logrus.FieldLogger
}

// NewCombinedLoader creates a loader using both libraries
func NewCombinedLoader(log logrus.FieldLogger) *CombinedLoader {
	return &CombinedLoader{
		forms: NewPDFCPULoader(log),
		text:  NewLedongthucLoader(log),
		log:   log,
	}
}

// LibraryType returns the library type
func (c *CombinedLoader) LibraryType() LibraryType {
	return LibraryAuto
}

// Load reads the file with both libraries and merges the pages
func (c *CombinedLoader) Load(ctx context.Context, path string) (*extraction.Document, error) {
	formsDoc, err := c.forms.Load(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		c.log.WithError(err).WithField("path", path).Warn("pdfcpu could not read document, using ledongthuc only")
		return c.text.Load(ctx, path)
	}

	textDoc, err := c.text.LoadText(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		c.log.WithError(err).WithField("path", path).Warn("ledongthuc could not read document, continuing without text")
		return formsDoc, nil
	}

	return mergeDocuments(formsDoc, textDoc, c.log), nil
}

// mergeDocuments copies text items onto the form document's pages by page number
func mergeDocuments(forms, text *extraction.Document, log logrus.FieldLogger) *extraction.Document {
	if len(forms.Pages) != len(text.Pages) {
		log.WithFields(logrus.Fields{
			"pdfcpu_pages":     len(forms.Pages),
			"ledongthuc_pages": len(text.Pages),
		}).Warn("Libraries disagree on page count")
	}

	byNumber := make(map[int][]extraction.RawTextItem, len(text.Pages))
	for _, p := range text.Pages {
		byNumber[p.Number] = p.TextItems
	}
	for i := range forms.Pages {
		forms.Pages[i].TextItems = byNumber[forms.Pages[i].Number]
	}
	return forms
}
