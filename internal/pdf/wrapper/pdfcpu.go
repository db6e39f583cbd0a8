package wrapper

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
)

// PDFCPULoader reads page boxes and widget annotations through pdfcpu.
// pdfcpu does not expose positioned glyphs, so pages carry no text items.
type PDFCPULoader struct {
	log logrus.FieldLogger
}

// NewPDFCPULoader creates a new pdfcpu loader
func NewPDFCPULoader(log logrus.FieldLogger) *PDFCPULoader {
	return &PDFCPULoader{log: log}
}

// LibraryType returns the library type
func (l *PDFCPULoader) LibraryType() LibraryType {
	return LibraryPDFCPU
}

// Load opens the file and reads every page
func (l *PDFCPULoader) Load(ctx context.Context, path string) (*extraction.Document, error) {
	pdfCtx, err := l.open(path)
	if err != nil {
		return nil, err
	}

	doc := &extraction.Document{Pages: make([]extraction.Page, 0, pdfCtx.PageCount)}
	for pageNum := 1; pageNum <= pdfCtx.PageCount; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, l.readPage(pdfCtx, pageNum))
	}
	return doc, nil
}

func (l *PDFCPULoader) open(path string) (*model.Context, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, &WrapperError{
			Library: LibraryPDFCPU,
			Op:      "open_file",
			Err:     fmt.Errorf("failed to open file: %w", err),
		}
	}
	defer file.Close()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	pdfCtx, err := api.ReadContext(file, conf)
	if err != nil {
		return nil, corrupted(LibraryPDFCPU, "open_file", fmt.Errorf("failed to read PDF context: %w", err))
	}

	if err := pdfCtx.EnsurePageCount(); err != nil {
		return nil, corrupted(LibraryPDFCPU, "open_file", fmt.Errorf("failed to ensure page count: %w", err))
	}

	return pdfCtx, nil
}

func (l *PDFCPULoader) readPage(pdfCtx *model.Context, pageNum int) extraction.Page {
	page := extraction.Page{Number: pageNum, Geometry: defaultPageGeometry}
	logger := l.log.WithFields(logrus.Fields{"library": LibraryPDFCPU, "page": pageNum})

	pageDict, _, _, err := pdfCtx.PageDict(pageNum, false)
	if err != nil || pageDict == nil {
		logger.WithError(err).Warn("Cannot read page dictionary, using default page size")
		return page
	}

	if g, ok := l.pageGeometry(pdfCtx, pageDict); ok {
		page.Geometry = g
	} else {
		logger.Debug("No page box found, using default page size")
	}
	page.Annotations = l.annotations(pdfCtx, pageDict, logger)
	return page
}

// pageGeometry reads CropBox, falling back to MediaBox, through /Parent inheritance
func (l *PDFCPULoader) pageGeometry(pdfCtx *model.Context, pageDict types.Dict) (extraction.PageGeometry, bool) {
	for _, key := range []string{"CropBox", "MediaBox"} {
		current := pageDict
		for depth := 0; current != nil && depth < maxParentDepth; depth++ {
			if boxObj, found := current.Find(key); found {
				if box := l.numbers(pdfCtx, boxObj); len(box) == 4 {
					return geometryFromBox(box)
				}
			}
			parentObj, found := current.Find("Parent")
			if !found {
				break
			}
			parent, err := pdfCtx.DereferenceDict(parentObj)
			if err != nil {
				break
			}
			current = parent
		}
	}
	return extraction.PageGeometry{}, false
}

func (l *PDFCPULoader) annotations(pdfCtx *model.Context, pageDict types.Dict, logger logrus.FieldLogger) []extraction.WidgetAnnotation {
	annotsObj, found := pageDict.Find("Annots")
	if !found {
		return nil
	}
	annots, err := pdfCtx.DereferenceArray(annotsObj)
	if err != nil {
		logger.WithError(err).Warn("Cannot read annotation array")
		return nil
	}

	out := make([]extraction.WidgetAnnotation, 0, len(annots))
	for i, obj := range annots {
		annotDict, err := pdfCtx.DereferenceDict(obj)
		if err != nil || annotDict == nil {
			logger.WithField("annotation", i).WithError(err).Debug("Skipping unreadable annotation")
			continue
		}

		subtype := ""
		if subtypeObj, found := annotDict.Find("Subtype"); found {
			if name, err := pdfCtx.DereferenceName(subtypeObj, model.V10, nil); err == nil {
				subtype = string(name)
			}
		}
		if subtype != extraction.SubtypeWidget {
			out = append(out, extraction.WidgetAnnotation{Subtype: subtype})
			continue
		}

		var rect []float64
		if rectObj, found := annotDict.Find("Rect"); found {
			rect = l.numbers(pdfCtx, rectObj)
		}

		attrs := l.fieldAttrs(pdfCtx, annotDict)
		out = append(out, attrs.widget(subtype, rect, l.exportValue(pdfCtx, annotDict)))
	}
	return out
}

// fieldAttrs resolves FT, T, Ff and V from the widget and its parents
func (l *PDFCPULoader) fieldAttrs(pdfCtx *model.Context, annotDict types.Dict) *fieldAttrs {
	attrs := &fieldAttrs{}
	current := annotDict
	for depth := 0; current != nil && depth < maxParentDepth; depth++ {
		var ft, name string
		var flags int64
		var hasFlags bool
		var value *string

		if ftObj, found := current.Find("FT"); found {
			if n, err := pdfCtx.DereferenceName(ftObj, model.V10, nil); err == nil {
				ft = string(n)
			}
		}
		if tObj, found := current.Find("T"); found {
			if s, err := pdfCtx.DereferenceStringOrHexLiteral(tObj, model.V10, nil); err == nil {
				name = s
			}
		}
		if ffObj, found := current.Find("Ff"); found {
			if f, err := pdfCtx.DereferenceInteger(ffObj); err == nil && f != nil {
				flags = int64(*f)
				hasFlags = true
			}
		}
		if vObj, found := current.Find("V"); found {
			value = l.value(pdfCtx, vObj)
		}
		attrs.inherit(ft, name, flags, hasFlags, value)

		parentObj, found := current.Find("Parent")
		if !found {
			break
		}
		parent, err := pdfCtx.DereferenceDict(parentObj)
		if err != nil {
			break
		}
		current = parent
	}
	return attrs
}

// value reads a /V entry that is either a name or a string
func (l *PDFCPULoader) value(pdfCtx *model.Context, obj types.Object) *string {
	if n, err := pdfCtx.DereferenceName(obj, model.V10, nil); err == nil {
		s := string(n)
		return &s
	}
	if s, err := pdfCtx.DereferenceStringOrHexLiteral(obj, model.V10, nil); err == nil {
		return &s
	}
	return nil
}

// exportValue reads the on-state name from /AP /N
func (l *PDFCPULoader) exportValue(pdfCtx *model.Context, annotDict types.Dict) string {
	apObj, found := annotDict.Find("AP")
	if !found {
		return ""
	}
	ap, err := pdfCtx.DereferenceDict(apObj)
	if err != nil || ap == nil {
		return ""
	}
	nObj, found := ap.Find("N")
	if !found {
		return ""
	}
	n, err := pdfCtx.DereferenceDict(nObj)
	if err != nil || n == nil {
		return ""
	}

	states := make([]string, 0, len(n))
	for key := range n {
		states = append(states, key)
	}
	return onState(states)
}

// numbers dereferences a numeric array; entries that are not numbers become
// NaN so the engine can reject the rectangle
func (l *PDFCPULoader) numbers(pdfCtx *model.Context, obj types.Object) []float64 {
	arr, err := pdfCtx.DereferenceArray(obj)
	if err != nil {
		return nil
	}
	out := make([]float64, len(arr))
	for i, item := range arr {
		f, err := pdfCtx.DereferenceNumber(item)
		if err != nil {
			f = math.NaN()
		}
		out[i] = f
	}
	return out
}
