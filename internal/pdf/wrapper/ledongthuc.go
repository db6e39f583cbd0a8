package wrapper

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
	"github.com/sirupsen/logrus"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
)

// LedongthucLoader reads text, page boxes and annotations through ledongthuc/pdf
type LedongthucLoader struct {
	log logrus.FieldLogger
}

// NewLedongthucLoader creates a new ledongthuc loader
func NewLedongthucLoader(log logrus.FieldLogger) *LedongthucLoader {
	return &LedongthucLoader{log: log}
}

// LibraryType returns the library type
func (l *LedongthucLoader) LibraryType() LibraryType {
	return LibraryLedongthuc
}

// Load opens the file and reads every page
func (l *LedongthucLoader) Load(ctx context.Context, path string) (*extraction.Document, error) {
	return l.load(ctx, path, true)
}

// LoadText reads only geometry and text runs; used when another library
// supplies the annotations
func (l *LedongthucLoader) LoadText(ctx context.Context, path string) (*extraction.Document, error) {
	return l.load(ctx, path, false)
}

func (l *LedongthucLoader) load(ctx context.Context, path string, withAnnotations bool) (doc *extraction.Document, err error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return nil, corrupted(LibraryLedongthuc, "open_file", fmt.Errorf("failed to open PDF: %w", err))
	}
	defer f.Close()

	// ledongthuc panics on some malformed page trees
	defer func() {
		if r := recover(); r != nil {
			doc = nil
			err = corrupted(LibraryLedongthuc, "read_pages", fmt.Errorf("panic while reading pages: %v", r))
		}
	}()

	numPages := reader.NumPage()
	doc = &extraction.Document{Pages: make([]extraction.Page, 0, numPages)}
	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := reader.Page(pageNum)
		page := extraction.Page{Number: pageNum, Geometry: defaultPageGeometry}
		if p.V.IsNull() {
			l.log.WithField("page", pageNum).Warn("Page object missing, using default page size")
			doc.Pages = append(doc.Pages, page)
			continue
		}

		if g, ok := pageGeometry(p.V); ok {
			page.Geometry = g
		}
		page.TextItems = l.textItems(p, pageNum)
		if withAnnotations {
			page.Annotations = annotations(p.V.Key("Annots"))
		}
		doc.Pages = append(doc.Pages, page)
	}
	return doc, nil
}

// textItems reads the page's glyphs and merges them into runs
func (l *LedongthucLoader) textItems(p pdf.Page, pageNum int) (items []extraction.RawTextItem) {
	defer func() {
		if r := recover(); r != nil {
			l.log.WithFields(logrus.Fields{
				"library": LibraryLedongthuc,
				"page":    pageNum,
				"panic":   r,
			}).Warn("Cannot decode page content, page has no text")
			items = nil
		}
	}()

	return MergeGlyphs(p.Content().Text)
}

// MergeGlyphs joins per-glyph text into runs. Glyphs stay in one run while
// they share a baseline and font size and sit close together horizontally.
// Leading and trailing whitespace is dropped from each run.
func MergeGlyphs(glyphs []pdf.Text) []extraction.RawTextItem {
	var items []extraction.RawTextItem

	var (
		sb        strings.Builder
		cur       pdf.Text
		right     float64 // right edge of the last glyph
		textRight float64 // right edge of the last non-space glyph
		open      bool
	)

	flush := func() {
		if !open {
			return
		}
		text := strings.TrimRightFunc(sb.String(), unicode.IsSpace)
		if text != "" {
			items = append(items, extraction.RawTextItem{
				Text:   text,
				Matrix: [6]float64{cur.FontSize, 0, 0, cur.FontSize, cur.X, cur.Y},
				Width:  textRight - cur.X,
				Height: cur.FontSize,
			})
		}
		sb.Reset()
		open = false
	}

	for _, g := range glyphs {
		blank := strings.TrimSpace(g.S) == ""
		if open && !continuesRun(cur, right, g) {
			flush()
		}
		if !open {
			if blank {
				continue
			}
			cur = g
			textRight = g.X
			open = true
		}
		sb.WriteString(g.S)
		right = g.X + g.W
		if !blank {
			textRight = right
		}
	}
	flush()

	return items
}

// continuesRun reports whether g belongs to the run started by first
func continuesRun(first pdf.Text, right float64, g pdf.Text) bool {
	size := first.FontSize
	if size <= 0 {
		size = 1
	}
	if math.Abs(g.Y-first.Y) > 0.5 {
		return false
	}
	if math.Abs(g.FontSize-first.FontSize) > 0.1*size {
		return false
	}
	gap := g.X - right
	return gap >= -0.5*size && gap <= size
}

// pageGeometry reads CropBox, falling back to MediaBox, through /Parent inheritance
func pageGeometry(page pdf.Value) (extraction.PageGeometry, bool) {
	for _, key := range []string{"CropBox", "MediaBox"} {
		current := page
		for depth := 0; !current.IsNull() && depth < maxParentDepth; depth++ {
			if box := numbers(current.Key(key)); len(box) == 4 {
				return geometryFromBox(box)
			}
			current = current.Key("Parent")
		}
	}
	return extraction.PageGeometry{}, false
}

// annotations converts a page's /Annots array
func annotations(annots pdf.Value) []extraction.WidgetAnnotation {
	if annots.Kind() != pdf.Array {
		return nil
	}

	out := make([]extraction.WidgetAnnotation, 0, annots.Len())
	for i := 0; i < annots.Len(); i++ {
		a := annots.Index(i)
		if a.Kind() != pdf.Dict {
			continue
		}
		subtype := a.Key("Subtype").Name()
		if subtype != extraction.SubtypeWidget {
			out = append(out, extraction.WidgetAnnotation{Subtype: subtype})
			continue
		}

		attrs := &fieldAttrs{}
		current := a
		for depth := 0; !current.IsNull() && depth < maxParentDepth; depth++ {
			var flags int64
			ff := current.Key("Ff")
			hasFlags := ff.Kind() == pdf.Integer
			if hasFlags {
				flags = ff.Int64()
			}
			attrs.inherit(current.Key("FT").Name(), current.Key("T").Text(), flags, hasFlags, value(current.Key("V")))
			current = current.Key("Parent")
		}

		out = append(out, attrs.widget(subtype, numbers(a.Key("Rect")), onState(a.Key("AP").Key("N").Keys())))
	}
	return out
}

// value reads a /V entry that is either a name or a string
func value(v pdf.Value) *string {
	var s string
	switch v.Kind() {
	case pdf.Name:
		s = v.Name()
	case pdf.String:
		s = v.Text()
	default:
		return nil
	}
	return &s
}

// numbers converts a numeric array; non-numeric entries become NaN
func numbers(v pdf.Value) []float64 {
	if v.Kind() != pdf.Array {
		return nil
	}
	out := make([]float64, v.Len())
	for i := range out {
		item := v.Index(i)
		switch item.Kind() {
		case pdf.Integer:
			out[i] = float64(item.Int64())
		case pdf.Real:
			out[i] = item.Float64()
		default:
			out[i] = math.NaN()
		}
	}
	return out
}
