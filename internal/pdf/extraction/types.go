package extraction

import (
	"strings"
)

// FieldKind is the type of an extracted field as seen by the signing overlay
type FieldKind string

const (
	FieldKindText      FieldKind = "text"
	FieldKindCheckbox  FieldKind = "checkbox"
	FieldKindRadio     FieldKind = "radio"
	FieldKindSignature FieldKind = "signature"
	FieldKindDate      FieldKind = "date"
)

// FieldTypeTag is the AcroForm /FT value of a widget, resolved at ingestion
type FieldTypeTag int

const (
	FieldTypeUnknown FieldTypeTag = iota
	FieldTypeText                 // Tx
	FieldTypeButton               // Btn
	FieldTypeChoice               // Ch
	FieldTypeSignature            // Sig
)

// ParseFieldType maps a PDF /FT name onto a FieldTypeTag
func ParseFieldType(name string) FieldTypeTag {
	switch strings.TrimPrefix(name, "/") {
	case "Tx":
		return FieldTypeText
	case "Btn":
		return FieldTypeButton
	case "Ch":
		return FieldTypeChoice
	case "Sig":
		return FieldTypeSignature
	default:
		return FieldTypeUnknown
	}
}

// String returns the PDF name of the field type
func (t FieldTypeTag) String() string {
	switch t {
	case FieldTypeText:
		return "Tx"
	case FieldTypeButton:
		return "Btn"
	case FieldTypeChoice:
		return "Ch"
	case FieldTypeSignature:
		return "Sig"
	default:
		return "unknown"
	}
}

// SubtypeWidget is the annotation subtype of interactive form controls
const SubtypeWidget = "Widget"

// WidgetAnnotation is one page annotation as delivered by a PDF loader.
// Rect is kept as the raw /Rect array so malformed entries can be detected.
type WidgetAnnotation struct {
	Subtype     string       `json:"subtype"`
	Rect        []float64    `json:"rect"`
	FieldType   FieldTypeTag `json:"field_type"`
	FieldName   string       `json:"field_name,omitempty"`
	Checkbox    bool         `json:"checkbox,omitempty"`
	Radio       bool         `json:"radio,omitempty"`
	Required    bool         `json:"required,omitempty"`
	Value       *string      `json:"value,omitempty"`
	ExportValue string       `json:"export_value,omitempty"`
}

// RawTextItem is a positioned glyph run as delivered by a PDF loader.
// The origin is the translation part of Matrix.
type RawTextItem struct {
	Text   string     `json:"text"`
	Matrix [6]float64 `json:"transform"`
	Width  float64    `json:"width"`
	Height float64    `json:"height"`
}

// Page is the per-page input of the engine
type Page struct {
	Number      int                `json:"number"`
	Geometry    PageGeometry       `json:"geometry"`
	Annotations []WidgetAnnotation `json:"annotations,omitempty"`
	TextItems   []RawTextItem      `json:"text_items,omitempty"`
}

// Document is a loaded PDF reduced to what extraction needs
type Document struct {
	Pages []Page `json:"pages"`
}

// TextRunCount returns the total number of text items across pages
func (d *Document) TextRunCount() int {
	n := 0
	for i := range d.Pages {
		n += len(d.Pages[i].TextItems)
	}
	return n
}

// TextRun is one glyph run with its origin in PDF space and its normalized box
type TextRun struct {
	Text   string         `json:"text"`
	X      float64        `json:"x"`
	Y      float64        `json:"y"`
	Width  float64        `json:"width"`
	Height float64        `json:"height"`
	Page   int            `json:"page"`
	Rect   NormalizedRect `json:"rect"`
}

// Right returns the x coordinate of the run's right edge in PDF space
func (r TextRun) Right() float64 {
	return r.X + r.Width
}

// TextLine is a left-to-right sequence of runs sharing a y-band.
// Y is the PDF-space y of the reference run.
type TextLine struct {
	Page  int       `json:"page"`
	Index int       `json:"index"`
	Y     float64   `json:"y"`
	Runs  []TextRun `json:"runs"`
}

// Text joins the line's runs with single spaces
func (l TextLine) Text() string {
	parts := make([]string, 0, len(l.Runs))
	for _, r := range l.Runs {
		parts = append(parts, r.Text)
	}
	return strings.Join(parts, " ")
}

// ExtractedField is one fillable location handed to the signing workflow.
// SourceRect is set only for fields read from AcroForm widgets.
type ExtractedField struct {
	FieldID    string         `json:"field_id"`
	Kind       FieldKind      `json:"kind"`
	Page       int            `json:"page"`
	Rect       NormalizedRect `json:"rect"`
	SourceRect *RawRect       `json:"source_rect,omitempty"`
	Group      *string        `json:"group,omitempty"`
	Value      *string        `json:"value,omitempty"`
	Required   bool           `json:"required"`
}

// Inferred reports whether the field came from pattern detection
func (f ExtractedField) Inferred() bool {
	return f.SourceRect == nil
}

// ExtractionResult is the complete output of one extraction
type ExtractionResult struct {
	Fields      []ExtractedField `json:"fields"`
	TextLines   []TextLine       `json:"text_lines"`
	PageCount   int              `json:"page_count"`
	HasAcroForm bool             `json:"has_acro_form"`
}

// CountByKind tallies fields per kind
func (r *ExtractionResult) CountByKind() map[FieldKind]int {
	counts := make(map[FieldKind]int)
	for _, f := range r.Fields {
		counts[f.Kind]++
	}
	return counts
}

func stringPtr(s string) *string {
	return &s
}
