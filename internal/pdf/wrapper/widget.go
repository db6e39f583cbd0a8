package wrapper

import (
	"sort"
	"strings"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/extraction"
)

// fieldAttrs collects the inheritable field entries of one widget, walking
// from the widget dictionary up through its /Parent chain
type fieldAttrs struct {
	fieldType string
	names     []string // partial names, widget first
	flags     int64
	hasFlags  bool
	value     *string
}

// inherit records the entries of one dictionary; values set closer to the
// widget win over those of its ancestors
func (a *fieldAttrs) inherit(ft, name string, flags int64, hasFlags bool, value *string) {
	if a.fieldType == "" && ft != "" {
		a.fieldType = ft
	}
	if name != "" {
		a.names = append(a.names, name)
	}
	if !a.hasFlags && hasFlags {
		a.flags = flags
		a.hasFlags = true
	}
	if a.value == nil && value != nil {
		a.value = value
	}
}

// fullName joins partial names root first, the way form fields are addressed
func (a *fieldAttrs) fullName() string {
	parts := make([]string, len(a.names))
	for i, n := range a.names {
		parts[len(a.names)-1-i] = n
	}
	return strings.Join(parts, ".")
}

// widget builds the engine's view of an annotation
func (a *fieldAttrs) widget(subtype string, rect []float64, exportValue string) extraction.WidgetAnnotation {
	annot := extraction.WidgetAnnotation{
		Subtype:     strings.TrimPrefix(subtype, "/"),
		Rect:        rect,
		FieldType:   extraction.ParseFieldType(a.fieldType),
		FieldName:   a.fullName(),
		Required:    a.flags&flagRequired != 0,
		Value:       a.value,
		ExportValue: exportValue,
	}
	classifyButton(&annot, a.flags)
	return annot
}

// onState picks the export value among appearance state names
func onState(states []string) string {
	var on []string
	for _, s := range states {
		if s != "" && s != "Off" {
			on = append(on, s)
		}
	}
	if len(on) == 0 {
		return ""
	}
	sort.Strings(on)
	return on[0]
}
