package extraction

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
)

// PageAnnotations is the Annotation Extractor's output for one page
type PageAnnotations struct {
	Fields    []ExtractedField
	SawWidget bool
}

// AnnotationExtractor turns widget annotations into field descriptors
type AnnotationExtractor struct {
	log logrus.FieldLogger
}

// NewAnnotationExtractor creates a new annotation extractor
func NewAnnotationExtractor(log logrus.FieldLogger) *AnnotationExtractor {
	return &AnnotationExtractor{log: log}
}

// Extract processes the annotations of one page. Non-widget annotations are
// ignored; widgets with malformed rectangles are skipped with a warning.
func (ae *AnnotationExtractor) Extract(annots []WidgetAnnotation, pageNum int, g PageGeometry) PageAnnotations {
	var out PageAnnotations
	used := make(map[string]bool)
	ordinal := 0

	for i := range annots {
		annot := &annots[i]
		if annot.Subtype != SubtypeWidget {
			continue
		}
		out.SawWidget = true
		ordinal++

		logger := ae.log.WithFields(logrus.Fields{
			"page":    pageNum,
			"ordinal": ordinal,
			"field":   annot.FieldName,
		})

		kind, ok := classifyWidget(annot)
		if !ok {
			logger.WithField("field_type", annot.FieldType.String()).Debug("Skipping non-fillable widget")
			continue
		}

		raw, err := RawRectFromSlice(annot.Rect)
		if err != nil {
			logger.WithError(err).Warn("Skipping widget with malformed rectangle")
			continue
		}

		rect, err := FromPDFRect(raw, g, WidgetClamp)
		if err != nil {
			logger.WithError(err).Warn("Skipping widget on page without usable geometry")
			continue
		}

		id := widgetFieldID(annot, pageNum, ordinal, used)
		used[id] = true

		field := ExtractedField{
			FieldID:    id,
			Kind:       kind,
			Page:       pageNum,
			Rect:       rect,
			SourceRect: &raw,
			Value:      widgetValue(annot, kind),
			Required:   annot.Required,
		}
		if kind == FieldKindRadio && annot.FieldName != "" {
			field.Group = stringPtr(annot.FieldName)
		}
		out.Fields = append(out.Fields, field)
	}

	return out
}

// classifyWidget maps a widget onto a FieldKind in priority order
func classifyWidget(annot *WidgetAnnotation) (FieldKind, bool) {
	switch annot.FieldType {
	case FieldTypeSignature:
		return FieldKindSignature, true
	case FieldTypeButton:
		switch {
		case annot.Checkbox:
			return FieldKindCheckbox, true
		case annot.Radio:
			return FieldKindRadio, true
		default:
			return "", false // push button
		}
	case FieldTypeText:
		if isDateName(annot.FieldName) {
			return FieldKindDate, true
		}
		return FieldKindText, true
	case FieldTypeChoice:
		return FieldKindText, true
	default:
		return "", false
	}
}

func isDateName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "date") || strings.Contains(lower, "dob")
}

// widgetFieldID picks a page-unique identifier for a widget
func widgetFieldID(annot *WidgetAnnotation, pageNum, ordinal int, used map[string]bool) string {
	name := annot.FieldName
	if name == "" {
		return uniqueID(fmt.Sprintf("field_%d_%d", pageNum, ordinal), used)
	}
	if !used[name] {
		return name
	}
	if annot.Radio && annot.ExportValue != "" {
		candidate := fmt.Sprintf("%s_%s", name, annot.ExportValue)
		if !used[candidate] {
			return candidate
		}
	}
	return uniqueID(fmt.Sprintf("%s_%d_%d", name, pageNum, ordinal), used)
}

// uniqueID suffixes base until it is not yet used on the page
func uniqueID(base string, used map[string]bool) string {
	id := base
	for n := 2; used[id]; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	return id
}

func widgetValue(annot *WidgetAnnotation, kind FieldKind) *string {
	if annot.Value == nil {
		return nil
	}
	v := *annot.Value
	switch kind {
	case FieldKindCheckbox, FieldKindRadio:
		if v == "" || v == "Off" {
			return nil
		}
	}
	return stringPtr(v)
}
