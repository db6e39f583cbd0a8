package extraction

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
)

// DetectorOptions tunes the layout heuristics. Widths are fractions of the
// page width, heights fractions of the page height.
type DetectorOptions struct {
	LabelWindow       float64 `json:"label_window"`
	LabelBand         float64 `json:"label_band"`
	DefaultFieldWidth float64 `json:"default_field_width"`
	MinBlankWidth     float64 `json:"min_blank_width"`
}

// DefaultDetectorOptions returns the tuned defaults
func DefaultDetectorOptions() DetectorOptions {
	return DetectorOptions{
		LabelWindow:       0.60,
		LabelBand:         0.02,
		DefaultFieldWidth: 0.25,
		MinBlankWidth:     0.08,
	}
}

// fallbackRunHeight is used for runs whose loader reported no height
const fallbackRunHeight = 12.0

// PackageGroup is the radio group of package-percentage options
const PackageGroup = "package_selection"

// PatternDetector infers fields from the printed layout of a page
type PatternDetector struct {
	opts DetectorOptions
	log  logrus.FieldLogger
}

// NewPatternDetector creates a detector; zero-valued options take defaults
func NewPatternDetector(opts DetectorOptions, log logrus.FieldLogger) *PatternDetector {
	def := DefaultDetectorOptions()
	if opts.LabelWindow <= 0 {
		opts.LabelWindow = def.LabelWindow
	}
	if opts.LabelBand <= 0 {
		opts.LabelBand = def.LabelBand
	}
	if opts.DefaultFieldWidth <= 0 {
		opts.DefaultFieldWidth = def.DefaultFieldWidth
	}
	if opts.MinBlankWidth <= 0 {
		opts.MinBlankWidth = def.MinBlankWidth
	}
	return &PatternDetector{opts: opts, log: log}
}

// positioned pairs a detected field with its x for in-line ordering
type positioned struct {
	x     float64
	field ExtractedField
}

// Detect runs the checkbox, underline and colon cues over every line of one
// page. Fields come back ordered by line, then left to right.
func (d *PatternDetector) Detect(lines []TextLine, g PageGeometry) []ExtractedField {
	if !g.Valid() {
		return nil
	}

	var fields []ExtractedField
	for _, line := range lines {
		if len(line.Runs) == 0 {
			continue
		}
		consumed := make([]bool, len(line.Runs))

		var found []positioned
		found = append(found, d.detectGlyphs(line, g, consumed)...)
		found = append(found, d.detectUnderlines(line, g, consumed)...)
		found = append(found, d.detectColonLabels(line, g, consumed)...)

		sort.SliceStable(found, func(i, j int) bool {
			return found[i].x < found[j].x
		})
		for _, p := range found {
			fields = append(fields, p.field)
		}
	}

	d.log.WithFields(logrus.Fields{
		"lines":  len(lines),
		"fields": len(fields),
	}).Debug("Pattern detection finished")

	return fields
}

func (d *PatternDetector) detectGlyphs(line TextLine, g PageGeometry, consumed []bool) []positioned {
	var out []positioned

	for i, run := range line.Runs {
		if consumed[i] {
			continue
		}
		marks := findGlyphs(run.Text)
		if len(marks) == 0 {
			continue
		}
		consumed[i] = true

		charWidth := 0.0
		if n := utf8.RuneCountInString(run.Text); n > 0 {
			charWidth = run.Width / float64(n)
		}
		size := run.Height
		if size <= 0 {
			size = fallbackRunHeight
		}

		for k, m := range marks {
			x := run.X + float64(m.runeIndex)*charWidth

			// A label ends at the next glyph; the last glyph's label may
			// continue into the runs to its right
			var label string
			if k+1 < len(marks) {
				label = run.Text[m.end:marks[k+1].start]
			} else {
				label = d.trailingLabel(line, i, x, run.Text[m.end:], g, consumed)
			}
			label = cleanLabel(label)

			rect, err := FromPDFRect(RawRect{X1: x, Y1: run.Y, X2: x + size, Y2: run.Y + size}, g, WidgetClamp)
			if err != nil {
				continue
			}

			field := ExtractedField{Page: line.Page, Rect: rect}
			if pct, ok := MatchPackage(label); ok {
				field.FieldID = "package_" + pct
				field.Kind = FieldKindRadio
				field.Group = stringPtr(PackageGroup)
			} else {
				field.FieldID = fmt.Sprintf("checkbox_%d_%d_%s", line.Page, line.Index, slugify(label))
				field.Kind = FieldKindCheckbox
			}
			out = append(out, positioned{x: x, field: field})
		}
	}
	return out
}

// trailingLabel extends head with the runs right of run i that fall inside
// the label window of a glyph at x. Text before a glyph in a later run is
// taken, but that run is left for its own glyphs.
func (d *PatternDetector) trailingLabel(line TextLine, i int, x float64, head string, g PageGeometry, consumed []bool) string {
	window := d.opts.LabelWindow * g.Width
	band := d.opts.LabelBand * g.Height
	run := line.Runs[i]

	parts := []string{head}
	for j := i + 1; j < len(line.Runs); j++ {
		next := line.Runs[j]
		if consumed[j] || next.X-x > window {
			break
		}
		if math.Abs(next.Y-run.Y) > band {
			continue
		}
		if underlineRe.MatchString(next.Text) {
			break
		}
		text, stopped := cutAtGlyph(next.Text)
		parts = append(parts, text)
		if stopped {
			break
		}
		consumed[j] = true
	}
	return strings.Join(parts, " ")
}

func (d *PatternDetector) detectUnderlines(line TextLine, g PageGeometry, consumed []bool) []positioned {
	var out []positioned

	for i, run := range line.Runs {
		if consumed[i] {
			continue
		}
		matches := underlineRe.FindAllStringIndex(run.Text, -1)
		if matches == nil {
			continue
		}
		consumed[i] = true

		charWidth := 0.0
		if n := utf8.RuneCountInString(run.Text); n > 0 {
			charWidth = run.Width / float64(n)
		}
		height := run.Height
		if height <= 0 {
			height = fallbackRunHeight
		}

		prev := 0
		for k, m := range matches {
			labelText := run.Text[prev:m[0]]
			prev = m[1]

			labelIdx := -1
			if strings.TrimSpace(labelText) == "" && k == 0 {
				labelIdx = precedingRun(line.Runs, i)
				if labelIdx < 0 || consumed[labelIdx] {
					continue
				}
				labelText = line.Runs[labelIdx].Text
			}

			pattern, ok := MatchLabel(labelText)
			if !ok {
				continue
			}
			if labelIdx >= 0 {
				consumed[labelIdx] = true
			}

			x := run.X + float64(utf8.RuneCountInString(run.Text[:m[0]]))*charWidth
			w := float64(utf8.RuneCountInString(run.Text[m[0]:m[1]])) * charWidth
			rect, err := FromPDFRect(RawRect{X1: x, Y1: run.Y, X2: x + w, Y2: run.Y + height}, g, WidgetClamp)
			if err != nil {
				continue
			}
			out = append(out, positioned{x: x, field: ExtractedField{
				FieldID:  pattern.FieldID,
				Kind:     pattern.Kind,
				Page:     line.Page,
				Rect:     rect,
				Required: pattern.Required,
			}})
		}
	}
	return out
}

func (d *PatternDetector) detectColonLabels(line TextLine, g PageGeometry, consumed []bool) []positioned {
	var out []positioned
	pageRight := g.OffsetX + g.Width
	minBlank := d.opts.MinBlankWidth * g.Width

	for i, run := range line.Runs {
		if consumed[i] || !strings.HasSuffix(strings.TrimSpace(run.Text), ":") {
			continue
		}
		pattern, ok := MatchLabel(run.Text)
		if !ok {
			continue
		}

		start := run.Right()
		limit := pageRight
		for j := i + 1; j < len(line.Runs); j++ {
			if line.Runs[j].X >= start {
				limit = line.Runs[j].X
				break
			}
		}
		gap := limit - start
		if gap < minBlank {
			d.log.WithFields(logrus.Fields{
				"page":  line.Page,
				"line":  line.Index,
				"label": pattern.FieldID,
			}).Debug("No blank space after label")
			continue
		}
		consumed[i] = true

		height := run.Height
		if height <= 0 {
			height = fallbackRunHeight
		}
		width := math.Min(d.opts.DefaultFieldWidth*g.Width, gap)
		rect, err := FromPDFRect(RawRect{X1: start, Y1: run.Y, X2: start + width, Y2: run.Y + height}, g, WidgetClamp)
		if err != nil {
			continue
		}
		out = append(out, positioned{x: start, field: ExtractedField{
			FieldID:  pattern.FieldID,
			Kind:     pattern.Kind,
			Page:     line.Page,
			Rect:     rect,
			Required: pattern.Required,
		}})
	}
	return out
}

// precedingRun returns the nearest non-blank run left of i, or -1
func precedingRun(runs []TextRun, i int) int {
	for j := i - 1; j >= 0; j-- {
		if strings.TrimSpace(runs[j].Text) != "" {
			return j
		}
	}
	return -1
}
