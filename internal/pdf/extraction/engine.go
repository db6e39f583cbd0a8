package extraction

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/errors"
)

// Default limits for a single document
const (
	DefaultMaxPages    = 500
	DefaultMaxTextRuns = 250000
)

// Engine defines the interface for form-field extraction
type Engine interface {
	// Extract finds the fillable fields of a loaded document
	Extract(ctx context.Context, doc *Document) (*ExtractionResult, error)
}

// Options controls limits, parallelism and layout heuristics.
// Zero limits mean unlimited.
type Options struct {
	MaxPages      int             `json:"max_pages"`
	MaxTextRuns   int             `json:"max_text_runs"`
	Workers       int             `json:"workers"`
	LineTolerance float64         `json:"line_tolerance"`
	Detector      DetectorOptions `json:"detector"`
}

// DefaultOptions returns the options used when nothing is configured
func DefaultOptions() Options {
	return Options{
		MaxPages:      DefaultMaxPages,
		MaxTextRuns:   DefaultMaxTextRuns,
		Workers:       runtime.NumCPU(),
		LineTolerance: DefaultLineTolerance,
		Detector:      DefaultDetectorOptions(),
	}
}

// DefaultEngine implements the Engine interface
type DefaultEngine struct {
	opts        Options
	log         logrus.FieldLogger
	annotations *AnnotationExtractor
	detector    *PatternDetector
}

// NewEngine creates an extraction engine. A nil logger discards output.
func NewEngine(opts Options, log logrus.FieldLogger) *DefaultEngine {
	if log == nil {
		log = discardLogger()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.LineTolerance <= 0 {
		opts.LineTolerance = DefaultLineTolerance
	}

	return &DefaultEngine{
		opts:        opts,
		log:         log,
		annotations: NewAnnotationExtractor(log),
		detector:    NewPatternDetector(opts.Detector, log),
	}
}

// pageResult is what one page contributes before the AcroForm decision
type pageResult struct {
	fields    []ExtractedField
	lines     []TextLine
	sawWidget bool
}

// Extract runs annotation extraction and line clustering for every page, then
// pattern detection if no page had a widget annotation.
func (e *DefaultEngine) Extract(ctx context.Context, doc *Document) (*ExtractionResult, error) {
	if doc == nil {
		return nil, fmt.Errorf("document is nil")
	}
	if err := e.checkLimits(doc); err != nil {
		return nil, err
	}

	pages := doc.Pages
	results := make([]pageResult, len(pages))

	p := pool.New().WithMaxGoroutines(e.opts.Workers)
	for i := range pages {
		p.Go(func() {
			results[i] = e.processPage(&pages[i])
		})
	}
	p.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("extraction cancelled: %w", err)
	}

	hasAcroForm := false
	for _, r := range results {
		hasAcroForm = hasAcroForm || r.sawWidget
	}

	if !hasAcroForm {
		detected := make([][]ExtractedField, len(pages))
		dp := pool.New().WithMaxGoroutines(e.opts.Workers)
		for i := range pages {
			dp.Go(func() {
				detected[i] = e.detector.Detect(results[i].lines, pages[i].Geometry)
			})
		}
		dp.Wait()

		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("extraction cancelled: %w", err)
		}
		for i := range results {
			results[i].fields = append(results[i].fields, detected[i]...)
		}
	}

	result := &ExtractionResult{
		Fields:      []ExtractedField{},
		TextLines:   []TextLine{},
		PageCount:   len(pages),
		HasAcroForm: hasAcroForm,
	}
	for _, r := range results {
		result.Fields = append(result.Fields, r.fields...)
		result.TextLines = append(result.TextLines, r.lines...)
	}
	result.Fields = Dedupe(result.Fields)

	e.log.WithFields(logrus.Fields{
		"pages":         result.PageCount,
		"fields":        len(result.Fields),
		"lines":         len(result.TextLines),
		"has_acro_form": hasAcroForm,
	}).Debug("Extraction finished")

	return result, nil
}

func (e *DefaultEngine) processPage(page *Page) pageResult {
	if !page.Geometry.Valid() {
		err := errors.NewPageError(errors.ErrorTypeInvalidPageGeometry, page.Number,
			fmt.Sprintf("page size %.2fx%.2f", page.Geometry.Width, page.Geometry.Height))
		e.log.WithField("page", page.Number).WithError(err).Warn("Skipping page without usable geometry")
		return pageResult{}
	}

	annots := e.annotations.Extract(page.Annotations, page.Number, page.Geometry)
	return pageResult{
		fields:    annots.Fields,
		lines:     ExtractLines(page.TextItems, page.Number, page.Geometry, e.opts.LineTolerance),
		sawWidget: annots.SawWidget,
	}
}

func (e *DefaultEngine) checkLimits(doc *Document) error {
	if e.opts.MaxPages > 0 && len(doc.Pages) > e.opts.MaxPages {
		return errors.NewExtractionError(errors.ErrorTypeDocumentTooLarge,
			fmt.Sprintf("%d pages exceeds limit of %d", len(doc.Pages), e.opts.MaxPages))
	}
	if e.opts.MaxTextRuns > 0 {
		if n := doc.TextRunCount(); n > e.opts.MaxTextRuns {
			return errors.NewExtractionError(errors.ErrorTypeDocumentTooLarge,
				fmt.Sprintf("%d text runs exceeds limit of %d", n, e.opts.MaxTextRuns))
		}
	}
	return nil
}

// ExtractAnnotations runs the annotation extractor for one page without logging
func ExtractAnnotations(annots []WidgetAnnotation, pageNum int, g PageGeometry) PageAnnotations {
	return NewAnnotationExtractor(discardLogger()).Extract(annots, pageNum, g)
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
