package extraction

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/errors"
)

func newTestEngine(opts Options) *DefaultEngine {
	return NewEngine(opts, discardLogger())
}

func TestEngine_AcroFormDocument(t *testing.T) {
	doc := &Document{Pages: []Page{{
		Number:      1,
		Geometry:    PageGeometry{Width: 800, Height: 1000},
		Annotations: []WidgetAnnotation{widget(FieldTypeText, "owner_name", 100, 700, 300, 720)},
		TextItems:   []RawTextItem{textItem("Owner Name:", 20, 705, 70)},
	}}}

	result, err := newTestEngine(DefaultOptions()).Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.True(t, result.HasAcroForm)
	assert.Equal(t, 1, result.PageCount)
	require.Len(t, result.Fields, 1)
	f := result.Fields[0]
	assert.Equal(t, "owner_name", f.FieldID)
	assert.Equal(t, FieldKindText, f.Kind)
	assert.InDelta(t, 12.5, f.Rect.X, 1e-9)
	// y comes from the flipped top edge, (1000-720)/1000 = 28%, not 28.75
	assert.InDelta(t, 28, f.Rect.Y, 1e-9)
	assert.InDelta(t, 25, f.Rect.Width, 1e-9)
	assert.InDelta(t, 2, f.Rect.Height, 1e-9)
	assert.Len(t, result.TextLines, 1)
}

func TestEngine_PatternFallback(t *testing.T) {
	doc := &Document{Pages: []Page{{
		Number:    1,
		Geometry:  PageGeometry{Width: 612, Height: 792},
		TextItems: []RawTextItem{textItem("Owner(s): ____________", 72, 700, 220)},
	}}}

	result, err := newTestEngine(DefaultOptions()).Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.False(t, result.HasAcroForm)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, "owner_name", result.Fields[0].FieldID)
	assert.Equal(t, FieldKindText, result.Fields[0].Kind)
	assert.Nil(t, result.Fields[0].SourceRect)
}

func TestEngine_AcroFormGateIsDocumentWide(t *testing.T) {
	doc := &Document{Pages: []Page{
		{
			Number:      1,
			Geometry:    PageGeometry{Width: 612, Height: 792},
			Annotations: []WidgetAnnotation{widget(FieldTypeSignature, "sig", 72, 100, 300, 130)},
		},
		{
			Number:    2,
			Geometry:  PageGeometry{Width: 612, Height: 792},
			TextItems: []RawTextItem{textItem("Owner(s): ____________", 72, 700, 220)},
		},
	}}

	result, err := newTestEngine(DefaultOptions()).Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.True(t, result.HasAcroForm)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, "sig", result.Fields[0].FieldID)
	for _, f := range result.Fields {
		assert.NotNil(t, f.SourceRect)
	}
	assert.Len(t, result.TextLines, 1)
}

func TestEngine_PushButtonStillCountsAsAcroForm(t *testing.T) {
	doc := &Document{Pages: []Page{{
		Number:      1,
		Geometry:    PageGeometry{Width: 612, Height: 792},
		Annotations: []WidgetAnnotation{widget(FieldTypeButton, "print", 10, 10, 50, 30)},
		TextItems:   []RawTextItem{textItem("Owner(s): ____________", 72, 700, 220)},
	}}}

	result, err := newTestEngine(DefaultOptions()).Extract(context.Background(), doc)
	require.NoError(t, err)

	assert.True(t, result.HasAcroForm)
	assert.Empty(t, result.Fields)
}

func TestEngine_ZeroHeightPage(t *testing.T) {
	doc := &Document{Pages: []Page{
		{
			Number:      1,
			Geometry:    PageGeometry{Width: 612, Height: 0},
			Annotations: []WidgetAnnotation{widget(FieldTypeText, "owner_name", 100, 700, 300, 720)},
			TextItems:   []RawTextItem{textItem("Owner(s): ____", 72, 700, 100)},
		},
	}}

	var result *ExtractionResult
	var err error
	require.NotPanics(t, func() {
		result, err = newTestEngine(DefaultOptions()).Extract(context.Background(), doc)
	})
	require.NoError(t, err)
	assert.Empty(t, result.Fields)
	assert.Empty(t, result.TextLines)
	assert.False(t, result.HasAcroForm)
	assert.Equal(t, 1, result.PageCount)
}

func TestEngine_InvalidPageDoesNotStopOthers(t *testing.T) {
	doc := &Document{Pages: []Page{
		{Number: 1, Geometry: PageGeometry{Width: -1, Height: 792}},
		{
			Number:    2,
			Geometry:  PageGeometry{Width: 612, Height: 792},
			TextItems: []RawTextItem{textItem("Date: ________", 72, 100, 140)},
		},
	}}

	result, err := newTestEngine(DefaultOptions()).Extract(context.Background(), doc)
	require.NoError(t, err)
	require.Len(t, result.Fields, 1)
	assert.Equal(t, 2, result.Fields[0].Page)
}

func TestEngine_EmptyDocument(t *testing.T) {
	tests := []struct {
		name string
		doc  *Document
	}{
		{name: "no_pages", doc: &Document{}},
		{name: "blank_page", doc: &Document{Pages: []Page{{Number: 1, Geometry: PageGeometry{Width: 612, Height: 792}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := newTestEngine(DefaultOptions()).Extract(context.Background(), tt.doc)
			require.NoError(t, err)
			assert.NotNil(t, result.Fields)
			assert.NotNil(t, result.TextLines)
			assert.Empty(t, result.Fields)
			assert.False(t, result.HasAcroForm)
		})
	}
}

func TestEngine_NilDocument(t *testing.T) {
	_, err := newTestEngine(DefaultOptions()).Extract(context.Background(), nil)
	assert.Error(t, err)
}

func TestEngine_DocumentTooLarge(t *testing.T) {
	page := func(n int, items int) Page {
		p := Page{Number: n, Geometry: PageGeometry{Width: 612, Height: 792}}
		for i := 0; i < items; i++ {
			p.TextItems = append(p.TextItems, textItem("word", float64(10+i), 700, 5))
		}
		return p
	}

	tests := []struct {
		name    string
		opts    Options
		doc     *Document
		wantErr bool
	}{
		{
			name:    "too_many_pages",
			opts:    Options{MaxPages: 2},
			doc:     &Document{Pages: []Page{page(1, 0), page(2, 0), page(3, 0)}},
			wantErr: true,
		},
		{
			name:    "too_many_text_runs",
			opts:    Options{MaxTextRuns: 5},
			doc:     &Document{Pages: []Page{page(1, 3), page(2, 3)}},
			wantErr: true,
		},
		{
			name: "at_limits",
			opts: Options{MaxPages: 2, MaxTextRuns: 6},
			doc:  &Document{Pages: []Page{page(1, 3), page(2, 3)}},
		},
		{
			name: "zero_means_unlimited",
			opts: Options{},
			doc:  &Document{Pages: []Page{page(1, 10), page(2, 10), page(3, 10)}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestEngine(tt.opts).Extract(context.Background(), tt.doc)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, errors.ErrDocumentTooLarge))
			assert.False(t, errors.IsRecoverableError(err))
		})
	}
}

func TestEngine_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	doc := &Document{Pages: []Page{{Number: 1, Geometry: PageGeometry{Width: 612, Height: 792}}}}
	_, err := newTestEngine(DefaultOptions()).Extract(ctx, doc)
	require.Error(t, err)
	assert.True(t, stderrors.Is(err, context.Canceled))
}

func TestEngine_PageOrderAndCrossPageDedupe(t *testing.T) {
	var pages []Page
	for i := 1; i <= 40; i++ {
		pages = append(pages, Page{
			Number:   i,
			Geometry: PageGeometry{Width: 612, Height: 792},
			TextItems: []RawTextItem{
				textItem("Date: ________", 72, 100, 140),
				textItem(fmt.Sprintf("☐ Clause %d", i), 72, 400, 80),
			},
		})
	}

	result, err := newTestEngine(Options{Workers: 4}).Extract(context.Background(), &Document{Pages: pages})
	require.NoError(t, err)

	// signature_date repeats on every page and survives only once
	require.Len(t, result.Fields, 41)
	assert.Equal(t, "checkbox_1_0_clause_1", result.Fields[0].FieldID)
	assert.Equal(t, "signature_date", result.Fields[1].FieldID)
	assert.Equal(t, 1, result.Fields[1].Page)
	for i := 2; i < len(result.Fields); i++ {
		assert.Equal(t, i, result.Fields[i].Page)
		assert.Equal(t, fmt.Sprintf("checkbox_%d_0_clause_%d", i, i), result.Fields[i].FieldID)
	}
	assert.Len(t, result.TextLines, 80)
}
