package extraction

import (
	"fmt"
	"math"

	"github.com/a3tai/pdf-field-extractor/internal/pdf/errors"
)

// PageGeometry is the viewport size of one page at scale 1.0, in PDF units.
// OffsetX/OffsetY hold the lower-left corner of the page box for pages whose
// MediaBox does not start at the origin.
type PageGeometry struct {
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	OffsetX float64 `json:"offset_x,omitempty"`
	OffsetY float64 `json:"offset_y,omitempty"`
}

// Valid reports whether the geometry can be used as a divisor
func (g PageGeometry) Valid() bool {
	return isFinite(g.Width) && isFinite(g.Height) && g.Width > 0 && g.Height > 0 &&
		isFinite(g.OffsetX) && isFinite(g.OffsetY)
}

// RawRect is a rectangle in PDF user space with corners in any order
type RawRect struct {
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// RawRectFromSlice builds a RawRect from a PDF /Rect array
func RawRectFromSlice(coords []float64) (RawRect, error) {
	if len(coords) < 4 {
		return RawRect{}, fmt.Errorf("rectangle has %d coordinates, need 4", len(coords))
	}
	for i := 0; i < 4; i++ {
		if !isFinite(coords[i]) {
			return RawRect{}, fmt.Errorf("rectangle coordinate %d is not finite", i)
		}
	}
	return RawRect{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}, nil
}

// NormalizedRect is a box expressed as percentages of the page, origin top-left
type NormalizedRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ClampProfile bounds the width and height of a normalized rectangle.
// X and Y are always clamped to [0,100].
type ClampProfile struct {
	MinWidth  float64
	MaxWidth  float64
	MinHeight float64
	MaxHeight float64
}

var (
	// WidgetClamp applies to every field rectangle handed to the overlay UI
	WidgetClamp = ClampProfile{MinWidth: 1, MaxWidth: 80, MinHeight: 0.5, MaxHeight: 20}
	// GeneralClamp applies to arbitrary page regions
	GeneralClamp = ClampProfile{MinWidth: 1, MaxWidth: 100, MinHeight: 0.5, MaxHeight: 100}
	// TextClamp applies to text runs; height has no upper bound
	TextClamp = ClampProfile{MinWidth: 1, MaxWidth: 100, MinHeight: 0.5, MaxHeight: math.Inf(1)}
)

// FromPDFRect converts a rectangle in PDF user space (origin bottom-left, y up)
// into viewport percentages (origin top-left, y down).
func FromPDFRect(r RawRect, g PageGeometry, p ClampProfile) (NormalizedRect, error) {
	if !g.Valid() {
		return NormalizedRect{}, errors.NewExtractionError(errors.ErrorTypeInvalidPageGeometry,
			fmt.Sprintf("page geometry %.2fx%.2f", g.Width, g.Height))
	}

	top := g.OffsetY + g.Height
	flipped := RawRect{
		X1: r.X1 - g.OffsetX,
		Y1: top - r.Y1,
		X2: r.X2 - g.OffsetX,
		Y2: top - r.Y2,
	}
	return normalize(flipped, g, p), nil
}

// FromViewportRect converts a rectangle already in viewport space (origin
// top-left, y down, PDF units) into percentages. No flip is applied.
func FromViewportRect(r RawRect, g PageGeometry, p ClampProfile) (NormalizedRect, error) {
	if !g.Valid() {
		return NormalizedRect{}, errors.NewExtractionError(errors.ErrorTypeInvalidPageGeometry,
			fmt.Sprintf("page geometry %.2fx%.2f", g.Width, g.Height))
	}
	return normalize(r, g, p), nil
}

func normalize(r RawRect, g PageGeometry, p ClampProfile) NormalizedRect {
	left, right := math.Min(r.X1, r.X2), math.Max(r.X1, r.X2)
	top, bottom := math.Min(r.Y1, r.Y2), math.Max(r.Y1, r.Y2)

	return NormalizedRect{
		X:      clamp(left/g.Width*100, 0, 100),
		Y:      clamp(top/g.Height*100, 0, 100),
		Width:  clamp((right-left)/g.Width*100, p.MinWidth, p.MaxWidth),
		Height: clamp((bottom-top)/g.Height*100, p.MinHeight, p.MaxHeight),
	}
}

// clamp bounds v to [lo,hi]; NaN maps to lo
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
