package extraction

import (
	"math"
	"sort"
	"strings"
)

// DefaultLineTolerance is the y distance in PDF units within which runs share a line
const DefaultLineTolerance = 5.0

// ExtractRuns converts raw text items into positioned runs. Whitespace-only
// items are dropped; an invalid geometry yields no runs.
func ExtractRuns(items []RawTextItem, pageNum int, g PageGeometry) []TextRun {
	if !g.Valid() || len(items) == 0 {
		return nil
	}

	runs := make([]TextRun, 0, len(items))
	for _, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			continue
		}
		x, y := item.Matrix[4], item.Matrix[5]
		if !isFinite(x) || !isFinite(y) {
			continue
		}

		w, h := item.Width, item.Height
		if !isFinite(w) || w < 0 {
			w = 0
		}
		if !isFinite(h) || h < 0 {
			h = 0
		}

		rect, err := FromPDFRect(RawRect{X1: x, Y1: y, X2: x + w, Y2: y + h}, g, TextClamp)
		if err != nil {
			return nil
		}

		runs = append(runs, TextRun{
			Text:   item.Text,
			X:      x,
			Y:      y,
			Width:  w,
			Height: h,
			Page:   pageNum,
			Rect:   rect,
		})
	}
	return runs
}

// ExtractLines extracts the runs of one page and clusters them into lines
func ExtractLines(items []RawTextItem, pageNum int, g PageGeometry, tolerance float64) []TextLine {
	return ClusterLines(ExtractRuns(items, pageNum, g), tolerance)
}

// ClusterLines groups runs into lines, top of the page first. A run starts a
// new line when its y is further than tolerance from the first run of the
// current line. The result does not depend on the order of runs.
func ClusterLines(runs []TextRun, tolerance float64) []TextLine {
	if len(runs) == 0 {
		return nil
	}
	if tolerance < 0 || math.IsNaN(tolerance) {
		tolerance = DefaultLineTolerance
	}

	sorted := make([]TextRun, len(runs))
	copy(sorted, runs)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Page != b.Page {
			return a.Page < b.Page
		}
		if a.Y != b.Y {
			return a.Y > b.Y
		}
		return runBefore(a, b)
	})

	var lines []TextLine
	var current *TextLine
	index := 0

	for _, run := range sorted {
		if current != nil && (run.Page != current.Page || math.Abs(run.Y-current.Y) > tolerance) {
			lines = append(lines, finishLine(*current))
			current = nil
		}
		if current == nil {
			if len(lines) > 0 && lines[len(lines)-1].Page != run.Page {
				index = 0
			}
			current = &TextLine{Page: run.Page, Index: index, Y: run.Y}
			index++
		}
		current.Runs = append(current.Runs, run)
	}
	lines = append(lines, finishLine(*current))

	return lines
}

// finishLine orders a line's runs left to right
func finishLine(line TextLine) TextLine {
	sort.SliceStable(line.Runs, func(i, j int) bool {
		return runBefore(line.Runs[i], line.Runs[j])
	})
	return line
}

// runBefore is the within-line ordering: x, then text, then size
func runBefore(a, b TextRun) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Text != b.Text {
		return a.Text < b.Text
	}
	if a.Y != b.Y {
		return a.Y > b.Y
	}
	if a.Width != b.Width {
		return a.Width < b.Width
	}
	return a.Height < b.Height
}
