package pdftext

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// rowTolerance is the largest vertical distance between two text runs
	// on the same visual row.
	rowTolerance = 2.0

	// spaceRatio times the font size is the horizontal gap read as a space.
	spaceRatio = 0.2
)

// RowExtractor rebuilds visual rows from positioned text runs. Purchase
// orders are tables, so keeping one row per line preserves the
// "<item> <name> <qty>" layout the item parser expects.
type RowExtractor struct{}

// NewRowExtractor creates a RowExtractor.
func NewRowExtractor() *RowExtractor {
	return &RowExtractor{}
}

// Name implements Extractor.
func (e *RowExtractor) Name() string { return "rows" }

// Extract implements Extractor.
func (e *RowExtractor) Extract(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, line := range layoutRows(p.Content().Text) {
			b.WriteString(line)
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}

type textRow struct {
	y     float64
	texts []pdf.Text
}

// layoutRows groups runs by baseline, orders rows top to bottom and runs
// left to right, and returns one string per non-empty row.
func layoutRows(texts []pdf.Text) []string {
	var rows []*textRow

	for _, t := range texts {
		if t.S == "" {
			continue
		}
		row := findRow(rows, t.Y)
		if row == nil {
			row = &textRow{y: t.Y}
			rows = append(rows, row)
		}
		row.texts = append(row.texts, t)
	}

	// PDF y grows upwards.
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].y > rows[j].y })

	lines := make([]string, 0, len(rows))
	for _, row := range rows {
		if line := row.join(); line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

func findRow(rows []*textRow, y float64) *textRow {
	for _, row := range rows {
		if abs(row.y-y) < rowTolerance {
			return row
		}
	}
	return nil
}

// join concatenates the runs of a row, inserting a space wherever the gap
// to the previous run is wider than a fraction of the font size.
func (r *textRow) join() string {
	sort.SliceStable(r.texts, func(i, j int) bool { return r.texts[i].X < r.texts[j].X })

	var b strings.Builder
	var prevEnd float64
	for i, t := range r.texts {
		if i > 0 && t.X-prevEnd > spaceGap(t.FontSize) {
			b.WriteByte(' ')
		}
		b.WriteString(t.S)
		prevEnd = t.X + t.W
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func spaceGap(fontSize float64) float64 {
	if fontSize <= 0 {
		return 1
	}
	return fontSize * spaceRatio
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
