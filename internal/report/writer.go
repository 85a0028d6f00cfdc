// =============================================================================
// PO Item Extractor - Report Writer
// =============================================================================
//
// This module writes the analysis workbook.
//
// SHEETS:
//   PO Summary        one row per document: metadata, item count, status
//   Quantity Summary  one row per aggregate entry, one column per document,
//                     Grand Total = sum of the document columns
//   PO Items          one row per parsed item, for auditing the parser
//
// Document columns follow processing order. A column is titled with the
// document's reference number when known, else with a shortened filename.
//
// =============================================================================

package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/po-item-extractor/internal/aggregator"
	"github.com/ginjaninja78/po-item-extractor/internal/config"
	"github.com/ginjaninja78/po-item-extractor/internal/logging"
	"github.com/ginjaninja78/po-item-extractor/internal/types"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names.
const (
	SheetPOSummary       = "PO Summary"
	SheetQuantitySummary = "Quantity Summary"
	SheetItems           = "PO Items"
)

const (
	minColWidth = 10
	maxColWidth = 60
)

// Writer builds the workbook from a finished batch.
type Writer struct {
	settings config.ReportSettings
	logger   *zap.Logger
}

// New creates a Writer.
func New(settings config.ReportSettings, logger *zap.Logger) *Writer {
	return &Writer{settings: settings, logger: logging.OrNop(logger)}
}

// Write saves the workbook to path, creating its directory if needed.
func (w *Writer) Write(path string, docs []types.DocumentResult, agg *aggregator.Aggregate) error {
	f, err := w.Build(docs, agg)
	if err != nil {
		return err
	}
	defer f.Close()

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	w.logger.Info("workbook written",
		zap.String("path", path), zap.Int("documents", len(docs)), zap.Int("items", agg.Len()))
	return nil
}

// WriteTo streams the workbook to out.
func (w *Writer) WriteTo(out io.Writer, docs []types.DocumentResult, agg *aggregator.Aggregate) error {
	f, err := w.Build(docs, agg)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(out); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

// Build creates the workbook in memory. The caller closes it.
func (w *Writer) Build(docs []types.DocumentResult, agg *aggregator.Aggregate) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetPOSummary); err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx sheet: %w", err)
	}
	for _, name := range []string{SheetQuantitySummary, SheetItems} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("xlsx sheet: %w", err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("xlsx style: %w", err)
	}

	titles := ColumnTitles(docs, w.settings.ShortNameLength)
	sheets := []struct {
		name string
		rows [][]any
	}{
		{SheetPOSummary, w.poSummaryRows(docs)},
		{SheetQuantitySummary, quantitySummaryRows(docs, titles, agg)},
		{SheetItems, itemRows(docs)},
	}

	for _, s := range sheets {
		if err := writeSheet(f, s.name, s.rows, bold); err != nil {
			f.Close()
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	return f, nil
}

// =============================================================================
// SHEET CONTENT
// =============================================================================

func (w *Writer) poSummaryRows(docs []types.DocumentResult) [][]any {
	rows := [][]any{{
		"PO Number",
		"Vendor/Location",
		"PO Date",
		fmt.Sprintf("Total Sales (%s)", w.settings.Currency),
		"Source File",
		"Items Parsed",
		"Status",
	}}

	for _, d := range docs {
		rows = append(rows, []any{
			d.Meta(types.MetaReferenceNumber),
			d.Meta(types.MetaLocation),
			d.Meta(types.MetaDate),
			d.Meta(types.MetaTotalAmount),
			d.Filename,
			len(d.Items),
			status(d),
		})
	}
	return rows
}

func quantitySummaryRows(docs []types.DocumentResult, titles []string, agg *aggregator.Aggregate) [][]any {
	header := []any{"Row Labels", "DIY Code"}
	for _, t := range titles {
		header = append(header, t)
	}
	header = append(header, "Grand Total")

	rows := [][]any{header}
	for _, e := range agg.Entries() {
		row := []any{e.Name, e.Code}

		var grand float64
		for _, d := range docs {
			q := e.QuantityByDocument[d.Filename]
			grand += q
			row = append(row, q)
		}
		rows = append(rows, append(row, grand))
	}
	return rows
}

func itemRows(docs []types.DocumentResult) [][]any {
	rows := [][]any{{"Source File", "Item No", "Item Name", "DIY Code", "Quantity"}}
	for _, d := range docs {
		for _, it := range d.Items {
			rows = append(rows, []any{d.Filename, it.ItemNumber, it.Name, it.Code, it.Quantity})
		}
	}
	return rows
}

func status(d types.DocumentResult) string {
	switch {
	case d.Success:
		return "OK"
	case d.Err != nil:
		return "Failed: " + d.Err.Error()
	default:
		return "No items found"
	}
}

// =============================================================================
// COLUMN TITLES
// =============================================================================

// ColumnTitles returns one unique Quantity Summary column title per
// document. Repeated titles get " (2)", " (3)" and so on.
func ColumnTitles(docs []types.DocumentResult, length int) []string {
	titles := make([]string, 0, len(docs))
	used := make(map[string]bool, len(docs))

	for _, d := range docs {
		base := ShortName(d, length)
		title := base
		for n := 2; used[title]; n++ {
			title = fmt.Sprintf("%s (%d)", base, n)
		}
		used[title] = true
		titles = append(titles, title)
	}
	return titles
}

// ShortName is the reference number when known, else the filename without
// its .pdf extension, cut to length runes, with spaces replaced by "_".
func ShortName(d types.DocumentResult, length int) string {
	if ref := d.Meta(types.MetaReferenceNumber); ref != "" {
		return ref
	}

	name := d.Filename
	if ext := filepath.Ext(name); strings.EqualFold(ext, ".pdf") {
		name = strings.TrimSuffix(name, ext)
	}
	if length > 0 && utf8.RuneCountInString(name) > length {
		name = string([]rune(name)[:length])
	}
	return strings.ReplaceAll(name, " ", "_")
}

// =============================================================================
// CELL WRITING
// =============================================================================

// writeSheet writes rows starting at A1, bolds the header and sizes each
// column to its widest value.
func writeSheet(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	var widths []int

	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("xlsx cell: %w", err)
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("xlsx write %s!%s: %w", sheet, cell, err)
			}

			if c >= len(widths) {
				widths = append(widths, minColWidth)
			}
			widths[c] = max(widths[c], min(utf8.RuneCountInString(fmt.Sprint(v))+2, maxColWidth))
		}
	}

	if len(rows) > 0 && len(rows[0]) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
		if err != nil {
			return fmt.Errorf("xlsx cell: %w", err)
		}
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("xlsx style: %w", err)
		}
	}

	for c, width := range widths {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return fmt.Errorf("xlsx column: %w", err)
		}
		if err := f.SetColWidth(sheet, col, col, float64(width)); err != nil {
			return fmt.Errorf("xlsx width: %w", err)
		}
	}
	return nil
}
