package pdftext

import (
	"fmt"
	"os"
	"strings"

	"github.com/dslipak/pdf"
)

// PlainExtractor reads each page with the dslipak parser. It copes with
// some files the row extractor rejects, at the cost of looser line breaks.
type PlainExtractor struct{}

// NewPlainExtractor creates a PlainExtractor.
func NewPlainExtractor() *PlainExtractor {
	return &PlainExtractor{}
}

// Name implements Extractor.
func (e *PlainExtractor) Name() string { return "plain" }

// Extract implements Extractor. Unreadable pages are skipped; the document
// fails only when it cannot be opened.
func (e *PlainExtractor) Extract(path string) (string, error) {
	// pdf.Open never closes its file, so the reader is built on ours.
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat pdf: %w", err)
	}
	r, err := pdf.NewReader(f, fi.Size())
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteByte('\n')
	}
	return b.String(), nil
}
