// =============================================================================
// PO Item Extractor - PDF Text Extraction
// =============================================================================
//
// This package turns a PDF file into raw text for the parsers.
//
// EXTRACTION STRATEGIES (tried in order, see Chain):
//   1. rows:  github.com/ledongthuc/pdf, text runs grouped into visual rows
//   2. plain: github.com/dslipak/pdf, the library's own plain-text output
//
// A strategy that fails or yields only whitespace hands over to the next.
//
// =============================================================================

package pdftext

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/po-item-extractor/internal/logging"
	"go.uber.org/zap"
)

// ErrNoText reports a document that opened fine but contained no text,
// typically a scanned image.
var ErrNoText = errors.New("no extractable text")

// Extractor is one text extraction strategy.
type Extractor interface {
	// Name identifies the strategy in logs and results.
	Name() string

	// Extract returns the text of the PDF at path.
	Extract(path string) (string, error)
}

// =============================================================================
// FALLBACK CHAIN
// =============================================================================

// Chain runs extractors in order until one returns non-empty text.
type Chain struct {
	extractors []Extractor
	logger     *zap.Logger
}

// NewChain creates a chain over the given extractors.
func NewChain(logger *zap.Logger, extractors ...Extractor) *Chain {
	return &Chain{
		extractors: extractors,
		logger:     logging.OrNop(logger),
	}
}

// Default returns the rows-then-plain chain used for real documents.
func Default(logger *zap.Logger) *Chain {
	return NewChain(logger, NewRowExtractor(), NewPlainExtractor())
}

// Extract returns the text and the name of the strategy that produced it.
//
// RETURNS:
//   - The text of the first strategy that produced any.
//   - The name of that strategy.
//   - An error joining every strategy's failure when none produced text.
//     Strategies that found nothing contribute ErrNoText, so
//     errors.Is(err, ErrNoText) holds for image-only documents.
func (c *Chain) Extract(path string) (string, string, error) {
	if len(c.extractors) == 0 {
		return "", "", fmt.Errorf("extract %s: no extraction strategy configured", path)
	}

	var errs []error
	for _, ex := range c.extractors {
		text, err := safeExtract(ex, path)
		if err == nil && strings.TrimSpace(text) == "" {
			err = ErrNoText
		}
		if err != nil {
			c.logger.Debug("extraction strategy failed",
				zap.String("path", path), zap.String("strategy", ex.Name()), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", ex.Name(), err))
			continue
		}
		return text, ex.Name(), nil
	}

	return "", "", fmt.Errorf("extract %s: %w", path, errors.Join(errs...))
}

// safeExtract converts a panic inside a PDF library into an error. Both
// libraries panic on some malformed cross-reference tables.
func safeExtract(ex Extractor, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()
	return ex.Extract(path)
}
