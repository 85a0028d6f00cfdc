// =============================================================================
// PO Item Extractor - Item Parser
// =============================================================================
//
// This module turns the raw text of a purchase order into line items.
//
// PDF text extraction destroys table structure unpredictably: columns
// collapse onto one line, wrap across several, or interleave with the next
// item. The parser therefore reads the text as an unreliable line stream and
// applies ranked pattern strategies with a numeric plausibility ceiling. It
// prefers skipping a quantity over misassigning one, but never drops a
// detected item: an item without a recoverable quantity is emitted with 0.
//
// PARSING PIPELINE (per item-start line):
//   1. Item-start:  "<3-5 digits> <name...>"
//   2. Same line:   fixed-decimal (36.000), then unit-of-measure (12 Pcs)
//   3. Look-ahead:  DIY code (whole or split over two lines) and quantity
//                   (unit-of-measure, standalone, labeled), range-checked,
//                   until the next item-start or the window ends
//   4. Fallback:    number on the line before a bare "Piece"/"Pieces" line
//   5. Default:     quantity 0, logged
//   6. Name:        a trailing block of two numeric tokens is dropped
//   7. Cursor:      resumes where the look-ahead stopped
//
// =============================================================================

package itemparser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/po-item-extractor/internal/config"
	"github.com/ginjaninja78/po-item-extractor/internal/logging"
	"github.com/ginjaninja78/po-item-extractor/internal/types"
	"go.uber.org/zap"
)

var (
	itemStartRe     = regexp.MustCompile(`^\s*(\d{3,5})\s+(.+)$`)
	pieceLineRe     = regexp.MustCompile(`(?i)^(?:piece|pieces)$`)
	firstNumberRe   = regexp.MustCompile(numberPattern)
	trailingPairRe  = regexp.MustCompile(`\s+` + numberPattern + `\s+` + numberPattern + `\s*$`)
	containsDigitRe = regexp.MustCompile(`\d`)
)

// =============================================================================
// PARSER STRUCTURE
// =============================================================================

// Parser extracts ParsedItems from document text. It holds no per-document
// state and may be reused across documents.
type Parser struct {
	settings config.ParserSettings
	logger   *zap.Logger

	// sameLine are the strategies tried on the item-start line itself.
	sameLine []quantityMatcher

	// lookahead are the strategies tried on each following line.
	lookahead []quantityMatcher

	// codeRe matches a whole code token, e.g. DIY28045.
	codeRe *regexp.Regexp

	// codeDigitsRe matches the digits-only line completing a split code.
	codeDigitsRe *regexp.Regexp
}

// New creates a Parser from the parser settings.
func New(settings config.ParserSettings, logger *zap.Logger) *Parser {
	unit := unitOfMeasureMatcher(settings.UnitTokens)

	return &Parser{
		settings: settings,
		logger:   logging.OrNop(logger),
		sameLine: []quantityMatcher{
			fixedDecimalMatcher(settings.QuantityDecimals),
			unit,
		},
		lookahead: []quantityMatcher{
			unit,
			standaloneMatcher(),
			labeledMatcher(),
		},
		codeRe:       regexp.MustCompile(`\b` + regexp.QuoteMeta(settings.CodePrefix) + `\d+\b`),
		codeDigitsRe: regexp.MustCompile(fmt.Sprintf(`^\d{%d,}$`, settings.MinCodeDigits)),
	}
}

// WithLogger returns a copy of the parser that logs to logger. The pipeline
// uses it to attach the document name to parse diagnostics.
func (p *Parser) WithLogger(logger *zap.Logger) *Parser {
	clone := *p
	clone.logger = logging.OrNop(logger)
	return &clone
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse scans text and returns the items in document order. Text without
// any item-start line yields an empty, non-nil slice.
func (p *Parser) Parse(text string) []types.ParsedItem {
	lines := splitLines(text)
	items := make([]types.ParsedItem, 0)

	for i := 0; i < len(lines); {
		m := itemStartRe.FindStringSubmatch(lines[i])
		if m == nil {
			i++
			continue
		}

		item, next := p.parseItem(lines, i, m[1], strings.TrimSpace(m[2]))
		items = append(items, item)
		i = next
	}

	p.logger.Debug("parsed items from text", zap.Int("items", len(items)), zap.Int("lines", len(lines)))
	return items
}

// parseItem recovers one item starting at lines[i]. It returns the item and
// the index the scan resumes from, which is always greater than i.
func (p *Parser) parseItem(lines []string, i int, number, raw string) (types.ParsedItem, int) {
	name := raw
	var qty float64
	found := false

	// =========================================================================
	// STEP 1: SAME-LINE QUANTITY
	// =========================================================================

	if m, strategy, ok := firstMatch(p.sameLine, raw, nil); ok {
		qty, found = m.value, true
		name = strings.TrimSpace(raw[:m.start])
		p.logger.Debug("quantity on item line",
			zap.String("item_number", number), zap.String("strategy", strategy), zap.Float64("quantity", qty))
	}

	// =========================================================================
	// STEP 2: LOOK-AHEAD FOR CODE AND QUANTITY
	// =========================================================================

	windowEnd := min(len(lines), i+p.settings.LookaheadWindow)
	code := ""

	j := i + 1
	for j < windowEnd && !isItemStart(lines[j]) {
		line := lines[j]

		if code == "" {
			var consumed int
			code, consumed = p.matchCode(lines, j)
			j += consumed
		}

		if !found {
			if m, strategy, ok := firstMatch(p.lookahead, line, p.plausible); ok {
				qty, found = m.value, true
				p.logger.Debug("quantity in look-ahead",
					zap.String("item_number", number), zap.String("strategy", strategy),
					zap.Int("offset", j-i), zap.Float64("quantity", qty))
			}
		}

		if code != "" && found {
			break
		}
		j++
	}

	// =========================================================================
	// STEP 3: PIECE-LINE FALLBACK
	// =========================================================================

	if !found {
		qty, found = p.pieceFallback(lines, i, windowEnd)
	}

	if !found {
		p.logger.Warn("quantity not found, defaulting to 0",
			zap.String("item_number", number), zap.String("name", name))
	}

	// =========================================================================
	// STEP 4: NAME CLEANUP
	// =========================================================================

	if loc := trailingPairRe.FindStringIndex(name); loc != nil {
		name = strings.TrimSpace(name[:loc[0]])
	}

	return types.ParsedItem{
		ItemNumber: number,
		Name:       name,
		Quantity:   qty,
		Code:       code,
	}, j
}

// matchCode looks for a code on lines[j]. A prefix alone on a line without
// digits takes its digits from the next line, which is then consumed: the
// second return value is the number of extra lines consumed.
func (p *Parser) matchCode(lines []string, j int) (string, int) {
	line := lines[j]

	if code := p.codeRe.FindString(line); code != "" {
		return code, 0
	}

	if strings.Contains(line, p.settings.CodePrefix) && !containsDigitRe.MatchString(line) {
		if j+1 < len(lines) && p.codeDigitsRe.MatchString(lines[j+1]) {
			return p.settings.CodePrefix + lines[j+1], 1
		}
	}

	return "", 0
}

// pieceFallback takes the number on the line before a bare "Piece" or
// "Pieces" line inside the window.
func (p *Parser) pieceFallback(lines []string, i, windowEnd int) (float64, bool) {
	for k := i + 1; k < windowEnd; k++ {
		if !pieceLineRe.MatchString(lines[k]) {
			continue
		}
		// The line before must belong to the item, not be the item line.
		if k-1 < i+1 {
			continue
		}
		num := firstNumberRe.FindString(lines[k-1])
		if num == "" {
			continue
		}
		if v := parseQuantity(num); p.plausible(v) {
			return v, true
		}
	}
	return 0, false
}

// plausible rejects zero, negatives and anything at or above the ceiling,
// which in these documents are identifiers rather than quantities.
func (p *Parser) plausible(v float64) bool {
	return v > 0 && v < p.settings.MaxQuantity
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isItemStart reports whether line opens a new item.
func isItemStart(line string) bool {
	return itemStartRe.MatchString(line)
}

// splitLines returns the trimmed, non-empty lines of text in order.
func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}
	return lines
}
