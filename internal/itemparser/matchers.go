package itemparser

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// numberPattern is a number with optional thousands separators and decimals.
const numberPattern = `\d[\d,]*(?:\.\d+)?`

// quantityMatch is a candidate quantity found on a line.
type quantityMatch struct {
	value float64

	// start is the byte offset of the match; item names are cut here.
	start int
}

// quantityMatcher is one named quantity strategy. Strategies are tried in
// slice order and the first one that matches (and is accepted) wins.
type quantityMatcher struct {
	name  string
	match func(line string) (quantityMatch, bool)
}

// firstMatch applies matchers in order. accept filters candidates; a nil
// accept takes any match.
func firstMatch(matchers []quantityMatcher, line string, accept func(float64) bool) (quantityMatch, string, bool) {
	for _, m := range matchers {
		qm, ok := m.match(line)
		if !ok {
			continue
		}
		if accept != nil && !accept(qm.value) {
			continue
		}
		return qm, m.name, true
	}
	return quantityMatch{}, "", false
}

// =============================================================================
// STRATEGIES
// =============================================================================

// fixedDecimalMatcher finds the canonical quantity column: a number with
// exactly `decimals` decimal digits, e.g. 36.000.
func fixedDecimalMatcher(decimals int) quantityMatcher {
	re := regexp.MustCompile(fmt.Sprintf(`(\d[\d,]*\.\d{%d})(?:\D|$)`, decimals))
	return quantityMatcher{
		name:  "fixed-decimal",
		match: submatchAt(re),
	}
}

// unitOfMeasureMatcher finds a number immediately followed by a unit token
// such as "Pcs" (case-insensitive).
func unitOfMeasureMatcher(tokens []string) quantityMatcher {
	alt := unitAlternation(tokens)
	if alt == "" {
		return quantityMatcher{
			name:  "unit-of-measure",
			match: func(string) (quantityMatch, bool) { return quantityMatch{}, false },
		}
	}
	re := regexp.MustCompile(`(?i)(` + numberPattern + `)\s*(?:` + alt + `)`)
	return quantityMatcher{
		name:  "unit-of-measure",
		match: submatchAt(re),
	}
}

// standaloneMatcher accepts a line that is a single number and nothing else.
func standaloneMatcher() quantityMatcher {
	re := regexp.MustCompile(`^(` + numberPattern + `)$`)
	return quantityMatcher{
		name:  "standalone",
		match: submatchAt(re),
	}
}

// labeledMatcher finds a number after a "Qty" or "Quantity" label.
func labeledMatcher() quantityMatcher {
	re := regexp.MustCompile(`(?i)(?:Qty|Quantity)[^\d\r\n]*(` + numberPattern + `)`)
	return quantityMatcher{
		name:  "labeled",
		match: submatchAt(re),
	}
}

// submatchAt adapts a regexp whose first group is the number.
func submatchAt(re *regexp.Regexp) func(string) (quantityMatch, bool) {
	return func(line string) (quantityMatch, bool) {
		loc := re.FindStringSubmatchIndex(line)
		if loc == nil || loc[2] < 0 {
			return quantityMatch{}, false
		}
		return quantityMatch{
			value: parseQuantity(line[loc[2]:loc[3]]),
			start: loc[2],
		}, true
	}
}

// unitAlternation builds "Pieces\b|Piece\b|..." longest first, so "Pieces"
// is never read as "Piece" followed by noise.
func unitAlternation(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	parts := make([]string, 0, len(sorted))
	for _, tok := range sorted {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		part := regexp.QuoteMeta(tok)
		// \b only sees ASCII word characters.
		if last, _ := utf8.DecodeLastRuneInString(tok); last < utf8.RuneSelf && (unicode.IsLetter(last) || unicode.IsDigit(last) || last == '_') {
			part += `\b`
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "|")
}

// parseQuantity parses a number after dropping thousands separators.
// Anything unparsable is 0, which every range check rejects.
func parseQuantity(s string) float64 {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", ""), 64)
	if err != nil {
		return 0
	}
	return v
}
