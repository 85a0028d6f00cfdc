// Package metadata pulls the labeled header fields of a purchase order
// (reference number, vendor location, date, total) out of free text.
package metadata

import (
	"regexp"
	"strings"

	"github.com/ginjaninja78/po-item-extractor/internal/types"
)

// fieldRule finds one metadata key. pattern is searched in the whole text
// and its first group is the value; when refine is set, the value is
// searched again with refine and its first group replaces it.
type fieldRule struct {
	key     string
	pattern *regexp.Regexp
	refine  *regexp.Regexp
}

// fieldRules are evaluated independently; a rule that does not match simply
// leaves its key out.
var fieldRules = []fieldRule{
	{
		key:     types.MetaReferenceNumber,
		pattern: regexp.MustCompile(`Document Ref:\s*(\d+)`),
	},
	{
		// The location code sits on the line after the "Vendor" label.
		key:     types.MetaLocation,
		pattern: regexp.MustCompile(`(?i)Vendor[^\n]*\n([^\n]*)`),
		refine:  regexp.MustCompile(`([A-Z]{2,3}\s*-\s*[A-Z]+(?:\s*-\s*[A-Z]+)*)`),
	},
	{
		key:     types.MetaDate,
		pattern: regexp.MustCompile(`PO Date:\s*(\d{2}\.\d{2}\.\d{4})`),
	},
	{
		key:     types.MetaTotalAmount,
		pattern: regexp.MustCompile(`Total Including Sales Tax\s*(\d[\d,]*(?:\.\d*)?)`),
	},
}

// Extractor applies the field rules.
type Extractor struct {
	rules []fieldRule
}

// NewExtractor creates an Extractor with the purchase order field rules.
func NewExtractor() *Extractor {
	return &Extractor{rules: fieldRules}
}

// Extract returns the fields found in text. It never fails; a document
// without any labeled field yields an empty map.
func (e *Extractor) Extract(text string) map[string]string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	found := make(map[string]string, len(e.rules))

	for _, rule := range e.rules {
		if value, ok := rule.apply(text); ok {
			found[rule.key] = value
		}
	}
	return found
}

func (r fieldRule) apply(text string) (string, bool) {
	m := r.pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	value := strings.TrimSpace(m[1])

	if r.refine != nil {
		rm := r.refine.FindStringSubmatch(value)
		if rm == nil {
			return "", false
		}
		value = strings.TrimSpace(rm[1])
	}

	if value == "" {
		return "", false
	}
	return value, true
}
