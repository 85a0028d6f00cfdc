// =============================================================================
// PO Item Extractor - Aggregator
// =============================================================================
//
// The aggregator folds the items of many documents into one entry per item
// identity. The identity key is the item name with whitespace collapsed,
// suffixed with " (CODE)" when the item carries a secondary code, so the
// same product listed with and without a code stays apart.
//
// The aggregate is owned by the batch that creates it and is not safe for
// concurrent use.
//
// =============================================================================

package aggregator

import (
	"strings"

	"github.com/ginjaninja78/po-item-extractor/internal/config"
	"github.com/ginjaninja78/po-item-extractor/internal/types"
)

// Entry is the combined record of one item across documents.
type Entry struct {
	// Key is the identity the entry is stored under.
	Key string

	// Name is the normalized item name.
	Name string

	// Code is the secondary code; the last document that had one wins.
	Code string

	// TotalQuantity is the sum of every occurrence in every document.
	TotalQuantity float64

	// SourceDocuments lists one filename per occurrence, duplicates included.
	SourceDocuments []string

	// QuantityByDocument holds the quantity recorded for each document.
	QuantityByDocument map[string]float64
}

// Aggregate is the cross-document item map. Entries keep the order in which
// their key was first seen.
type Aggregate struct {
	policy  string
	entries map[string]*Entry
	order   []string
}

// New creates an empty aggregate. An unknown policy behaves as
// config.DuplicateSum.
func New(policy string) *Aggregate {
	if policy != config.DuplicateOverwrite {
		policy = config.DuplicateSum
	}
	return &Aggregate{
		policy:  policy,
		entries: make(map[string]*Entry),
	}
}

// Key returns the identity key of an item.
func Key(item types.ParsedItem) string {
	key := normalizeName(item.Name)
	if item.Code != "" {
		key += " (" + item.Code + ")"
	}
	return key
}

// Add folds the items of a document into the aggregate. Results of failed
// documents are ignored.
func (a *Aggregate) Add(doc types.DocumentResult) {
	if !doc.Success {
		return
	}

	for _, item := range doc.Items {
		key := Key(item)

		entry, ok := a.entries[key]
		if !ok {
			entry = &Entry{
				Key:                key,
				Name:               normalizeName(item.Name),
				QuantityByDocument: make(map[string]float64),
			}
			a.entries[key] = entry
			a.order = append(a.order, key)
		}

		entry.TotalQuantity += item.Quantity
		entry.SourceDocuments = append(entry.SourceDocuments, doc.Filename)

		if a.policy == config.DuplicateOverwrite {
			entry.QuantityByDocument[doc.Filename] = item.Quantity
		} else {
			entry.QuantityByDocument[doc.Filename] += item.Quantity
		}

		if item.Code != "" {
			entry.Code = item.Code
		}
	}
}

// Entries returns the entries in first-seen order.
func (a *Aggregate) Entries() []*Entry {
	out := make([]*Entry, 0, len(a.order))
	for _, key := range a.order {
		out = append(out, a.entries[key])
	}
	return out
}

// Entry returns the entry stored under key.
func (a *Aggregate) Entry(key string) (*Entry, bool) {
	e, ok := a.entries[key]
	return e, ok
}

// Len returns the number of unique items.
func (a *Aggregate) Len() int {
	return len(a.order)
}

// TotalQuantity returns the sum of all entry totals.
func (a *Aggregate) TotalQuantity() float64 {
	var total float64
	for _, e := range a.entries {
		total += e.TotalQuantity
	}
	return total
}

// normalizeName collapses runs of whitespace into single spaces.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
