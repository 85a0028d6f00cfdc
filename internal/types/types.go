// =============================================================================
// PO Item Extractor - Shared Types
// =============================================================================
//
// This package contains the types shared by the extraction pipeline to avoid
// import cycles. Types defined here are used by:
//   - itemparser  (produces ParsedItem)
//   - metadata    (produces the metadata keys)
//   - pipeline    (produces DocumentResult)
//   - aggregator  (consumes DocumentResult)
//   - report      (consumes DocumentResult)
//
// =============================================================================

package types

// =============================================================================
// METADATA KEYS
// =============================================================================

// Keys of the per-document metadata map. A key is present only when its
// labeled pattern was found in the document text.
const (
	MetaReferenceNumber = "reference_number"
	MetaLocation        = "location"
	MetaDate            = "date"
	MetaTotalAmount     = "total_amount"
)

// =============================================================================
// ITEM TYPES
// =============================================================================

// ParsedItem is a single line item recovered from a purchase order.
// It is created once per item-start line and never modified afterwards.
type ParsedItem struct {
	// ItemNumber is the 3-5 digit number that opened the item line.
	ItemNumber string

	// Name is the item description with quantity and column residue removed.
	Name string

	// Quantity is the recovered quantity, 0 when none could be found.
	Quantity float64

	// Code is the secondary DIY code (e.g. "DIY28045"), empty when absent.
	Code string
}

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// DocumentResult is the outcome of processing a single PDF.
type DocumentResult struct {
	// Filename is the base name of the document. It identifies the document
	// in the aggregate and in the report columns.
	Filename string

	// Path is the full path the document was read from.
	Path string

	// Success is true iff at least one item was parsed.
	Success bool

	// Items holds the parsed items in document order.
	Items []ParsedItem

	// Metadata holds the labeled fields found in the text (see Meta* keys).
	Metadata map[string]string

	// Extractor names the text extraction strategy that produced the text.
	Extractor string

	// Err is the extraction diagnostic when no text could be obtained.
	Err error
}

// Meta returns a metadata value, or "" when the key is absent.
func (d DocumentResult) Meta(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
