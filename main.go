// =============================================================================
// PO Item Extractor - Main Entry Point
// =============================================================================
//
// USAGE:
//   poextract process       - Process all PO PDFs in the root folder
//   poextract serve         - Run the upload server
//   poextract version       - Display the application version
//
// ARCHITECTURE:
//   - cmd/           : CLI command definitions (Cobra)
//   - internal/      : Extraction, parsing, aggregation and reporting
//   - pkg/           : Shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/po-item-extractor/cmd"
)

func main() {
	cmd.Execute()
}
