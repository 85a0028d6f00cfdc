// =============================================================================
// PO Item Extractor - Process Command
// =============================================================================
//
// This file defines the 'process' command, which runs the batch over a
// folder of purchase orders and writes the analysis workbook.
//
// COMMAND USAGE:
//   poextract process [flags]
//
// FLAGS:
//   --folder       : Folder to scan for PDFs (overrides root_folder)
//   --output       : Workbook path (overrides output_file)
//   --summary-log  : Also write a processing summary text file
//
// PROCESSING PIPELINE:
//   1. Discover *.pdf files in the folder (sorted, non-recursive)
//   2. For each file, in order:
//      a. Extract the text (row extractor, then plain-text fallback)
//      b. Extract the PO metadata
//      c. Parse the line items
//      d. Fold the items into the aggregate
//   3. Write the workbook
//   4. Print the final statistics
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/ginjaninja78/po-item-extractor/internal/pdftext"
	"github.com/ginjaninja78/po-item-extractor/internal/pipeline"
	"github.com/ginjaninja78/po-item-extractor/internal/report"
	"github.com/ginjaninja78/po-item-extractor/internal/types"
	"github.com/ginjaninja78/po-item-extractor/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	folderFlag string
	outputFlag string
	summaryLog bool
)

// processCmd represents the 'process' command.
var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Process the purchase order PDFs in a folder",
	Long: `The process command scans the root folder for PDF files, extracts the line
items of each purchase order and writes the combined workbook.

A document whose text cannot be extracted, or which yields no items, is
reported and skipped; the remaining documents are still processed and the
workbook is always written. A missing root folder is an error.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runProcess()
	},
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().StringVar(&folderFlag, "folder", "", "Folder containing the PO PDFs (default from config)")
	processCmd.Flags().StringVar(&outputFlag, "output", "", "Output workbook; relative paths are inside the folder")
	processCmd.Flags().BoolVar(&summaryLog, "summary-log", false, "Write a processing summary next to the workbook")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runProcess() error {
	root := appConfig.RootFolder
	if folderFlag != "" {
		root = folderFlag
	}
	output := appConfig.OutputFile
	if outputFlag != "" {
		output = outputFlag
	}
	if !filepath.IsAbs(output) {
		output = filepath.Join(root, output)
	}

	fmt.Println("=== PO Item Extractor ===")
	fmt.Printf("Folder: %s\n\n", root)

	// =========================================================================
	// STEP 1: RUN THE BATCH
	// =========================================================================

	processor := pipeline.New(appConfig, pdftext.Default(logger), logger)
	batch, err := processor.RunFolder(root, printDocument)
	if err != nil {
		return err
	}
	if len(batch.Documents) == 0 {
		fmt.Println("No PDF files found in the folder.")
	}

	// =========================================================================
	// STEP 2: WRITE THE WORKBOOK
	// =========================================================================

	writer := report.New(appConfig.Report, logger)
	if err := writer.Write(output, batch.Documents, batch.Aggregate); err != nil {
		return err
	}

	if summaryLog {
		path, err := utils.WriteSummaryLog(batch.Summary(root, output), filepath.Dir(output))
		if err != nil {
			logger.Warn("summary log not written", zap.Error(err))
		} else {
			fmt.Printf("Summary log: %s\n", path)
		}
	}

	// =========================================================================
	// STEP 3: PRINT SUMMARY
	// =========================================================================

	fmt.Printf("\n%s\nFINAL STATISTICS\n%s\n", separator, separator)
	fmt.Printf("Successfully processed POs: %d of %d\n", batch.Successful(), len(batch.Documents))
	fmt.Printf("Total unique items:         %d\n", batch.Aggregate.Len())
	fmt.Printf("Total quantity:             %s\n", utils.FormatQuantity(batch.Aggregate.TotalQuantity()))
	fmt.Printf("Output:                     %s\n", output)
	fmt.Printf("Time elapsed:               %s\n", batch.EndTime.Sub(batch.StartTime))

	return nil
}

const separator = "============================================================"

// printDocument prints the per-document progress line.
func printDocument(d types.DocumentResult) {
	switch {
	case d.Success:
		fmt.Printf("  ✓ %s: %d item(s)\n", d.Filename, len(d.Items))
	case d.Err != nil:
		fmt.Printf("  ✗ %s: %v\n", d.Filename, d.Err)
	default:
		fmt.Printf("  ✗ %s: no items found\n", d.Filename)
	}
}
