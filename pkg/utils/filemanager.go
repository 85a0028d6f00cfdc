// =============================================================================
// PO Item Extractor - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a batch run:
//   - PDF discovery in the root folder
//   - Upload staging (private per-request directories)
//   - Processing summary log generation
//
// DISCOVERY RULES:
//   - Only the root folder itself is scanned, never subdirectories
//   - The ".pdf" extension is matched case-insensitively
//   - Files are returned sorted by name, which is the processing order
//
// =============================================================================

package utils

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidFileName is returned for upload names that do not name a file.
var ErrInvalidFileName = errors.New("invalid file name")

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverPDFs lists the PDF files directly inside dir.
//
// PARAMETERS:
//   - dir: The folder to scan.
//
// RETURNS:
//   - The full paths of the PDF files, sorted by file name. Empty when the
//     folder holds no PDF.
//   - An error if the folder cannot be read. A missing folder satisfies
//     errors.Is(err, os.ErrNotExist).
func DiscoverPDFs(dir string) ([]string, error) {
	// os.ReadDir returns entries sorted by file name.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !IsPDFName(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}

	return files, nil
}

// IsPDFName reports whether name has a .pdf extension in any letter case.
func IsPDFName(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".pdf")
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// =============================================================================
// UPLOAD STAGING
// =============================================================================

// NewStagingDir creates a unique directory for one upload batch.
//
// PARAMETERS:
//   - baseDir: The parent directory. If empty, the system temp dir is used.
//
// RETURNS:
//   - The path to the new directory. The caller removes it with CleanupDir.
//   - An error if the directory cannot be created.
func NewStagingDir(baseDir string) (string, error) {
	if baseDir == "" {
		baseDir = os.TempDir()
	}

	dir := filepath.Join(baseDir, "po_upload_"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}
	return dir, nil
}

// SaveUpload writes an uploaded file into dir.
//
// PARAMETERS:
//   - dir: The staging directory.
//   - name: The client-supplied file name. Only its base name is used, so a
//     name like "../../x.pdf" cannot escape dir.
//   - r: The file content.
//
// RETURNS:
//   - The path of the saved file.
//   - An error if the name is unusable or the file cannot be written.
func SaveUpload(dir, name string, r io.Reader) (string, error) {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == ".." || strings.TrimSpace(base) == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}

	path := filepath.Join(dir, base)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", base, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, r); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", base, err)
	}

	return path, file.Sync()
}

// CleanupDir removes a staging directory and everything in it.
func CleanupDir(dir string) error {
	if dir == "" {
		return nil
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("failed to remove %s: %w", dir, err)
	}
	return nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a processing run.
type ProcessingSummary struct {
	RunID           string
	StartTime       time.Time
	EndTime         time.Time
	RootFolder      string
	OutputFile      string
	TotalFiles      int
	SuccessfulFiles int
	FailedFiles     int
	TotalItems      int
	UniqueItems     int
	TotalQuantity   float64
	Documents       []DocumentInfo
}

// DocumentInfo contains the outcome of one document.
type DocumentInfo struct {
	File      string
	Items     int
	Extractor string
	Error     string
}

// WriteSummaryLog writes a processing summary to a log file.
//
// PARAMETERS:
//   - summary: The processing summary.
//   - outputDir: The directory to write the summary file.
//
// RETURNS:
//   - The path to the summary file.
//   - An error if writing fails.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	timestamp := summary.EndTime.Format("20060102_150405")
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("po_summary_%s.txt", timestamp))

	file, err := os.Create(summaryPath)
	if err != nil {
		return "", fmt.Errorf("failed to create summary file: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	duration := summary.EndTime.Sub(summary.StartTime)
	fmt.Fprintf(writer, "PO Item Extractor - Processing Summary\n"+
		"================================================================================\n\n"+
		"Run Information:\n"+
		"  Run ID:         %s\n"+
		"  Start Time:     %s\n"+
		"  End Time:       %s\n"+
		"  Duration:       %s\n"+
		"  Root Folder:    %s\n"+
		"  Output File:    %s\n\n"+
		"Statistics:\n"+
		"  Total Files:        %d\n"+
		"  Successful:         %d\n"+
		"  Failed:             %d\n"+
		"  Items Parsed:       %d\n"+
		"  Unique Items:       %d\n"+
		"  Total Quantity:     %s\n\n",
		summary.RunID,
		summary.StartTime.Format("2006-01-02 15:04:05"),
		summary.EndTime.Format("2006-01-02 15:04:05"),
		duration.String(),
		summary.RootFolder,
		summary.OutputFile,
		summary.TotalFiles,
		summary.SuccessfulFiles,
		summary.FailedFiles,
		summary.TotalItems,
		summary.UniqueItems,
		FormatQuantity(summary.TotalQuantity))

	if len(summary.Documents) > 0 {
		writer.WriteString("Documents:\n")
		writer.WriteString("--------------------------------------------------------------------------------\n")
		for _, doc := range summary.Documents {
			fmt.Fprintf(writer, "  File:      %s\n", doc.File)
			if doc.Error != "" {
				fmt.Fprintf(writer, "  Error:     %s\n\n", doc.Error)
				continue
			}
			fmt.Fprintf(writer, "  Items:     %d\n", doc.Items)
			fmt.Fprintf(writer, "  Extractor: %s\n\n", doc.Extractor)
		}
	}

	writer.WriteString("================================================================================\n" +
		"End of Summary\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush summary file: %w", err)
	}

	return summaryPath, nil
}

// FormatQuantity prints a quantity without trailing zero decimals.
func FormatQuantity(q float64) string {
	s := fmt.Sprintf("%.3f", q)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
