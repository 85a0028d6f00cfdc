// =============================================================================
// PO Item Extractor - Processing Pipeline
// =============================================================================
//
// This module orchestrates the extraction pipeline for a batch of purchase
// orders.
//
// PROCESSING PIPELINE (per document):
//   1. Extract the raw text (fallback chain of PDF strategies)
//   2. Extract the labeled metadata fields
//   3. Parse the line items
//   4. Fold the items into the batch aggregate
//
// CONCURRENCY:
//   Documents are processed one at a time in discovery order. The aggregate
//   belongs to the Batch and is never shared between runs.
//
// ERROR HANDLING:
//   A document whose text cannot be extracted is recorded with
//   Success=false and the batch moves on. Only a missing root folder stops
//   a run.
//
// =============================================================================

package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/ginjaninja78/po-item-extractor/internal/aggregator"
	"github.com/ginjaninja78/po-item-extractor/internal/config"
	"github.com/ginjaninja78/po-item-extractor/internal/itemparser"
	"github.com/ginjaninja78/po-item-extractor/internal/logging"
	"github.com/ginjaninja78/po-item-extractor/internal/metadata"
	"github.com/ginjaninja78/po-item-extractor/internal/types"
	"github.com/ginjaninja78/po-item-extractor/pkg/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrRootNotFound is returned when the folder to scan does not exist.
var ErrRootNotFound = errors.New("root folder not found")

// TextSource produces the raw text of a document. *pdftext.Chain
// implements it.
type TextSource interface {
	Extract(path string) (text string, strategy string, err error)
}

// =============================================================================
// BATCH STRUCTURE
// =============================================================================

// Batch is the outcome of one run.
type Batch struct {
	// RunID identifies the run in logs and summary files.
	RunID string

	// Documents holds one result per input file, in processing order.
	Documents []types.DocumentResult

	// Aggregate holds the items of every successful document.
	Aggregate *aggregator.Aggregate

	StartTime time.Time
	EndTime   time.Time
}

// Successful returns the number of documents with at least one item.
func (b *Batch) Successful() int {
	n := 0
	for _, d := range b.Documents {
		if d.Success {
			n++
		}
	}
	return n
}

// TotalItems returns the number of items parsed across all documents.
func (b *Batch) TotalItems() int {
	n := 0
	for _, d := range b.Documents {
		n += len(d.Items)
	}
	return n
}

// Summary converts the batch into the file manager's summary record.
func (b *Batch) Summary(rootFolder, outputFile string) utils.ProcessingSummary {
	summary := utils.ProcessingSummary{
		RunID:           b.RunID,
		StartTime:       b.StartTime,
		EndTime:         b.EndTime,
		RootFolder:      rootFolder,
		OutputFile:      outputFile,
		TotalFiles:      len(b.Documents),
		SuccessfulFiles: b.Successful(),
		FailedFiles:     len(b.Documents) - b.Successful(),
		TotalItems:      b.TotalItems(),
		UniqueItems:     b.Aggregate.Len(),
		TotalQuantity:   b.Aggregate.TotalQuantity(),
	}

	for _, d := range b.Documents {
		info := utils.DocumentInfo{
			File:      d.Filename,
			Items:     len(d.Items),
			Extractor: d.Extractor,
		}
		switch {
		case d.Err != nil:
			info.Error = d.Err.Error()
		case !d.Success:
			info.Error = "no items found"
		}
		summary.Documents = append(summary.Documents, info)
	}
	return summary
}

// =============================================================================
// PROCESSOR STRUCTURE
// =============================================================================

// Processor runs the per-document pipeline.
type Processor struct {
	source   TextSource
	metadata *metadata.Extractor
	parser   *itemparser.Parser
	policy   string
	logger   *zap.Logger
}

// New creates a Processor.
//
// PARAMETERS:
//   - cfg: The application configuration (parser and aggregation sections).
//   - source: Where document text comes from.
//   - logger: Destination for diagnostics; nil disables logging.
func New(cfg *config.MainConfig, source TextSource, logger *zap.Logger) *Processor {
	logger = logging.OrNop(logger)
	return &Processor{
		source:   source,
		metadata: metadata.NewExtractor(),
		parser:   itemparser.New(cfg.Parser, logger),
		policy:   cfg.Aggregation.DuplicatePolicy,
		logger:   logger,
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTIONS
// =============================================================================

// ProcessFile runs extraction, metadata and item parsing for one document.
// It never fails; problems are reported on the result.
func (p *Processor) ProcessFile(path string) types.DocumentResult {
	result := types.DocumentResult{
		Filename: filepath.Base(path),
		Path:     path,
		Items:    []types.ParsedItem{},
		Metadata: map[string]string{},
	}
	log := p.logger.With(zap.String("file", result.Filename))

	// =========================================================================
	// STEP 1: EXTRACT TEXT
	// =========================================================================

	text, strategy, err := p.source.Extract(path)
	if err != nil {
		result.Err = err
		log.Warn("text extraction failed", zap.Error(err))
		return result
	}
	result.Extractor = strategy
	log.Debug("extracted text", zap.String("strategy", strategy), zap.Int("bytes", len(text)))

	// =========================================================================
	// STEP 2: METADATA
	// =========================================================================

	result.Metadata = p.metadata.Extract(text)

	// =========================================================================
	// STEP 3: LINE ITEMS
	// =========================================================================

	result.Items = p.parser.WithLogger(log).Parse(text)
	result.Success = len(result.Items) > 0

	if !result.Success {
		log.Warn("no items found")
	}
	return result
}

// Run processes paths sequentially and aggregates the results.
//
// PARAMETERS:
//   - paths: The documents, in the order they must be processed.
//   - progress: Called after each document; may be nil.
func (p *Processor) Run(paths []string, progress func(types.DocumentResult)) *Batch {
	batch := &Batch{
		RunID:     uuid.New().String(),
		Documents: make([]types.DocumentResult, 0, len(paths)),
		Aggregate: aggregator.New(p.policy),
		StartTime: time.Now(),
	}
	log := p.logger.With(zap.String("run_id", batch.RunID))
	log.Info("batch started", zap.Int("documents", len(paths)))

	for _, path := range paths {
		doc := p.ProcessFile(path)
		batch.Documents = append(batch.Documents, doc)
		batch.Aggregate.Add(doc)

		if progress != nil {
			progress(doc)
		}
	}

	batch.EndTime = time.Now()
	log.Info("batch finished",
		zap.Int("successful", batch.Successful()),
		zap.Int("unique_items", batch.Aggregate.Len()),
		zap.Duration("elapsed", batch.EndTime.Sub(batch.StartTime)))
	return batch
}

// RunFolder discovers the PDFs in root and runs them as one batch.
//
// RETURNS:
//   - The batch. A folder without PDFs yields an empty batch.
//   - ErrRootNotFound if root is missing or not a directory, or a wrapped
//     read error.
func (p *Processor) RunFolder(root string, progress func(types.DocumentResult)) (*Batch, error) {
	if !utils.DirExists(root) {
		return nil, fmt.Errorf("%w: %s", ErrRootNotFound, root)
	}
	files, err := utils.DiscoverPDFs(root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		p.logger.Warn("no PDF files found", zap.String("root", root))
	}
	return p.Run(files, progress), nil
}
