// Package importer runs the import pipeline for one batch of statement
// lines: hash, deduplicate against the history ledger, classify, partition
// into the spreadsheet sections, place rows, and record the batch in the
// ledger. One run processes one batch to completion; nothing here is safe
// for concurrent runs against the same spreadsheet (single-writer assumed).
package importer

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sampires/financas-bot/internal/allocator"
	"github.com/sampires/financas-bot/internal/classify"
	"github.com/sampires/financas-bot/internal/config"
	"github.com/sampires/financas-bot/internal/domain"
	"github.com/sampires/financas-bot/internal/history"
	"github.com/sampires/financas-bot/internal/logger"
)

// Suggester proposes a category for a description the rule engine could not
// place. Suggestions are advisory: they are logged, never acted on.
type Suggester interface {
	SuggestCategory(ctx context.Context, description string) (string, error)
}

// Importer wires the pipeline's collaborators together.
type Importer struct {
	cfg    config.Config
	ledger *history.Ledger
	alloc  *allocator.Allocator

	// Suggest, when set, is consulted for records that fell back to the
	// default category.
	Suggest Suggester
}

// New creates an Importer.
func New(cfg config.Config, ledger *history.Ledger, alloc *allocator.Allocator) *Importer {
	return &Importer{cfg: cfg, ledger: ledger, alloc: alloc}
}

// Result summarizes one import run.
type Result struct {
	RunID      string
	Total      int
	Duplicates int
	New        int
	Written    map[string]int // section name -> rows written
	Dropped    map[string]int // section name -> records dropped for capacity
	Recorded   int
}

// Run imports one batch. The stages run strictly in order and a failure
// anywhere aborts the batch with everything already written left in place;
// there is no rollback.
//
// Records that survive deduplication are recorded in the history ledger even
// when their section ran out of rows and the row write was dropped. A record
// dropped that way will never be imported again; the warning log is the only
// trace of it.
func (im *Importer) Run(ctx context.Context, txs []domain.Transaction) (*Result, error) {
	runID := uuid.NewString()
	log := logger.FromContext(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx, log)

	result := &Result{
		RunID:   runID,
		Total:   len(txs),
		Written: make(map[string]int),
		Dropped: make(map[string]int),
	}

	log.Info().Int("records", len(txs)).Msg("Starting import")

	// Stage 1: hash every incoming record.
	hashed := make([]domain.Classified, 0, len(txs))
	for _, tx := range txs {
		hashed = append(hashed, domain.Classified{Transaction: tx, Hash: tx.ContentHash()})
	}

	// Stage 2: drop everything the ledger has seen before.
	existing, err := im.ledger.Existing(ctx)
	if err != nil {
		return nil, fmt.Errorf("Run: loading import history: %w", err)
	}

	fresh := hashed[:0:0]
	for _, rec := range hashed {
		if _, seen := existing[rec.Hash]; seen {
			result.Duplicates++
			continue
		}
		fresh = append(fresh, rec)
	}
	result.New = len(fresh)

	if len(fresh) == 0 {
		log.Info().Int("duplicates", result.Duplicates).Msg("No new transactions")
		return result, nil
	}
	log.Info().
		Int("new", result.New).
		Int("duplicates", result.Duplicates).
		Msg("Deduplication done")

	// Stage 3: classify.
	for i := range fresh {
		category, nature, fixed := classify.Classify(im.cfg.Rules, fresh[i].Description, fresh[i].Amount)
		fresh[i].Category = category
		fresh[i].Nature = nature
		fresh[i].Fixed = fixed
		fresh[i].Payment = classify.PaymentMethod(fresh[i].Description)
	}
	im.logSuggestions(ctx, fresh)

	// Stage 4: partition by (nature, fixed) into the configured sections,
	// preserving input order within each section.
	partitions := make(map[string][]domain.Classified)
	for _, rec := range fresh {
		sec, ok := im.cfg.SectionFor(rec.Nature, rec.Fixed)
		if !ok {
			log.Warn().
				Str("hash", rec.Hash).
				Str("nature", string(rec.Nature)).
				Bool("fixed", rec.Fixed).
				Msg("No section configured for record")
			continue
		}
		partitions[sec.Name] = append(partitions[sec.Name], rec)
	}

	// Stage 5: place each non-empty partition.
	for _, sec := range im.cfg.Sections {
		batch := partitions[sec.Name]
		if len(batch) == 0 {
			continue
		}
		written, err := im.alloc.InsertBatch(ctx, batch, sec)
		if err != nil {
			return nil, fmt.Errorf("Run: inserting into %s: %w", sec.Name, err)
		}
		result.Written[sec.Name] = written
		if dropped := len(batch) - written; dropped > 0 {
			result.Dropped[sec.Name] = dropped
		}
	}

	// Stage 6: record every record that passed deduplication, including
	// the ones dropped for capacity above.
	if err := im.ledger.Record(ctx, fresh); err != nil {
		return nil, fmt.Errorf("Run: recording history: %w", err)
	}
	result.Recorded = len(fresh)

	log.Info().
		Int("new", result.New).
		Interface("written", result.Written).
		Interface("dropped", result.Dropped).
		Msg("Import finished")
	return result, nil
}

// logSuggestions asks the optional suggester about fallback-classified
// records. Failures are logged and ignored; suggestions never change where a
// record is placed.
func (im *Importer) logSuggestions(ctx context.Context, records []domain.Classified) {
	if im.Suggest == nil {
		return
	}
	log := logger.FromContext(ctx)

	for _, rec := range records {
		if rec.Category != classify.FallbackCategory {
			continue
		}
		suggestion, err := im.Suggest.SuggestCategory(ctx, rec.Description)
		if err != nil {
			log.Warn().Err(err).Str("description", rec.Description).Msg("Category suggestion failed")
			continue
		}
		if suggestion != "" {
			log.Info().
				Str("description", rec.Description).
				Str("suggestion", suggestion).
				Msg("Category suggestion for unmatched record")
		}
	}
}
