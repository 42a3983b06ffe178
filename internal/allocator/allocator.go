// Package allocator places classified records into the fixed-capacity row
// ranges of the month tab. Sections never grow: once a section's rows are
// used up, the remainder of the batch for that section is dropped.
package allocator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sampires/financas-bot/internal/config"
	"github.com/sampires/financas-bot/internal/domain"
	"github.com/sampires/financas-bot/internal/logger"
)

// ErrSectionFull reports that every row in a section's range is occupied.
var ErrSectionFull = errors.New("section has no free rows")

// Grid is the cell-level view of the month tab. ReadColumn returns exactly
// last-first+1 values, "" for empty cells.
type Grid interface {
	ReadColumn(ctx context.Context, col string, first, last int) ([]string, error)
	WriteRow(ctx context.Context, sec config.Section, row int, rec domain.Classified) error
}

// Allocator finds free rows and writes batches into sections.
type Allocator struct {
	grid Grid
}

// New creates an Allocator over a grid.
func New(grid Grid) *Allocator {
	return &Allocator{grid: grid}
}

// NextFreeRow scans the section's description column top-down and returns the
// first empty row, or ErrSectionFull when the whole range is occupied.
//
// The scan assumes rows are filled contiguously: the first empty cell is
// taken as the insertion point and nothing below it is inspected, so a gap
// left by a manual edit shadows any occupied rows after it.
func (a *Allocator) NextFreeRow(ctx context.Context, sec config.Section) (int, error) {
	values, err := a.grid.ReadColumn(ctx, sec.DescriptionCol, sec.FirstRow, sec.LastRow)
	if err != nil {
		return 0, fmt.Errorf("NextFreeRow: reading %s column %s: %w", sec.Name, sec.DescriptionCol, err)
	}

	for i, v := range values {
		if v == "" {
			return sec.FirstRow + i, nil
		}
	}
	return 0, fmt.Errorf("NextFreeRow: %s: %w", sec.Name, ErrSectionFull)
}

// InsertBatch writes records into the section starting at the next free row
// and returns how many were written. Records past the section's last row are
// dropped without error; a full section drops the whole batch. Write failures
// propagate immediately with earlier rows left in place.
func (a *Allocator) InsertBatch(ctx context.Context, records []domain.Classified, sec config.Section) (int, error) {
	log := logger.FromContext(ctx)

	if len(records) == 0 {
		return 0, nil
	}

	row, err := a.NextFreeRow(ctx, sec)
	if errors.Is(err, ErrSectionFull) {
		log.Warn().
			Str("section", sec.Name).
			Int("dropped", len(records)).
			Msg("Section full, dropping batch")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	written := 0
	for _, rec := range records {
		if row > sec.LastRow {
			break
		}
		if err := a.grid.WriteRow(ctx, sec, row, rec); err != nil {
			return written, fmt.Errorf("InsertBatch: writing %s row %d: %w", sec.Name, row, err)
		}
		row++
		written++
	}

	if dropped := len(records) - written; dropped > 0 {
		log.Warn().
			Str("section", sec.Name).
			Int("written", written).
			Int("dropped", dropped).
			Msg("Section ran out of rows mid-batch")
	}
	return written, nil
}
