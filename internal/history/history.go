// Package history is the append-only record of every transaction ever
// imported, keyed by content hash. Its hash set is the single source of truth
// for "already imported" and is what makes imports at-most-once across runs.
package history

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/civil"

	"github.com/sampires/financas-bot/internal/domain"
)

// Entry is one durable row of the history table. Entries are written once and
// never mutated or deleted.
type Entry struct {
	Hash        string
	Date        civil.Date
	Description string
	Amount      float64
	ImportedAt  time.Time
}

// Store is the table the ledger appends to. Implementations create the table
// lazily on first use; any other read failure must propagate, never degrade
// to an empty set, or deduplication silently stops working.
type Store interface {
	// Hashes returns the hash of every entry ever appended.
	Hashes(ctx context.Context) (map[string]struct{}, error)

	// Append adds entries to the end of the table. It never overwrites.
	Append(ctx context.Context, entries []Entry) error

	// Entries returns all entries, oldest first.
	Entries(ctx context.Context) ([]Entry, error)
}

// Ledger wraps a Store with the import-time bookkeeping.
type Ledger struct {
	store Store
	now   func() time.Time
}

// NewLedger creates a Ledger over the given store.
func NewLedger(store Store) *Ledger {
	return &Ledger{store: store, now: time.Now}
}

// NewLedgerWithClock is NewLedger with an injected clock, for tests.
func NewLedgerWithClock(store Store, now func() time.Time) *Ledger {
	return &Ledger{store: store, now: now}
}

// Existing returns the full historical hash set. Called once per batch.
func (l *Ledger) Existing(ctx context.Context) (map[string]struct{}, error) {
	hashes, err := l.store.Hashes(ctx)
	if err != nil {
		return nil, fmt.Errorf("Existing: %w", err)
	}
	return hashes, nil
}

// Record appends one entry per classified record, all stamped with the same
// import time.
func (l *Ledger) Record(ctx context.Context, records []domain.Classified) error {
	if len(records) == 0 {
		return nil
	}

	importedAt := l.now()
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, Entry{
			Hash:        rec.Hash,
			Date:        rec.Date,
			Description: rec.Description,
			Amount:      rec.Amount,
			ImportedAt:  importedAt,
		})
	}

	if err := l.store.Append(ctx, entries); err != nil {
		return fmt.Errorf("Record: %w", err)
	}
	return nil
}

// Header is the fixed column schema of the history table.
var Header = []string{"Hash", "Data", "Descricao", "Valor", "Data_Importacao"}

// TimestampLayout is how ImportedAt is rendered in tabular backends.
const TimestampLayout = "02/01/2006 15:04:05"
