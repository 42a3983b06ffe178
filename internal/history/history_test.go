package history

import (
	"context"
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sampires/financas-bot/internal/domain"
)

// fakeStore is an in-memory Store for ledger tests.
type fakeStore struct {
	entries []Entry
	readErr error
}

func (f *fakeStore) Hashes(ctx context.Context) (map[string]struct{}, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	hashes := make(map[string]struct{})
	for _, e := range f.entries {
		hashes[e.Hash] = struct{}{}
	}
	return hashes, nil
}

func (f *fakeStore) Append(ctx context.Context, entries []Entry) error {
	f.entries = append(f.entries, entries...)
	return nil
}

func (f *fakeStore) Entries(ctx context.Context) ([]Entry, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.entries, nil
}

func classified(desc string, amount float64) domain.Classified {
	tx := domain.Transaction{
		Date:        civil.Date{Year: 2024, Month: 1, Day: 5},
		Description: desc,
		Amount:      amount,
	}
	return domain.Classified{Transaction: tx, Hash: tx.ContentHash()}
}

func TestLedgerRecordAndExisting(t *testing.T) {
	store := &fakeStore{}
	now := time.Date(2024, 2, 1, 10, 30, 0, 0, time.UTC)
	ledger := NewLedgerWithClock(store, func() time.Time { return now })
	ctx := context.Background()

	existing, err := ledger.Existing(ctx)
	require.NoError(t, err)
	assert.Empty(t, existing)

	recs := []domain.Classified{
		classified("UBER *TRIP", -23.5),
		classified("IFOOD", -35.9),
	}
	require.NoError(t, ledger.Record(ctx, recs))

	existing, err = ledger.Existing(ctx)
	require.NoError(t, err)
	require.Len(t, existing, 2)
	_, ok := existing[recs[0].Hash]
	assert.True(t, ok)

	// Every appended entry carries the same import timestamp.
	for _, e := range store.entries {
		assert.Equal(t, now, e.ImportedAt)
	}
}

func TestLedgerRecordNothing(t *testing.T) {
	store := &fakeStore{}
	ledger := NewLedger(store)

	require.NoError(t, ledger.Record(context.Background(), nil))
	assert.Empty(t, store.entries)
}

func TestLedgerExistingPropagatesReadErrors(t *testing.T) {
	// An unreadable history table must abort the batch, never pretend the
	// set is empty.
	readErr := errors.New("permission denied")
	ledger := NewLedger(&fakeStore{readErr: readErr})

	_, err := ledger.Existing(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
}
