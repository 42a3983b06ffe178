package allocator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sampires/financas-bot/internal/config"
	"github.com/sampires/financas-bot/internal/domain"
)

// fakeGrid simulates one probe column of the month tab.
type fakeGrid struct {
	cells    map[int]string // row -> probe cell value
	writes   []int          // rows written, in order
	writeErr error
}

func (g *fakeGrid) ReadColumn(ctx context.Context, col string, first, last int) ([]string, error) {
	values := make([]string, 0, last-first+1)
	for row := first; row <= last; row++ {
		values = append(values, g.cells[row])
	}
	return values, nil
}

func (g *fakeGrid) WriteRow(ctx context.Context, sec config.Section, row int, rec domain.Classified) error {
	if g.writeErr != nil {
		return g.writeErr
	}
	g.writes = append(g.writes, row)
	g.cells[row] = rec.Description
	return nil
}

func section(first, last int) config.Section {
	return config.Section{
		Name:           "Gastos Variáveis",
		Nature:         domain.NatureExpense,
		FirstRow:       first,
		LastRow:        last,
		DescriptionCol: "B",
		ValueCol:       "C",
		DateCol:        "D",
	}
}

func records(n int) []domain.Classified {
	recs := make([]domain.Classified, n)
	for i := range recs {
		recs[i] = domain.Classified{
			Transaction: domain.Transaction{
				Date:        civil.Date{Year: 2024, Month: 1, Day: 5},
				Description: fmt.Sprintf("COMPRA %d", i),
				Amount:      -10,
			},
		}
	}
	return recs
}

func TestNextFreeRow(t *testing.T) {
	sec := section(1, 5)
	grid := &fakeGrid{cells: map[int]string{1: "a", 2: "b", 3: "c"}}

	row, err := New(grid).NextFreeRow(context.Background(), sec)
	require.NoError(t, err)
	assert.Equal(t, 4, row)
}

func TestNextFreeRowEmptySection(t *testing.T) {
	sec := section(10, 19)
	grid := &fakeGrid{cells: map[int]string{}}

	row, err := New(grid).NextFreeRow(context.Background(), sec)
	require.NoError(t, err)
	assert.Equal(t, 10, row)
}

func TestNextFreeRowExhausted(t *testing.T) {
	sec := section(1, 5)
	grid := &fakeGrid{cells: map[int]string{1: "a", 2: "b", 3: "c", 4: "d", 5: "e"}}

	_, err := New(grid).NextFreeRow(context.Background(), sec)
	assert.ErrorIs(t, err, ErrSectionFull)
}

func TestNextFreeRowIgnoresRowsBelowGap(t *testing.T) {
	// A manually cleared row shadows everything after it; the scan takes
	// the first empty cell at face value.
	sec := section(1, 5)
	grid := &fakeGrid{cells: map[int]string{1: "a", 3: "c"}}

	row, err := New(grid).NextFreeRow(context.Background(), sec)
	require.NoError(t, err)
	assert.Equal(t, 2, row)
}

func TestInsertBatch(t *testing.T) {
	sec := section(1, 5)
	grid := &fakeGrid{cells: map[int]string{1: "a"}}

	written, err := New(grid).InsertBatch(context.Background(), records(3), sec)
	require.NoError(t, err)
	assert.Equal(t, 3, written)
	assert.Equal(t, []int{2, 3, 4}, grid.writes)
}

func TestInsertBatchTruncatesAtLastRow(t *testing.T) {
	sec := section(1, 5)
	grid := &fakeGrid{cells: map[int]string{1: "a", 2: "b", 3: "c"}}

	// Four records, two free rows: the last two are silently dropped.
	written, err := New(grid).InsertBatch(context.Background(), records(4), sec)
	require.NoError(t, err)
	assert.Equal(t, 2, written)
	assert.Equal(t, []int{4, 5}, grid.writes)
}

func TestInsertBatchFullSectionDropsEverything(t *testing.T) {
	sec := section(1, 2)
	grid := &fakeGrid{cells: map[int]string{1: "a", 2: "b"}}

	written, err := New(grid).InsertBatch(context.Background(), records(2), sec)
	require.NoError(t, err, "a full section is not an error")
	assert.Zero(t, written)
	assert.Empty(t, grid.writes)
}

func TestInsertBatchPropagatesWriteErrors(t *testing.T) {
	sec := section(1, 5)
	grid := &fakeGrid{cells: map[int]string{}, writeErr: errors.New("quota exceeded")}

	written, err := New(grid).InsertBatch(context.Background(), records(2), sec)
	require.Error(t, err)
	assert.Zero(t, written)
}

func TestInsertBatchEmpty(t *testing.T) {
	grid := &fakeGrid{cells: map[int]string{}}
	written, err := New(grid).InsertBatch(context.Background(), nil, section(1, 5))
	require.NoError(t, err)
	assert.Zero(t, written)
}
