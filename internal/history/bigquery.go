package history

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
)

// entryRow is the BigQuery row schema for the history table.
type entryRow struct {
	Hash        string      `bigquery:"hash"`
	Date        civil.Date  `bigquery:"transaction_date"`
	Description string      `bigquery:"description"`
	Amount      float64     `bigquery:"amount"`
	ImportedTS  time.Time   `bigquery:"imported_ts"`
}

var entrySchema = bigquery.Schema{
	{Name: "hash", Type: bigquery.StringFieldType, Required: true},
	{Name: "transaction_date", Type: bigquery.DateFieldType},
	{Name: "description", Type: bigquery.StringFieldType},
	{Name: "amount", Type: bigquery.FloatFieldType},
	{Name: "imported_ts", Type: bigquery.TimestampFieldType},
}

// BigQueryStore keeps the import history in a BigQuery table instead of a
// worksheet. Useful when the history outgrows what a spreadsheet tab can hold.
type BigQueryStore struct {
	client  *bigquery.Client
	dataset string
	table   string
}

// NewBigQueryStore opens a BigQuery-backed history store.
func NewBigQueryStore(ctx context.Context, projectID, dataset, table string) (*BigQueryStore, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryStore: bigquery client: %w", err)
	}
	return NewBigQueryStoreWithClient(client, dataset, table), nil
}

// NewBigQueryStoreWithClient wraps an existing BigQuery client.
func NewBigQueryStoreWithClient(client *bigquery.Client, dataset, table string) *BigQueryStore {
	return &BigQueryStore{client: client, dataset: dataset, table: table}
}

// Close releases the underlying client.
func (s *BigQueryStore) Close() error {
	return s.client.Close()
}

// Hashes returns every hash ever appended. A missing table is created empty;
// every other failure propagates.
func (s *BigQueryStore) Hashes(ctx context.Context) (map[string]struct{}, error) {
	q := s.client.Query(fmt.Sprintf("SELECT hash FROM `%s.%s`", s.dataset, s.table))

	it, err := q.Read(ctx)
	if err != nil {
		if isTableNotFound(err) {
			if err := s.createTable(ctx); err != nil {
				return nil, err
			}
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("Hashes: querying history table: %w", err)
	}

	hashes := make(map[string]struct{})
	for {
		var row struct {
			Hash string `bigquery:"hash"`
		}
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Hashes: iterating rows: %w", err)
		}
		hashes[row.Hash] = struct{}{}
	}
	return hashes, nil
}

// Append streams entries into the history table.
func (s *BigQueryStore) Append(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	rows := make([]*entryRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, &entryRow{
			Hash:        e.Hash,
			Date:        e.Date,
			Description: e.Description,
			Amount:      e.Amount,
			ImportedTS:  e.ImportedAt,
		})
	}

	inserter := s.client.Dataset(s.dataset).Table(s.table).Inserter()
	if err := inserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("Append: inserting rows: %w", err)
	}
	return nil
}

// Entries returns all history entries, oldest first.
func (s *BigQueryStore) Entries(ctx context.Context) ([]Entry, error) {
	q := s.client.Query(fmt.Sprintf(
		"SELECT hash, transaction_date, description, amount, imported_ts FROM `%s.%s` ORDER BY imported_ts",
		s.dataset, s.table,
	))

	it, err := q.Read(ctx)
	if err != nil {
		if isTableNotFound(err) {
			if err := s.createTable(ctx); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, fmt.Errorf("Entries: querying history table: %w", err)
	}

	var entries []Entry
	for {
		var row entryRow
		err := it.Next(&row)
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("Entries: iterating rows: %w", err)
		}
		entries = append(entries, Entry{
			Hash:        row.Hash,
			Date:        row.Date,
			Description: row.Description,
			Amount:      row.Amount,
			ImportedAt:  row.ImportedTS,
		})
	}
	return entries, nil
}

func (s *BigQueryStore) createTable(ctx context.Context) error {
	table := s.client.Dataset(s.dataset).Table(s.table)
	err := table.Create(ctx, &bigquery.TableMetadata{Schema: entrySchema})
	if err != nil && !isAlreadyExists(err) {
		return fmt.Errorf("createTable: creating %s.%s: %w", s.dataset, s.table, err)
	}
	return nil
}

func isTableNotFound(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 404
}

func isAlreadyExists(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == 409
}
