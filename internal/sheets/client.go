// Package sheets talks to the Google Sheets spreadsheet that holds the
// monthly budget. It exposes the month tab as a cell grid for the allocator
// and the history worksheet as the append-only store behind the dedup ledger.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sampires/financas-bot/internal/config"
	"github.com/sampires/financas-bot/internal/domain"
	"github.com/sampires/financas-bot/internal/history"
)

// maxDescriptionLen caps what gets written into a description cell so long
// bank descriptors do not blow up the layout.
const maxDescriptionLen = 50

// Client wraps the Sheets API for one spreadsheet.
type Client struct {
	svc           *sheets.Service
	spreadsheetID string
	monthTab      string
	historyTab    string
}

// NewClient authenticates with a service-account credentials file and binds
// to the spreadsheet and tabs named in cfg.
func NewClient(ctx context.Context, cfg config.Sheets) (*Client, error) {
	svc, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsFile))
	if err != nil {
		return nil, fmt.Errorf("NewClient: sheets service: %w", err)
	}
	return NewClientWithService(svc, cfg), nil
}

// NewClientWithService wraps an already-built Sheets service.
func NewClientWithService(svc *sheets.Service, cfg config.Sheets) *Client {
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		monthTab:      cfg.MonthTab,
		historyTab:    cfg.HistoryTab,
	}
}

// ReadColumn reads one column of the month tab over [first, last] and returns
// exactly last-first+1 values, "" for empty cells. The API truncates trailing
// empty rows from its response; callers rely on the padding.
func (c *Client) ReadColumn(ctx context.Context, col string, first, last int) ([]string, error) {
	rng := a1Range(c.monthTab, col, first, col, last)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("UNFORMATTED_VALUE").
		Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("ReadColumn: reading %s: %w", rng, err)
	}
	return padColumn(resp.Values, last-first+1), nil
}

// WriteRow writes one classified record into the section's configured columns
// at the given row, in a single batch update.
func (c *Client) WriteRow(ctx context.Context, sec config.Section, row int, rec domain.Classified) error {
	cells := []struct {
		col   string
		value interface{}
	}{
		{sec.DescriptionCol, truncate(rec.Description, maxDescriptionLen)},
		{sec.ValueCol, rec.Amount},
		{sec.DateCol, domain.FormatDate(rec.Date)},
	}
	if sec.CategoryCol != "" {
		cells = append(cells, struct {
			col   string
			value interface{}
		}{sec.CategoryCol, rec.Category})
	}
	if sec.PaymentCol != "" {
		cells = append(cells, struct {
			col   string
			value interface{}
		}{sec.PaymentCol, string(rec.Payment)})
	}
	if sec.CheckboxCol != "" {
		cells = append(cells, struct {
			col   string
			value interface{}
		}{sec.CheckboxCol, false})
	}

	data := make([]*sheets.ValueRange, 0, len(cells))
	for _, cell := range cells {
		data = append(data, &sheets.ValueRange{
			Range:  fmt.Sprintf("%s!%s%d", c.monthTab, cell.col, row),
			Values: [][]interface{}{{cell.value}},
		})
	}

	req := &sheets.BatchUpdateValuesRequest{
		ValueInputOption: "USER_ENTERED",
		Data:             data,
	}
	if _, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("WriteRow: updating %s row %d: %w", sec.Name, row, err)
	}
	return nil
}

// Hashes implements history.Store over the history worksheet. A worksheet
// that does not exist yet is created with the header row and treated as
// empty; any other failure propagates.
func (c *Client) Hashes(ctx context.Context) (map[string]struct{}, error) {
	rng := fmt.Sprintf("%s!A2:A", c.historyTab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		if isMissingSheet(err) {
			if err := c.createHistoryTab(ctx); err != nil {
				return nil, err
			}
			return map[string]struct{}{}, nil
		}
		return nil, fmt.Errorf("Hashes: reading %s: %w", rng, err)
	}

	hashes := make(map[string]struct{})
	for _, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if h := cellString(row[0]); h != "" {
			hashes[h] = struct{}{}
		}
	}
	return hashes, nil
}

// Append adds history entries below the last occupied row.
func (c *Client) Append(ctx context.Context, entries []history.Entry) error {
	rows := make([][]interface{}, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []interface{}{
			e.Hash,
			domain.FormatDate(e.Date),
			e.Description,
			e.Amount,
			e.ImportedAt.Format(history.TimestampLayout),
		})
	}

	err := c.appendRows(ctx, rows)
	if isMissingSheet(err) {
		if err := c.createHistoryTab(ctx); err != nil {
			return err
		}
		err = c.appendRows(ctx, rows)
	}
	if err != nil {
		return fmt.Errorf("Append: %w", err)
	}
	return nil
}

func (c *Client) appendRows(ctx context.Context, rows [][]interface{}) error {
	req := &sheets.ValueRange{Values: rows}
	_, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, fmt.Sprintf("%s!A1", c.historyTab), req).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	return err
}

// Entries reads the whole history worksheet, oldest first. Rows that do not
// parse are skipped, matching how the hash set treats blank cells.
func (c *Client) Entries(ctx context.Context) ([]history.Entry, error) {
	rng := fmt.Sprintf("%s!A2:E", c.historyTab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		if isMissingSheet(err) {
			if err := c.createHistoryTab(ctx); err != nil {
				return nil, err
			}
			return nil, nil
		}
		return nil, fmt.Errorf("Entries: reading %s: %w", rng, err)
	}

	var entries []history.Entry
	for _, row := range resp.Values {
		entry, ok := parseEntryRow(row)
		if ok {
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// createHistoryTab adds the history worksheet with its fixed header.
func (c *Client) createHistoryTab(ctx context.Context) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{
					Title: c.historyTab,
					GridProperties: &sheets.GridProperties{
						RowCount:    1000,
						ColumnCount: 10,
					},
				},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("createHistoryTab: adding worksheet %s: %w", c.historyTab, err)
	}

	header := make([]interface{}, len(history.Header))
	for i, h := range history.Header {
		header[i] = h
	}
	vr := &sheets.ValueRange{Values: [][]interface{}{header}}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, fmt.Sprintf("%s!A1:E1", c.historyTab), vr).
		ValueInputOption("RAW").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("createHistoryTab: writing header: %w", err)
	}
	return nil
}

// isMissingSheet recognizes the error the API returns when a range names a
// worksheet that does not exist.
func isMissingSheet(err error) bool {
	if err == nil {
		return false
	}
	var gerr *googleapi.Error
	if !errors.As(err, &gerr) {
		return false
	}
	return gerr.Code == 400 && strings.Contains(gerr.Message, "Unable to parse range")
}
