// Package statement reads bank statement exports and turns them into
// transactions for the importer. Only the Nubank Brasil CSV layout is
// supported; files can live on disk or in a GCS bucket.
package statement

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"cloud.google.com/go/civil"

	"github.com/sampires/financas-bot/internal/domain"
)

const dateLayout = "02/01/2006"

// ParseCSV reads a Nubank Brasil CSV export. The header must contain "Data"
// and "Valor" columns plus a description column (any header starting with
// "descri", accents and casing aside). Rows whose date or value do not parse
// are skipped, matching how the bank pads exports with summary lines. Files
// that are not valid UTF-8 are decoded as Latin-1.
func ParseCSV(r io.Reader) ([]domain.Transaction, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("ParseCSV: reading input: %w", err)
	}
	if !utf8.Valid(raw) {
		raw = decodeLatin1(raw)
	}

	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("ParseCSV: reading header: %w", err)
	}

	dateIdx, valueIdx, descIdx := -1, -1, -1
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(col))
		switch {
		case name == "data":
			dateIdx = i
		case name == "valor":
			valueIdx = i
		case strings.HasPrefix(name, "descri"):
			descIdx = i
		}
	}
	if dateIdx < 0 || valueIdx < 0 {
		return nil, fmt.Errorf("ParseCSV: missing Data or Valor column")
	}
	if descIdx < 0 {
		return nil, fmt.Errorf("ParseCSV: missing description column")
	}

	var txs []domain.Transaction
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ParseCSV: reading row: %w", err)
		}
		if len(row) <= dateIdx || len(row) <= valueIdx || len(row) <= descIdx {
			continue
		}

		amount, err := strconv.ParseFloat(strings.TrimSpace(row[valueIdx]), 64)
		if err != nil {
			continue
		}

		t, err := time.Parse(dateLayout, strings.TrimSpace(row[dateIdx]))
		if err != nil {
			continue
		}

		txs = append(txs, domain.Transaction{
			Date:        civil.DateOf(t),
			Description: strings.TrimSpace(row[descIdx]),
			Amount:      amount,
		})
	}
	return txs, nil
}

// decodeLatin1 maps each byte to the same Unicode code point, which is
// exactly the ISO 8859-1 decoding.
func decodeLatin1(b []byte) []byte {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return []byte(string(runes))
}
