package sheets

import (
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/sampires/financas-bot/internal/history"
)

// a1Range builds an A1 range like "JANEIRO!B25:B51".
func a1Range(tab, firstCol string, firstRow int, lastCol string, lastRow int) string {
	return tab + "!" + firstCol + strconv.Itoa(firstRow) + ":" + lastCol + strconv.Itoa(lastRow)
}

// padColumn flattens a single-column Values response into exactly n cell
// values, "" where the API omitted trailing or empty cells.
func padColumn(values [][]interface{}, n int) []string {
	out := make([]string, n)
	for i := 0; i < n && i < len(values); i++ {
		if len(values[i]) > 0 {
			out[i] = cellString(values[i][0])
		}
	}
	return out
}

// cellString renders an API cell value as text. Unformatted reads return
// numbers as float64 and empty cells as nil.
func cellString(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

// parseEntryRow turns one history worksheet row back into an Entry. The row
// layout is the fixed header: Hash, Data, Descricao, Valor, Data_Importacao.
func parseEntryRow(row []interface{}) (history.Entry, bool) {
	if len(row) < 4 {
		return history.Entry{}, false
	}

	hash := cellString(row[0])
	if hash == "" {
		return history.Entry{}, false
	}

	date, err := parseDate(cellString(row[1]))
	if err != nil {
		return history.Entry{}, false
	}

	amount, err := parseAmount(row[3])
	if err != nil {
		return history.Entry{}, false
	}

	entry := history.Entry{
		Hash:        hash,
		Date:        date,
		Description: cellString(row[2]),
		Amount:      amount,
	}

	if len(row) >= 5 {
		if ts, err := time.Parse(history.TimestampLayout, cellString(row[4])); err == nil {
			entry.ImportedAt = ts
		}
	}
	return entry, true
}

func parseDate(s string) (civil.Date, error) {
	t, err := time.Parse("02/01/2006", s)
	if err != nil {
		return civil.Date{}, err
	}
	return civil.DateOf(t), nil
}

func parseAmount(v interface{}) (float64, error) {
	if f, ok := v.(float64); ok {
		return f, nil
	}
	s := strings.ReplaceAll(cellString(v), ",", ".")
	return strconv.ParseFloat(s, 64)
}
