package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sampires/financas-bot/internal/domain"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Len(t, cfg.Sections, 3)
	assert.Equal(t, 10, cfg.Sections[0].Capacity(), "Entradas holds ten rows")
	assert.Equal(t, 27, cfg.Sections[2].Capacity(), "Gastos Variáveis holds 27 rows")

	// The first category rule must stay Transporte; rule order is the
	// tie-break for descriptions matching several categories.
	assert.Equal(t, "Transporte", cfg.Rules.Categories[0].Name)
}

func TestSectionFor(t *testing.T) {
	cfg := Default()

	sec, ok := cfg.SectionFor(domain.NatureIncome, false)
	require.True(t, ok)
	assert.Equal(t, "Entradas", sec.Name)

	sec, ok = cfg.SectionFor(domain.NatureExpense, true)
	require.True(t, ok)
	assert.Equal(t, "Gastos Fixos", sec.Name)

	sec, ok = cfg.SectionFor(domain.NatureExpense, false)
	require.True(t, ok)
	assert.Equal(t, "Gastos Variáveis", sec.Name)
}

func TestSectionValidate(t *testing.T) {
	sec := Section{
		Name:           "Entradas",
		FirstRow:       10,
		LastRow:        5,
		DescriptionCol: "B",
		ValueCol:       "C",
		DateCol:        "D",
	}
	assert.Error(t, sec.Validate(), "inverted row range must be rejected")

	sec.LastRow = 19
	assert.NoError(t, sec.Validate())

	sec.DateCol = ""
	assert.Error(t, sec.Validate())
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
sheets:
  spreadsheet_id: test-sheet
  month_tab: FEVEREIRO
history_backend: bigquery
bigquery:
  project_id: my-project
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-sheet", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, "FEVEREIRO", cfg.Sheets.MonthTab)
	assert.Equal(t, HistoryBackendBigQuery, cfg.HistoryBackend)
	// Defaults survive the overlay.
	assert.Equal(t, "Histórico", cfg.Sheets.HistoryTab)
	assert.Len(t, cfg.Sections, 3)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("FINANCAS_SPREADSHEET_ID", "env-sheet")
	t.Setenv("FINANCAS_MONTH_TAB", "MARÇO")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "env-sheet", cfg.Sheets.SpreadsheetID)
	assert.Equal(t, "MARÇO", cfg.Sheets.MonthTab)
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history_backend: redis\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}
