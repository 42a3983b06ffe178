package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sampires/financas-bot/internal/allocator"
	"github.com/sampires/financas-bot/internal/config"
	"github.com/sampires/financas-bot/internal/domain"
	"github.com/sampires/financas-bot/internal/history"
	"github.com/sampires/financas-bot/internal/importer"
	"github.com/sampires/financas-bot/internal/logger"
	"github.com/sampires/financas-bot/internal/sheets"
	"github.com/sampires/financas-bot/internal/statement"
	"github.com/sampires/financas-bot/internal/suggest"
)

func main() {
	// .env carries the spreadsheet ID and API keys during development.
	_ = godotenv.Load()

	log := logger.New()

	configPath := flag.String("config", "", "Path to the YAML config file (optional)")
	month := flag.String("month", "", "Month tab to import into (overrides config)")
	statementsDir := flag.String("statements", "", "Directory with statement CSVs (overrides config)")
	gcsURIs := flag.String("gcs-uri", "", "Comma-separated gs:// URIs of statement CSVs")
	suggestFlag := flag.Bool("suggest", false, "Ask Gemini for category suggestions on unmatched records")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if *month != "" {
		cfg.Sheets.MonthTab = *month
	}
	if *statementsDir != "" {
		cfg.Statements.Dir = *statementsDir
	}
	if cfg.Sheets.SpreadsheetID == "" {
		log.Fatal().Msg("Error: spreadsheet ID is required (config or FINANCAS_SPREADSHEET_ID)")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	log.Info().
		Str("month_tab", cfg.Sheets.MonthTab).
		Str("history_backend", cfg.HistoryBackend).
		Msg("Starting import run")

	client, err := sheets.NewClient(ctx, cfg.Sheets)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Google Sheets")
	}

	var store history.Store = client
	if cfg.HistoryBackend == config.HistoryBackendBigQuery {
		bqStore, err := history.NewBigQueryStore(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.Table)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open BigQuery history store")
		}
		defer bqStore.Close()
		store = bqStore
	}

	im := importer.New(cfg, history.NewLedger(store), allocator.New(client))
	if *suggestFlag {
		im.Suggest = suggest.NewGemini(cfg.GeminiModel, cfg.Rules)
	}

	txs, processedFiles := collectTransactions(ctx, cfg, *gcsURIs)
	if len(txs) == 0 {
		log.Warn().Msg("No statement transactions found")
		return
	}

	result, err := im.Run(ctx, txs)
	if err != nil {
		log.Fatal().Err(err).Msg("Import failed")
	}

	for _, path := range processedFiles {
		if err := statement.MarkProcessed(path, cfg.Statements.ProcessedDir); err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Failed to move processed statement")
		}
	}

	fmt.Printf("Import completed: %d new, %d duplicates.\n", result.New, result.Duplicates)
}

// collectTransactions gathers statement lines from the local statements
// folder and any gs:// URIs. A file that fails to parse is skipped with a
// warning; local files that parsed are returned for the processed-folder
// move after a successful import.
func collectTransactions(ctx context.Context, cfg config.Config, gcsList string) ([]domain.Transaction, []string) {
	log := logger.FromContext(ctx)

	var txs []domain.Transaction
	var processed []string

	files, err := statement.ScanDir(cfg.Statements.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to scan statements directory")
	}
	for _, path := range files {
		parsed, err := parseFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", path).Msg("Skipping unreadable statement")
			continue
		}
		log.Info().Str("file", path).Int("records", len(parsed)).Msg("Parsed statement")
		txs = append(txs, parsed...)
		processed = append(processed, path)
	}

	for _, uri := range splitList(gcsList) {
		data, err := statement.FetchGCS(ctx, uri)
		if err != nil {
			log.Warn().Err(err).Str("uri", uri).Msg("Skipping unreachable statement")
			continue
		}
		parsed, err := statement.ParseCSV(bytes.NewReader(data))
		if err != nil {
			log.Warn().Err(err).Str("uri", uri).Msg("Skipping unreadable statement")
			continue
		}
		log.Info().Str("uri", uri).Int("records", len(parsed)).Msg("Parsed statement")
		txs = append(txs, parsed...)
	}

	return txs, processed
}

func parseFile(path string) ([]domain.Transaction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return statement.ParseCSV(f)
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := parts[:0]
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
