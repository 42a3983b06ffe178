package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/sampires/financas-bot/internal/config"
	"github.com/sampires/financas-bot/internal/history"
	"github.com/sampires/financas-bot/internal/logger"
	"github.com/sampires/financas-bot/internal/notionsync"
	"github.com/sampires/financas-bot/internal/sheets"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()

	configPath := flag.String("config", "", "Path to the YAML config file (optional)")
	notionToken := flag.String("notion-token", "", "Notion API token (or NOTION_TOKEN)")
	notionDBID := flag.String("notion-db-id", "", "Notion database ID (or NOTION_DB_ID)")
	dryRun := flag.Bool("dry-run", false, "Preview changes without creating pages")
	flag.Parse()

	token := *notionToken
	if token == "" {
		token = os.Getenv("NOTION_TOKEN")
	}
	dbID := *notionDBID
	if dbID == "" {
		dbID = os.Getenv("NOTION_DB_ID")
	}
	if token == "" {
		log.Fatal().Msg("Error: --notion-token is required")
	}
	if dbID == "" {
		log.Fatal().Msg("Error: --notion-db-id is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	var store history.Store
	switch cfg.HistoryBackend {
	case config.HistoryBackendBigQuery:
		bqStore, err := history.NewBigQueryStore(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset, cfg.BigQuery.Table)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open BigQuery history store")
		}
		defer bqStore.Close()
		store = bqStore
	default:
		client, err := sheets.NewClient(ctx, cfg.Sheets)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Google Sheets")
		}
		store = client
	}

	notionClient := notionsync.NewNotionClient(token)

	if err := notionsync.SyncHistory(ctx, store, notionClient, dbID, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("Sync failed")
	}

	fmt.Println("Sync completed successfully.")
}
