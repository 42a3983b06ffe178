package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"

	"github.com/sampires/financas-bot/internal/history"
	"github.com/sampires/financas-bot/internal/logger"
)

// SyncHistory pushes every history entry whose hash is not yet in the Notion
// database. The history is append-only, so the sync never updates or deletes
// pages. With dryRun set it only logs what it would create.
func SyncHistory(ctx context.Context, store history.Store, client NotionService, databaseID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	entries, err := store.Entries(ctx)
	if err != nil {
		return fmt.Errorf("SyncHistory: loading history: %w", err)
	}
	log.Info().Int("entries", len(entries)).Bool("dry_run", dryRun).Msg("Starting history sync to Notion")

	pages, err := queryAllPages(ctx, client, databaseID)
	if err != nil {
		return fmt.Errorf("SyncHistory: %w", err)
	}

	existing := make(map[string]struct{})
	for _, page := range pages {
		if h := extractHash(page); h != "" {
			existing[h] = struct{}{}
		}
	}
	log.Info().Int("notion_pages", len(pages)).Msg("Retrieved existing Notion pages")

	var created, skipped int
	for _, entry := range entries {
		if _, ok := existing[entry.Hash]; ok {
			skipped++
			continue
		}

		if dryRun {
			log.Info().
				Str("hash", entry.Hash).
				Str("description", entry.Description).
				Msg("[DRY RUN] Would create Notion page")
			created++
			continue
		}

		page, err := client.CreatePage(ctx, databaseID, EntryToNotionProperties(entry))
		if err != nil {
			log.Warn().
				Err(err).
				Str("hash", entry.Hash).
				Msg("Failed to create Notion page")
			continue
		}
		log.Info().
			Str("hash", entry.Hash).
			Str("page_id", string(page.ID)).
			Msg("Created Notion page")
		created++
	}

	log.Info().
		Int("created", created).
		Int("skipped", skipped).
		Int("total", len(entries)).
		Msg("History sync completed")
	return nil
}

// queryAllPages pages through the whole database.
func queryAllPages(ctx context.Context, client NotionService, databaseID string) ([]notionapi.Page, error) {
	var all []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := client.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, fmt.Errorf("queryAllPages: %w", err)
		}

		all = append(all, resp.Results...)
		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}
