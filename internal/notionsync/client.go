// Package notionsync mirrors the import history into a Notion database, so
// the spreadsheet's raw history tab gets a browsable view. The content hash
// is the dedup key on the Notion side too: pages are only created for hashes
// that are not there yet, and nothing is ever deleted.
package notionsync

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
)

// NotionService is the slice of the Notion API the sync needs.
type NotionService interface {
	CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error)
	QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// NotionClient implements NotionService with the official SDK.
type NotionClient struct {
	client *notionapi.Client
}

// NewNotionClient creates a client with the provided API token.
func NewNotionClient(token string) *NotionClient {
	return &NotionClient{client: notionapi.NewClient(notionapi.Token(token))}
}

// CreatePage creates a page in the database with the given properties.
func (n *NotionClient) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	req := &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(databaseID),
		},
		Properties: properties,
	}

	page, err := n.client.Page.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("CreatePage: %w", err)
	}
	return page, nil
}

// QueryDatabase runs one page of a database query.
func (n *NotionClient) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	resp, err := n.client.Database.Query(ctx, notionapi.DatabaseID(databaseID), req)
	if err != nil {
		return nil, fmt.Errorf("QueryDatabase: %w", err)
	}
	return resp, nil
}
