package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/sampires/financas-bot/internal/history"
)

// EntryToNotionProperties maps one history entry onto the Notion database
// schema: Descricao (title), Data (date), Valor (number), Hash (rich text),
// Importado Em (date).
func EntryToNotionProperties(e history.Entry) notionapi.Properties {
	props := notionapi.Properties{
		"Descricao": notionapi.TitleProperty{
			Title: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: e.Description},
				},
			},
		},
		"Data": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: func() *notionapi.Date {
					d := notionapi.Date(time.Date(
						e.Date.Year,
						e.Date.Month,
						e.Date.Day,
						0, 0, 0, 0, time.UTC,
					))
					return &d
				}(),
			},
		},
		"Valor": notionapi.NumberProperty{
			Number: e.Amount,
		},
		"Hash": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{
				{
					Type: notionapi.ObjectTypeText,
					Text: &notionapi.Text{Content: e.Hash},
				},
			},
		},
	}

	if !e.ImportedAt.IsZero() {
		props["Importado Em"] = notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: (*notionapi.Date)(&e.ImportedAt),
			},
		}
	}
	return props
}

// extractHash pulls the content hash back out of a Notion page. Returns ""
// for pages created outside the sync.
func extractHash(page notionapi.Page) string {
	prop, ok := page.Properties["Hash"]
	if !ok {
		return ""
	}
	richText, ok := prop.(*notionapi.RichTextProperty)
	if !ok || len(richText.RichText) == 0 {
		return ""
	}
	return richText.RichText[0].PlainText
}
