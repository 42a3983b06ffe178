// Package suggest asks Gemini which budget category a merchant description
// most likely belongs to. It only ever proposes one of the configured
// category names; the rule engine stays in charge of actual placement.
package suggest

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/sampires/financas-bot/internal/config"
)

// Gemini suggests categories using the Gemini API. The API key comes from the
// environment (GEMINI_API_KEY), as the genai client expects.
type Gemini struct {
	model      string
	categories []string
}

// NewGemini builds a suggester constrained to the category names in rules.
func NewGemini(model string, rules config.Rules) *Gemini {
	names := make([]string, 0, len(rules.Categories))
	for _, c := range rules.Categories {
		names = append(names, c.Name)
	}
	return &Gemini{model: model, categories: names}
}

// SuggestCategory returns one of the configured category names, or "" when
// the model declines to pick one.
func (g *Gemini) SuggestCategory(ctx context.Context, description string) (string, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return "", fmt.Errorf("SuggestCategory: create genai client: %w", err)
	}

	prompt := g.buildPrompt(description)
	contents := []*genai.Content{
		{
			Role:  "user",
			Parts: []*genai.Part{{Text: prompt}},
		},
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("SuggestCategory: generate content: %w", err)
	}

	raw := resp.Text()
	if raw == "" {
		return "", fmt.Errorf("SuggestCategory: empty response from model")
	}

	answer := cleanAnswer(raw)
	if answer == "" {
		return "", nil
	}

	// Anything outside the configured names is treated as a decline.
	for _, name := range g.categories {
		if strings.EqualFold(answer, name) {
			return name, nil
		}
	}
	return "", nil
}

func (g *Gemini) buildPrompt(description string) string {
	var b strings.Builder
	b.WriteString("You classify Brazilian bank statement descriptions into budget categories.\n\n")
	b.WriteString("Categories (answer with EXACTLY one of these names):\n")
	for _, name := range g.categories {
		b.WriteString("- " + name + "\n")
	}
	b.WriteString("\nRules:\n")
	b.WriteString("- Answer with the single category name only, no punctuation, no explanation.\n")
	b.WriteString("- If none fits, answer exactly: nenhuma\n\n")
	b.WriteString("Description: " + description + "\n")
	return b.String()
}

// cleanAnswer strips the markdown wrapping models add when they ignore the
// plain-text instruction.
func cleanAnswer(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	s = strings.Trim(s, "`\" \n")
	if strings.EqualFold(s, "nenhuma") {
		return ""
	}
	return s
}
