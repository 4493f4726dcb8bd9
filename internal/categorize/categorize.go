// Package categorize assigns transactions to the fixed category taxonomy.
//
// Primary path is Gemini through the Generative Language API; when the API
// key is missing or a call fails it degrades to keyword matching, so
// categorization never blocks ingestion.
package categorize

import (
	"context"
	"fmt"
	"strings"
	"time"

	genai "google.golang.org/api/generativelanguage/v1beta"
	"google.golang.org/api/option"

	"splitmint/internal/cache"
	"splitmint/internal/core"
	"splitmint/internal/log"
)

const (
	cacheSize = 512
	cacheTTL  = 24 * time.Hour
)

type Categorizer struct {
	svc    *genai.Service // nil when no API key is configured
	model  string
	cache  *cache.LRUCache[string]
	logger *log.Logger
}

// New builds a categorizer. An empty apiKey is not an error; the
// categorizer then runs on keyword matching only.
func New(ctx context.Context, apiKey, model string, logger *log.Logger) (*Categorizer, error) {
	c := &Categorizer{
		model:  model,
		cache:  cache.NewLRUCache[string](cacheSize, cacheTTL),
		logger: logger.WithComponent(log.ComponentCategorize),
	}
	if apiKey == "" {
		c.logger.Warn("No Gemini API key configured, using keyword fallback only")
		return c, nil
	}

	svc, err := genai.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create generative language service: %w", err)
	}
	c.svc = svc
	return c, nil
}

// Cache returns the merchant cache for cleanup registration.
func (c *Categorizer) Cache() *cache.LRUCache[string] {
	return c.cache
}

// Categorize returns a taxonomy category for the merchant. Results are
// cached per merchant so repeated ingests do not re-bill the model.
func (c *Categorizer) Categorize(ctx context.Context, merchant string) string {
	key := strings.ToLower(strings.TrimSpace(merchant))
	if key == "" {
		return core.DefaultCategory
	}
	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	category := c.lookup(ctx, merchant)
	c.cache.Set(key, category)
	return category
}

func (c *Categorizer) lookup(ctx context.Context, merchant string) string {
	if c.svc == nil {
		return Fallback(merchant)
	}

	prompt := buildPrompt(merchant)
	resp, err := c.svc.Models.GenerateContent(c.model, &genai.GenerateContentRequest{
		Contents: []*genai.Content{{
			Parts: []*genai.Part{{Text: prompt}},
		}},
	}).Context(ctx).Do()
	if err != nil {
		c.logger.WarnContext(ctx, "Gemini call failed, using keyword fallback",
			log.FieldMerchant, merchant, log.FieldError, err.Error())
		return Fallback(merchant)
	}

	answer := extractText(resp)
	if category, ok := matchCategory(answer); ok {
		return category
	}

	c.logger.WarnContext(ctx, "Gemini returned unknown category, using keyword fallback",
		log.FieldMerchant, merchant, "answer", answer)
	return Fallback(merchant)
}

func buildPrompt(merchant string) string {
	return fmt.Sprintf(`Categorize this merchant into ONE category from the following list:
%s

Merchant: %s

Return ONLY the category name, nothing else. Choose the most appropriate category.`,
		strings.Join(core.Categories, ", "), merchant)
}

func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	content := resp.Candidates[0].Content
	if content == nil || len(content.Parts) == 0 {
		return ""
	}
	return strings.TrimSpace(content.Parts[0].Text)
}

// matchCategory validates a model answer against the taxonomy, accepting an
// exact name or a partial match in either direction.
func matchCategory(answer string) (string, bool) {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return "", false
	}
	if core.ValidCategory(answer) {
		return answer, true
	}
	lower := strings.ToLower(answer)
	for _, cat := range core.Categories {
		cl := strings.ToLower(cat)
		if strings.Contains(lower, cl) || strings.Contains(cl, lower) {
			return cat, true
		}
	}
	return "", false
}
