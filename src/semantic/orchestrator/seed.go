package orchestrator

import (
	"context"

	"github.com/gemseek/facet/src/semantic/index"
	"github.com/gemseek/facet/src/semantic/memory"
	"github.com/gemseek/facet/src/semantic/model"
)

// SeedJewelleryKnowledge loads the sample jewellery-marketing corpus into
// the index. Seeding is explicit opt-in; constructors never self-seed.
func SeedJewelleryKnowledge(ctx context.Context, ix *index.Index) error {
	return ix.UpsertBatch(ctx, []index.Document{
		{
			ID:       "competitor-analysis-1",
			Content:  "Tanishq is a leading jewelry brand with strong market presence in India, focusing on gold and diamond jewelry with premium positioning.",
			Metadata: map[string]string{"type": "competitor", "category": "premium", "region": "national"},
		},
		{
			ID:       "market-trend-1",
			Content:  "Digital jewelry shopping is growing rapidly with AR try-on features becoming essential for online jewelry retailers.",
			Metadata: map[string]string{"type": "trend", "category": "technology", "impact": "high"},
		},
		{
			ID:       "persona-insight-1",
			Content:  "Young professionals aged 25-35 prefer minimalist jewelry designs with sustainable and ethical sourcing practices.",
			Metadata: map[string]string{"type": "persona", "segment": "young-professionals", "age": "25-35"},
		},
		{
			ID:       "content-strategy-1",
			Content:  "Instagram reels with jewelry styling tips and behind-the-scenes content generate 3x higher engagement than static posts.",
			Metadata: map[string]string{"type": "content", "platform": "instagram", "format": "reel"},
		},
		{
			ID:       "jewelry-industry-overview",
			Content:  "The jewelry industry in India is valued at over $75 billion, with gold jewelry accounting for 80% of the market. Key trends include digital transformation, sustainable practices, and personalized experiences.",
			Metadata: map[string]string{"type": "trend", "domain": "jewelry", "category": "industry-overview"},
		},
		{
			ID:       "competitor-analysis-framework",
			Content:  "Effective competitor analysis involves market positioning, pricing strategies, product offerings, customer engagement, and digital presence evaluation.",
			Metadata: map[string]string{"type": "competitor", "domain": "analysis", "category": "framework"},
		},
		{
			ID:       "marketing-automation-best-practices",
			Content:  "Successful marketing automation requires persona-based targeting, content personalization, multi-channel engagement, and data-driven optimization.",
			Metadata: map[string]string{"type": "content", "domain": "marketing", "category": "automation"},
		},
		{
			ID:       "customer-persona-development",
			Content:  "Creating effective customer personas involves demographic analysis, psychographic profiling, behavioral insights, and pain point identification.",
			Metadata: map[string]string{"type": "persona", "domain": "personas", "category": "development"},
		},
	})
}

// SeedDefaultMemories loads the baseline preference/fact/pattern memories
// into the store.
func SeedDefaultMemories(store *memory.Store) error {
	items := []model.MemoryItem{
		{
			ID:         "user-preference-1",
			Kind:       model.KindPreference,
			Content:    "User prefers detailed analysis with actionable insights",
			Context:    map[string]string{"domain": "business-analysis"},
			Importance: 80,
			Tags:       []string{"user-preference", "analysis-style"},
		},
		{
			ID:         "domain-knowledge-1",
			Kind:       model.KindFact,
			Content:    "Jewelry industry trends include digital transformation and sustainable practices",
			Context:    map[string]string{"domain": "jewelry-industry", "category": "trends"},
			Importance: 90,
			Tags:       []string{"industry-knowledge", "trends", "jewelry"},
		},
		{
			ID:         "conversation-pattern-1",
			Kind:       model.KindPattern,
			Content:    "User frequently asks about competitor analysis and market positioning",
			Context:    map[string]string{"domain": "market-analysis"},
			Importance: 85,
			Tags:       []string{"conversation-pattern", "user-behavior"},
		},
	}
	for _, item := range items {
		if _, err := store.Store(item); err != nil {
			return err
		}
	}
	return nil
}
