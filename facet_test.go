package facet

import (
	"context"
	"testing"
)

// End-to-end through the facade: seed the corpus, route a query, record
// feedback, and read the stats back.
func TestFacadeEndToEnd(t *testing.T) {
	ctx := context.Background()

	ix := NewIndex(IndexOptions{})
	if err := SeedJewelleryKnowledge(ctx, ix); err != nil {
		t.Fatalf("SeedJewelleryKnowledge: %v", err)
	}
	store := NewStore(StoreOptions{})
	if err := SeedDefaultMemories(store); err != nil {
		t.Fatalf("SeedDefaultMemories: %v", err)
	}

	o := NewOrchestrator(OrchestratorOptions{
		Pipeline: NewPipeline(PipelineOptions{Index: ix}),
		Memory:   store,
	})

	resp, err := o.ProcessRequest(ctx, Request{
		Kind:     RequestQuery,
		Text:     "Tell me about jewelry market trends",
		Priority: PriorityMedium,
	})
	if err != nil {
		t.Fatalf("ProcessRequest: %v", err)
	}
	if resp.Text == "" || len(resp.Sources) == 0 {
		t.Fatalf("expected a grounded answer, got %+v", resp)
	}

	if _, err := store.LearnFromInteraction(
		"Tell me about jewelry market trends", resp.Text, FeedbackPositive,
	); err != nil {
		t.Fatalf("LearnFromInteraction: %v", err)
	}

	st := o.Stats()
	if st.TotalRequests != 1 {
		t.Fatalf("expected 1 request counted, got %d", st.TotalRequests)
	}
	if st.Memory.Total < 4 {
		t.Fatalf("expected seeded plus learned memories, got %d", st.Memory.Total)
	}
}
