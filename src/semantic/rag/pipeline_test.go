package rag

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/gemseek/facet/src/cache"
	"github.com/gemseek/facet/src/semantic/index"
	"github.com/gemseek/facet/src/semantic/model"
	"github.com/gemseek/facet/src/semantic/synth"
)

type failingEmbedder struct{}

func (failingEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, errors.New("embedding backend unavailable")
}

type failingSynthesizer struct{}

func (failingSynthesizer) Synthesize(context.Context, string, string, []synth.PriorAnswer) (synth.Synthesis, error) {
	return synth.Synthesis{}, errors.New("synthesis backend unavailable")
}

type panickingSynthesizer struct{}

func (panickingSynthesizer) Synthesize(context.Context, string, string, []synth.PriorAnswer) (synth.Synthesis, error) {
	panic("synthesizer blew up")
}

// recordingSynthesizer captures what the pipeline hands the port.
type recordingSynthesizer struct {
	question  string
	retrieved string
	prior     []synth.PriorAnswer
}

func (r *recordingSynthesizer) Synthesize(_ context.Context, question, retrieved string, prior []synth.PriorAnswer) (synth.Synthesis, error) {
	r.question = question
	r.retrieved = retrieved
	r.prior = prior
	return synth.Synthesis{Answer: "synthesized", Reasoning: "recorded"}, nil
}

func assertFallback(t *testing.T, ans model.Answer) {
	t.Helper()
	if ans.Confidence != 0.1 {
		t.Fatalf("expected fallback confidence 0.1, got %v", ans.Confidence)
	}
	if len(ans.Sources) != 0 {
		t.Fatalf("expected no sources in fallback, got %v", ans.Sources)
	}
	if len(ans.FollowUps) != 3 {
		t.Fatalf("expected 3 fallback follow-ups, got %d", len(ans.FollowUps))
	}
	if ans.Text == "" {
		t.Fatalf("fallback must still carry a usable answer")
	}
}

func TestAnswerEmptyIndexPinsConfidence(t *testing.T) {
	p := New(Options{})

	ans := p.Answer(context.Background(), Query{Question: "Who are our competitors?"})
	if ans.Confidence != 0.3 {
		t.Fatalf("zero matches must pin confidence at 0.3, got %v", ans.Confidence)
	}
	if len(ans.Sources) != 0 {
		t.Fatalf("expected no sources, got %v", ans.Sources)
	}
	if ans.Text == "" {
		t.Fatalf("expected a templated answer even with no matches")
	}
	if len(ans.FollowUps) != 3 {
		t.Fatalf("expected topic follow-ups, got %d", len(ans.FollowUps))
	}
}

func TestAnswerDegradesOnEmbedderFailure(t *testing.T) {
	ix := index.New(index.Options{Embedder: failingEmbedder{}})
	p := New(Options{Index: ix})

	assertFallback(t, p.Answer(context.Background(), Query{Question: "Anything?"}))
}

func TestAnswerDegradesOnSynthesizerFailure(t *testing.T) {
	p := New(Options{Synthesizer: failingSynthesizer{}})

	assertFallback(t, p.Answer(context.Background(), Query{Question: "Anything?"}))
}

func TestAnswerRecoversFromPanickingPort(t *testing.T) {
	p := New(Options{Synthesizer: panickingSynthesizer{}})

	assertFallback(t, p.Answer(context.Background(), Query{Question: "Anything?"}))
}

func TestAnswerDegradesOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(Options{})
	assertFallback(t, p.Answer(ctx, Query{Question: "Anything?"}))
}

func TestAnswerEndToEnd(t *testing.T) {
	ix := index.New(index.DefaultOptions())
	ctx := context.Background()
	if err := ix.Upsert(ctx, "c1", "Tanishq gold jewelry flagship stores", map[string]string{"type": "competitor"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	p := New(Options{Index: ix})

	ans := p.Answer(ctx, Query{Question: "Tell me about gold jewelry competitors"})

	found := false
	for _, src := range ans.Sources {
		if src == "c1" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected c1 among sources, got %v", ans.Sources)
	}
	if ans.Confidence <= 0.3 || ans.Confidence > 0.95 {
		t.Fatalf("confidence out of range: %v", ans.Confidence)
	}
	if !strings.Contains(ans.Text, "Tanishq") {
		t.Fatalf("expected the retrieved content surfaced in the answer: %q", ans.Text)
	}
	if ans.Reasoning == "" || len(ans.FollowUps) == 0 {
		t.Fatalf("expected reasoning and follow-ups: %+v", ans)
	}
}

func TestAnswerAppliesMetadataFilters(t *testing.T) {
	ix := index.New(index.DefaultOptions())
	ctx := context.Background()
	if err := ix.UpsertBatch(ctx, []index.Document{
		{ID: "comp", Content: "tanishq premium gold positioning", Metadata: map[string]string{"type": "competitor"}},
		{ID: "trend", Content: "digital gold shopping acceleration", Metadata: map[string]string{"type": "trend"}},
	}); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}
	p := New(Options{Index: ix})

	ans := p.Answer(ctx, Query{
		Question:      "What is happening with gold?",
		Filters:       map[string]string{"type": "trend"},
		MinSimilarity: 0.05,
	})
	if len(ans.Sources) != 1 || ans.Sources[0] != "trend" {
		t.Fatalf("expected only the trend record, got %v", ans.Sources)
	}
}

func TestAnswerFeedsPriorSimilarAnswers(t *testing.T) {
	ix := index.New(index.DefaultOptions())
	ctx := context.Background()
	if err := ix.Upsert(ctx, "t1", "digital jewelry shopping keeps growing", map[string]string{"type": "trend"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	rec := &recordingSynthesizer{}
	p := New(Options{Index: ix, Synthesizer: rec})

	first := p.Answer(ctx, Query{Question: "what are the jewelry market trends"})
	if first.Text != "synthesized" {
		t.Fatalf("expected the port's answer, got %q", first.Text)
	}

	p.Answer(ctx, Query{Question: "what are the jewelry market trends"})
	if len(rec.prior) == 0 {
		t.Fatalf("expected the cached first answer offered as prior context")
	}
	if rec.prior[0].Answer != "synthesized" {
		t.Fatalf("unexpected prior answer: %+v", rec.prior[0])
	}
	if !strings.Contains(rec.retrieved, "Previous similar query") {
		t.Fatalf("expected prior exchange rendered into context: %q", rec.retrieved)
	}
}

func TestAnswerCachesResponses(t *testing.T) {
	qc := cache.NewQueryCache(10)
	p := New(Options{Cache: qc})

	p.Answer(context.Background(), Query{Question: "anything about gold"})
	if qc.Len() != 1 {
		t.Fatalf("expected the answer cached, got %d entries", qc.Len())
	}
}

func TestFeedbackReachesCache(t *testing.T) {
	qc := cache.NewQueryCache(10)
	p := New(Options{Cache: qc})

	p.Answer(context.Background(), Query{Question: "anything about gold"})
	id := qc.Dump()[0].ID

	if err := p.Feedback(id, model.FeedbackPositive); err != nil {
		t.Fatalf("Feedback: %v", err)
	}
	if st := p.CacheStats(); st.Positive != 1 {
		t.Fatalf("expected positive feedback tallied, got %+v", st)
	}
	if err := p.Feedback("missing", model.FeedbackNegative); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
