package index

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/gemseek/facet/src/semantic/embed"
	"github.com/gemseek/facet/src/semantic/model"
)

// stubEmbedder returns canned vectors per input text.
type stubEmbedder struct {
	vecs map[string][]float32
	err  error
}

func (s stubEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.vecs[text], nil
}

func TestCosineIdenticalVectors(t *testing.T) {
	v := embed.HashEmbedding("gold jewelry", embed.DefaultDim)
	if sim := Cosine(v, v); math.Abs(sim-1) > 1e-6 {
		t.Fatalf("expected self-similarity 1, got %v", sim)
	}
}

func TestCosineSymmetry(t *testing.T) {
	a := embed.HashEmbedding("gold jewelry trends", embed.DefaultDim)
	b := embed.HashEmbedding("instagram content strategy", embed.DefaultDim)
	if Cosine(a, b) != Cosine(b, a) {
		t.Fatalf("cosine similarity must be symmetric")
	}
}

func TestCosineDegenerateInputs(t *testing.T) {
	if sim := Cosine([]float32{1, 0}, []float32{1, 0, 0}); sim != 0 {
		t.Fatalf("mismatched lengths should score 0, got %v", sim)
	}
	if sim := Cosine([]float32{0, 0, 0}, []float32{1, 2, 3}); sim != 0 {
		t.Fatalf("zero-norm vector should score 0, got %v", sim)
	}
	if sim := Cosine([]float32{1, 0}, []float32{0, 1}); sim != 0 {
		t.Fatalf("orthogonal vectors should score 0, got %v", sim)
	}
}

func TestUpsertOverwriteReplacesRecord(t *testing.T) {
	ix := New(DefaultOptions())
	ctx := context.Background()

	if err := ix.Upsert(ctx, "doc-1", "original content here", nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := ix.Upsert(ctx, "doc-1", "replacement content here", map[string]string{"type": "trend"}); err != nil {
		t.Fatalf("Upsert overwrite: %v", err)
	}

	if ix.Count() != 1 {
		t.Fatalf("expected 1 record after overwrite, got %d", ix.Count())
	}
	rec, err := ix.Get("doc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Content != "replacement content here" {
		t.Fatalf("expected replacement content, got %q", rec.Content)
	}
	if rec.Metadata["type"] != "trend" {
		t.Fatalf("expected replacement metadata, got %v", rec.Metadata)
	}
}

func TestUpsertDimensionMismatch(t *testing.T) {
	ix := New(Options{Embedder: stubEmbedder{vecs: map[string][]float32{
		"first":  {1, 0, 0},
		"second": {1, 0},
	}}})
	ctx := context.Background()

	if err := ix.Upsert(ctx, "a", "first", nil); err != nil {
		t.Fatalf("first upsert should adopt the vector dimension: %v", err)
	}
	err := ix.Upsert(ctx, "b", "second", nil)
	if !errors.Is(err, model.ErrDimensionMismatch) {
		t.Fatalf("expected ErrDimensionMismatch, got %v", err)
	}
	if ix.Count() != 1 {
		t.Fatalf("failed upsert must not store a record, count %d", ix.Count())
	}
}

func TestUpsertEmbedderFailure(t *testing.T) {
	ix := New(Options{Embedder: stubEmbedder{err: errors.New("backend down")}})
	err := ix.Upsert(context.Background(), "a", "content", nil)
	if !errors.Is(err, model.ErrEmbedding) {
		t.Fatalf("expected ErrEmbedding, got %v", err)
	}
}

func TestSearchEmptyIndex(t *testing.T) {
	ix := New(DefaultOptions())
	results, err := ix.Search(context.Background(), "anything at all", 5, 0.6)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("expected no results from an empty index, got %d", len(results))
	}
}

func TestSearchRanksExactMatchWithMetadataFirst(t *testing.T) {
	ix := New(DefaultOptions())
	ctx := context.Background()

	if err := ix.Upsert(ctx, "comp-1", "tanishq competitor gold pricing", map[string]string{"type": "competitor"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if err := ix.Upsert(ctx, "cont-1", "instagram reels styling engagement", map[string]string{"type": "content"}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	results, err := ix.Search(ctx, "tanishq competitor gold pricing", 5, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) == 0 {
		t.Fatalf("expected results")
	}
	if results[0].ID != "comp-1" {
		t.Fatalf("expected exact match ranked first, got %q", results[0].ID)
	}
	if results[0].Similarity < 0.999 {
		t.Fatalf("exact content should have similarity ~1, got %v", results[0].Similarity)
	}
	if results[0].Relevance <= results[0].Similarity*similarityWeight {
		t.Fatalf("metadata value in the query should lift relevance above pure similarity")
	}
}

func TestSearchRespectsMinSimilarityAndLimit(t *testing.T) {
	ix := New(DefaultOptions())
	ctx := context.Background()
	docs := []string{"gold necklace designs", "silver bracelet designs", "platinum ring designs"}
	for i, content := range docs {
		if err := ix.Upsert(ctx, string(rune('a'+i)), content, nil); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	results, err := ix.Search(ctx, "jewelry designs", 2, 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) > 2 {
		t.Fatalf("limit 2 violated, got %d results", len(results))
	}

	results, err = ix.Search(ctx, "jewelry designs", 10, 2.0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("impossible similarity floor should return nothing, got %d", len(results))
	}
}

func TestSearchByMetadata(t *testing.T) {
	ix := New(DefaultOptions())
	ctx := context.Background()
	if err := ix.UpsertBatch(ctx, []Document{
		{ID: "t1", Content: "digital jewelry shopping grows", Metadata: map[string]string{"type": "trend", "impact": "high"}},
		{ID: "c1", Content: "tanishq premium positioning", Metadata: map[string]string{"type": "competitor"}},
		{ID: "t2", Content: "sustainable sourcing demand rises", Metadata: map[string]string{"type": "trend", "impact": "low"}},
	}); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	trends := ix.SearchByMetadata(map[string]string{"type": "trend"}, 0)
	if len(trends) != 2 {
		t.Fatalf("expected 2 trend records, got %d", len(trends))
	}

	highImpact := ix.SearchByMetadata(map[string]string{"type": "trend", "impact": "high"}, 0)
	if len(highImpact) != 1 || highImpact[0].ID != "t1" {
		t.Fatalf("conjunctive filter failed: %+v", highImpact)
	}

	if got := ix.SearchByMetadata(map[string]string{"type": "persona"}, 0); len(got) != 0 {
		t.Fatalf("expected no persona records, got %d", len(got))
	}
}

func TestSearchByMetadataInsertionOrder(t *testing.T) {
	ix := New(DefaultOptions())
	ctx := context.Background()
	for _, id := range []string{"first", "second", "third"} {
		if err := ix.Upsert(ctx, id, id+" sustainable jewelry note", map[string]string{"type": "trend"}); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	got := ix.SearchByMetadata(map[string]string{"type": "trend"}, 2)
	if len(got) != 2 || got[0].ID != "first" || got[1].ID != "second" {
		t.Fatalf("expected insertion order [first second], got %+v", got)
	}
}

func TestRemoveAndGet(t *testing.T) {
	ix := New(DefaultOptions())
	ctx := context.Background()
	if err := ix.Upsert(ctx, "doc-1", "some indexed content", nil); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	ix.Remove("doc-1")
	if _, err := ix.Get("doc-1"); !errors.Is(err, model.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}

	// Unknown ids are a no-op.
	ix.Remove("never-existed")
	if ix.Count() != 0 {
		t.Fatalf("expected empty index, got %d", ix.Count())
	}
}

func TestStats(t *testing.T) {
	ix := New(DefaultOptions())
	ctx := context.Background()
	if err := ix.UpsertBatch(ctx, []Document{
		{ID: "a", Content: "gold market outlook", Metadata: map[string]string{"type": "trend"}},
		{ID: "b", Content: "persona research notes", Metadata: map[string]string{"type": "persona", "segment": "young-professionals"}},
	}); err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}

	st := ix.Stats()
	if st.Count != 2 {
		t.Fatalf("expected count 2, got %d", st.Count)
	}
	if st.AvgDimension != float64(embed.DefaultDim) {
		t.Fatalf("expected avg dimension %d, got %v", embed.DefaultDim, st.AvgDimension)
	}
	if st.MetadataKeys["type"] != 2 || st.MetadataKeys["segment"] != 1 {
		t.Fatalf("unexpected metadata key tally: %v", st.MetadataKeys)
	}
	if st.LastUpdated.IsZero() {
		t.Fatalf("expected LastUpdated to be set")
	}
}
