package index

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/m-mizutani/goerr/v2"

	"github.com/gemseek/facet/src/concurrent"
	"github.com/gemseek/facet/src/semantic/embed"
	"github.com/gemseek/facet/src/semantic/model"
)

const (
	similarityWeight = 0.7
	metadataWeight   = 0.3

	// Each metadata value found verbatim in the query adds this much
	// overlap, capped at 1.0.
	metadataHitScore = 0.2
)

// Options configures an Index.
type Options struct {
	// Dim is the expected vector dimension. Zero means "adopt the
	// dimension of the first stored vector".
	Dim int
	// Embedder derives vectors from text. Defaults to the deterministic
	// hash projection.
	Embedder embed.Embedder
	// BatchConcurrency bounds parallel embeds during UpsertBatch.
	BatchConcurrency int
}

// DefaultOptions returns an index configuration usable without credentials.
func DefaultOptions() Options {
	return Options{
		Dim:              embed.DefaultDim,
		Embedder:         embed.NewHashEmbedder(embed.DefaultDim),
		BatchConcurrency: 8,
	}
}

// Document is one ingestion unit for batch upserts.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// Stats summarizes the index contents.
type Stats struct {
	Count        int            `json:"count"`
	AvgDimension float64        `json:"avg_dimension"`
	MetadataKeys map[string]int `json:"metadata_keys"`
	LastUpdated  time.Time      `json:"last_updated"`
}

// Index stores content with derived vectors and answers nearest-neighbor
// and metadata queries. Reads run under a shared lock; writes are
// serialized.
type Index struct {
	mu       sync.RWMutex
	dim      int
	embedder embed.Embedder
	batchCon int
	records  map[string]model.EmbeddingRecord
	order    []string // insertion order, first insert wins on overwrite
	logger   *log.Logger
}

// New builds an Index from opts, filling in defaults for zero fields.
func New(opts Options) *Index {
	if opts.Embedder == nil {
		opts.Embedder = embed.NewHashEmbedder(opts.Dim)
	}
	if opts.BatchConcurrency <= 0 {
		opts.BatchConcurrency = 8
	}
	return &Index{
		dim:      opts.Dim,
		embedder: opts.Embedder,
		batchCon: opts.BatchConcurrency,
		records:  make(map[string]model.EmbeddingRecord),
		logger:   log.WithPrefix("index"),
	}
}

// Upsert derives a vector for content and stores or fully replaces the
// record under id.
func (ix *Index) Upsert(ctx context.Context, id, content string, metadata map[string]string) error {
	vec, err := ix.embedder.Embed(ctx, content)
	if err != nil {
		return goerr.Wrap(model.ErrEmbedding, err.Error(), goerr.V("id", id))
	}
	return ix.put(id, content, metadata, vec)
}

func (ix *Index) put(id, content string, metadata map[string]string, vec []float32) error {
	ix.mu.Lock()
	defer ix.mu.Unlock()

	if ix.dim == 0 {
		ix.dim = len(vec)
	}
	if len(vec) != ix.dim {
		return goerr.Wrap(model.ErrDimensionMismatch, "embedder output disagrees with index dimension",
			goerr.V("id", id), goerr.V("want", ix.dim), goerr.V("got", len(vec)))
	}

	if _, exists := ix.records[id]; !exists {
		ix.order = append(ix.order, id)
	}
	ix.records[id] = model.EmbeddingRecord{
		ID:        id,
		Content:   content,
		Vector:    vec,
		Metadata:  copyMeta(metadata),
		CreatedAt: time.Now(),
	}
	return nil
}

// UpsertBatch ingests documents concurrently. The first failure aborts the
// batch; already-stored documents remain.
func (ix *Index) UpsertBatch(ctx context.Context, docs []Document) error {
	err := concurrent.ParallelForEach(ctx, docs, func(doc Document) error {
		return ix.Upsert(ctx, doc.ID, doc.Content, doc.Metadata)
	}, ix.batchCon)
	if err != nil {
		ix.logger.Warn("batch upsert aborted", "docs", len(docs), "err", err)
	}
	return err
}

// Search embeds query, scores every record by cosine similarity, keeps
// those at or above minSimilarity, ranks by blended relevance and returns
// the top limit results. An empty index yields an empty result, not an
// error.
func (ix *Index) Search(ctx context.Context, query string, limit int, minSimilarity float64) ([]model.SearchResult, error) {
	queryVec, err := ix.embedder.Embed(ctx, query)
	if err != nil {
		return nil, goerr.Wrap(model.ErrEmbedding, err.Error(), goerr.V("query", query))
	}

	ix.mu.RLock()
	results := make([]model.SearchResult, 0, len(ix.records))
	for id, rec := range ix.records {
		sim := Cosine(queryVec, rec.Vector)
		if sim < minSimilarity {
			continue
		}
		results = append(results, model.SearchResult{
			ID:         id,
			Content:    rec.Content,
			Metadata:   copyMeta(rec.Metadata),
			Similarity: sim,
			Relevance:  similarityWeight*sim + metadataWeight*metadataOverlap(query, rec.Metadata),
		})
	}
	ix.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Relevance != results[j].Relevance {
			return results[i].Relevance > results[j].Relevance
		}
		return results[i].ID < results[j].ID
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// metadataOverlap rewards metadata values that literally appear in the
// query, capped at 1.0.
func metadataOverlap(query string, metadata map[string]string) float64 {
	queryLower := strings.ToLower(query)
	score := 0.0
	for _, value := range metadata {
		if value != "" && strings.Contains(queryLower, strings.ToLower(value)) {
			score += metadataHitScore
		}
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// SearchByMetadata returns up to limit records whose metadata exactly
// matches every filter entry, in insertion order.
func (ix *Index) SearchByMetadata(filters map[string]string, limit int) []model.EmbeddingRecord {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	results := make([]model.EmbeddingRecord, 0)
	for _, id := range ix.order {
		rec, ok := ix.records[id]
		if !ok {
			continue
		}
		matches := true
		for key, want := range filters {
			if rec.Metadata[key] != want {
				matches = false
				break
			}
		}
		if matches {
			results = append(results, copyRecord(rec))
			if limit > 0 && len(results) >= limit {
				break
			}
		}
	}
	return results
}

// Get returns a copy of the record under id.
func (ix *Index) Get(id string) (model.EmbeddingRecord, error) {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	rec, ok := ix.records[id]
	if !ok {
		return model.EmbeddingRecord{}, goerr.Wrap(model.ErrNotFound, "no embedding record", goerr.V("id", id))
	}
	return copyRecord(rec), nil
}

// Remove deletes the record under id; unknown ids are a no-op.
func (ix *Index) Remove(id string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.records[id]; !ok {
		return
	}
	delete(ix.records, id)
	for i, existing := range ix.order {
		if existing == id {
			ix.order = append(ix.order[:i], ix.order[i+1:]...)
			break
		}
	}
}

// Count returns the number of stored records.
func (ix *Index) Count() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return len(ix.records)
}

// Stats summarizes the stored records.
func (ix *Index) Stats() Stats {
	ix.mu.RLock()
	defer ix.mu.RUnlock()

	st := Stats{MetadataKeys: make(map[string]int)}
	totalDim := 0
	for _, rec := range ix.records {
		st.Count++
		totalDim += len(rec.Vector)
		for key := range rec.Metadata {
			st.MetadataKeys[key]++
		}
		if rec.CreatedAt.After(st.LastUpdated) {
			st.LastUpdated = rec.CreatedAt
		}
	}
	if st.Count > 0 {
		st.AvgDimension = float64(totalDim) / float64(st.Count)
	}
	return st
}

func copyMeta(metadata map[string]string) map[string]string {
	cp := make(map[string]string, len(metadata))
	for k, v := range metadata {
		cp[k] = v
	}
	return cp
}

func copyRecord(rec model.EmbeddingRecord) model.EmbeddingRecord {
	rec.Metadata = copyMeta(rec.Metadata)
	rec.Vector = append([]float32(nil), rec.Vector...)
	return rec
}
