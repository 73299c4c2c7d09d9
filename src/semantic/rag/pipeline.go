// Package rag implements the retrieval-augmented query pipeline: embedding
// search plus a bounded prior-answer cache feeding a pluggable synthesis
// port, always degrading to a low-confidence fallback instead of failing.
package rag

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/m-mizutani/goerr/v2"

	"github.com/gemseek/facet/src/cache"
	"github.com/gemseek/facet/src/semantic/index"
	"github.com/gemseek/facet/src/semantic/model"
	"github.com/gemseek/facet/src/semantic/synth"
)

const (
	defaultMaxResults     = 5
	defaultMinSimilarity  = 0.6
	similarQueryThreshold = 0.7
	priorAnswerLimit      = 3
	metadataFilterScan    = 20

	// Confidence for a query that matched nothing.
	emptyResultConfidence = 0.3
	// Confidence ceiling for any synthesized answer.
	maxConfidence = 0.95
	// Confidence of the degraded fallback response.
	fallbackConfidence = 0.1

	avgSimilarityWeight = 0.7
	contextLenWeight    = 0.3
	contextLenNorm      = 1000
)

// Query is one pipeline invocation.
type Query struct {
	Question string
	// Context is free-form caller context appended to the search string.
	Context string
	// Filters, when set, restrict results to records whose metadata
	// matches exactly.
	Filters map[string]string
	// MaxResults defaults to 5.
	MaxResults int
	// MinSimilarity defaults to 0.6.
	MinSimilarity float64
}

// Options configures a Pipeline.
type Options struct {
	Index       *index.Index
	Cache       *cache.QueryCache
	Synthesizer synth.Synthesizer
	// CacheCapacity is used when Cache is nil.
	CacheCapacity int
}

// Pipeline answers questions by retrieving indexed context, consulting
// similar prior answers, and delegating synthesis to the injected port.
type Pipeline struct {
	index       *index.Index
	cache       *cache.QueryCache
	synthesizer synth.Synthesizer
	logger      *log.Logger
}

// New builds a Pipeline. A nil Synthesizer means the deterministic template
// synthesizer; a nil Cache gets the default bounded cache.
func New(opts Options) *Pipeline {
	if opts.Index == nil {
		opts.Index = index.New(index.DefaultOptions())
	}
	if opts.Cache == nil {
		opts.Cache = cache.NewQueryCache(opts.CacheCapacity)
	}
	if opts.Synthesizer == nil {
		opts.Synthesizer = synth.TemplateSynthesizer{}
	}
	return &Pipeline{
		index:       opts.Index,
		cache:       opts.Cache,
		synthesizer: opts.Synthesizer,
		logger:      log.WithPrefix("rag"),
	}
}

// Answer runs the full pipeline. It never returns an error: embedding or
// synthesis failures, panicking ports and caller cancellation all produce
// the same degraded fallback response. Cancellation is honored between
// stages and propagated to the injected ports via ctx.
func (p *Pipeline) Answer(ctx context.Context, q Query) (ans model.Answer) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("pipeline panic recovered", "panic", r)
			ans = p.fallback()
		}
	}()

	if q.MaxResults <= 0 {
		q.MaxResults = defaultMaxResults
	}
	if q.MinSimilarity <= 0 {
		q.MinSimilarity = defaultMinSimilarity
	}

	results, err := p.retrieve(ctx, q)
	if err != nil {
		p.logger.Warn("retrieval failed, degrading", "err", err)
		return p.fallback()
	}
	if ctx.Err() != nil {
		return p.fallback()
	}

	prior := p.cache.FindSimilar(q.Question, similarQueryThreshold, priorAnswerLimit)

	retrieved := renderContext(results, prior)
	priorAnswers := make([]synth.PriorAnswer, 0, len(prior))
	for _, entry := range prior {
		priorAnswers = append(priorAnswers, synth.PriorAnswer{Query: entry.Query, Answer: entry.Answer.Text})
	}

	synthesis, err := p.synthesizer.Synthesize(ctx, q.Question, retrieved, priorAnswers)
	if err != nil {
		err = goerr.Wrap(model.ErrSynthesis, err.Error(), goerr.V("question", q.Question))
		p.logger.Warn("synthesis failed, degrading", "err", err)
		return p.fallback()
	}

	sources := make([]string, 0, len(results))
	for _, r := range results {
		sources = append(sources, r.ID)
	}

	ans = model.Answer{
		Text:       synthesis.Answer,
		Context:    results,
		Confidence: confidence(results, retrieved),
		Sources:    sources,
		Reasoning:  synthesis.Reasoning,
		FollowUps:  synth.FollowUpsFor(synth.ClassifyQuestion(q.Question)),
	}
	p.cache.Add(q.Question, ans)
	return ans
}

// retrieve searches the index and applies the optional metadata filter
// intersection.
func (p *Pipeline) retrieve(ctx context.Context, q Query) ([]model.SearchResult, error) {
	searchQuery := strings.TrimSpace(q.Question + " " + q.Context)
	results, err := p.index.Search(ctx, searchQuery, q.MaxResults, q.MinSimilarity)
	if err != nil {
		return nil, err
	}
	if len(q.Filters) == 0 {
		return results, nil
	}

	allowed := make(map[string]struct{})
	for _, rec := range p.index.SearchByMetadata(q.Filters, metadataFilterScan) {
		allowed[rec.ID] = struct{}{}
	}
	filtered := results[:0]
	for _, r := range results {
		if _, ok := allowed[r.ID]; ok {
			filtered = append(filtered, r)
		}
	}
	return filtered, nil
}

// renderContext formats search hits as "[type]: content" lines followed by
// prior similar exchanges; the template synthesizer keys off this shape.
func renderContext(results []model.SearchResult, prior []cache.Entry) string {
	var sb strings.Builder
	for _, r := range results {
		typ := r.Metadata["type"]
		if typ == "" {
			typ = "unknown"
		}
		sb.WriteString("[" + typ + "]: " + r.Content + "\n\n")
	}
	for _, entry := range prior {
		sb.WriteString("Previous similar query: \"" + entry.Query + "\"\nAnswer: " + entry.Answer.Text + "\n\n")
	}
	return strings.TrimSpace(sb.String())
}

// confidence blends average similarity with retrieved-context length. Zero
// results pin confidence at 0.3.
func confidence(results []model.SearchResult, retrieved string) float64 {
	if len(results) == 0 {
		return emptyResultConfidence
	}
	var sum float64
	for _, r := range results {
		sum += r.Similarity
	}
	avgSim := sum / float64(len(results))

	ctxScore := float64(len(retrieved)) / contextLenNorm
	if ctxScore > 1 {
		ctxScore = 1
	}

	c := avgSimilarityWeight*avgSim + contextLenWeight*ctxScore
	if c > maxConfidence {
		c = maxConfidence
	}
	return c
}

func (p *Pipeline) fallback() model.Answer {
	return model.Answer{
		Text:       "I apologize, but I encountered an issue processing your query. Please try rephrasing your question or provide more specific details.",
		Context:    []model.SearchResult{},
		Confidence: fallbackConfidence,
		Sources:    []string{},
		Reasoning:  "Fallback response due to processing error",
		FollowUps:  synth.FallbackFollowUps(),
	}
}

// Feedback records caller feedback on a cached answer.
func (p *Pipeline) Feedback(id string, feedback model.Feedback) error {
	return p.cache.SetFeedback(id, feedback)
}

// CacheStats exposes the prior-answer cache's feedback and usage tallies.
func (p *Pipeline) CacheStats() cache.Stats {
	return p.cache.Stats()
}
