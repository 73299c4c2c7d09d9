package memory

import (
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/gemseek/facet/src/semantic/model"
)

const (
	defaultImportance = 50
	maxImportance     = 100

	importanceWeight = 0.4
	recencyWeight    = 0.3
	accessWeight     = 0.3

	// Linear recency decay window: items untouched for 30 days score 0.
	recencyWindowHours = 30 * 24

	// Access frequency saturates after ten recalls.
	accessSaturation = 10
)

// Options configures a Store. Zero fields take defaults.
type Options struct {
	// MaxMemories is the capacity watermark. When an insert pushes the
	// item count past it, the lowest-scoring EvictFraction of items is
	// evicted.
	MaxMemories int
	// EvictFraction of the store removed per eviction pass.
	EvictFraction float64
	// MaxContextHistory bounds the context ring buffer.
	MaxContextHistory int
	// ContextMemoryLimit caps the relevant memories UpdateContext returns.
	ContextMemoryLimit int
	// ContextPatternLimit caps the patterns UpdateContext returns.
	ContextPatternLimit int
	// AsyncEviction moves the eviction pass off the Store call path. The
	// capacity bound then holds eventually rather than on return.
	AsyncEviction bool
}

// DefaultOptions mirrors the engine's tuned capacities.
func DefaultOptions() Options {
	return Options{
		MaxMemories:         1000,
		EvictFraction:       0.2,
		MaxContextHistory:   50,
		ContextMemoryLimit:  10,
		ContextPatternLimit: 5,
	}
}

// entry is the internal mutable form of a MemoryItem. Access tracking uses
// atomics so recalls stay concurrent; everything else is guarded by the
// store lock.
type entry struct {
	id         string
	kind       model.MemoryKind
	content    string
	context    map[string]string
	importance int
	access     atomic.Int64
	lastAccess atomic.Int64 // unix nanos
	createdAt  time.Time
	expiresAt  *time.Time
	tags       []string
	rel        map[string]struct{}
}

func (e *entry) touch(now time.Time) {
	e.access.Add(1)
	e.lastAccess.Store(now.UnixNano())
}

// score is the composite retention/ranking score in [0,1]. Counter reads
// may be slightly stale relative to concurrent recalls; eviction tolerates
// that.
func (e *entry) score(importance int, now time.Time) float64 {
	imp := float64(importance) / float64(maxImportance)

	ageHours := now.Sub(time.Unix(0, e.lastAccess.Load())).Hours()
	recency := 1 - ageHours/recencyWindowHours
	if recency < 0 {
		recency = 0
	}

	access := float64(e.access.Load()) / accessSaturation
	if access > 1 {
		access = 1
	}

	return importanceWeight*imp + recencyWeight*recency + accessWeight*access
}

func (e *entry) snapshot() model.MemoryItem {
	tags := append([]string(nil), e.tags...)
	rel := make([]string, 0, len(e.rel))
	for id := range e.rel {
		rel = append(rel, id)
	}
	sort.Strings(rel)

	ctx := make(map[string]string, len(e.context))
	for k, v := range e.context {
		ctx[k] = v
	}

	return model.MemoryItem{
		ID:             e.id,
		Kind:           e.kind,
		Content:        e.content,
		Context:        ctx,
		Importance:     e.importance,
		AccessCount:    e.access.Load(),
		LastAccessedAt: time.Unix(0, e.lastAccess.Load()),
		CreatedAt:      e.createdAt,
		ExpiresAt:      e.expiresAt,
		Tags:           tags,
		Relationships:  rel,
	}
}

// Store is the contextual memory store: a capacity-bounded in-process record
// of facts, preferences and patterns with importance-decay ranking.
type Store struct {
	mu    sync.RWMutex
	items map[string]*entry

	patMu    sync.Mutex
	patterns map[string]*model.LearningPattern

	ctxMu      sync.Mutex
	ctxHistory []map[string]string

	opts     Options
	sweeping atomic.Bool
	logger   *log.Logger
}

// NewStore builds a Store from opts, filling in defaults for zero fields.
func NewStore(opts Options) *Store {
	def := DefaultOptions()
	if opts.MaxMemories <= 0 {
		opts.MaxMemories = def.MaxMemories
	}
	if opts.EvictFraction <= 0 || opts.EvictFraction >= 1 {
		opts.EvictFraction = def.EvictFraction
	}
	if opts.MaxContextHistory <= 0 {
		opts.MaxContextHistory = def.MaxContextHistory
	}
	if opts.ContextMemoryLimit <= 0 {
		opts.ContextMemoryLimit = def.ContextMemoryLimit
	}
	if opts.ContextPatternLimit <= 0 {
		opts.ContextPatternLimit = def.ContextPatternLimit
	}
	return &Store{
		items:    make(map[string]*entry),
		patterns: make(map[string]*model.LearningPattern),
		opts:     opts,
		logger:   log.WithPrefix("memory"),
	}
}

// Store inserts item, filling defaults (importance 50, empty tags and
// relationships, timestamps now), learns vocabulary patterns from its
// content, and triggers eviction once the item count exceeds the capacity
// watermark. Returns the item's id.
func (s *Store) Store(item model.MemoryItem) (string, error) {
	if item.Kind == "" {
		item.Kind = model.KindFact
	}
	if err := item.Kind.Validate(); err != nil {
		return "", goerr.Wrap(model.ErrInvalidArgument, err.Error())
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.Importance <= 0 {
		item.Importance = defaultImportance
	} else if item.Importance > maxImportance {
		item.Importance = maxImportance
	}

	now := time.Now()
	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = now
	}

	e := &entry{
		id:         item.ID,
		kind:       item.Kind,
		content:    item.Content,
		context:    make(map[string]string, len(item.Context)),
		importance: item.Importance,
		createdAt:  createdAt,
		expiresAt:  item.ExpiresAt,
		tags:       append([]string(nil), item.Tags...),
		rel:        make(map[string]struct{}, len(item.Relationships)),
	}
	for k, v := range item.Context {
		e.context[k] = v
	}
	for _, id := range item.Relationships {
		e.rel[id] = struct{}{}
	}
	e.lastAccess.Store(now.UnixNano())

	s.mu.Lock()
	s.items[item.ID] = e
	over := len(s.items) > s.opts.MaxMemories
	s.mu.Unlock()

	s.learnPatterns(item.Content)

	if over {
		if s.opts.AsyncEviction {
			if s.sweeping.CompareAndSwap(false, true) {
				go func() {
					defer s.sweeping.Store(false)
					s.evict()
				}()
			}
		} else {
			s.evict()
		}
	}
	return item.ID, nil
}

// Retrieve returns items matching the query, sorted descending by composite
// score and truncated to the query limit (default 10). Matching items are
// committed as accessed after selection.
func (s *Store) Retrieve(query model.MemoryQuery) []model.MemoryItem {
	limit := query.Limit
	if limit <= 0 {
		limit = 10
	}
	now := time.Now()

	type scored struct {
		e     *entry
		score float64
	}

	s.mu.RLock()
	matches := make([]scored, 0)
	for _, e := range s.items {
		if query.Kind != "" && e.kind != query.Kind {
			continue
		}
		if !hasAllTags(e.tags, query.Tags) {
			continue
		}
		if !contextMatches(e.context, query.Context) {
			continue
		}
		if query.MinImportance > 0 && e.importance < query.MinImportance {
			continue
		}
		matches = append(matches, scored{e: e, score: e.score(e.importance, now)})
	}
	s.mu.RUnlock()

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].e.id < matches[j].e.id
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}

	// Commit pass: selection above is pure, the access bump happens here.
	// Snapshots need the read lock again since they copy guarded fields.
	s.mu.RLock()
	results := make([]model.MemoryItem, 0, len(matches))
	for _, m := range matches {
		m.e.touch(now)
		results = append(results, m.e.snapshot())
	}
	s.mu.RUnlock()
	return results
}

func hasAllTags(have, want []string) bool {
	for _, tag := range want {
		found := false
		for _, t := range have {
			if t == tag {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func contextMatches(have, want map[string]string) bool {
	for k, v := range want {
		if have[k] != v {
			return false
		}
	}
	return true
}

// LearnFromInteraction records a Q/A exchange as a conversation memory.
// Feedback drives importance: positive 80, negative 90, neutral or absent
// 60. Negative interactions are deliberately ranked above positive ones so
// they get more future attention. Positive feedback additionally feeds the
// raw query into pattern learning.
func (s *Store) LearnFromInteraction(query, answer string, feedback model.Feedback) (string, error) {
	if feedback == "" {
		feedback = model.FeedbackNeutral
	}
	importance := 60
	switch feedback {
	case model.FeedbackPositive:
		importance = 80
	case model.FeedbackNegative:
		importance = 90
	}

	id, err := s.Store(model.MemoryItem{
		Kind:    model.KindConversation,
		Content: "Q: " + query + "\nA: " + answer,
		Context: map[string]string{
			"domain":   "conversation",
			"feedback": string(feedback),
		},
		Importance: importance,
		Tags:       []string{"conversation", string(feedback)},
	})
	if err != nil {
		return "", err
	}

	if feedback == model.FeedbackPositive {
		s.learnPatterns(query)
	}
	return id, nil
}

// SetImportance clamps value to [0,100] and applies it. Unknown ids are a
// no-op.
func (s *Store) SetImportance(id string, value int) {
	if value < 0 {
		value = 0
	}
	if value > maxImportance {
		value = maxImportance
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.items[id]; ok {
		e.importance = value
	}
}

// Relate adds a symmetric relationship edge between two items. Idempotent;
// a no-op when either id is absent.
func (s *Store) Relate(idA, idB string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, okA := s.items[idA]
	b, okB := s.items[idB]
	if !okA || !okB {
		return
	}
	a.rel[idB] = struct{}{}
	b.rel[idA] = struct{}{}
}

// Get returns a copy of the item under id.
func (s *Store) Get(id string) (model.MemoryItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.items[id]
	if !ok {
		return model.MemoryItem{}, goerr.Wrap(model.ErrNotFound, "no memory item", goerr.V("id", id))
	}
	return e.snapshot(), nil
}

// Count returns the number of stored items.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// evict removes the lowest-scoring fraction of items. It snapshots scores
// first, then re-checks each candidate's continued eligibility under the
// write lock so concurrent inserts and recalls cannot be evicted past the
// snapshot cutoff.
func (s *Store) evict() {
	now := time.Now()

	type scored struct {
		id    string
		score float64
	}

	s.mu.RLock()
	n := len(s.items)
	if n <= s.opts.MaxMemories {
		s.mu.RUnlock()
		return
	}
	all := make([]scored, 0, n)
	for id, e := range s.items {
		all = append(all, scored{id: id, score: e.score(e.importance, now)})
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].score < all[j].score })
	k := int(float64(n) * s.opts.EvictFraction)
	if k == 0 {
		k = 1
	}
	cutoff := all[k-1].score

	evicted := 0
	s.mu.Lock()
	for _, cand := range all[:k] {
		e, ok := s.items[cand.id]
		if !ok {
			continue
		}
		// Recalls since the snapshot may have lifted the item's score.
		if e.score(e.importance, now) > cutoff {
			continue
		}
		delete(s.items, cand.id)
		evicted++
	}
	remaining := len(s.items)
	s.mu.Unlock()

	s.logger.Debug("evicted low-scoring memories", "evicted", evicted, "remaining", remaining)
}

// Stats summarizes the store.
type Stats struct {
	Total          int                      `json:"total"`
	ByKind         map[model.MemoryKind]int `json:"by_kind"`
	AvgImportance  float64                  `json:"avg_importance"`
	TotalAccess    int64                    `json:"total_access"`
	PatternCount   int                      `json:"pattern_count"`
	ContextHistory int                      `json:"context_history"`
}

// Stats reports counts by kind, average importance, total access count,
// learned pattern count and context-history length.
func (s *Store) Stats() Stats {
	st := Stats{ByKind: make(map[model.MemoryKind]int)}

	s.mu.RLock()
	totalImportance := 0
	for _, e := range s.items {
		st.Total++
		st.ByKind[e.kind]++
		totalImportance += e.importance
		st.TotalAccess += e.access.Load()
	}
	s.mu.RUnlock()

	if st.Total > 0 {
		st.AvgImportance = float64(totalImportance) / float64(st.Total)
	}

	s.patMu.Lock()
	st.PatternCount = len(s.patterns)
	s.patMu.Unlock()

	s.ctxMu.Lock()
	st.ContextHistory = len(s.ctxHistory)
	s.ctxMu.Unlock()

	return st
}

// Clear drops all items, patterns and context history.
func (s *Store) Clear() {
	s.mu.Lock()
	s.items = make(map[string]*entry)
	s.mu.Unlock()

	s.patMu.Lock()
	s.patterns = make(map[string]*model.LearningPattern)
	s.patMu.Unlock()

	s.ctxMu.Lock()
	s.ctxHistory = nil
	s.ctxMu.Unlock()
}
