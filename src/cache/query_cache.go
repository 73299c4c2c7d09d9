// Package cache holds the retrieval pipeline's bounded query/response cache.
package cache

import (
	"container/list"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/goerr/v2"

	"github.com/gemseek/facet/src/semantic/model"
)

const (
	// DefaultCapacity bounds the cache; the globally oldest entry is
	// dropped on overflow.
	DefaultCapacity = 100

	// Usage saturates after ten hits, matching the memory store's access
	// saturation.
	usageSaturation = 10

	// Recency decays linearly to 0 over 30 days, matching memory recency.
	recencyWindowHours = 30 * 24

	usageWeight   = 0.7
	recencyWeight = 0.3
)

// Entry is one cached query/response pair with feedback and usage tracking.
type Entry struct {
	ID        string         `json:"id"`
	Query     string         `json:"query"`
	Answer    model.Answer   `json:"answer"`
	CreatedAt time.Time      `json:"created_at"`
	Feedback  model.Feedback `json:"feedback,omitempty"`
	Usage     int            `json:"usage"`
}

// QueryCache is a thread-safe bounded cache of prior answers. Entries are
// kept in insertion order; overflow evicts the oldest by timestamp.
type QueryCache struct {
	mu       sync.RWMutex
	capacity int
	items    map[string]*list.Element
	order    *list.List // front = newest insert
}

// NewQueryCache creates a cache holding up to capacity entries.
func NewQueryCache(capacity int) *QueryCache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &QueryCache{
		capacity: capacity,
		items:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Add stores a query/answer pair and returns the new entry's id, evicting
// the oldest entry if the cache is full.
func (c *QueryCache) Add(query string, answer model.Answer) string {
	entry := &Entry{
		ID:        uuid.NewString(),
		Query:     query,
		Answer:    answer,
		CreatedAt: time.Now(),
		Usage:     1,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	elem := c.order.PushFront(entry)
	c.items[entry.ID] = elem

	if c.order.Len() > c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.items, oldest.Value.(*Entry).ID)
		}
	}
	return entry.ID
}

// Get returns a copy of the entry under id.
func (c *QueryCache) Get(id string) (Entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	elem, ok := c.items[id]
	if !ok {
		return Entry{}, goerr.Wrap(model.ErrNotFound, "no cached query", goerr.V("id", id))
	}
	return *elem.Value.(*Entry), nil
}

// SetFeedback records caller feedback on a cached answer and bumps its
// usage.
func (c *QueryCache) SetFeedback(id string, feedback model.Feedback) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.items[id]
	if !ok {
		return goerr.Wrap(model.ErrNotFound, "no cached query", goerr.V("id", id))
	}
	entry := elem.Value.(*Entry)
	entry.Feedback = feedback
	entry.Usage++
	return nil
}

// FindSimilar returns up to limit entries whose query's Jaccard word-set
// similarity with query exceeds minSimilarity, ranked by a blend of
// saturating usage and linear recency. Matches have their usage bumped.
func (c *QueryCache) FindSimilar(query string, minSimilarity float64, limit int) []Entry {
	now := time.Now()
	queryWords := wordSet(query)

	type ranked struct {
		entry *Entry
		score float64
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	matches := make([]ranked, 0)
	for _, elem := range c.items {
		entry := elem.Value.(*Entry)
		if Jaccard(queryWords, wordSet(entry.Query)) <= minSimilarity {
			continue
		}
		matches = append(matches, ranked{entry: entry, score: rankScore(entry, now)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].entry.CreatedAt.After(matches[j].entry.CreatedAt)
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}

	out := make([]Entry, 0, len(matches))
	for _, m := range matches {
		m.entry.Usage++
		out = append(out, *m.entry)
	}
	return out
}

// rankScore blends saturating usage with linear recency. Both terms live in
// [0,1], so the weighted sum is monotonic in each.
func rankScore(entry *Entry, now time.Time) float64 {
	usage := float64(entry.Usage) / usageSaturation
	if usage > 1 {
		usage = 1
	}
	recency := 1 - now.Sub(entry.CreatedAt).Hours()/recencyWindowHours
	if recency < 0 {
		recency = 0
	}
	return usageWeight*usage + recencyWeight*recency
}

// Jaccard computes |A∩B| / |A∪B| over two word sets. Two empty sets score 0.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	intersection := 0
	for w := range a {
		if _, ok := b[w]; ok {
			intersection++
		}
	}
	union := len(a) + len(b) - intersection
	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		words[w] = struct{}{}
	}
	return words
}

// Len returns the number of cached entries.
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.order.Len()
}

// Clear removes all entries.
func (c *QueryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*list.Element, c.capacity)
	c.order.Init()
}

// Stats summarizes cached feedback and usage.
type Stats struct {
	Total    int     `json:"total"`
	Positive int     `json:"positive"`
	Negative int     `json:"negative"`
	Neutral  int     `json:"neutral"`
	AvgUsage float64 `json:"avg_usage"`
}

// Stats tallies entries by feedback and averages usage.
func (c *QueryCache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	st := Stats{}
	totalUsage := 0
	for _, elem := range c.items {
		entry := elem.Value.(*Entry)
		st.Total++
		totalUsage += entry.Usage
		switch entry.Feedback {
		case model.FeedbackPositive:
			st.Positive++
		case model.FeedbackNegative:
			st.Negative++
		case model.FeedbackNeutral:
			st.Neutral++
		}
	}
	if st.Total > 0 {
		st.AvgUsage = float64(totalUsage) / float64(st.Total)
	}
	return st
}

// Dump copies all entries, newest first, for external snapshotting.
func (c *QueryCache) Dump() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Entry, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		out = append(out, *elem.Value.(*Entry))
	}
	return out
}

// Restore replaces the cache contents from a dump, enforcing capacity by
// dropping the oldest entries.
func (c *QueryCache) Restore(entries []Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.order.Init()
	c.items = make(map[string]*list.Element, c.capacity)

	sorted := append([]Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].CreatedAt.Before(sorted[j].CreatedAt) })
	if len(sorted) > c.capacity {
		sorted = sorted[len(sorted)-c.capacity:]
	}
	for i := range sorted {
		entry := sorted[i]
		elem := c.order.PushFront(&entry)
		c.items[entry.ID] = elem
	}
}
