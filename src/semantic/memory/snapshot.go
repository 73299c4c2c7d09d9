package memory

import (
	"time"

	"github.com/gemseek/facet/src/semantic/model"
)

// Snapshot is a volatile copy of the store contents. Persisting it is the
// caller's concern; the store itself never touches disk.
type Snapshot struct {
	Memories       []model.MemoryItem      `json:"memories"`
	Patterns       []model.LearningPattern `json:"patterns"`
	ContextHistory []map[string]string     `json:"context_history"`
}

// Export copies the full store state.
func (s *Store) Export() Snapshot {
	snap := Snapshot{Patterns: s.Patterns()}

	s.mu.RLock()
	snap.Memories = make([]model.MemoryItem, 0, len(s.items))
	for _, e := range s.items {
		snap.Memories = append(snap.Memories, e.snapshot())
	}
	s.mu.RUnlock()

	s.ctxMu.Lock()
	snap.ContextHistory = make([]map[string]string, 0, len(s.ctxHistory))
	for _, ctx := range s.ctxHistory {
		cp := make(map[string]string, len(ctx))
		for k, v := range ctx {
			cp[k] = v
		}
		snap.ContextHistory = append(snap.ContextHistory, cp)
	}
	s.ctxMu.Unlock()

	return snap
}

// Import replaces the store state with snap. Item timestamps and counters
// are restored as-is, so recency and access scores survive the round trip.
func (s *Store) Import(snap Snapshot) {
	s.Clear()

	s.mu.Lock()
	for _, item := range snap.Memories {
		e := &entry{
			id:         item.ID,
			kind:       item.Kind,
			content:    item.Content,
			context:    make(map[string]string, len(item.Context)),
			importance: item.Importance,
			createdAt:  item.CreatedAt,
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
		e.access.Store(item.AccessCount)
		last := item.LastAccessedAt
		if last.IsZero() {
			last = time.Now()
		}
		e.lastAccess.Store(last.UnixNano())
		s.items[item.ID] = e
	}
	s.mu.Unlock()

	s.patMu.Lock()
	for _, p := range snap.Patterns {
		cp := p
		cp.Examples = append([]string(nil), p.Examples...)
		s.patterns[p.ID] = &cp
	}
	s.patMu.Unlock()

	s.ctxMu.Lock()
	for _, ctx := range snap.ContextHistory {
		cp := make(map[string]string, len(ctx))
		for k, v := range ctx {
			cp[k] = v
		}
		s.ctxHistory = append(s.ctxHistory, cp)
	}
	if len(s.ctxHistory) > s.opts.MaxContextHistory {
		s.ctxHistory = s.ctxHistory[len(s.ctxHistory)-s.opts.MaxContextHistory:]
	}
	s.ctxMu.Unlock()
}
