package memory

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/gemseek/facet/src/semantic/model"
)

const (
	// An item qualifies as context-relevant above this score.
	contextRelevanceThreshold = 0.5

	tagOverlapWeight   = 0.5
	keywordMatchWeight = 0.3

	memoryConfidenceWeight  = 0.6
	patternConfidenceWeight = 0.4
)

// UpdateContext appends context to the bounded history ring, computes which
// stored items and learned patterns are relevant to it, and derives an
// overall confidence (0-100). Relevant items are committed as accessed, the
// same as a recall.
func (s *Store) UpdateContext(context map[string]string) model.ContextualMemory {
	now := time.Now()

	ctxCopy := make(map[string]string, len(context))
	for k, v := range context {
		ctxCopy[k] = v
	}

	historyEntry := make(map[string]string, len(context)+1)
	for k, v := range context {
		historyEntry[k] = v
	}
	historyEntry["timestamp"] = now.Format(time.RFC3339)

	s.ctxMu.Lock()
	s.ctxHistory = append(s.ctxHistory, historyEntry)
	if len(s.ctxHistory) > s.opts.MaxContextHistory {
		s.ctxHistory = s.ctxHistory[len(s.ctxHistory)-s.opts.MaxContextHistory:]
	}
	s.ctxMu.Unlock()

	serialized := serializeContext(context)
	contextTags := extractContextTags(context)

	type scored struct {
		e     *entry
		score float64
	}

	s.mu.RLock()
	relevant := make([]scored, 0)
	for _, e := range s.items {
		if contextRelevance(e, context, contextTags, serialized) <= contextRelevanceThreshold {
			continue
		}
		relevant = append(relevant, scored{e: e, score: e.score(e.importance, now)})
	}
	s.mu.RUnlock()

	sort.Slice(relevant, func(i, j int) bool {
		if relevant[i].score != relevant[j].score {
			return relevant[i].score > relevant[j].score
		}
		return relevant[i].e.id < relevant[j].e.id
	})
	if len(relevant) > s.opts.ContextMemoryLimit {
		relevant = relevant[:s.opts.ContextMemoryLimit]
	}

	var memScoreSum float64
	s.mu.RLock()
	memories := make([]model.MemoryItem, 0, len(relevant))
	for _, r := range relevant {
		r.e.touch(now)
		memories = append(memories, r.e.snapshot())
		memScoreSum += r.score
	}
	s.mu.RUnlock()

	patterns := s.relevantPatterns(serialized)

	var avgMemScore, avgPatConf float64
	if len(memories) > 0 {
		avgMemScore = memScoreSum / float64(len(memories))
	}
	if len(patterns) > 0 {
		var sum float64
		for _, p := range patterns {
			sum += p.Confidence
		}
		avgPatConf = sum / float64(len(patterns))
	}
	confidence := 100 * (memoryConfidenceWeight*avgMemScore + patternConfidenceWeight*avgPatConf)
	if confidence > 100 {
		confidence = 100
	}

	return model.ContextualMemory{
		Context:    ctxCopy,
		Memories:   memories,
		Patterns:   patterns,
		Confidence: confidence,
	}
}

// contextRelevance blends exact context-field matches, tag overlap and
// content-keyword hits against the serialized context.
func contextRelevance(e *entry, context map[string]string, contextTags map[string]struct{}, serialized string) float64 {
	relevance := 0.0
	for k, v := range context {
		if e.context[k] == v {
			relevance++
		}
	}
	for _, tag := range e.tags {
		if _, ok := contextTags[tag]; ok {
			relevance += tagOverlapWeight
		}
	}
	for token := range tokenize(e.content) {
		if strings.Contains(serialized, token) {
			relevance += keywordMatchWeight
		}
	}
	return relevance
}

// extractContextTags flattens context keys and values into a tag set.
func extractContextTags(context map[string]string) map[string]struct{} {
	tags := make(map[string]struct{}, len(context)*2)
	for k, v := range context {
		tags[k] = struct{}{}
		tags[strings.ReplaceAll(strings.ToLower(v), " ", "-")] = struct{}{}
	}
	return tags
}

func serializeContext(context map[string]string) string {
	raw, err := json.Marshal(context)
	if err != nil {
		return ""
	}
	return strings.ToLower(string(raw))
}

// relevantPatterns returns the highest-confidence patterns whose token
// appears in the serialized context.
func (s *Store) relevantPatterns(serialized string) []model.LearningPattern {
	s.patMu.Lock()
	matched := make([]model.LearningPattern, 0)
	for _, p := range s.patterns {
		if strings.Contains(serialized, p.Token) {
			cp := *p
			cp.Examples = append([]string(nil), p.Examples...)
			matched = append(matched, cp)
		}
	}
	s.patMu.Unlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].Confidence != matched[j].Confidence {
			return matched[i].Confidence > matched[j].Confidence
		}
		return matched[i].ID < matched[j].ID
	})
	if len(matched) > s.opts.ContextPatternLimit {
		matched = matched[:s.opts.ContextPatternLimit]
	}
	return matched
}
