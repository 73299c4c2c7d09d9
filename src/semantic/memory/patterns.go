package memory

import (
	"sort"
	"strings"
	"time"

	"github.com/gemseek/facet/src/semantic/model"
)

const (
	// Tokens at or below this length carry no signal.
	minTokenLength = 4

	// Frequency at which pattern confidence saturates at 1.0.
	patternSaturation = 10

	// Each pattern keeps only its most recent examples.
	maxPatternExamples = 5

	patternIDPrefix = "pattern_"
)

// learnPatterns tokenizes content and upserts one LearningPattern per
// distinct token longer than three characters.
func (s *Store) learnPatterns(content string) {
	tokens := tokenize(content)
	if len(tokens) == 0 {
		return
	}
	now := time.Now()

	s.patMu.Lock()
	defer s.patMu.Unlock()
	for token := range tokens {
		id := patternIDPrefix + token
		p, ok := s.patterns[id]
		if !ok {
			p = &model.LearningPattern{ID: id, Token: token}
			s.patterns[id] = p
		}
		p.Frequency++
		p.Confidence = float64(p.Frequency) / patternSaturation
		if p.Confidence > 1 {
			p.Confidence = 1
		}
		p.Examples = append(p.Examples, content)
		if len(p.Examples) > maxPatternExamples {
			p.Examples = p.Examples[len(p.Examples)-maxPatternExamples:]
		}
		p.LastUpdatedAt = now
	}
}

func tokenize(content string) map[string]struct{} {
	tokens := make(map[string]struct{})
	for _, word := range strings.Fields(strings.ToLower(content)) {
		if len(word) >= minTokenLength {
			tokens[word] = struct{}{}
		}
	}
	return tokens
}

// Patterns returns a copy of all learned patterns, sorted descending by
// confidence.
func (s *Store) Patterns() []model.LearningPattern {
	s.patMu.Lock()
	out := make([]model.LearningPattern, 0, len(s.patterns))
	for _, p := range s.patterns {
		cp := *p
		cp.Examples = append([]string(nil), p.Examples...)
		out = append(out, cp)
	}
	s.patMu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].ID < out[j].ID
	})
	return out
}
