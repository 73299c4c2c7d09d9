package model

import (
	"fmt"
	"time"
)

// MemoryKind classifies what a memory item records.
type MemoryKind string

const (
	KindConversation MemoryKind = "conversation"
	KindPreference   MemoryKind = "preference"
	KindFact         MemoryKind = "fact"
	KindInsight      MemoryKind = "insight"
	KindPattern      MemoryKind = "pattern"
)

var validMemoryKinds = map[MemoryKind]struct{}{
	KindConversation: {},
	KindPreference:   {},
	KindFact:         {},
	KindInsight:      {},
	KindPattern:      {},
}

// Validate reports whether the kind is one of the supported values.
func (k MemoryKind) Validate() error {
	if _, ok := validMemoryKinds[k]; !ok {
		return fmt.Errorf("unsupported memory kind %q", k)
	}
	return nil
}

// Feedback is caller-supplied signal about a prior answer.
type Feedback string

const (
	FeedbackPositive Feedback = "positive"
	FeedbackNegative Feedback = "negative"
	FeedbackNeutral  Feedback = "neutral"
)

// EmbeddingRecord is one indexed piece of content with its vector.
// All vectors stored in a single index share the same dimension.
type EmbeddingRecord struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Vector    []float32         `json:"vector"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"created_at"`
}

// SearchResult is a scored index hit. Similarity is raw cosine similarity;
// Relevance blends similarity with metadata overlap against the query.
type SearchResult struct {
	ID         string            `json:"id"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata"`
	Similarity float64           `json:"similarity"`
	Relevance  float64           `json:"relevance"`
}

// MemoryItem is one entry in the contextual memory store.
// Relationship edges are symmetric: if A lists B, B lists A.
type MemoryItem struct {
	ID             string            `json:"id"`
	Kind           MemoryKind        `json:"kind"`
	Content        string            `json:"content"`
	Context        map[string]string `json:"context"`
	Importance     int               `json:"importance"` // 0-100
	AccessCount    int64             `json:"access_count"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	CreatedAt      time.Time         `json:"created_at"`
	ExpiresAt      *time.Time        `json:"expires_at,omitempty"`
	Tags           []string          `json:"tags"`
	Relationships  []string          `json:"relationships"`
}

// MemoryQuery filters a retrieve call. Tags are conjunctive: every requested
// tag must be present on a matching item. Context keys must match exactly.
type MemoryQuery struct {
	Kind          MemoryKind
	Tags          []string
	Context       map[string]string
	MinImportance int
	Limit         int
}

// LearningPattern tracks a recurring vocabulary token across stored memories.
// Confidence saturates at 1.0 once the token has been seen ten times.
type LearningPattern struct {
	ID            string    `json:"id"`
	Token         string    `json:"token"`
	Confidence    float64   `json:"confidence"`
	Frequency     int       `json:"frequency"`
	Examples      []string  `json:"examples"` // most recent five
	LastUpdatedAt time.Time `json:"last_updated_at"`
}

// ContextualMemory is the per-call view computed by UpdateContext. It is
// never stored.
type ContextualMemory struct {
	Context    map[string]string `json:"context"`
	Memories   []MemoryItem      `json:"memories"`
	Patterns   []LearningPattern `json:"patterns"`
	Confidence float64           `json:"confidence"` // 0-100
}

// Answer is the retrieval pipeline's ranked, confidence-scored response.
type Answer struct {
	Text       string         `json:"text"`
	Context    []SearchResult `json:"context"`
	Confidence float64        `json:"confidence"` // 0.0-1.0
	Sources    []string       `json:"sources"`
	Reasoning  string         `json:"reasoning"`
	FollowUps  []string       `json:"follow_ups"`
}

// RequestKind routes a request through the orchestrator.
type RequestKind string

const (
	RequestQuery          RequestKind = "query"
	RequestAnalysis       RequestKind = "analysis"
	RequestPrediction     RequestKind = "prediction"
	RequestRecommendation RequestKind = "recommendation"
)

// Validate reports whether the request kind is routable.
func (k RequestKind) Validate() error {
	switch k {
	case RequestQuery, RequestAnalysis, RequestPrediction, RequestRecommendation:
		return nil
	}
	return fmt.Errorf("unsupported request kind %q", k)
}

// Priority is advisory; the engine does not reorder work by it.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Request is the orchestrator's sole input shape.
type Request struct {
	Kind     RequestKind       `json:"kind"`
	Context  map[string]string `json:"context"`
	Text     string            `json:"text"`
	Priority Priority          `json:"priority"`
}

// Response is the orchestrator's sole output shape. Failures are normalized
// into it as well (Kind "error", Confidence 0.1) rather than returned as
// errors.
type Response struct {
	ID             string        `json:"id"`
	RequestID      string        `json:"request_id"`
	Kind           string        `json:"kind"`
	Text           string        `json:"text"`
	Confidence     float64       `json:"confidence"`
	Sources        []string      `json:"sources"`
	Reasoning      string        `json:"reasoning"`
	FollowUps      []string      `json:"follow_ups"`
	MemoryUpdates  []string      `json:"memory_updates"`
	ProcessingTime time.Duration `json:"processing_time"`
	Timestamp      time.Time     `json:"timestamp"`
}

// InsightType tags a structured insight extracted during analysis.
type InsightType string

const (
	InsightTrend       InsightType = "trend"
	InsightOpportunity InsightType = "opportunity"
	InsightRisk        InsightType = "risk"
)

// Insight is a structured finding emitted by analysis requests.
type Insight struct {
	Type       InsightType `json:"type"`
	Title      string      `json:"title"`
	Detail     string      `json:"detail"`
	Confidence float64     `json:"confidence"`
	Impact     string      `json:"impact"`
	Timeframe  string      `json:"timeframe"`
	Actionable bool        `json:"actionable"`
	Related    []string    `json:"related"`
	CreatedAt  time.Time   `json:"created_at"`
}
