// Package facet is an in-process semantic retrieval and contextual memory
// engine: an embedding index with similarity search, a capacity-bounded
// memory store with importance-decay eviction, a retrieval-augmented query
// pipeline with a bounded answer cache, and an orchestrator that routes
// typed requests through them.
package facet

import (
	cachepkg "github.com/gemseek/facet/src/cache"
	embedpkg "github.com/gemseek/facet/src/semantic/embed"
	indexpkg "github.com/gemseek/facet/src/semantic/index"
	memorypkg "github.com/gemseek/facet/src/semantic/memory"
	"github.com/gemseek/facet/src/semantic/model"
	orchpkg "github.com/gemseek/facet/src/semantic/orchestrator"
	ragpkg "github.com/gemseek/facet/src/semantic/rag"
	synthpkg "github.com/gemseek/facet/src/semantic/synth"
)

// Type aliases preserving one import path for library consumers.
type (
	EmbeddingRecord  = model.EmbeddingRecord
	SearchResult     = model.SearchResult
	MemoryItem       = model.MemoryItem
	MemoryQuery      = model.MemoryQuery
	MemoryKind       = model.MemoryKind
	LearningPattern  = model.LearningPattern
	ContextualMemory = model.ContextualMemory
	Answer           = model.Answer
	Request          = model.Request
	Response         = model.Response
	RequestKind      = model.RequestKind
	Priority         = model.Priority
	Feedback         = model.Feedback
	Insight          = model.Insight
	InsightType      = model.InsightType

	Index        = indexpkg.Index
	IndexOptions = indexpkg.Options
	Document     = indexpkg.Document

	Store        = memorypkg.Store
	StoreOptions = memorypkg.Options
	Snapshot     = memorypkg.Snapshot

	Pipeline        = ragpkg.Pipeline
	PipelineOptions = ragpkg.Options
	PipelineQuery   = ragpkg.Query

	Orchestrator        = orchpkg.Orchestrator
	OrchestratorOptions = orchpkg.Options

	QueryCache = cachepkg.QueryCache
	CacheEntry = cachepkg.Entry

	Embedder     = embedpkg.Embedder
	HashEmbedder = embedpkg.HashEmbedder

	Synthesizer         = synthpkg.Synthesizer
	Synthesis           = synthpkg.Synthesis
	PriorAnswer         = synthpkg.PriorAnswer
	TemplateSynthesizer = synthpkg.TemplateSynthesizer
)

const (
	KindConversation = model.KindConversation
	KindPreference   = model.KindPreference
	KindFact         = model.KindFact
	KindInsight      = model.KindInsight
	KindPattern      = model.KindPattern

	RequestQuery          = model.RequestQuery
	RequestAnalysis       = model.RequestAnalysis
	RequestPrediction     = model.RequestPrediction
	RequestRecommendation = model.RequestRecommendation

	FeedbackPositive = model.FeedbackPositive
	FeedbackNegative = model.FeedbackNegative
	FeedbackNeutral  = model.FeedbackNeutral

	PriorityHigh   = model.PriorityHigh
	PriorityMedium = model.PriorityMedium
	PriorityLow    = model.PriorityLow
)

var (
	ErrNotFound          = model.ErrNotFound
	ErrInvalidArgument   = model.ErrInvalidArgument
	ErrDimensionMismatch = model.ErrDimensionMismatch

	NewIndex        = indexpkg.New
	NewStore        = memorypkg.NewStore
	NewPipeline     = ragpkg.New
	NewOrchestrator = orchpkg.New
	NewQueryCache   = cachepkg.NewQueryCache

	NewHashEmbedder = embedpkg.NewHashEmbedder
	AutoEmbedder    = embedpkg.AutoEmbedder
	AutoSynthesizer = synthpkg.AutoSynthesizer

	SeedJewelleryKnowledge = orchpkg.SeedJewelleryKnowledge
	SeedDefaultMemories    = orchpkg.SeedDefaultMemories
)
