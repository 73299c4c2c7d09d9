package embed

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// Embedder is a pluggable text-embedding provider. Implementations must be
// deterministic for identical input so search results stay reproducible.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ErrNotSupported is returned by providers that cannot produce embeddings.
var ErrNotSupported = errors.New("embeddings not supported by this provider")

// DefaultDim matches the sentence-transformers family the engine was tuned
// against.
const DefaultDim = 384

// HashEmbedder derives a fixed-dimension vector from a stable hash
// projection of the input text. It is a placeholder for a real embedding
// model, kept as the default so the engine is usable with zero credentials.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder returns a hash-projection embedder of the given dimension.
func NewHashEmbedder(dim int) HashEmbedder {
	if dim <= 0 {
		dim = DefaultDim
	}
	return HashEmbedder{Dim: dim}
}

func (h HashEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return HashEmbedding(text, h.Dim), nil
}

// HashEmbedding is the raw projection, exported for tests. Each token
// contributes a sine wave seeded by its hash, so texts sharing vocabulary
// land measurably closer than unrelated ones. Text with no tokens maps to
// the zero vector, which cosine similarity treats as matching nothing.
func HashEmbedding(text string, dim int) []float32 {
	if dim <= 0 {
		dim = DefaultDim
	}
	vec := make([]float32, dim)

	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return vec
	}
	for _, token := range tokens {
		hasher := fnv.New32a()
		hasher.Write([]byte(token))
		seed := float64(hasher.Sum32())
		for i := range vec {
			vec[i] += float32(math.Sin(seed+float64(i))*0.5 + 0.5)
		}
	}
	scale := 1 / float32(len(tokens))
	for i := range vec {
		vec[i] *= scale
	}
	return vec
}

// AutoEmbedder chooses a provider from env:
// FACET_EMBED_PROVIDER=openai|ollama|gemini|voyage|fastembed
// FACET_EMBED_MODEL=<model string>
// Unset or failed providers fall back to the deterministic HashEmbedder.
func AutoEmbedder() Embedder {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("FACET_EMBED_PROVIDER")))
	model := strings.TrimSpace(os.Getenv("FACET_EMBED_MODEL"))

	switch provider {
	case "openai":
		if e, err := NewOpenAIEmbedder(model); err == nil {
			return e
		}
	case "ollama":
		if e, err := NewOllamaEmbedder(model); err == nil {
			return e
		}
	case "gemini", "google":
		if e, err := NewGeminiEmbedder(context.Background(), model); err == nil {
			return e
		}
	case "voyage":
		if e, err := NewVoyageEmbedder(model); err == nil {
			return e
		}
	case "fastembed":
		if opts := defaultFastEmbedOptions(); opts != nil {
			if e, err := NewFastEmbedder(context.Background(), opts); err == nil {
				return e
			}
		}
	}

	log.WithPrefix("embed").Debug("falling back to hash embedder", "provider", provider)
	return NewHashEmbedder(DefaultDim)
}

func f64toF32(v []float64) []float32 {
	r := make([]float32, len(v))
	for i, x := range v {
		r[i] = float32(x)
	}
	return r
}
