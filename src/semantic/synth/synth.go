// Package synth owns the answer-synthesis port: the pluggable capability
// the retrieval pipeline delegates to for turning retrieved context into an
// answer. The templated reference implementation is deterministic; provider
// backends can be swapped in without touching the pipeline.
package synth

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/log"
)

// PriorAnswer is a previously cached answer to a similar query.
type PriorAnswer struct {
	Query  string
	Answer string
}

// Synthesis is the port's output.
type Synthesis struct {
	Answer    string
	Reasoning string
}

// Synthesizer produces an answer from a question, the concatenated
// retrieved context, and prior similar answers.
type Synthesizer interface {
	Synthesize(ctx context.Context, question, retrieved string, prior []PriorAnswer) (Synthesis, error)
}

// AutoSynthesizer chooses a provider from env:
// FACET_SYNTH_PROVIDER=openai|ollama|claude
// FACET_SYNTH_MODEL=<model string>
// Unset or failed providers fall back to the templated synthesizer.
func AutoSynthesizer() Synthesizer {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("FACET_SYNTH_PROVIDER")))
	model := strings.TrimSpace(os.Getenv("FACET_SYNTH_MODEL"))

	switch provider {
	case "openai":
		if s, err := NewOpenAISynthesizer(model); err == nil {
			return s
		}
	case "ollama":
		if s, err := NewOllamaSynthesizer(model); err == nil {
			return s
		}
	case "claude", "anthropic":
		if s, err := NewClaudeSynthesizer(model); err == nil {
			return s
		}
	}

	log.WithPrefix("synth").Debug("falling back to template synthesizer", "provider", provider)
	return TemplateSynthesizer{}
}

// buildPrompt composes the generation prompt shared by the provider-backed
// synthesizers.
func buildPrompt(question, retrieved string, prior []PriorAnswer) string {
	var sb strings.Builder
	sb.WriteString("You are a marketing analyst for jewellery retailers. Answer using only the context below.\n\n")
	if retrieved != "" {
		sb.WriteString("Context:\n")
		sb.WriteString(retrieved)
		sb.WriteString("\n\n")
	}
	for _, p := range prior {
		fmt.Fprintf(&sb, "Previously asked: %q\nPrevious answer: %s\n\n", p.Query, p.Answer)
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	return sb.String()
}
