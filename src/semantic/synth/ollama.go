package synth

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	ollama "github.com/ollama/ollama/api"
)

// OllamaSynthesizer generates answers via a local (or remote) Ollama
// instance. The host is read from OLLAMA_HOST, defaulting to
// http://localhost:11434.
type OllamaSynthesizer struct {
	client *ollama.Client
	model  string
}

// NewOllamaSynthesizer builds a synthesizer for the given model, defaulting
// to llama3.2.
func NewOllamaSynthesizer(model string) (*OllamaSynthesizer, error) {
	host := os.Getenv("OLLAMA_HOST")
	if host == "" {
		host = "http://localhost:11434"
	}
	u, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid OLLAMA_HOST %q: %w", host, err)
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaSynthesizer{
		client: ollama.NewClient(u, &http.Client{Timeout: 120 * time.Second}),
		model:  model,
	}, nil
}

func (o *OllamaSynthesizer) Synthesize(ctx context.Context, question, retrieved string, prior []PriorAnswer) (Synthesis, error) {
	var text strings.Builder
	req := &ollama.GenerateRequest{
		Model:  o.model,
		Prompt: buildPrompt(question, retrieved, prior),
	}
	if err := o.client.Generate(ctx, req, func(gr ollama.GenerateResponse) error {
		if gr.Response != "" {
			text.WriteString(gr.Response)
		}
		return nil
	}); err != nil {
		return Synthesis{}, err
	}
	return Synthesis{
		Answer:    text.String(),
		Reasoning: "Generated from retrieved context by " + o.model,
	}, nil
}
