package synth

import (
	"context"
	"errors"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
)

// ClaudeSynthesizer generates answers via the Anthropic messages API.
// Requires ANTHROPIC_API_KEY.
type ClaudeSynthesizer struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewClaudeSynthesizer builds a synthesizer for the given model, defaulting
// to claude-3-5-haiku-latest.
func NewClaudeSynthesizer(model string) (*ClaudeSynthesizer, error) {
	if os.Getenv("ANTHROPIC_API_KEY") == "" {
		return nil, errors.New("ClaudeSynthesizer: ANTHROPIC_API_KEY not set")
	}
	if model == "" {
		model = string(anthropic.ModelClaude3_5HaikuLatest)
	}
	return &ClaudeSynthesizer{
		client: anthropic.NewClient(),
		model:  anthropic.Model(model),
	}, nil
}

func (c *ClaudeSynthesizer) Synthesize(ctx context.Context, question, retrieved string, prior []PriorAnswer) (Synthesis, error) {
	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(buildPrompt(question, retrieved, prior))),
		},
	})
	if err != nil {
		return Synthesis{}, err
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return Synthesis{}, errors.New("anthropic: empty completion")
	}
	return Synthesis{
		Answer:    text.String(),
		Reasoning: "Generated from retrieved context by " + string(c.model),
	}, nil
}
