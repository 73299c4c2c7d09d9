package synth

import (
	"context"
	"errors"
	"os"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAISynthesizer generates answers via the OpenAI chat API. Requires
// OPENAI_API_KEY.
type OpenAISynthesizer struct {
	client *openai.Client
	model  string
}

// NewOpenAISynthesizer builds a synthesizer for the given model, defaulting
// to gpt-4o-mini.
func NewOpenAISynthesizer(model string) (*OpenAISynthesizer, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, errors.New("OpenAISynthesizer: OPENAI_API_KEY not set")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAISynthesizer{
		client: openai.NewClient(apiKey),
		model:  model,
	}, nil
}

func (o *OpenAISynthesizer) Synthesize(ctx context.Context, question, retrieved string, prior []PriorAnswer) (Synthesis, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: o.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(question, retrieved, prior)},
		},
	})
	if err != nil {
		return Synthesis{}, err
	}
	if len(resp.Choices) == 0 {
		return Synthesis{}, errors.New("openai: empty completion")
	}
	return Synthesis{
		Answer:    resp.Choices[0].Message.Content,
		Reasoning: "Generated from retrieved context by " + o.model,
	}, nil
}
