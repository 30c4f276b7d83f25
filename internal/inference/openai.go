package inference

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAITransport talks to an OpenAI-compatible chat completion endpoint.
// Ollama serves one under /v1, so the same local model can be reached
// through either protocol. The context-window hint has no equivalent in
// this API and is not sent.
type OpenAITransport struct {
	apiKey string
}

// NewOpenAITransport returns a transport authenticating with apiKey.
// Local servers ignore the key; it may be empty.
func NewOpenAITransport(apiKey string) *OpenAITransport {
	return &OpenAITransport{apiKey: apiKey}
}

// Generate sends req.Prompt as a single user message to the API rooted at
// endpoint and returns the first choice.
func (t *OpenAITransport) Generate(
	ctx context.Context,
	endpoint string,
	req Request,
) (string, error) {
	config := openai.DefaultConfig(t.apiKey)
	config.BaseURL = endpoint
	client := openai.NewClientWithConfig(config)

	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: req.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}
