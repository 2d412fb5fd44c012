// Package hint turns a failed run into a short AI-written explanation for the
// learner. It is optional: when no provider is configured the rest of the
// platform works unchanged.
package hint

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const systemPrompt = `You are a patient OpenCV tutor. A beginner submitted a short
Python/OpenCV script and it failed. Explain in two or three sentences what went
wrong and how to fix it. Do not rewrite their whole script.`

// Explainer asks an OpenAI-compatible API to explain execution errors.
type Explainer struct {
	client *openai.Client
	model  string
}

// New creates an explainer for the given provider. Works with any
// OpenAI-compatible endpoint (Ollama included).
func New(baseURL, apiKey, model string) *Explainer {
	client := openai.NewClient(
		option.WithBaseURL(baseURL),
		option.WithAPIKey(apiKey),
	)
	return &Explainer{client: &client, model: model}
}

// Explain returns a learner-facing explanation of why the given code failed
// with the given error message.
func (e *Explainer) Explain(ctx context.Context, code, errMsg string) (string, error) {
	user := fmt.Sprintf("My code:\n```python\n%s\n```\n\nThe error I got:\n%s", code, errMsg)

	completion, err := e.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: e.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return completion.Choices[0].Message.Content, nil
}
