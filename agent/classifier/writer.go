package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	contractx "github.com/pattarin-dev/shopflow/agent/contract"
)

// writerImpl summarizes catalog matches conversationally. It talks to
// OpenRouter through the OpenAI SDK directly rather than an eino graph
// since the output is free text with no schema to parse.
type writerImpl struct {
	client       *openaisdk.Client
	model        string
	temperature  float64
	systemPrompt string
}

func newWriter(client *openaisdk.Client, model string, temperature float64, systemPrompt string) *writerImpl {
	return &writerImpl{
		client:       client,
		model:        model,
		temperature:  temperature,
		systemPrompt: systemPrompt,
	}
}

func (w *writerImpl) Write(ctx context.Context, req contractx.ReplyRequest) (string, error) {
	payload := map[string]any{
		"message":  req.Message,
		"products": req.Suggestions,
	}
	inputBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%w: marshal writer payload: %v", contractx.ErrValidation, err)
	}

	resp, err := w.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model: openaisdk.ChatModel(w.model),
		Messages: []openaisdk.ChatCompletionMessageParamUnion{
			openaisdk.SystemMessage(w.systemPrompt),
			openaisdk.UserMessage(string(inputBytes)),
		},
		Temperature: openaisdk.Float(w.temperature),
	})
	if err != nil {
		return "", fmt.Errorf("%w: writer invoke: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: writer returned no choices", contractx.ErrModelInvoke)
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	if reply == "" {
		return "", fmt.Errorf("%w: writer returned empty content", contractx.ErrModelInvoke)
	}
	return reply, nil
}
