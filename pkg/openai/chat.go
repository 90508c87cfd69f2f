package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/sashabaranov/go-openai"
)

type IChatGPT interface {
	GenerateReply(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

type chatGPTService struct {
	client *openai.Client
	model  string
}

func NewChatGPT() IChatGPT {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_CHAT_MODEL")

	if model == "" {
		model = openai.GPT4oMini
	}

	return &chatGPTService{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

// GenerateReply produces the assistant reply for one inbound message. The
// system prompt is rebuilt per message by the orchestrator so it already
// carries customer identity, language, mode and the classification fields.
func (c *chatGPTService) GenerateReply(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	resp, err := c.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: c.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleSystem,
					Content: systemPrompt,
				},
				{
					Role:    openai.ChatMessageRoleUser,
					Content: userMessage,
				},
			},
			Temperature: 0.7,
			MaxTokens:   300,
		},
	)
	if err != nil {
		return "", fmt.Errorf("ChatGPT API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from ChatGPT")
	}

	return resp.Choices[0].Message.Content, nil
}
