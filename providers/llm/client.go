package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"bizradar/config"
)

// Client kapselt die OpenAI-Chat-API hinter dem providers.LLM-Interface.
type Client struct {
	api         *openai.Client
	model       string
	temperature float32
	maxTokens   int
	logger      *zap.Logger
}

// NewClient erstellt einen neuen LLM-Client.
func NewClient(cfg *config.Config, logger *zap.Logger) *Client {
	return &Client{
		api:         openai.NewClient(cfg.OpenAIAPIKey),
		model:       cfg.OpenAIModel,
		temperature: cfg.OpenAITemperature,
		maxTokens:   cfg.OpenAIMaxTokens,
		logger:      logger,
	}
}

// Complete schickt System- und User-Prompt und gibt den Antworttext zurück.
func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessage{}
	if systemPrompt != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: userPrompt,
	})

	start := time.Now()
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn("LLM-Anfrage fehlgeschlagen", zap.Error(err), zap.Duration("duration", duration))
		return "", fmt.Errorf("llm completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	c.logger.Debug("LLM-Anfrage abgeschlossen",
		zap.Int("tokens", resp.Usage.TotalTokens),
		zap.Duration("duration", duration))
	return resp.Choices[0].Message.Content, nil
}
