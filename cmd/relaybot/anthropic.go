package main

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

// Responder produces the assistant's next turn.
type Responder interface {
	Respond(ctx context.Context, system string, messages []anthropic.Message) (string, error)
}

type anthropicResponder struct {
	client    *anthropic.Client
	model     anthropic.Model
	maxTokens int
}

func newAnthropicResponder(apiKey string, config BotConfig) *anthropicResponder {
	return &anthropicResponder{
		client:    anthropic.NewClient(apiKey),
		model:     config.Model,
		maxTokens: config.MaxTokens,
	}
}

func (r *anthropicResponder) Respond(ctx context.Context, system string, messages []anthropic.Message) (string, error) {
	resp, err := r.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     r.model,
		Messages:  messages,
		System:    system,
		MaxTokens: r.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("error creating Anthropic message: %w", err)
	}

	if len(resp.Content) == 0 || resp.Content[0].Type != anthropic.MessagesContentTypeText {
		return "", fmt.Errorf("unexpected response format from Anthropic")
	}

	return resp.Content[0].GetText(), nil
}
