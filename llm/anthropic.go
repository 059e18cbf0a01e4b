package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
)

// Anthropic implements loom.Client using the Anthropic API. Credentials
// are read from the environment by the underlying SDK.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
	opts      options
}

// NewAnthropic creates an Anthropic-backed client.
func NewAnthropic(model anthropic.Model, maxTokens int64, opts ...Option) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	a := &Anthropic{
		client:    anthropic.NewClient(),
		model:     model,
		maxTokens: maxTokens,
	}
	for _, opt := range opts {
		opt(&a.opts)
	}
	return a
}

// Complete sends a prompt to the model and returns the response text.
func (a *Anthropic) Complete(ctx context.Context, system, user string) (string, error) {
	start := time.Now()
	if a.opts.logger != nil {
		a.opts.logger.Debug("anthropic call starting",
			"model", a.model, "maxTokens", a.maxTokens, "userPromptLen", len(user))
	}

	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(user)),
		},
	}
	if system != "" {
		block := anthropic.TextBlockParam{Text: system}
		if a.opts.cacheSystem {
			block.CacheControl = anthropic.NewCacheControlEphemeralParam()
		}
		params.System = []anthropic.TextBlockParam{block}
	}
	if a.opts.hasTemp {
		params.Temperature = anthropic.Float(a.opts.temperature)
	}

	msg, err := a.client.Messages.New(ctx, params)
	if err != nil {
		if a.opts.logger != nil {
			a.opts.logger.Error("anthropic call failed", "duration", time.Since(start), "error", err)
		}
		return "", fmt.Errorf("anthropic API error: %w", err)
	}

	if a.opts.logger != nil {
		a.opts.logger.Debug("anthropic call completed",
			"duration", time.Since(start), "stopReason", msg.StopReason)
	}

	for _, block := range msg.Content {
		if block.Type == "text" {
			return block.Text, nil
		}
	}
	return "", fmt.Errorf("no text content in response")
}
