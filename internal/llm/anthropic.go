package llm

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicClient calls the Anthropic Messages API. The API key is read from
// ANTHROPIC_API_KEY by the SDK itself.
type AnthropicClient struct {
	cli       anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

func NewAnthropicClient(model string, maxTokens int64) *AnthropicClient {
	if maxTokens <= 0 {
		maxTokens = 2048
	}
	return &AnthropicClient{
		cli:       anthropic.NewClient(),
		model:     anthropic.Model(model),
		maxTokens: maxTokens,
	}
}

func (a *AnthropicClient) Name() string { return "Anthropic:" + string(a.model) }
func (a *AnthropicClient) Close() error { return nil }

func (a *AnthropicClient) Generate(ctx context.Context, prompt string, input any) (string, error) {
	full := prompt
	if input != nil {
		in, _ := json.MarshalIndent(input, "", "  ")
		full = prompt + "\n\n[INPUT JSON]\n" + string(in)
	}

	msg, err := a.cli.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(full)),
		},
	})
	if err != nil {
		return "", NewGatewayError(err)
	}
	for _, block := range msg.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", ErrEmptyCompletion
}
