// Package anthropic adapts Anthropic's Claude API to model.GenerationModel.
package anthropic

import (
	"context"
	"errors"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/dshills/agentflow/model"
)

// Model implements model.GenerationModel for Anthropic's Claude API.
type Model struct {
	apiKey    string
	modelName string
	client    anthropicClient
}

// anthropicClient is narrowed to exactly what Model needs, so tests can
// substitute a fake without touching the real SDK.
type anthropicClient interface {
	createMessage(ctx context.Context, req model.Request) (model.Response, error)
}

// NewModel builds a Claude-backed GenerationModel. An empty modelName
// falls back to a current default.
func NewModel(apiKey, modelName string) *Model {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &Model{
		apiKey:    apiKey,
		modelName: modelName,
		client:    &defaultClient{apiKey: apiKey, modelName: modelName},
	}
}

// Generate implements model.GenerationModel.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	if ctx.Err() != nil {
		return model.Response{}, ctx.Err()
	}

	out, err := m.client.createMessage(ctx, req)
	if err != nil {
		var apiErr *anthropicError
		if errors.As(err, &apiErr) {
			return model.Response{}, apiErr
		}
		return model.Response{}, err
	}
	return out, nil
}

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) createMessage(ctx context.Context, req model.Request) (model.Response, error) {
	if c.apiKey == "" {
		return model.Response{}, errors.New("anthropic API key is required")
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(c.apiKey))

	messages := convertHistory(req.ConversationHistory)
	messages = append(messages, anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(req.Query)))

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	params := anthropicsdk.MessageNewParams{
		Model:     anthropicsdk.Model(c.modelName),
		Messages:  messages,
		MaxTokens: maxTokens,
	}
	if req.SystemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: req.SystemPrompt}}
	}
	if req.Temperature != 0 {
		params.Temperature = anthropicsdk.Float(req.Temperature)
	}
	if req.TopP != 0 {
		params.TopP = anthropicsdk.Float(req.TopP)
	}
	if req.TopK != 0 {
		params.TopK = anthropicsdk.Int(int64(req.TopK))
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return model.Response{}, fmt.Errorf("anthropic API error: %w", err)
	}

	return convertResponse(resp, c.modelName), nil
}

func convertHistory(history []model.Message) []anthropicsdk.MessageParam {
	result := make([]anthropicsdk.MessageParam, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case model.RoleAssistant:
			result = append(result, anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(msg.Content)))
		case model.RoleSystem:
			// handled via params.System by the caller
		default:
			result = append(result, anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(msg.Content)))
		}
	}
	return result
}

func convertResponse(resp *anthropicsdk.Message, modelName string) model.Response {
	out := model.Response{Model: modelName, Source: "anthropic"}
	for _, block := range resp.Content {
		if b, ok := block.AsAny().(anthropicsdk.TextBlock); ok {
			if out.Response != "" {
				out.Response += "\n"
			}
			out.Response += b.Text
		}
	}
	out.InputTokens = int(resp.Usage.InputTokens)
	out.OutputTokens = int(resp.Usage.OutputTokens)
	return out
}

// anthropicError carries provider error classification through Generate.
type anthropicError struct {
	Type    string
	Message string
}

func (e *anthropicError) Error() string { return e.Type + ": " + e.Message }
