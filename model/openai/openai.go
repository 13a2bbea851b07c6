// Package openai adapts OpenAI's chat completion API to model.GenerationModel.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dshills/agentflow/model"
	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Model implements model.GenerationModel for OpenAI's chat completions API,
// with bounded retries on transient errors.
type Model struct {
	apiKey     string
	modelName  string
	client     openaiClient
	maxRetries int
	retryDelay time.Duration
}

type openaiClient interface {
	createChatCompletion(ctx context.Context, req model.Request) (model.Response, error)
}

// NewModel builds a GPT-backed GenerationModel. An empty modelName falls
// back to a current default. Retries transient errors up to 3 times with
// a 1s base delay.
func NewModel(apiKey, modelName string) *Model {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &Model{
		apiKey:     apiKey,
		modelName:  modelName,
		client:     &defaultClient{apiKey: apiKey, modelName: modelName},
		maxRetries: 3,
		retryDelay: time.Second,
	}
}

// Generate implements model.GenerationModel.
func (m *Model) Generate(ctx context.Context, req model.Request) (model.Response, error) {
	if ctx.Err() != nil {
		return model.Response{}, ctx.Err()
	}

	var lastErr error
	for attempt := 0; attempt <= m.maxRetries; attempt++ {
		out, err := m.client.createChatCompletion(ctx, req)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !isTransientError(err) {
			return model.Response{}, err
		}
		if attempt >= m.maxRetries {
			break
		}

		delay := m.retryDelay
		if isRateLimitError(err) {
			delay = m.retryDelay * time.Duration(attempt+1)
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return model.Response{}, ctx.Err()
		}
	}

	return model.Response{}, fmt.Errorf("openai API failed after %d retries: %w", m.maxRetries, lastErr)
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}
	var rateLimitErr *rateLimitError
	if errors.As(err, &rateLimitErr) {
		return true
	}
	msgLower := strings.ToLower(err.Error())
	for _, pattern := range []string{"timeout", "network", "connection", "temporary", "503", "502", "500"} {
		if strings.Contains(msgLower, pattern) {
			return true
		}
	}
	return false
}

func isRateLimitError(err error) bool {
	var rateLimitErr *rateLimitError
	return errors.As(err, &rateLimitErr)
}

type rateLimitError struct{ message string }

func (e *rateLimitError) Error() string { return e.message }

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) createChatCompletion(ctx context.Context, req model.Request) (model.Response, error) {
	if c.apiKey == "" {
		return model.Response{}, errors.New("openai API key is required")
	}

	client := openaisdk.NewClient(option.WithAPIKey(c.apiKey))

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.ConversationHistory)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, openaisdk.SystemMessage(req.SystemPrompt))
	}
	for _, msg := range req.ConversationHistory {
		switch msg.Role {
		case model.RoleAssistant:
			messages = append(messages, openaisdk.AssistantMessage(msg.Content))
		case model.RoleSystem:
			messages = append(messages, openaisdk.SystemMessage(msg.Content))
		default:
			messages = append(messages, openaisdk.UserMessage(msg.Content))
		}
	}
	messages = append(messages, openaisdk.UserMessage(req.Query))

	params := openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.modelName),
		Messages: messages,
	}
	if req.Temperature != 0 {
		params.Temperature = openaisdk.Float(req.Temperature)
	}
	if req.TopP != 0 {
		params.TopP = openaisdk.Float(req.TopP)
	}
	if req.MaxTokens != 0 {
		params.MaxCompletionTokens = openaisdk.Int(int64(req.MaxTokens))
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return model.Response{}, fmt.Errorf("openai API error: %w", err)
	}
	return convertResponse(resp, c.modelName), nil
}

func convertResponse(resp *openaisdk.ChatCompletion, modelName string) model.Response {
	out := model.Response{Model: modelName, Source: "openai"}
	if len(resp.Choices) == 0 {
		return out
	}
	out.Response = resp.Choices[0].Message.Content
	out.InputTokens = int(resp.Usage.PromptTokens)
	out.OutputTokens = int(resp.Usage.CompletionTokens)
	return out
}
