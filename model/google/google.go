// Package google adapts Google's Gemini API to model.GenerationModel.
package google

import (
	"context"
	"errors"
	"fmt"

	"github.com/dshills/agentflow/model"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Model implements model.GenerationModel for Google's Gemini API.
type Model struct {
	apiKey    string
	modelName string
	client    googleClient
}

type googleClient interface {
	generateContent(ctx context.Context, req model.Request) (model.Response, error)
}

// NewModel builds a Gemini-backed GenerationModel. An empty modelName
// falls back to a current default.
func NewModel(apiKey, modelName string) *Model {
	if modelName == "" {
		modelName = "gemini-2.5-flash"
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

	out, err := m.client.generateContent(ctx, req)
	if err != nil {
		var safetyErr *SafetyFilterError
		if errors.As(err, &safetyErr) {
			return model.Response{}, safetyErr
		}
		return model.Response{}, err
	}
	return out, nil
}

// SafetyFilterError reports that Gemini blocked a response for a safety
// category (e.g. HARM_CATEGORY_DANGEROUS_CONTENT).
type SafetyFilterError struct {
	Category string
}

func (e *SafetyFilterError) Error() string {
	return fmt.Sprintf("google: content blocked by safety filter: %s", e.Category)
}

type defaultClient struct {
	apiKey    string
	modelName string
}

func (c *defaultClient) generateContent(ctx context.Context, req model.Request) (model.Response, error) {
	if c.apiKey == "" {
		return model.Response{}, errors.New("google API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(c.apiKey))
	if err != nil {
		return model.Response{}, fmt.Errorf("failed to create google client: %w", err)
	}
	defer func() { _ = client.Close() }()

	genModel := client.GenerativeModel(c.modelName)
	if req.SystemPrompt != "" {
		genModel.SystemInstruction = genai.NewUserContent(genai.Text(req.SystemPrompt))
	}
	if req.Temperature != 0 {
		t := float32(req.Temperature)
		genModel.Temperature = &t
	}
	if req.TopP != 0 {
		p := float32(req.TopP)
		genModel.TopP = &p
	}
	if req.TopK != 0 {
		k := int32(req.TopK)
		genModel.TopK = &k
	}
	if req.MaxTokens != 0 {
		n := int32(req.MaxTokens)
		genModel.MaxOutputTokens = &n
	}

	parts := make([]genai.Part, 0, len(req.ConversationHistory)+1)
	for _, msg := range req.ConversationHistory {
		if msg.Content != "" {
			parts = append(parts, genai.Text(msg.Content))
		}
	}
	parts = append(parts, genai.Text(req.Query))

	resp, err := genModel.GenerateContent(ctx, parts...)
	if err != nil {
		return model.Response{}, fmt.Errorf("google API error: %w", err)
	}
	if blocked := blockedCategory(resp); blocked != "" {
		return model.Response{}, &SafetyFilterError{Category: blocked}
	}

	return convertResponse(resp, c.modelName), nil
}

func blockedCategory(resp *genai.GenerateContentResponse) string {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != 0 {
		return resp.PromptFeedback.BlockReason.String()
	}
	return ""
}

func convertResponse(resp *genai.GenerateContentResponse, modelName string) model.Response {
	out := model.Response{Model: modelName, Source: "google"}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return out
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			if out.Response != "" {
				out.Response += "\n"
			}
			out.Response += string(t)
		}
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out
}
