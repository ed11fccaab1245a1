package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client is an abstraction over LLM providers
type Client interface {
	// GenerateJSON generates JSON content using the specified model tier
	GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderOpenAI:
		return NewOpenAIClient(ctx, config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, config: config}, nil
}

// GenerateJSON generates JSON content using the specified model tier
func (c *GeminiClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	m := c.client.GenerativeModel(modelName)
	m.SetTemperature(0.1) // Low temperature for consistent scoring
	m.ResponseMIMEType = "application/json"

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", err
	}
	return CleanJSONBlock(text), nil
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// OpenAIClient implements Client for OpenAI-compatible endpoints through an eino chat model.
// One chat model is built per tier on first use.
type OpenAIClient struct {
	config *Config
	models map[ModelTier]model.BaseChatModel
}

// NewOpenAIClient creates chat models for every configured tier.
func NewOpenAIClient(ctx context.Context, config *Config, apiKey string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	temperature := float32(0.1)
	models := make(map[ModelTier]model.BaseChatModel, len(config.Models))
	for tier, name := range config.Models {
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     config.BaseURL,
			APIKey:      apiKey,
			Model:       name,
			Temperature: &temperature,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create OpenAI chat model for tier %s: %w", tier, err)
		}
		models[tier] = cm
	}

	return &OpenAIClient{config: config, models: models}, nil
}

// NewOpenAIClientWithModels wraps prebuilt chat models, keyed by tier.
func NewOpenAIClientWithModels(config *Config, models map[ModelTier]model.BaseChatModel) *OpenAIClient {
	return &OpenAIClient{config: config, models: models}
}

// GenerateJSON generates JSON content using the specified model tier
func (c *OpenAIClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	cm := c.modelFor(tier)
	if cm == nil {
		return "", fmt.Errorf("no model configured for tier %s", tier)
	}

	messages := []*schema.Message{
		{Role: schema.System, Content: "You are a JSON generator. Output only JSON."},
		{Role: schema.User, Content: prompt},
	}

	resp, err := cm.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	if resp == nil || strings.TrimSpace(resp.Content) == "" {
		return "", fmt.Errorf("no content in response")
	}

	return CleanJSONBlock(resp.Content), nil
}

// modelFor resolves a tier with the same fallback chain as Config.GetModel.
func (c *OpenAIClient) modelFor(tier ModelTier) model.BaseChatModel {
	for _, t := range []ModelTier{tier, TierStandard, TierLite} {
		if cm, ok := c.models[t]; ok {
			return cm
		}
	}
	return nil
}

// GetModel returns the model name for a tier
func (c *OpenAIClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Close is a no-op; eino chat models hold no long-lived resources.
func (c *OpenAIClient) Close() error {
	return nil
}
