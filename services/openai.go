package services

import (
	"context"
	"time"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/pkg/errors"
	"github.com/sashabaranov/go-openai"
)

// Base URLs of OpenAI compatible providers.
const (
	DeepseekBaseURL   = "https://api.deepseek.com/v1"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

var defaultOpenAIModels = map[string]string{
	ProviderOpenAI:     openai.GPT4oMini,
	ProviderDeepseek:   "deepseek-chat",
	ProviderOpenRouter: "deepseek/deepseek-chat",
}

// OpenAIGenerator talks to any OpenAI compatible chat completion API.
type OpenAIGenerator struct {
	client   *openai.Client
	provider string
	model    string
	system   string
}

// NewOpenAIGenerator builds a client for provider. baseURL overrides the
// provider default when set.
func NewOpenAIGenerator(provider, apiKey, baseURL, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, apperr.Config(provider+" client", "API key for %s is not set", provider)
	}

	config := openai.DefaultConfig(apiKey)
	switch provider {
	case ProviderDeepseek:
		config.BaseURL = DeepseekBaseURL
	case ProviderOpenRouter:
		config.BaseURL = OpenRouterBaseURL
	}
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if model == "" {
		model = defaultOpenAIModels[provider]
	}
	if model == "" {
		model = openai.GPT4oMini
	}

	return &OpenAIGenerator{
		client:   openai.NewClientWithConfig(config),
		provider: provider,
		model:    model,
		system:   "You are a knowledge management assistant that writes clear, structured notes.",
	}, nil
}

func (g *OpenAIGenerator) Generate(ctx context.Context, prompt string) (text string, err error) {
	start := time.Now()
	defer func() { observe(g.provider, start, err) }()

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: g.system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", apperr.Backend(g.provider+" generate", err)
	}
	if len(resp.Choices) == 0 {
		return "", apperr.Backend(g.provider+" generate", errors.New("no choices in response"))
	}
	return resp.Choices[0].Message.Content, nil
}
