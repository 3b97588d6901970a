package services

import (
	"context"
	"time"

	"github.com/athapong/ontonote/pkg/metrics"
)

// Generator turns a prompt into generated text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Provider names accepted by the configuration.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderDeepseek   = "deepseek"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

func observe(provider string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.BackendRequestDuration.WithLabelValues(provider, status).Observe(time.Since(start).Seconds())
}

// WithTimeout bounds every call of next by d. d <= 0 returns next.
func WithTimeout(next Generator, d time.Duration) Generator {
	if d <= 0 {
		return next
	}
	return GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		ctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()
		return next.Generate(ctx, prompt)
	})
}
