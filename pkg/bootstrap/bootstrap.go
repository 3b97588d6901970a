// Package bootstrap assembles the note pipeline from configuration. Both
// the MCP server and the command line tool start here.
package bootstrap

import (
	"context"
	"net/http"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/config"
	"github.com/athapong/ontonote/pkg/notes"
	"github.com/athapong/ontonote/pkg/templates"
	"github.com/athapong/ontonote/pkg/vault"
	"github.com/athapong/ontonote/services"
	"github.com/sirupsen/logrus"
)

// App bundles the long lived components.
type App struct {
	Config    *config.Config
	Logger    *logrus.Logger
	Store     *vault.Store
	Renderer  *templates.Renderer
	Generator services.Generator
	Pipeline  *notes.Pipeline
}

// New builds every component described by cfg.
func New(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if cfg == nil {
		return nil, apperr.Config("bootstrap", "no configuration")
	}

	store, err := vault.NewStore(cfg.VaultPath,
		vault.WithLogger(logger),
		vault.WithRelatedHeading(cfg.RelatedHeading),
	)
	if err != nil {
		return nil, err
	}
	renderer, err := templates.NewRenderer(store.Root(), logger)
	if err != nil {
		return nil, err
	}
	gen, err := NewGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	pipeline, err := notes.New(notes.Options{
		Generator:      gen,
		Store:          store,
		Renderer:       renderer,
		Logger:         logger,
		Template:       cfg.Template,
		RelatedHeading: cfg.RelatedHeading,
		MaxInputTokens: cfg.MaxInputTokens,
		Backlinks:      cfg.Backlinks,
	})
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"vault":    store.Root(),
		"provider": cfg.Provider,
		"template": cfg.Template,
	}).Info("Note pipeline ready")

	return &App{
		Config:    cfg,
		Logger:    logger,
		Store:     store,
		Renderer:  renderer,
		Generator: gen,
		Pipeline:  pipeline,
	}, nil
}

// NewGenerator returns the configured backend behind a circuit breaker and
// a per call timeout.
func NewGenerator(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (services.Generator, error) {
	var (
		gen services.Generator
		err error
	)
	switch cfg.Provider {
	case services.ProviderGemini:
		gen, err = services.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.Model, "")
	case services.ProviderOpenAI, services.ProviderDeepseek, services.ProviderOpenRouter:
		gen, err = services.NewOpenAIGenerator(cfg.Provider, cfg.APIKey(), cfg.OpenAIBaseURL, cfg.Model)
	case services.ProviderOllama:
		gen = services.NewOllamaGenerator(cfg.OllamaURL, cfg.Model, &http.Client{})
	default:
		return nil, apperr.Config("create backend", "unknown provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	breaker := services.NewBreakerGenerator(cfg.Provider, gen, uint32(cfg.BreakerFailures), cfg.BreakerCooldown, logger)
	return services.WithTimeout(breaker, cfg.BackendTimeout), nil
}
