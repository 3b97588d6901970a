// Package config loads runtime settings from the environment and an
// optional .env file.
package config

import (
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/vault"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config holds all application configuration
type Config struct {
	// Text generation backend
	Provider         string        `env:"LLM_PROVIDER" validate:"required,oneof=gemini openai deepseek openrouter ollama"`
	Model            string        `env:"LLM_MODEL"`
	GeminiAPIKey     string        `env:"GEMINI_API_KEY" validate:"required_if=Provider gemini"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY" validate:"required_if=Provider openai"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL" validate:"omitempty,url"`
	DeepseekAPIKey   string        `env:"DEEPSEEK_API_KEY" validate:"required_if=Provider deepseek"`
	OpenRouterAPIKey string        `env:"OPENROUTER_API_KEY" validate:"required_if=Provider openrouter"`
	OllamaURL        string        `env:"OLLAMA_URL" validate:"required,url"`
	BackendTimeout   time.Duration `env:"BACKEND_TIMEOUT" validate:"gt=0"`
	BreakerFailures  int           `env:"BREAKER_FAILURES" validate:"gte=1"`
	BreakerCooldown  time.Duration `env:"BREAKER_COOLDOWN" validate:"gt=0"`
	MaxInputTokens   int           `env:"MAX_INPUT_TOKENS" validate:"gte=0"`

	// Vault
	VaultPath      string `env:"OBSIDIAN_VAULT_PATH" validate:"required,dir"`
	Template       string `env:"NOTE_TEMPLATE" validate:"required"`
	RelatedHeading string `env:"RELATED_HEADING" validate:"required,startswith=#"`
	Backlinks      bool   `env:"BACKLINKS"`
	InboxPath      string `env:"INBOX_PATH"`

	// Logging and metrics
	LogLevel    string `env:"LOG_LEVEL" validate:"oneof=panic fatal error warn warning info debug trace"`
	LogFormat   string `env:"LOG_FORMAT" validate:"oneof=text json"`
	MetricsAddr string `env:"METRICS_ADDR"`
}

// searchRoots is replaced in tests.
var searchRoots = vault.SearchRoots

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads envFile when it exists, then the environment. When no vault
// path is configured, well known locations are searched for an Obsidian
// vault.
func Load(envFile string, logger *logrus.Logger) (*Config, error) {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			logger.WithError(err).WithField("file", envFile).Debug("Env file not loaded")
		}
	}

	env := &envReader{logger: logger}
	cfg := &Config{
		Provider:         strings.ToLower(env.str("LLM_PROVIDER", "gemini")),
		Model:            env.str("LLM_MODEL", ""),
		GeminiAPIKey:     env.str("GEMINI_API_KEY", ""),
		OpenAIAPIKey:     env.str("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    env.str("OPENAI_BASE_URL", ""),
		DeepseekAPIKey:   env.str("DEEPSEEK_API_KEY", ""),
		OpenRouterAPIKey: env.str("OPENROUTER_API_KEY", ""),
		OllamaURL:        env.str("OLLAMA_URL", "http://localhost:11434"),
		BackendTimeout:   env.duration("BACKEND_TIMEOUT", 60*time.Second),
		BreakerFailures:  env.integer("BREAKER_FAILURES", 5),
		BreakerCooldown:  env.duration("BREAKER_COOLDOWN", 30*time.Second),
		MaxInputTokens:   env.integer("MAX_INPUT_TOKENS", 0),

		VaultPath:      env.str("OBSIDIAN_VAULT_PATH", ""),
		Template:       env.str("NOTE_TEMPLATE", "concept.md"),
		RelatedHeading: env.str("RELATED_HEADING", vault.DefaultRelatedHeading),
		Backlinks:      env.boolean("BACKLINKS", true),
		InboxPath:      env.str("INBOX_PATH", ""),

		LogLevel:    strings.ToLower(env.str("LOG_LEVEL", "info")),
		LogFormat:   strings.ToLower(env.str("LOG_FORMAT", "text")),
		MetricsAddr: env.str("METRICS_ADDR", ""),
	}

	if len(env.invalid) > 0 {
		return nil, apperr.Config("load config", "%s", strings.Join(env.invalid, "; "))
	}

	if cfg.VaultPath == "" {
		if found := vault.Discover(searchRoots(), 3); len(found) > 0 {
			cfg.VaultPath = found[0]
			logger.WithField("vault", cfg.VaultPath).Info("Using discovered vault")
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration and names the offending variables.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apperr.Config("validate config", "%v", err)
	}

	t := reflect.TypeOf(*c)
	problems := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		name := fe.StructField()
		if f, ok := t.FieldByName(name); ok && f.Tag.Get("env") != "" {
			name = f.Tag.Get("env")
		}
		problems = append(problems, describe(name, fe))
	}
	return apperr.Config("validate config", "%s", strings.Join(problems, "; "))
}

func describe(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required", "required_if":
		return name + " is not set"
	case "dir":
		return name + " is not an existing directory"
	case "oneof":
		return name + " must be one of: " + fe.Param()
	default:
		return name + " is invalid (" + fe.Tag() + ")"
	}
}

// APIKey returns the credential of the selected provider.
func (c *Config) APIKey() string {
	switch c.Provider {
	case "gemini":
		return c.GeminiAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "deepseek":
		return c.DeepseekAPIKey
	case "openrouter":
		return c.OpenRouterAPIKey
	default:
		return ""
	}
}

// envReader reads typed environment variables. Values that do not parse
// are logged and collected so Load can reject them.
type envReader struct {
	logger  *logrus.Logger
	invalid []string
}

func (r *envReader) reject(key, value, want string) {
	r.logger.WithFields(logrus.Fields{
		"variable": key,
		"value":    value,
	}).Warn("Ignoring malformed environment variable")
	r.invalid = append(r.invalid, key+" is not "+want)
}

// str gets an environment variable with a default value
func (r *envReader) str(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// boolean accepts true/false, 1/0 and yes/no.
func (r *envReader) boolean(key string, defaultValue bool) bool {
	value := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	switch value {
	case "":
		return defaultValue
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	r.reject(key, value, "a boolean")
	return defaultValue
}

// integer gets an integer environment variable with a default value
func (r *envReader) integer(key string, defaultValue int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		r.reject(key, value, "an integer")
		return defaultValue
	}
	return n
}

// duration accepts Go durations ("45s") or plain seconds ("45").
func (r *envReader) duration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	r.reject(key, value, "a duration")
	return defaultValue
}
