package bootstrap

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Provider:        "ollama",
		OllamaURL:       "http://localhost:11434",
		BackendTimeout:  time.Second,
		BreakerFailures: 3,
		BreakerCooldown: time.Second,
		VaultPath:       t.TempDir(),
		Template:        "concept.md",
		RelatedHeading:  "## See Also",
		Backlinks:       true,
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig(t)
	app, err := New(context.Background(), cfg, quietLogger())
	require.NoError(t, err)

	assert.NotNil(t, app.Pipeline)
	assert.NotNil(t, app.Generator)
	assert.Equal(t, cfg.VaultPath, app.Store.Root())
	assert.FileExists(t, filepath.Join(cfg.VaultPath, ".templates", "concept.md"))

	names, err := app.Renderer.List()
	require.NoError(t, err)
	assert.Contains(t, names, "daily.md")
}

func TestNewMissingVault(t *testing.T) {
	cfg := testConfig(t)
	cfg.VaultPath = filepath.Join(cfg.VaultPath, "missing")

	_, err := New(context.Background(), cfg, quietLogger())
	assert.True(t, apperr.Is(err, apperr.KindConfig))
	_, statErr := os.Stat(cfg.VaultPath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestNewGenerator(t *testing.T) {
	cfg := testConfig(t)

	cfg.Provider = "openai"
	_, err := NewGenerator(context.Background(), cfg, quietLogger())
	assert.True(t, apperr.Is(err, apperr.KindConfig))

	cfg.OpenAIAPIKey = "sk-test"
	gen, err := NewGenerator(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	assert.NotNil(t, gen)

	cfg.Provider = "mystery"
	_, err = NewGenerator(context.Background(), cfg, quietLogger())
	assert.True(t, apperr.Is(err, apperr.KindConfig))
}
