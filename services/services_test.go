package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"model":"m","message":{"role":"assistant","content":"concepts: [Go]"},"done":true}`)
	}))
	defer srv.Close()

	g := NewOllamaGenerator(srv.URL+"/", "m", srv.Client())
	out, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "concepts: [Go]", out)
	assert.Equal(t, "m", got["model"])
	assert.Equal(t, false, got["stream"])
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":"model not found"}`)
	}))
	defer srv.Close()

	_, err := NewOllamaGenerator(srv.URL, "", nil).Generate(context.Background(), "prompt")
	require.Error(t, err)
	assert.True(t, apperr.IsBackend(err))
	assert.Contains(t, err.Error(), "model not found")
}

func TestOllamaMissingContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"done":true}`)
	}))
	defer srv.Close()

	_, err := NewOllamaGenerator(srv.URL, "", nil).Generate(context.Background(), "prompt")
	assert.True(t, apperr.IsBackend(err))
}

func TestOpenAIGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator(ProviderDeepseek, "key", srv.URL+"/v1", "")
	require.NoError(t, err)
	assert.Equal(t, "deepseek-chat", g.model)

	out, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
}

func TestOpenRouterSendsNoOrganization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("OpenAI-Organization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"1","object":"chat.completion","created":1,"model":"m",
			"choices":[{"index":0,"message":{"role":"assistant","content":"hi"},"finish_reason":"stop"}]}`)
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator(ProviderOpenRouter, "key", srv.URL, "")
	require.NoError(t, err)
	assert.Equal(t, "deepseek/deepseek-chat", g.model)

	out, err := g.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	assert.Equal(t, "hi", out)
}

func TestOpenAIBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, `{"error":{"message":"boom","type":"server_error"}}`)
	}))
	defer srv.Close()

	g, err := NewOpenAIGenerator(ProviderOpenAI, "key", srv.URL, "")
	require.NoError(t, err)
	_, err = g.Generate(context.Background(), "prompt")
	assert.True(t, apperr.IsBackend(err))
}

func TestMissingKeys(t *testing.T) {
	_, err := NewOpenAIGenerator(ProviderOpenRouter, "", "", "")
	assert.True(t, apperr.Is(err, apperr.KindConfig))

	_, err = NewGeminiGenerator(context.Background(), "", "", "")
	assert.True(t, apperr.Is(err, apperr.KindConfig))
}

func TestBreakerOpensAfterFailures(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	calls := 0
	failing := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		calls++
		return "", apperr.Backend("fake", errors.New("down"))
	})
	b := NewBreakerGenerator("fake", failing, 2, time.Minute, logger)

	for i := 0; i < 2; i++ {
		_, err := b.Generate(context.Background(), "p")
		assert.True(t, apperr.IsBackend(err))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Generate(context.Background(), "p")
	assert.True(t, apperr.IsBackend(err))
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, 2, calls)
}

func TestBreakerPassesThrough(t *testing.T) {
	ok := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "echo " + prompt, nil
	})
	out, err := NewBreakerGenerator("ok", ok, 0, time.Second, nil).Generate(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, "echo hi", out)
}

func TestTruncateTokensDisabled(t *testing.T) {
	assert.Equal(t, "some text", TruncateTokens("some text", 0))
	assert.Equal(t, "", TruncateTokens("", 10))
}

func TestWithTimeout(t *testing.T) {
	slow := GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	_, err := WithTimeout(slow, 10*time.Millisecond).Generate(context.Background(), "p")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	var g Generator = slow
	assert.NotNil(t, WithTimeout(g, 0))
}
