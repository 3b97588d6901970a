package tools

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/notes"
	"github.com/athapong/ontonote/pkg/templates"
	"github.com/athapong/ontonote/pkg/vault"
	"github.com/athapong/ontonote/services"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ontologyYAML = `concepts:
  - Deep Learning
  - Machine Learning
relationships:
  - source: Deep Learning
    target: Machine Learning
    type: is_a
    description: subfield
`

func backend(failing bool) services.Generator {
	return services.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		if failing {
			return "", apperr.Backend("fake", errors.New("down"))
		}
		switch {
		case strings.HasPrefix(prompt, "Identify the core topic"):
			return "Deep Learning", nil
		case strings.HasPrefix(prompt, "Analyze the following text"):
			return ontologyYAML, nil
		case strings.HasPrefix(prompt, "A new note is being added"):
			return "deep learning extends machine learning", nil
		case strings.HasPrefix(prompt, "You are a tool usage planning assistant"):
			return "1. [create_note] - Purpose: store the idea", nil
		default:
			return "generated: " + prompt[:20], nil
		}
	})
}

type testEnv struct {
	tools *NoteTools
	store *vault.Store
}

func newTestEnv(t *testing.T, failing bool) *testEnv {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	clock := func() time.Time { return time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC) }

	store, err := vault.NewStore(t.TempDir(), vault.WithLogger(logger), vault.WithClock(clock))
	require.NoError(t, err)
	renderer, err := templates.NewRenderer(store.Root(), logger)
	require.NoError(t, err)
	pipeline, err := notes.New(notes.Options{
		Generator: backend(failing),
		Store:     store,
		Renderer:  renderer,
		Logger:    logger,
		Clock:     clock,
		Backlinks: true,
	})
	require.NoError(t, err)
	return &testEnv{tools: NewNoteTools(pipeline, renderer), store: store}
}

func callRequest(name string, args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	return req
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestCreateNoteHandler(t *testing.T) {
	env := newTestEnv(t, false)

	res, err := env.tools.createNoteHandler(context.Background(), callRequest("create_note", map[string]interface{}{
		"content": "Deep learning uses neural networks.",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	out := text(t, res)
	assert.Contains(t, out, "Created note: "+filepath.Join(env.store.Root(), "deep-learning.md"))
	assert.Contains(t, out, "Concepts: Deep Learning, Machine Learning")
	assert.Contains(t, out, "Related notes: none")
	assert.Contains(t, out, "```mermaid")
	assert.FileExists(t, filepath.Join(env.store.Root(), "deep-learning.md"))
}

func TestCreateNoteHandlerDegraded(t *testing.T) {
	env := newTestEnv(t, true)

	res, err := env.tools.createNoteHandler(context.Background(), callRequest("create_note", map[string]interface{}{
		"content": "raw idea",
		"title":   "Idea",
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, text(t, res), "Degraded steps: generate, ontology")
}

func TestCreateNoteHandlerMissingContent(t *testing.T) {
	env := newTestEnv(t, false)

	res, err := env.tools.createNoteHandler(context.Background(), callRequest("create_note", map[string]interface{}{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestFindRelatedHandler(t *testing.T) {
	env := newTestEnv(t, false)
	_, err := env.store.Create("Machine Learning", "ML", &vault.Metadata{Concepts: vault.StringList{"Machine Learning"}})
	require.NoError(t, err)

	res, err := env.tools.findRelatedHandler(context.Background(), callRequest("find_related_notes", map[string]interface{}{
		"concepts": "Statistics, Machine Learning",
	}))
	require.NoError(t, err)
	assert.Equal(t, "- machine-learning\n", text(t, res))

	res, err = env.tools.findRelatedHandler(context.Background(), callRequest("find_related_notes", map[string]interface{}{
		"concepts": "Poetry",
	}))
	require.NoError(t, err)
	assert.Equal(t, "No related notes found.", text(t, res))
}

func TestSuggestConnectionsHandler(t *testing.T) {
	env := newTestEnv(t, false)

	res, err := env.tools.suggestConnectionsHandler(context.Background(), callRequest("suggest_connections", map[string]interface{}{
		"text": "Deep learning",
	}))
	require.NoError(t, err)
	assert.Equal(t, "No related notes found.", text(t, res))

	_, err = env.store.Create("Machine Learning", "ML", &vault.Metadata{Concepts: vault.StringList{"Machine Learning"}})
	require.NoError(t, err)
	res, err = env.tools.suggestConnectionsHandler(context.Background(), callRequest("suggest_connections", map[string]interface{}{
		"text": "Deep learning",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Related notes: machine-learning\n\ndeep learning extends machine learning\n", text(t, res))
}

func TestLinkNotesHandler(t *testing.T) {
	env := newTestEnv(t, false)
	srcPath, err := env.store.Create("Go", "Go body", nil)
	require.NoError(t, err)
	dstPath, err := env.store.Create("Concurrency", "Concurrency body", nil)
	require.NoError(t, err)

	res, err := env.tools.linkNotesHandler(context.Background(), callRequest("link_notes", map[string]interface{}{
		"source":  "Go",
		"targets": "Concurrency",
		"dry_run": true,
	}))
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "+ - [[Concurrency]]")
	src, err := env.store.Load(srcPath)
	require.NoError(t, err)
	assert.Equal(t, "Go body", src.Body)

	res, err = env.tools.linkNotesHandler(context.Background(), callRequest("link_notes", map[string]interface{}{
		"source":  "go.md",
		"targets": "Concurrency, ",
	}))
	require.NoError(t, err)
	assert.Equal(t, "Linked go to Concurrency", text(t, res))

	src, err = env.store.Load(srcPath)
	require.NoError(t, err)
	assert.Contains(t, src.Body, "[[Concurrency]]")
	dst, err := env.store.Load(dstPath)
	require.NoError(t, err)
	assert.Contains(t, dst.Body, "[[go]]")

	res, err = env.tools.linkNotesHandler(context.Background(), callRequest("link_notes", map[string]interface{}{
		"source":  "Missing",
		"targets": "Concurrency",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	for _, source := range []string{"../outside.md", "/etc/outside.md"} {
		res, err = env.tools.linkNotesHandler(context.Background(), callRequest("link_notes", map[string]interface{}{
			"source":  source,
			"targets": "Concurrency",
		}))
		require.NoError(t, err)
		assert.True(t, res.IsError, source)
		assert.Contains(t, text(t, res), "outside the vault", source)
	}
}

func TestAssistHandler(t *testing.T) {
	env := newTestEnv(t, false)

	res, err := env.tools.assistHandler(context.Background(), callRequest("assist", map[string]interface{}{
		"action": "summarize",
		"text":   "Long text",
		"save":   true,
	}))
	require.NoError(t, err)
	assert.False(t, res.IsError)
	saved := filepath.Join(env.store.Root(), "note_20240101_100000.md")
	assert.Contains(t, text(t, res), "Saved to "+saved)
	assert.FileExists(t, saved)

	res, err = env.tools.assistHandler(context.Background(), callRequest("assist", map[string]interface{}{
		"action": "sing",
		"text":   "Long text",
	}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestListTemplatesHandler(t *testing.T) {
	env := newTestEnv(t, false)

	res, err := env.tools.listTemplatesHandler(nil)
	require.NoError(t, err)
	assert.Equal(t, "concept.md\ndaily.md\ndefault.md", text(t, res))

	require.NoError(t, os.WriteFile(filepath.Join(env.store.Root(), templates.Dir, "meeting.md"), []byte("# {{ .title }}"), 0644))
	res, err = env.tools.listTemplatesHandler(nil)
	require.NoError(t, err)
	assert.Contains(t, text(t, res), "meeting.md")
}

func TestToolManager(t *testing.T) {
	m := NewToolManager(EnabledFilter("create_note, assist"), backend(false))

	res, err := m.toolManagerHandler(map[string]interface{}{"action": "list"})
	require.NoError(t, err)
	out := text(t, res)
	assert.Contains(t, out, "- create_note (Create a linked note from raw text) [enabled]")
	assert.Contains(t, out, "- link_notes (Link notes with wiki links) [disabled]")

	res, err = m.toolUsePlanHandler(context.Background(), callRequest("tool_use_plan", map[string]interface{}{
		"request": "store my idea",
	}))
	require.NoError(t, err)
	assert.Equal(t, "1. [create_note] - Purpose: store the idea", text(t, res))

	assert.True(t, EnabledFilter("")("link_notes"))
	assert.False(t, EnabledFilter("assist")("link_notes"))
}
