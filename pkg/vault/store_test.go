package vault

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/athapong/ontonote/pkg/ontology"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	clock := &fakeClock{t: time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)}

	s, err := NewStore(t.TempDir(), WithLogger(logger), WithClock(clock.Now))
	require.NoError(t, err)
	return s, clock
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewStoreMissingRoot(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, apperr.Is(err, apperr.KindConfig))

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = NewStore(file)
	assert.True(t, apperr.Is(err, apperr.KindConfig))
}

func TestCreate(t *testing.T) {
	s, _ := newTestStore(t)

	path, err := s.Create("Deep Learning", "Neural networks.", &Metadata{Type: "concept", Tags: StringList{"ml"}})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "deep-learning.md"), path)

	doc, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Neural networks.", doc.Body)
	assert.Equal(t, "2024-01-01 10:00:00", doc.Metadata.Created)
	assert.Equal(t, doc.Metadata.Created, doc.Metadata.Modified)
	assert.Equal(t, "concept", doc.Metadata.Type)
	assert.Equal(t, StringList{"ml"}, doc.Metadata.Tags)
	assert.Equal(t, "deep-learning", doc.Title())
}

func TestCreateEmptyTitle(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Create("  ", "x", nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestUpdate(t *testing.T) {
	s, clock := newTestStore(t)
	path, err := s.Create("Note", "original", nil)
	require.NoError(t, err)

	clock.Advance(time.Minute)
	appended := "appended"
	require.NoError(t, s.Update(path, &appended, &Metadata{Tags: StringList{"x"}}, true))

	doc, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "original\n\nappended", doc.Body)
	assert.Equal(t, StringList{"x"}, doc.Metadata.Tags)
	assert.Equal(t, "2024-01-01 10:00:00", doc.Metadata.Created)
	assert.Equal(t, "2024-01-01 10:01:00", doc.Metadata.Modified)
	assert.Greater(t, doc.Metadata.Modified, doc.Metadata.Created)

	clock.Advance(time.Minute)
	replaced := "replaced"
	require.NoError(t, s.Update(path, &replaced, nil, false))
	doc, err = s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "replaced", doc.Body)
	assert.Equal(t, StringList{"x"}, doc.Metadata.Tags)

	clock.Advance(time.Minute)
	require.NoError(t, s.Update(path, nil, nil, false))
	doc, err = s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "replaced", doc.Body)
	assert.Equal(t, "2024-01-01 10:03:00", doc.Metadata.Modified)
}

func TestUpdateMissing(t *testing.T) {
	s, _ := newTestStore(t)
	content := "x"
	err := s.Update(filepath.Join(s.Root(), "missing.md"), &content, nil, false)
	assert.True(t, apperr.IsNotFound(err))
}

func TestLoadRelativePath(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Create("Go", "body", nil)
	require.NoError(t, err)

	doc, err := s.Load("go.md")
	require.NoError(t, err)
	assert.Equal(t, "body", doc.Body)
	assert.Equal(t, "go", s.Relative(doc.Path))
}

func TestCreateFromOntology(t *testing.T) {
	s, _ := newTestStore(t)
	mlPath, err := s.Create("Machine Learning", "ML body", nil)
	require.NoError(t, err)

	g := ontology.NewConceptGraph([]string{"Deep Learning", "Machine Learning", "GPU"}, []ontology.Relationship{
		{Source: "Deep Learning", Target: "Machine Learning", Type: "is_a"},
		{Source: "GPU", Target: "Deep Learning", Type: "used_for"},
	})

	path, err := s.CreateFromOntology("Deep Learning", "DL body", g, &Metadata{Type: "concept"})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "deep-learning.md"), path)

	doc, err := s.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Deep Learning", doc.Metadata.Title)
	assert.Equal(t, "concept", doc.Metadata.Type)
	assert.Equal(t, StringList{"Deep Learning", "Machine Learning", "GPU"}, doc.Metadata.Concepts)
	assert.Equal(t, "DL body\n\n## Related Notes\n- [[Machine Learning]]\n- [[GPU]]\n", doc.Body)

	assert.Contains(t, readFile(t, mlPath), "- [[deep-learning]]\n")
	assert.NoFileExists(t, filepath.Join(s.Root(), "gpu.md"))
}

func TestLocate(t *testing.T) {
	s, _ := newTestStore(t)

	path, err := s.Locate("Deep Learning")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "deep-learning.md"), path)

	path, err = s.Locate("topics/go.md")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "topics", "go.md"), path)

	path, err = s.Locate(filepath.Join(s.Root(), "topics", "..", "go.md"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.Root(), "go.md"), path)
}

func TestLocateOutsideVault(t *testing.T) {
	s, _ := newTestStore(t)

	for _, ref := range []string{"../outside.md", "topics/../../outside.md", "/elsewhere/x.md"} {
		_, err := s.Locate(ref)
		require.Error(t, err, ref)
		assert.True(t, apperr.Is(err, apperr.KindValidation), ref)
	}
}

// newNestedStore opens a vault inside a parent directory that also holds a
// document of its own.
func newNestedStore(t *testing.T) (*Store, string) {
	t.Helper()
	parent := t.TempDir()
	root := filepath.Join(parent, "vault")
	require.NoError(t, os.Mkdir(root, 0755))
	outside := filepath.Join(parent, "outside.md")
	require.NoError(t, os.WriteFile(outside, []byte("---\ntitle: Outside\n---\n\nkeep me\n"), 0644))

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	s, err := NewStore(root, WithLogger(logger))
	require.NoError(t, err)
	return s, outside
}

func TestWritesStayInsideVault(t *testing.T) {
	s, outside := newNestedStore(t)
	before := readFile(t, outside)

	err := s.AddLinks("../outside.md", []string{"X"}, false)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	err = s.AddLinks(outside, []string{"X"}, false)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	body := "replaced"
	err = s.Update("../outside.md", &body, nil, false)
	require.Error(t, err)

	_, err = s.Load(outside)
	require.Error(t, err)
	assert.False(t, s.Exists(outside))

	assert.Equal(t, before, readFile(t, outside))
}
