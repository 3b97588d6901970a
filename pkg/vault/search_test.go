package vault

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRelated(t *testing.T) {
	s, _ := newTestStore(t)
	ai, err := s.Create("AI Note", "a", &Metadata{Concepts: StringList{"ML", "AI"}})
	require.NoError(t, err)
	_, err = s.Create("Go Note", "b", &Metadata{Concepts: StringList{"Go"}})
	require.NoError(t, err)
	_, err = s.Create("Plain", "c", nil)
	require.NoError(t, err)

	nested := filepath.Join(s.Root(), "sub", "nested.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(nested), 0755))
	require.NoError(t, os.WriteFile(nested, []byte("---\nconcepts: AI, Robotics\n---\n\nnested"), 0644))

	hidden := filepath.Join(s.Root(), ".templates", "concept.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(hidden), 0755))
	require.NoError(t, os.WriteFile(hidden, []byte("---\nconcepts: [AI]\n---\n"), 0644))

	broken := filepath.Join(s.Root(), "broken.md")
	require.NoError(t, os.WriteFile(broken, []byte("---\nconcepts: [AI\n---\n"), 0644))

	related, err := s.FindRelated([]string{"AI"})
	require.NoError(t, err)
	assert.Equal(t, []string{ai, nested}, related)

	related, err = s.FindRelated([]string{"Rust"})
	require.NoError(t, err)
	assert.Empty(t, related)

	related, err = s.FindRelated(nil)
	require.NoError(t, err)
	assert.NotNil(t, related)
	assert.Empty(t, related)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	shallow := filepath.Join(root, "notes")
	deep := filepath.Join(root, "a", "b", "c", "d")
	for _, dir := range []string{shallow, deep} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, MarkerDir), 0755))
	}

	assert.Equal(t, []string{shallow}, Discover([]string{root, root}, 3))
	assert.Equal(t, []string{deep, shallow}, Discover([]string{root}, 4))
	assert.Empty(t, Discover([]string{filepath.Join(root, "missing")}, 3))
}
