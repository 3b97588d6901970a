package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/athapong/ontonote/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a.TXT"))
	assert.True(t, Supported("/x/page.html"))
	assert.True(t, Supported("paper.pdf"))
	assert.False(t, Supported("image.png"))
	assert.False(t, Supported("noext"))
}

func TestLoadText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "note.md")
	require.NoError(t, os.WriteFile(path, []byte("\n  Machine learning basics  \n"), 0644))

	text, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Machine learning basics", text)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.txt"))
	assert.True(t, apperr.IsNotFound(err))

	_, err = Load("image.png")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestFromHTMLPrefersArticle(t *testing.T) {
	page := `<html><head><style>p{}</style></head><body>
<nav>Menu</nav>
<article><h1>Deep Learning</h1><p>Uses <strong>neural</strong> networks.</p><script>x()</script></article>
<footer>Copyright</footer>
</body></html>`

	md, err := FromHTML([]byte(page))
	require.NoError(t, err)
	assert.Contains(t, md, "# Deep Learning")
	assert.Contains(t, md, "**neural**")
	assert.NotContains(t, md, "Menu")
	assert.NotContains(t, md, "Copyright")
	assert.NotContains(t, md, "x()")
}

func TestFromHTMLBody(t *testing.T) {
	md, err := FromHTML([]byte(`<html><body><p>Plain body</p></body></html>`))
	require.NoError(t, err)
	assert.Equal(t, "Plain body", md)
}

func TestFromPDFInvalid(t *testing.T) {
	_, err := FromPDF([]byte("not a pdf"))
	assert.True(t, apperr.Is(err, apperr.KindParse))
}
