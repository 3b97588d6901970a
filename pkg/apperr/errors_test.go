package apperr

import (
	"fmt"
	"os"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOfWrapped(t *testing.T) {
	base := NotFound("update", "/vault/a.md")
	wrapped := fmt.Errorf("outer: %w", base)

	assert.Equal(t, KindNotFound, KindOf(wrapped))
	assert.True(t, IsNotFound(wrapped))
	assert.False(t, IsBackend(wrapped))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, Is(nil, KindIO))
}

func TestErrorMessage(t *testing.T) {
	err := IO("write", "/vault/a.md", os.ErrPermission)

	assert.Contains(t, err.Error(), "IO write /vault/a.md")
	assert.ErrorIs(t, err, os.ErrPermission)
	require.NotNil(t, err.StackTrace())
}

func TestConfigHasNoCause(t *testing.T) {
	err := Config("load", "missing %s", "GEMINI_API_KEY")

	assert.Equal(t, "CONFIG load: missing GEMINI_API_KEY", err.Error())
	assert.Nil(t, err.Unwrap())
	assert.Nil(t, err.StackTrace())
}
