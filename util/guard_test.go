package util

import (
	"context"
	"errors"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return text.Text
}

func TestErrorGuardRecoversPanic(t *testing.T) {
	h := ErrorGuard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("boom")
	})
	req := mcp.CallToolRequest{}
	req.Params.Name = "create_note"

	res, err := h(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "internal error in create_note: boom", resultText(t, res))
}

func TestErrorGuardConvertsErrors(t *testing.T) {
	h := ErrorGuard(func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return nil, errors.New("vault unavailable")
	})
	res, err := h(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Equal(t, "vault unavailable", resultText(t, res))
}

func TestAdaptLegacyHandler(t *testing.T) {
	h := AdaptLegacyHandler(func(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText(arguments["name"].(string)), nil
	})
	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]interface{}{"name": "concept.md"}

	res, err := h(context.Background(), req)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Equal(t, "concept.md", resultText(t, res))
}
