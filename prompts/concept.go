package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func RegisterConceptPrompt(s *server.MCPServer) {
	prompt := mcp.NewPrompt("concept_note",
		mcp.WithPromptDescription("Draft a concept note and file it in the vault"),
		mcp.WithArgument("topic", mcp.ArgumentDescription("The concept or topic to write about"), mcp.RequiredArgument()),
		mcp.WithArgument("notes", mcp.ArgumentDescription("Optional raw notes to start from")),
	)
	s.AddPrompt(prompt, conceptNoteHandler)
}

func conceptNoteHandler(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	topic := strings.TrimSpace(request.Params.Arguments["topic"])
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	text := fmt.Sprintf("Write a short explanation of %q covering its definition, key features and related concepts. "+
		"Then call create_note with the explanation as content and %q as title, "+
		"and report the related notes it was linked to.", topic, topic)
	if raw := strings.TrimSpace(request.Params.Arguments["notes"]); raw != "" {
		text += "\n\nStart from these notes:\n" + raw
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Concept note about %s", topic),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.TextContent{
					Type: "text",
					Text: text,
				},
			},
		},
	}, nil
}
