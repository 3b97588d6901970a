package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/athapong/ontonote/services"
	"github.com/athapong/ontonote/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

var toolDescriptions = map[string]string{
	"create_note":         "Create a linked note from raw text",
	"suggest_connections": "Suggest connections to existing notes",
	"find_related_notes":  "Find notes sharing concepts",
	"link_notes":          "Link notes with wiki links",
	"assist":              "One-shot writing actions",
	"list_templates":      "List note templates",
}

// EnabledFilter parses an ENABLE_TOOLS value. An empty value enables every
// tool.
func EnabledFilter(value string) func(string) bool {
	var names []string
	for _, n := range strings.Split(value, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return func(name string) bool {
		return len(names) == 0 || slices.Contains(names, name)
	}
}

// ToolManager reports which tools are enabled and plans tool use.
type ToolManager struct {
	isEnabled func(string) bool
	gen       services.Generator
}

func NewToolManager(isEnabled func(string) bool, gen services.Generator) *ToolManager {
	return &ToolManager{isEnabled: isEnabled, gen: gen}
}

func RegisterToolManagerTool(s *server.MCPServer, m *ToolManager) {
	tool := mcp.NewTool("tool_manager",
		mcp.WithDescription("List the note tools and whether they are enabled"),
		mcp.WithString("action", mcp.Required(), mcp.Description("Action to perform: list")),
	)
	s.AddTool(tool, util.ErrorGuard(util.AdaptLegacyHandler(m.toolManagerHandler)))

	planTool := mcp.NewTool("tool_use_plan",
		mcp.WithDescription("Create a plan using the enabled note tools to solve the request"),
		mcp.WithString("request", mcp.Required(), mcp.Description("Request to plan for")),
		mcp.WithString("context", mcp.Description("Context related to the request")),
	)
	s.AddTool(planTool, util.ErrorGuard(m.toolUsePlanHandler))
}

func (m *ToolManager) enabledTools() []string {
	var out []string
	for _, name := range NoteToolNames {
		if m.isEnabled(name) {
			out = append(out, name)
		}
	}
	return out
}

func (m *ToolManager) toolManagerHandler(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	action, ok := arguments["action"].(string)
	if !ok {
		return mcp.NewToolResultError("action must be a string"), nil
	}
	if action != "list" {
		return mcp.NewToolResultError("Invalid action. Use 'list'"), nil
	}

	var b strings.Builder
	b.WriteString("Available tools:\n")
	for _, name := range NoteToolNames {
		status := "disabled"
		if m.isEnabled(name) {
			status = "enabled"
		}
		fmt.Fprintf(&b, "- %s (%s) [%s]\n", name, toolDescriptions[name], status)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (m *ToolManager) toolUsePlanHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	request, err := req.RequireString("request")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if m.gen == nil {
		return mcp.NewToolResultError("no text generation backend configured"), nil
	}

	prompt := fmt.Sprintf(`You are a tool usage planning assistant for a knowledge base. Create a step by step plan using only these tools: %s

Context: %s

Request: %s

Output format:
1. [Tool Name] - Purpose: ... (Expected result: ...)
2. [Tool Name] - Purpose: ... (Expected result: ...)`,
		strings.Join(m.enabledTools(), ", "), req.GetString("context", "none"), request)

	plan, err := m.gen.Generate(ctx, prompt)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("planning failed: %v", err)), nil
	}
	return mcp.NewToolResultText(strings.TrimSpace(plan)), nil
}
