package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/athapong/ontonote/pkg/notes"
	"github.com/athapong/ontonote/util"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// TemplateLister lists the available note templates.
type TemplateLister interface {
	List() ([]string, error)
}

// NoteTools serves the note pipeline over MCP.
type NoteTools struct {
	pipeline  *notes.Pipeline
	templates TemplateLister
}

func NewNoteTools(pipeline *notes.Pipeline, templates TemplateLister) *NoteTools {
	return &NoteTools{pipeline: pipeline, templates: templates}
}

// Names of the note tools, as accepted by ENABLE_TOOLS.
var NoteToolNames = []string{
	"create_note",
	"suggest_connections",
	"find_related_notes",
	"link_notes",
	"assist",
	"list_templates",
}

// RegisterNoteTools adds every note tool accepted by isEnabled to s.
func RegisterNoteTools(s *server.MCPServer, t *NoteTools, isEnabled func(string) bool) {
	if isEnabled("create_note") {
		tool := mcp.NewTool("create_note",
			mcp.WithDescription("Create a knowledge note from raw text. The text is expanded into a structured note, its concepts and relationships are extracted, and the note is stored in the vault linked to related notes."),
			mcp.WithString("content", mcp.Required(), mcp.Description("Raw text, idea or excerpt to turn into a note")),
			mcp.WithString("title", mcp.Description("Note title. Generated from the content when omitted")),
			mcp.WithString("template", mcp.Description("Template name from the vault .templates directory, e.g. concept.md")),
		)
		s.AddTool(tool, util.ErrorGuard(t.createNoteHandler))
	}

	if isEnabled("suggest_connections") {
		tool := mcp.NewTool("suggest_connections",
			mcp.WithDescription("Suggest how a text connects to notes already in the vault"),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to find connections for")),
		)
		s.AddTool(tool, util.ErrorGuard(t.suggestConnectionsHandler))
	}

	if isEnabled("find_related_notes") {
		tool := mcp.NewTool("find_related_notes",
			mcp.WithDescription("List vault notes whose concepts include any of the given concepts"),
			mcp.WithString("concepts", mcp.Required(), mcp.Description("Comma separated concept names, e.g. Machine Learning, Graph Theory")),
		)
		s.AddTool(tool, util.ErrorGuard(t.findRelatedHandler))
	}

	if isEnabled("link_notes") {
		tool := mcp.NewTool("link_notes",
			mcp.WithDescription("Add wiki links from one note to others, optionally with links back"),
			mcp.WithString("source", mcp.Required(), mcp.Description("Title or vault relative path (ending in .md) of the note to link from")),
			mcp.WithString("targets", mcp.Required(), mcp.Description("Comma separated titles to link to")),
			mcp.WithBoolean("bidirectional", mcp.Description("Also link existing targets back to the source (default: true)")),
			mcp.WithBoolean("dry_run", mcp.Description("Only show the change as a diff")),
		)
		s.AddTool(tool, util.ErrorGuard(t.linkNotesHandler))
	}

	if isEnabled("assist") {
		actions := make([]string, 0, len(notes.Actions))
		for _, a := range notes.Actions {
			actions = append(actions, string(a))
		}
		tool := mcp.NewTool("assist",
			mcp.WithDescription("Run a one-shot writing action over a text"),
			mcp.WithString("action", mcp.Required(), mcp.Description("Action to run"), mcp.Enum(actions...)),
			mcp.WithString("text", mcp.Required(), mcp.Description("Text to work on")),
			mcp.WithBoolean("save", mcp.Description("Store the answer as a new note")),
		)
		s.AddTool(tool, util.ErrorGuard(t.assistHandler))
	}

	if isEnabled("list_templates") {
		tool := mcp.NewTool("list_templates",
			mcp.WithDescription("List the note templates available in the vault"),
		)
		s.AddTool(tool, util.ErrorGuard(util.AdaptLegacyHandler(t.listTemplatesHandler)))
	}
}

func (t *NoteTools) createNoteHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content, err := req.RequireString("content")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	res, err := t.pipeline.ProcessNewNote(ctx, notes.NoteRequest{
		Title:    req.GetString("title", ""),
		Content:  content,
		Template: req.GetString("template", ""),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to create note: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Created note: %s\n", res.Path)
	fmt.Fprintf(&b, "Title: %s\n", res.Title)
	fmt.Fprintf(&b, "Tags: %s\n", strings.Join(res.Tags, ", "))
	fmt.Fprintf(&b, "Concepts: %s\n", strings.Join(res.Concepts, ", "))
	fmt.Fprintf(&b, "Related notes: %s\n", joinOrNone(res.Related))
	if len(res.Degraded) > 0 {
		fmt.Fprintf(&b, "Degraded steps: %s\n", strings.Join(res.Degraded, ", "))
	}
	if res.Diagram != "" {
		fmt.Fprintf(&b, "\n%s\n", res.Diagram)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (t *NoteTools) suggestConnectionsHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	s, err := t.pipeline.SuggestConnections(ctx, text)
	if err != nil && (s == nil || len(s.Related) == 0) {
		return mcp.NewToolResultError(fmt.Sprintf("failed to suggest connections: %v", err)), nil
	}
	if len(s.Related) == 0 {
		return mcp.NewToolResultText("No related notes found."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Related notes: %s\n", strings.Join(s.Related, ", "))
	if err != nil {
		fmt.Fprintf(&b, "\nSuggestions unavailable: %v\n", err)
	} else {
		fmt.Fprintf(&b, "\n%s\n", s.Text)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (t *NoteTools) findRelatedHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	raw, err := req.RequireString("concepts")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	store := t.pipeline.Store()
	paths, err := store.FindRelated(splitList(raw))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to search vault: %v", err)), nil
	}
	if len(paths) == 0 {
		return mcp.NewToolResultText("No related notes found."), nil
	}

	var b strings.Builder
	for _, p := range paths {
		fmt.Fprintf(&b, "- %s\n", store.Relative(p))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (t *NoteTools) linkNotesHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := req.RequireString("source")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	rawTargets, err := req.RequireString("targets")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	targets := splitList(rawTargets)
	if len(targets) == 0 {
		return mcp.NewToolResultError("targets must name at least one note"), nil
	}

	store := t.pipeline.Store()
	path, err := store.Locate(source)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid source: %v", err)), nil
	}
	if req.GetBool("dry_run", false) {
		diff, err := store.PreviewLinks(path, targets)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to preview links: %v", err)), nil
		}
		if diff == "" {
			return mcp.NewToolResultText("No changes: every link is already present."), nil
		}
		return mcp.NewToolResultText(diff), nil
	}

	bidirectional := req.GetBool("bidirectional", true)
	if err := store.AddLinks(path, targets, bidirectional); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to link notes: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Linked %s to %s", store.Relative(path), strings.Join(targets, ", "))), nil
}

func (t *NoteTools) assistHandler(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	rawAction, err := req.RequireString("action")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text, err := req.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	action, ok := notes.ParseAction(rawAction)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown action %q", rawAction)), nil
	}

	out, err := t.pipeline.Assist(ctx, action, text)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("assist failed: %v", err)), nil
	}
	if !req.GetBool("save", false) {
		return mcp.NewToolResultText(out), nil
	}

	path, err := t.pipeline.SaveAssist(action, text, out)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to save answer: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n\nSaved to %s", out, path)), nil
}

func (t *NoteTools) listTemplatesHandler(arguments map[string]interface{}) (*mcp.CallToolResult, error) {
	names, err := t.templates.List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list templates: %v", err)), nil
	}
	if len(names) == 0 {
		return mcp.NewToolResultText("No templates found."), nil
	}
	return mcp.NewToolResultText(strings.Join(names, "\n")), nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
