package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"proposals/internal/content"
	"proposals/internal/domain"
)

func (s *Server) registerPageTools() {
	// ── list_pages ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages of the open proposal in order, with a text preview"),
	), s.handleListPages)

	// ── get_page ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get the HTML body of a page"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
	), s.handleGetPage)

	// ── add_page ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_page",
		mcp.WithDescription("Add a page with starter content"),
		mcp.WithString("kind",
			mcp.Description("Page kind"),
			mcp.Enum(string(domain.PageCover), string(domain.PageContent), string(domain.PageTable), string(domain.PageAcceptance)),
			mcp.Required(),
		),
		mcp.WithString("afterPageId", mcp.Description("Insert after this page (optional, defaults to the end)")),
	), s.handleAddPage)

	// ── remove_page (destructive) ──────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_page",
		mcp.WithDescription("🛑 DESTRUCTIVE: Remove a page and its content. Requires user approval."),
		mcp.WithString("pageId", mcp.Description("Page ID to remove"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleRemovePage)

	// ── set_page_body ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_page_body",
		mcp.WithDescription("Replace the HTML body of a page. Content that no longer fits moves to the following pages."),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("body", mcp.Description("HTML body"), mcp.Required()),
	), s.handleSetPageBody)

	// ── apply_command ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("apply_command",
		mcp.WithDescription("Apply a formatting or insert command to one block of a page"),
		mcp.WithString("pageId", mcp.Description("Page ID"), mcp.Required()),
		mcp.WithString("kind",
			mcp.Description("Command"),
			mcp.Enum(
				string(content.CmdBold), string(content.CmdItalic), string(content.CmdUnderline),
				string(content.CmdHeading), string(content.CmdUnorderedList), string(content.CmdOrderedList),
				string(content.CmdInsertTable), string(content.CmdInsertPlanTable),
				string(content.CmdInsertPreset), string(content.CmdInsertHTML),
			),
			mcp.Required(),
		),
		mcp.WithNumber("block", mcp.Description("Index of the target block, ignoring whitespace; -1 for the end")),
		mcp.WithNumber("level", mcp.Description("Heading level 1-3, 0 for paragraph")),
		mcp.WithNumber("rows", mcp.Description("Table rows")),
		mcp.WithNumber("cols", mcp.Description("Table columns")),
		mcp.WithString("preset", mcp.Description("Preset name (see list_presets)")),
		mcp.WithString("markup", mcp.Description("HTML to insert")),
	), s.handleApplyCommand)

	// ── list_presets ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_presets",
		mcp.WithDescription("List the named content sections that insertPreset accepts"),
	), s.handleListPresets)
}

type pageSummary struct {
	ID             string          `json:"id"`
	Kind           domain.PageKind `json:"kind"`
	IsContinuation bool            `json:"isContinuation,omitempty"`
	Preview        string          `json:"preview"`
}

type documentSummary struct {
	Proposal domain.Proposal `json:"proposal"`
	Pages    []pageSummary   `json:"pages"`
	Notice   string          `json:"notice,omitempty"`
}

func summarizePage(p domain.Page) pageSummary {
	preview := ""
	if b, err := content.Parse(p.Body); err == nil {
		preview = strings.Join(strings.Fields(b.Text()), " ")
	}
	if r := []rune(preview); len(r) > 120 {
		preview = string(r[:120]) + "…"
	}
	return pageSummary{ID: p.ID, Kind: p.Kind, IsContinuation: p.IsContinuation, Preview: preview}
}

func summarizeDocument(state *domain.DocumentState) documentSummary {
	out := documentSummary{Proposal: state.Proposal, Notice: state.Notice, Pages: []pageSummary{}}
	for _, p := range state.Pages {
		out.Pages = append(out.Pages, summarizePage(p))
	}
	return out
}

func (s *Server) handleListPages(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state, err := s.proposals.Document()
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeDocument(state).Pages)
}

func (s *Server) handleGetPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	page, err := s.proposals.Page(pageID)
	if err != nil {
		return nil, err
	}
	return jsonResult(page)
}

func (s *Server) handleAddPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind := domain.PageKind(req.GetString("kind", ""))
	page, err := s.proposals.AddPage(ctx, kind, req.GetString("afterPageId", ""))
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizePage(*page))
}

func (s *Server) handleRemovePage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	page, err := s.proposals.Page(pageID)
	if err != nil {
		return nil, err
	}

	summary := summarizePage(page)
	meta, _ := json.Marshal(map[string]string{"pageId": page.ID, "kind": string(page.Kind)})
	desc := fmt.Sprintf("Remove %s page %q", page.Kind, summary.Preview)
	if err := s.approval.Request("remove_page", desc, string(meta)); err != nil {
		return nil, err
	}

	if err := s.proposals.RemovePage(ctx, pageID); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Removed page %s", pageID)), nil
}

func (s *Server) handleSetPageBody(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	res, err := s.proposals.EditPage(ctx, pageID, req.GetString("body", ""))
	if err != nil {
		return nil, err
	}
	return jsonResult(res)
}

func (s *Server) handleApplyCommand(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID := req.GetString("pageId", "")
	if pageID == "" {
		return nil, fmt.Errorf("pageId is required")
	}
	args := req.GetArguments()
	cmd := content.Command{
		Kind:   content.CommandKind(req.GetString("kind", "")),
		Block:  intArg(args, "block", -1),
		Level:  intArg(args, "level", 0),
		Rows:   intArg(args, "rows", 0),
		Cols:   intArg(args, "cols", 0),
		Preset: req.GetString("preset", ""),
		Markup: req.GetString("markup", ""),
	}
	res, err := s.proposals.ApplyCommand(ctx, pageID, cmd)
	if err != nil {
		return nil, err
	}
	return jsonResult(res)
}

func (s *Server) handleListPresets(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(content.Presets())
}
