package mcpserver

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

func (s *Server) registerProposalTools() {
	// ── list_proposals ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_proposals",
		mcp.WithDescription("List all proposals, most recently edited first"),
	), s.handleListProposals)

	// ── create_proposal ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_proposal",
		mcp.WithDescription("Create a proposal with a cover, content, pricing and acceptance page, and open it"),
		mcp.WithString("name", mcp.Description("Proposal title"), mcp.Required()),
		mcp.WithString("client", mcp.Description("Client name (optional)")),
	), s.handleCreateProposal)

	// ── open_proposal ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_proposal",
		mcp.WithDescription("Open a proposal. Page tools act on the open proposal."),
		mcp.WithString("proposalId", mcp.Description("ID of the proposal"), mcp.Required()),
	), s.handleOpenProposal)

	// ── export_pdf ─────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("export_pdf",
		mcp.WithDescription("Export the open proposal to an A4 PDF, one PDF page per proposal page"),
		mcp.WithString("path", mcp.Description("Output file (optional, defaults to the exports directory)")),
	), s.handleExportPDF)
}

func (s *Server) handleListProposals(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	proposals, err := s.proposals.ListProposals()
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	return jsonResult(proposals)
}

func (s *Server) handleCreateProposal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	state, err := s.proposals.CreateProposal(ctx, name, req.GetString("client", ""))
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeDocument(state))
}

func (s *Server) handleOpenProposal(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := req.GetString("proposalId", "")
	if id == "" {
		return nil, fmt.Errorf("proposalId is required")
	}
	state, err := s.proposals.OpenProposal(ctx, id)
	if err != nil {
		return nil, err
	}
	return jsonResult(summarizeDocument(state))
}

func (s *Server) handleExportPDF(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		p, _, err := s.proposals.Snapshot()
		if err != nil {
			return nil, err
		}
		path = filepath.Join(s.exportDir, p.ID+".pdf")
	}
	res, err := s.exports.ExportPDF(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return jsonResult(res)
}
