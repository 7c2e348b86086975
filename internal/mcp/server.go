package mcpserver

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"proposals/internal/domain"
	"proposals/internal/service"
)

// Server is the MCP server for the proposal editor. Agents go through the
// same ProposalService as the frontend, so their edits reflow too.
type Server struct {
	mcp      *server.MCPServer
	emitter  EventEmitter
	approval *ApprovalQueue

	store     domain.ProposalStore
	proposals *service.ProposalService
	exports   *service.ExportService
	exportDir string
}

// Deps holds all dependencies passed from the App layer to the MCP server.
type Deps struct {
	Emitter    EventEmitter
	Store      domain.ProposalStore
	Proposals  *service.ProposalService
	Exports    *service.ExportService
	ExportDir  string
	ApprovalDB *sql.DB // When set, use SQLite-based approval (standalone mode)
}

// New creates and configures a new MCP server with all tools and resources.
func New(ctx context.Context, deps Deps) *Server {
	approval := NewApprovalQueue(ctx, deps.Emitter)
	if deps.ApprovalDB != nil {
		approval.SetDB(deps.ApprovalDB)
	}
	s := &Server{
		emitter:   deps.Emitter,
		approval:  approval,
		store:     deps.Store,
		proposals: deps.Proposals,
		exports:   deps.Exports,
		exportDir: deps.ExportDir,
	}

	s.mcp = server.NewMCPServer(
		"proposals-mcp",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, false),
		server.WithPromptCapabilities(true),
	)

	s.registerProposalTools()
	s.registerPageTools()
	s.registerResources()
	s.registerPrompts()

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	log.Println("[MCP] Starting stdio server...")
	return server.ServeStdio(s.mcp)
}

// Approve forwards a user approval to the approval queue.
func (s *Server) Approve(actionID string) {
	s.approval.Approve(actionID)
}

// Reject forwards a user rejection to the approval queue.
func (s *Server) Reject(actionID string) {
	s.approval.Reject(actionID)
}

// ── Helpers ────────────────────────────────────────────────

// textResult creates a simple text tool result.
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

// jsonResult serializes v to JSON and wraps it in a text tool result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return textResult(string(data)), nil
}

// intArg reads a numeric argument; JSON numbers arrive as float64.
func intArg(args map[string]any, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

func boolPtr(v bool) *bool { return &v }
