package mcpserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"proposals/internal/config"
	"proposals/internal/domain"
	"proposals/internal/service"
	"proposals/internal/storage"
)

func newTestServer(t *testing.T) (*Server, *service.MockEmitter, *storage.DB) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = dir

	db, err := storage.New(cfg.DBPath(), dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	emitter := &service.MockEmitter{}
	store := storage.NewProposalStore(db)
	proposals := service.NewProposalService(store, storage.NewHistoryStore(db), service.NewController(cfg), emitter, 0)
	t.Cleanup(proposals.Close)

	s := New(context.Background(), Deps{
		Emitter:   emitter,
		Store:     store,
		Proposals: proposals,
		Exports:   service.NewExportService(proposals, cfg, emitter),
		ExportDir: filepath.Join(dir, "exports"),
	})
	s.approval.SetTimeout(2 * time.Second)
	return s, emitter, db
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if res == nil || len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("expected text content, got %T", res.Content[0])
	}
	return tc.Text
}

func createProposal(t *testing.T, s *Server) documentSummary {
	t.Helper()
	res, err := s.handleCreateProposal(context.Background(), call(map[string]any{"name": "Website", "client": "Acme"}))
	if err != nil {
		t.Fatalf("create_proposal: %v", err)
	}
	var doc documentSummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return doc
}

// ─────────────────────────────────────────────────────────────
// Tools
// ─────────────────────────────────────────────────────────────

func TestCreateAndListProposals(t *testing.T) {
	s, _, _ := newTestServer(t)
	doc := createProposal(t, s)
	if len(doc.Pages) != 4 {
		t.Fatalf("expected 4 pages, got %d", len(doc.Pages))
	}
	if doc.Pages[0].Preview == "" {
		t.Error("expected a text preview")
	}

	res, err := s.handleListProposals(context.Background(), call(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(resultText(t, res), doc.Proposal.ID) {
		t.Error("expected the new proposal in the list")
	}

	if _, err := s.handleCreateProposal(context.Background(), call(map[string]any{"name": "  "})); err == nil {
		t.Error("expected error for blank name")
	}
}

func TestSetPageBodyReflows(t *testing.T) {
	s, _, _ := newTestServer(t)
	doc := createProposal(t, s)
	contentID := doc.Pages[1].ID

	var sb strings.Builder
	for i := 0; i < 80; i++ {
		sb.WriteString("<p>Paragraph of proposal text that takes up a line or two on the page.</p>")
	}
	res, err := s.handleSetPageBody(context.Background(), call(map[string]any{"pageId": contentID, "body": sb.String()}))
	if err != nil {
		t.Fatalf("set_page_body: %v", err)
	}
	if !strings.Contains(resultText(t, res), `"created"`) {
		t.Errorf("unexpected result: %s", resultText(t, res))
	}

	res, _ = s.handleListPages(context.Background(), call(nil))
	var pages []pageSummary
	if err := json.Unmarshal([]byte(resultText(t, res)), &pages); err != nil {
		t.Fatal(err)
	}
	if len(pages) <= 4 {
		t.Fatalf("expected continuation pages, got %d pages", len(pages))
	}
	if !pages[2].IsContinuation {
		t.Error("expected a continuation right after the content page")
	}
}

func TestApplyCommandTool(t *testing.T) {
	s, _, _ := newTestServer(t)
	doc := createProposal(t, s)
	contentID := doc.Pages[1].ID

	_, err := s.handleApplyCommand(context.Background(), call(map[string]any{
		"pageId": contentID,
		"kind":   "heading",
		"block":  float64(1),
		"level":  float64(3),
	}))
	if err != nil {
		t.Fatalf("apply_command: %v", err)
	}
	res, _ := s.handleGetPage(context.Background(), call(map[string]any{"pageId": contentID}))
	var page domain.Page
	if err := json.Unmarshal([]byte(resultText(t, res)), &page); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(page.Body, "<h3>") {
		t.Errorf("expected an h3, got %s", page.Body)
	}

	if _, err := s.handleApplyCommand(context.Background(), call(map[string]any{"pageId": contentID, "kind": "insertPreset", "preset": "Nope"})); err == nil {
		t.Error("expected unknown preset error")
	}
}

func TestRemovePageNeedsApproval(t *testing.T) {
	s, emitter, _ := newTestServer(t)
	doc := createProposal(t, s)
	target := doc.Pages[3].ID

	go func() {
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if req := emitter.Named(EventApprovalRequired); len(req) > 0 {
				s.Reject(req[0].Data.(PendingAction).ID)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
	if _, err := s.handleRemovePage(context.Background(), call(map[string]any{"pageId": target})); err == nil {
		t.Fatal("expected rejection")
	}
	if _, err := s.proposals.Page(target); err != nil {
		t.Fatal("rejected removal must keep the page")
	}

	emitter.Reset()
	go func() {
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			if req := emitter.Named(EventApprovalRequired); len(req) > 0 {
				s.Approve(req[0].Data.(PendingAction).ID)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
	if _, err := s.handleRemovePage(context.Background(), call(map[string]any{"pageId": target})); err != nil {
		t.Fatalf("remove_page: %v", err)
	}
	if _, err := s.proposals.Page(target); err == nil {
		t.Error("expected the page to be gone")
	}
}

func TestExportTool(t *testing.T) {
	s, _, _ := newTestServer(t)
	doc := createProposal(t, s)

	res, err := s.handleExportPDF(context.Background(), call(nil))
	if err != nil {
		t.Fatalf("export_pdf: %v", err)
	}
	if !strings.Contains(resultText(t, res), doc.Proposal.ID+".pdf") {
		t.Errorf("expected default export path, got %s", resultText(t, res))
	}
}

// ─────────────────────────────────────────────────────────────
// Approval queue
// ─────────────────────────────────────────────────────────────

func TestApprovalTimesOut(t *testing.T) {
	emitter := &service.MockEmitter{}
	q := NewApprovalQueue(context.Background(), emitter)
	q.SetTimeout(20 * time.Millisecond)

	if err := q.Request("remove_page", "Remove page", ""); err == nil {
		t.Fatal("expected timeout")
	}
	if len(emitter.Named(EventApprovalDismissed)) != 1 {
		t.Error("expected the request to be dismissed")
	}
}

func TestApprovalViaDB(t *testing.T) {
	_, _, db := newTestServer(t)
	q := NewApprovalQueue(context.Background(), &service.MockEmitter{})
	q.SetDB(db.Conn())
	q.poll = 5 * time.Millisecond

	go func() {
		deadline := time.Now().Add(time.Second)
		for time.Now().Before(deadline) {
			var id string
			if db.Conn().QueryRow(`SELECT id FROM mcp_approvals WHERE status = 'pending'`).Scan(&id) == nil {
				ResolveStored(db.Conn(), id, true)
				return
			}
			time.Sleep(5 * time.Millisecond)
		}
	}()
	if err := q.Request("remove_page", "Remove page", `{"pageId":"p"}`); err != nil {
		t.Fatalf("expected approval, got %v", err)
	}

	var count int
	db.Conn().QueryRow(`SELECT COUNT(*) FROM mcp_approvals`).Scan(&count)
	if count != 0 {
		t.Errorf("expected resolved approvals to be cleaned up, got %d", count)
	}
}

// ─────────────────────────────────────────────────────────────
// Resources
// ─────────────────────────────────────────────────────────────

func TestProposalIDFromURI(t *testing.T) {
	cases := map[string]string{
		"proposals://proposal/abc-123/document": "abc-123",
		"proposals://proposal//document":        "",
		"proposals://proposal/a/b/document":     "",
		"other://page/abc/blocks":               "",
	}
	for uri, want := range cases {
		if got := proposalIDFromURI(uri); got != want {
			t.Errorf("%s: expected %q, got %q", uri, want, got)
		}
	}
}

func TestDocumentResource(t *testing.T) {
	s, _, _ := newTestServer(t)
	doc := createProposal(t, s)

	var req mcp.ReadResourceRequest
	req.Params.URI = documentPrefix + doc.Proposal.ID + documentSuffix
	contents, err := s.handleDocumentResource(context.Background(), req)
	if err != nil {
		t.Fatalf("read resource: %v", err)
	}
	text := contents[0].(mcp.TextResourceContents).Text
	if !strings.Contains(text, doc.Pages[1].ID) {
		t.Error("expected the document pages in the resource")
	}
}
