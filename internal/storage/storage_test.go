package storage_test

import (
	"errors"
	"path/filepath"
	"testing"

	"proposals/internal/config"
	"proposals/internal/document"
	"proposals/internal/domain"
	"proposals/internal/storage"
)

func openDB(t *testing.T) *storage.DB {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "test.db"), filepath.Join(dir, "data"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func createProposal(t *testing.T, s domain.ProposalStore, id string) {
	t.Helper()
	if err := s.CreateProposal(&domain.Proposal{ID: id, Name: "Proposal " + id}); err != nil {
		t.Fatalf("create proposal: %v", err)
	}
}

// ─────────────────────────────────────────────────────────────
// ProposalStore
// ─────────────────────────────────────────────────────────────

func TestProposalCRUD(t *testing.T) {
	s := storage.NewProposalStore(openDB(t))
	createProposal(t, s, "p1")

	got, err := s.GetProposal("p1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Proposal p1" {
		t.Errorf("name = %q", got.Name)
	}

	got.Client = "Acme"
	if err := s.UpdateProposal(got); err != nil {
		t.Fatalf("update: %v", err)
	}
	list, err := s.ListProposals()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 || list[0].Client != "Acme" {
		t.Fatalf("unexpected list: %+v", list)
	}

	if err := s.DeleteProposal("p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetProposal("p1"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateMissingProposal(t *testing.T) {
	s := storage.NewProposalStore(openDB(t))
	err := s.UpdateProposal(&domain.Proposal{ID: "ghost"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveLoadDocumentRoundTrip(t *testing.T) {
	s := storage.NewProposalStore(openDB(t))
	createProposal(t, s, "p1")

	m := document.New(
		domain.Page{ID: "a", Kind: domain.PageCover, Body: "<h1>Cover</h1>"},
		domain.Page{ID: "b", Kind: domain.PageContent, Body: "<p>x</p>"},
		domain.Page{ID: "c", Kind: domain.PageContent, Body: "<p>y</p>", IsContinuation: true, HasPendingFocus: true},
		domain.Page{ID: "d", Kind: domain.PageAcceptance, Body: "<p>Signed</p>"},
	)
	if err := storage.SaveDocument(s, "p1", m); err != nil {
		t.Fatalf("save: %v", err)
	}

	back, err := storage.LoadDocument(s, "p1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	pages := back.All()
	if len(pages) != 4 {
		t.Fatalf("expected 4 pages, got %d", len(pages))
	}
	if pages[0].ID != "a" || pages[1].ID != "b" || pages[2].ID != "c" || pages[3].ID != "d" {
		t.Errorf("order not preserved: %+v", pages)
	}
	if !pages[2].IsContinuation {
		t.Error("expected isContinuation to survive")
	}
	if pages[2].HasPendingFocus {
		t.Error("pending focus must not be persisted")
	}
	if pages[3].Kind != domain.PageAcceptance || pages[3].Body != "<p>Signed</p>" {
		t.Errorf("acceptance page not preserved: %+v", pages[3])
	}

	// Saving again replaces, not appends.
	if err := back.RemovePage("a"); err != nil {
		t.Fatal(err)
	}
	if err := storage.SaveDocument(s, "p1", back); err != nil {
		t.Fatalf("resave: %v", err)
	}
	pagesAgain, err := s.LoadPages("p1")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(pagesAgain) != 3 {
		t.Errorf("expected 3 pages after resave, got %d", len(pagesAgain))
	}
}

func TestLoadDocumentMissingProposal(t *testing.T) {
	s := storage.NewProposalStore(openDB(t))
	if _, err := storage.LoadDocument(s, "nope"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadDocumentCorruptRecords(t *testing.T) {
	db := openDB(t)
	s := storage.NewProposalStore(db)
	createProposal(t, s, "p1")

	_, err := db.Conn().Exec(
		`INSERT INTO pages (id, proposal_id, position, kind, body, is_continuation) VALUES ('x', 'p1', 0, 'poster', '', 0)`,
	)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := storage.LoadDocument(s, "p1"); !errors.Is(err, storage.ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestLoadPagesDuplicatePosition(t *testing.T) {
	db := openDB(t)
	s := storage.NewProposalStore(db)
	createProposal(t, s, "p1")

	for _, id := range []string{"x", "y"} {
		_, err := db.Conn().Exec(
			`INSERT INTO pages (id, proposal_id, position, kind, body, is_continuation) VALUES (?, 'p1', 0, 'content', '', 0)`, id,
		)
		if err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.LoadPages("p1"); !errors.Is(err, storage.ErrCorrupt) {
		t.Errorf("expected ErrCorrupt, got %v", err)
	}
}

func TestOpenProposalStoreDefaultsToSQLite(t *testing.T) {
	db := openDB(t)
	s, err := storage.OpenProposalStore(db, config.StoreConfig{Driver: config.DriverSQLite})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer s.Close()
	createProposal(t, s, "p1")

	if _, err := storage.OpenProposalStore(db, config.StoreConfig{Driver: "oracle"}); err == nil {
		t.Error("expected error for unknown driver")
	}
}

// ─────────────────────────────────────────────────────────────
// HistoryStore
// ─────────────────────────────────────────────────────────────

func TestHistoryPushChainsNodes(t *testing.T) {
	h := storage.NewHistoryStore(openDB(t))

	first, err := h.Push("p1", "open", `{"v":1}`)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	second, err := h.Push("p1", "edit", `{"v":2}`)
	if err != nil {
		t.Fatalf("push: %v", err)
	}
	if second.ParentID == nil || *second.ParentID != first.ID {
		t.Fatalf("expected parent %s, got %v", first.ID, second.ParentID)
	}

	tree, err := h.LoadTree("p1")
	if err != nil {
		t.Fatalf("load tree: %v", err)
	}
	if tree.RootID != first.ID || tree.CurrentID != second.ID || len(tree.Nodes) != 2 {
		t.Errorf("unexpected tree: %+v", tree)
	}

	// Branch from the root.
	if err := h.GoTo("p1", first.ID); err != nil {
		t.Fatal(err)
	}
	branch, err := h.Push("p1", "branch", `{"v":3}`)
	if err != nil {
		t.Fatal(err)
	}
	if *branch.ParentID != first.ID {
		t.Errorf("branch parent = %s, want %s", *branch.ParentID, first.ID)
	}
}

func TestHistoryPrune(t *testing.T) {
	h := storage.NewHistoryStore(openDB(t))
	var last *storage.HistoryNode
	for i := 0; i < 45; i++ {
		n, err := h.Push("p1", "edit", "{}")
		if err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
		last = n
	}

	tree, err := h.LoadTree("p1")
	if err != nil {
		t.Fatal(err)
	}
	if len(tree.Nodes) != 40 {
		t.Errorf("expected 40 nodes after prune, got %d", len(tree.Nodes))
	}
	if tree.CurrentID != last.ID {
		t.Errorf("current node was pruned")
	}
	if tree.RootID == "" {
		t.Error("tree lost its root")
	}
}

func TestHistoryEmptyAndClear(t *testing.T) {
	h := storage.NewHistoryStore(openDB(t))
	tree, err := h.LoadTree("none")
	if err != nil || tree != nil {
		t.Fatalf("expected empty tree, got %+v, %v", tree, err)
	}

	n, _ := h.Push("p1", "open", "{}")
	if err := h.Clear("p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := h.Get(n.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after clear, got %v", err)
	}
}
