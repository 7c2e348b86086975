package service_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"proposals/internal/config"
	"proposals/internal/content"
	"proposals/internal/domain"
	"proposals/internal/export"
	"proposals/internal/reflow"
	"proposals/internal/service"
	"proposals/internal/storage"
)

// blockMeasurer charges 10 units per top-level block and per list item.
type blockMeasurer struct{}

func (blockMeasurer) Measure(b content.Body) float64 {
	var total float64
	for _, n := range b {
		switch {
		case content.IsWhitespace(n):
		case content.IsList(n):
			total += 10 * float64(len(content.ListItems(n)))
		default:
			total += 10
		}
	}
	return total
}

type fixture struct {
	cfg     config.Config
	store   *storage.ProposalStore
	history *storage.HistoryStore
	emitter *service.MockEmitter
	svc     *service.ProposalService
}

// newFixture opens a service whose content pages hold ten blocks.
func newFixture(t *testing.T, settle time.Duration) *fixture {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Default()
	cfg.DataDir = dir
	cfg.Backup.Keep = 2

	db, err := storage.New(cfg.DBPath(), dir)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	n := 0
	ctrl := reflow.NewController(
		reflow.NewDetector(blockMeasurer{}, 0),
		func(domain.Page) float64 { return 100 },
		reflow.WithIDGenerator(func() string {
			n++
			return "cont-" + strconv.Itoa(n)
		}),
	)
	f := &fixture{
		cfg:     cfg,
		store:   storage.NewProposalStore(db),
		history: storage.NewHistoryStore(db),
		emitter: &service.MockEmitter{},
	}
	f.svc = service.NewProposalService(f.store, f.history, ctrl, f.emitter, settle)
	t.Cleanup(f.svc.Close)
	return f
}

func (f *fixture) create(t *testing.T) *domain.DocumentState {
	t.Helper()
	state, err := f.svc.CreateProposal(context.Background(), "Website", "Acme")
	if err != nil {
		t.Fatalf("create proposal: %v", err)
	}
	return state
}

func paragraphs(n int) string {
	var sb strings.Builder
	for i := 1; i <= n; i++ {
		sb.WriteString("<p>p" + strconv.Itoa(i) + "</p>")
	}
	return sb.String()
}

func countBlocks(body string) int {
	b, err := content.Parse(body)
	if err != nil {
		return -1
	}
	return int(blockMeasurer{}.Measure(b) / 10)
}

// ─────────────────────────────────────────────────────────────
// Proposals
// ─────────────────────────────────────────────────────────────

func TestCreateProposal_DefaultPages(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)

	want := []domain.PageKind{domain.PageCover, domain.PageContent, domain.PageTable, domain.PageAcceptance}
	if len(state.Pages) != len(want) {
		t.Fatalf("expected %d pages, got %d", len(want), len(state.Pages))
	}
	for i, k := range want {
		if state.Pages[i].Kind != k {
			t.Errorf("page %d: expected %s, got %s", i, k, state.Pages[i].Kind)
		}
	}
	if len(f.emitter.Named(service.EventDocumentLoaded)) != 1 {
		t.Error("expected document:loaded")
	}

	m, err := storage.LoadDocument(f.store, state.Proposal.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Len() != 4 {
		t.Errorf("expected 4 stored pages, got %d", m.Len())
	}
}

func TestOpenProposal_CorruptFallsBackToBlank(t *testing.T) {
	f := newFixture(t, 0)
	p := &domain.Proposal{ID: "broken", Name: "Broken"}
	if err := f.store.CreateProposal(p); err != nil {
		t.Fatal(err)
	}
	if err := f.store.SavePages("broken", []domain.Page{{ID: "x", Kind: "poster", Body: "<p>a</p>"}}); err != nil {
		t.Fatal(err)
	}

	state, err := f.svc.OpenProposal(context.Background(), "broken")
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if len(state.Pages) != 1 || state.Pages[0].Kind != domain.PageContent {
		t.Fatalf("expected one blank content page, got %+v", state.Pages)
	}
	if state.Notice == "" {
		t.Error("expected a notice on the state")
	}
	if len(f.emitter.Named(service.EventDocumentNotice)) != 1 {
		t.Error("expected document:notice")
	}
}

func TestOpenProposal_Missing(t *testing.T) {
	f := newFixture(t, 0)
	_, err := f.svc.OpenProposal(context.Background(), "nope")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestNoProposalOpen(t *testing.T) {
	f := newFixture(t, 0)
	if _, err := f.svc.EditPage(context.Background(), "p", "<p>a</p>"); !errors.Is(err, service.ErrNoProposal) {
		t.Errorf("EditPage: expected ErrNoProposal, got %v", err)
	}
	if _, err := f.svc.Document(); !errors.Is(err, service.ErrNoProposal) {
		t.Errorf("Document: expected ErrNoProposal, got %v", err)
	}
}

func TestDeleteProposal_ClosesIt(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	if err := f.svc.DeleteProposal(state.Proposal.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if f.svc.OpenProposalID() != "" {
		t.Error("expected no open proposal")
	}
	if tree, _ := f.history.LoadTree(state.Proposal.ID); tree != nil {
		t.Error("expected history to be cleared")
	}
}

// ─────────────────────────────────────────────────────────────
// Editing and reflow
// ─────────────────────────────────────────────────────────────

func TestEditPage_OverflowCreatesContinuation(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	contentID := state.Pages[1].ID
	f.emitter.Reset()

	res, err := f.svc.EditPage(context.Background(), contentID, paragraphs(12))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(res.Created) != 1 || res.FocusPageID != "cont-1" {
		t.Fatalf("unexpected result: %+v", res)
	}

	doc, _ := f.svc.Document()
	if len(doc.Pages) != 5 {
		t.Fatalf("expected 5 pages, got %d", len(doc.Pages))
	}
	cont := doc.Pages[2]
	if cont.ID != "cont-1" || !cont.IsContinuation {
		t.Fatalf("expected continuation after the content page, got %+v", cont)
	}
	if countBlocks(doc.Pages[1].Body) != 10 || countBlocks(cont.Body) != 2 {
		t.Errorf("expected 10/2 split, got %d/%d", countBlocks(doc.Pages[1].Body), countBlocks(cont.Body))
	}
	if doc.FocusPageID != "cont-1" {
		t.Errorf("expected focus on cont-1, got %q", doc.FocusPageID)
	}

	if len(f.emitter.Named(service.EventPagesChanged)) != 1 {
		t.Error("expected pages:changed")
	}
	if focus := f.emitter.Named(service.EventPageFocus); len(focus) != 1 {
		t.Error("expected page:focus")
	}

	m, err := storage.LoadDocument(f.store, state.Proposal.ID)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Len() != 5 {
		t.Errorf("expected the cascade to be persisted, got %d pages", m.Len())
	}
	if stored, _ := m.Get("cont-1"); !stored.IsContinuation {
		t.Error("expected stored continuation flag")
	}
}

func TestEditPage_SettledEditIsIdempotent(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	contentID := state.Pages[1].ID

	if _, err := f.svc.EditPage(context.Background(), contentID, paragraphs(12)); err != nil {
		t.Fatal(err)
	}
	page, _ := f.svc.Page(contentID)
	f.emitter.Reset()

	res, err := f.svc.EditPage(context.Background(), contentID, page.Body)
	if err != nil {
		t.Fatal(err)
	}
	if res.Moved() || len(res.Changed) != 0 {
		t.Errorf("expected a no-op, got %+v", res)
	}
	if len(f.emitter.Events) != 0 {
		t.Errorf("expected no events, got %d", len(f.emitter.Events))
	}
}

func TestEditPage_NonContentPageNeverReflows(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	tableID := state.Pages[2].ID

	res, err := f.svc.EditPage(context.Background(), tableID, paragraphs(30))
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if res.Moved() {
		t.Errorf("expected no reflow, got %+v", res)
	}
	doc, _ := f.svc.Document()
	if len(doc.Pages) != 4 {
		t.Errorf("expected 4 pages, got %d", len(doc.Pages))
	}
	if len(f.emitter.Named(service.EventPageUpdated)) == 0 {
		t.Error("expected page:updated")
	}
}

func TestEditPage_UnknownPage(t *testing.T) {
	f := newFixture(t, 0)
	f.create(t)
	if _, err := f.svc.EditPage(context.Background(), "ghost", "<p>a</p>"); err == nil {
		t.Fatal("expected error for unknown page")
	}
}

func TestEditPage_UnsplittableIsReported(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	rows := strings.Repeat("<tr><td>x</td></tr>", 3)
	body := `<table>` + rows + `</table>`

	// capacity below a single block leaves the splitter nothing to keep
	ctrl := reflow.NewController(reflow.NewDetector(blockMeasurer{}, 0), func(domain.Page) float64 { return 5 })
	svc := service.NewProposalService(f.store, nil, ctrl, f.emitter, 0)
	defer svc.Close()
	if _, err := svc.OpenProposal(context.Background(), state.Proposal.ID); err != nil {
		t.Fatal(err)
	}
	f.emitter.Reset()

	res, err := svc.EditPage(context.Background(), state.Pages[1].ID, body)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if len(res.Unsplittable) != 1 {
		t.Fatalf("expected unsplittable page, got %+v", res)
	}
	if len(f.emitter.Named(service.EventUnsplittable)) != 1 {
		t.Error("expected reflow:unsplittable")
	}
	doc, _ := svc.Document()
	if len(doc.Pages) != 4 {
		t.Errorf("expected no page to be created, got %d pages", len(doc.Pages))
	}
}

func TestEditPageDeferred_ChecksAfterSettle(t *testing.T) {
	f := newFixture(t, 100*time.Millisecond)
	state := f.create(t)
	contentID := state.Pages[1].ID

	if err := f.svc.EditPageDeferred(context.Background(), contentID, paragraphs(11)); err != nil {
		t.Fatalf("edit: %v", err)
	}
	if err := f.svc.EditPageDeferred(context.Background(), contentID, paragraphs(12)); err != nil {
		t.Fatalf("edit: %v", err)
	}

	page, _ := f.svc.Page(contentID)
	if countBlocks(page.Body) != 12 {
		t.Fatalf("expected the body to be stored before the check, got %d blocks", countBlocks(page.Body))
	}

	deadline := time.Now().Add(2 * time.Second)
	for {
		doc, _ := f.svc.Document()
		if len(doc.Pages) == 5 {
			if countBlocks(doc.Pages[2].Body) != 2 {
				t.Errorf("expected 2 blocks on the continuation, got %d", countBlocks(doc.Pages[2].Body))
			}
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("settle check never ran")
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(f.emitter.Named(service.EventPagesChanged)) != 1 {
		t.Error("expected exactly one pages:changed from the debounced check")
	}
}

func TestApplyCommand_ReflowsResult(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	contentID := state.Pages[1].ID
	if _, err := f.svc.EditPage(context.Background(), contentID, paragraphs(9)); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.ApplyCommand(context.Background(), contentID, content.Command{
		Kind:   content.CmdInsertHTML,
		Block:  -1,
		Markup: "<p>x</p><p>y</p>",
	})
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(res.Created) != 1 {
		t.Fatalf("expected a continuation page, got %+v", res)
	}
	cont, _ := f.svc.Page(res.Created[0])
	if !strings.Contains(cont.Body, "y") {
		t.Errorf("expected the last paragraph to move, got %q", cont.Body)
	}

	if _, err := f.svc.ApplyCommand(context.Background(), contentID, content.Command{Kind: "shout"}); !errors.Is(err, content.ErrUnknownCommand) {
		t.Errorf("expected ErrUnknownCommand, got %v", err)
	}
}

func TestAcknowledgeFocus(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	if _, err := f.svc.EditPage(context.Background(), state.Pages[1].ID, paragraphs(12)); err != nil {
		t.Fatal(err)
	}

	if err := f.svc.AcknowledgeFocus(state.Pages[0].ID); err != nil {
		t.Fatal(err)
	}
	if doc, _ := f.svc.Document(); doc.FocusPageID != "cont-1" {
		t.Error("acknowledging another page must not clear focus")
	}
	if err := f.svc.AcknowledgeFocus("cont-1"); err != nil {
		t.Fatal(err)
	}
	if doc, _ := f.svc.Document(); doc.FocusPageID != "" {
		t.Errorf("expected focus cleared, got %q", doc.FocusPageID)
	}
}

func TestReflowAll(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	pages := state.Pages
	pages[1].Body = paragraphs(25)
	if err := f.store.SavePages(state.Proposal.ID, pages); err != nil {
		t.Fatal(err)
	}
	if err := f.svc.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}

	res, err := f.svc.ReflowAll(context.Background())
	if err != nil {
		t.Fatalf("reflow: %v", err)
	}
	if len(res.Created) != 2 {
		t.Fatalf("expected two continuation pages, got %+v", res)
	}
	if res.FocusPageID != "" {
		t.Error("repaginating everything must not move focus")
	}
}

// ─────────────────────────────────────────────────────────────
// Pages, pricing and history
// ─────────────────────────────────────────────────────────────

func TestAddAndRemovePage(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)

	page, err := f.svc.AddPage(context.Background(), domain.PageContent, state.Pages[0].ID)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	doc, _ := f.svc.Document()
	if doc.Pages[1].ID != page.ID {
		t.Fatalf("expected the new page after the cover")
	}
	if page.Body != content.DefaultBody(domain.PageContent) {
		t.Error("expected starter content")
	}

	if _, err := f.svc.AddPage(context.Background(), "poster", ""); err == nil {
		t.Error("expected error for unknown kind")
	}

	if err := f.svc.RemovePage(context.Background(), page.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	doc, _ = f.svc.Document()
	if len(doc.Pages) != 4 {
		t.Errorf("expected 4 pages, got %d", len(doc.Pages))
	}
	if len(f.emitter.Named(service.EventPagesChanged)) != 2 {
		t.Error("expected pages:changed for add and remove")
	}
}

func TestPricingRows(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	tableID := state.Pages[2].ID

	if _, err := f.svc.AddPricingRow(context.Background(), tableID); err != nil {
		t.Fatalf("add row: %v", err)
	}
	table, err := f.svc.Pricing(tableID)
	if err != nil {
		t.Fatalf("pricing: %v", err)
	}
	if len(table.Rows) != 4 {
		t.Fatalf("expected 4 rows, got %d", len(table.Rows))
	}

	if _, err := f.svc.RemovePricingRow(context.Background(), tableID, 0); err != nil {
		t.Fatalf("remove row: %v", err)
	}
	table, _ = f.svc.Pricing(tableID)
	if len(table.Rows) != 3 || table.Rows[0].Service != "Social Media" {
		t.Errorf("unexpected rows: %+v", table.Rows)
	}

	if _, err := f.svc.RemovePricingRow(context.Background(), tableID, 9); !errors.Is(err, content.ErrRowOutOfRange) {
		t.Errorf("expected ErrRowOutOfRange, got %v", err)
	}
	if _, err := f.svc.Pricing(state.Pages[0].ID); !errors.Is(err, content.ErrNoPricingTable) {
		t.Errorf("expected ErrNoPricingTable, got %v", err)
	}
}

func TestRestoreHistory(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	contentID := state.Pages[1].ID
	original := state.Pages[1].Body

	if _, err := f.svc.EditPage(context.Background(), contentID, "<p>rewritten</p>"); err != nil {
		t.Fatal(err)
	}
	tree, err := f.svc.History()
	if err != nil || tree == nil {
		t.Fatalf("history: %v", err)
	}
	if len(tree.Nodes) != 2 {
		t.Fatalf("expected 2 history nodes, got %d", len(tree.Nodes))
	}

	restored, err := f.svc.RestoreHistory(context.Background(), tree.RootID)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Pages[1].Body != original {
		t.Errorf("expected the original body back, got %q", restored.Pages[1].Body)
	}
	tree, _ = f.svc.History()
	if tree.CurrentID != tree.RootID {
		t.Error("expected the history pointer on the restored node")
	}
}

// ─────────────────────────────────────────────────────────────
// Export
// ─────────────────────────────────────────────────────────────

func TestExportPDF_Vector(t *testing.T) {
	f := newFixture(t, 0)
	f.create(t)
	exp := service.NewExportService(f.svc, f.cfg, f.emitter)

	path := filepath.Join(t.TempDir(), "out", "proposal.pdf")
	res, err := exp.ExportPDF(context.Background(), path, nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Pages != 4 || res.Bytes == 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "%PDF-") {
		t.Error("expected a PDF")
	}
}

func TestExportPDF_SettlesDeferredEdits(t *testing.T) {
	f := newFixture(t, 300*time.Millisecond)
	state := f.create(t)
	contentID := state.Pages[1].ID
	exp := service.NewExportService(f.svc, f.cfg, f.emitter)

	if err := f.svc.EditPageDeferred(context.Background(), contentID, paragraphs(15)); err != nil {
		t.Fatalf("edit: %v", err)
	}
	res, err := exp.ExportPDF(context.Background(), filepath.Join(t.TempDir(), "p.pdf"), nil)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Pages != 5 {
		t.Errorf("expected the settled 5 pages in the export, got %d", res.Pages)
	}
	doc, _ := f.svc.Document()
	if countBlocks(doc.Pages[1].Body) != 10 || countBlocks(doc.Pages[2].Body) != 5 {
		t.Errorf("expected 10 + 5 blocks, got %d + %d",
			countBlocks(doc.Pages[1].Body), countBlocks(doc.Pages[2].Body))
	}

	// the debounced check finds the page already settled
	time.Sleep(500 * time.Millisecond)
	doc, _ = f.svc.Document()
	if len(doc.Pages) != 5 {
		t.Errorf("expected 5 pages after the timer, got %d", len(doc.Pages))
	}
	if n := len(f.emitter.Named(service.EventPagesChanged)); n != 1 {
		t.Errorf("expected one pages:changed, got %d", n)
	}
}

func TestExportPDF_FailureIsRetryable(t *testing.T) {
	f := newFixture(t, 0)
	f.create(t)
	exp := service.NewExportService(f.svc, f.cfg, f.emitter)
	before, _ := f.svc.Document()

	path := filepath.Join(t.TempDir(), "proposal.pdf")
	_, err := exp.ExportPDF(context.Background(), path, []export.Raster{{PageID: "x", DataURL: "data:image/png;base64,AA=="}})
	if !errors.Is(err, export.ErrPageMismatch) {
		t.Fatalf("expected ErrPageMismatch, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("failed export must not leave a file")
	}
	failed := f.emitter.Named(service.EventExportFailed)
	if len(failed) != 1 {
		t.Fatalf("expected export:failed, got %d", len(failed))
	}
	if data, ok := failed[0].Data.(map[string]any); !ok || data["retryable"] != true {
		t.Errorf("expected retryable payload, got %#v", failed[0].Data)
	}

	after, _ := f.svc.Document()
	if len(after.Pages) != len(before.Pages) {
		t.Error("export must not touch the document")
	}
}

func TestExportStored(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)

	path := filepath.Join(t.TempDir(), "stored.pdf")
	res, err := service.ExportStored(f.store, state.Proposal.ID, path, f.cfg)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if res.Pages != 4 {
		t.Errorf("expected 4 pages, got %d", res.Pages)
	}
}

// ─────────────────────────────────────────────────────────────
// Backups
// ─────────────────────────────────────────────────────────────

func TestBackup_RunOnceKeepsNewest(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	b := service.NewBackupService(f.store, f.cfg, f.emitter)

	for i := 0; i < 3; i++ {
		run, err := b.RunOnce(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
		if run.Written != 1 {
			t.Fatalf("run %d: expected 1 snapshot, got %+v", i, run)
		}
	}

	files, err := b.List(state.Proposal.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 kept snapshots, got %d", len(files))
	}
	backup, err := service.ReadBackup(files[len(files)-1])
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if backup.Proposal.ID != state.Proposal.ID || len(backup.Document) == 0 {
		t.Errorf("unexpected backup: %+v", backup.Proposal)
	}
}

func TestBackup_RestoreRecreatesDeleted(t *testing.T) {
	f := newFixture(t, 0)
	state := f.create(t)
	id := state.Proposal.ID
	b := service.NewBackupService(f.store, f.cfg, f.emitter)
	if _, err := b.RunOnce(context.Background()); err != nil {
		t.Fatalf("backup: %v", err)
	}
	files, _ := b.List(id)
	if len(files) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(files))
	}

	if err := f.svc.DeleteProposal(id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := b.Restore(files[0])
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got != id {
		t.Errorf("restored id = %s, want %s", got, id)
	}

	restored, err := f.svc.OpenProposal(context.Background(), id)
	if err != nil {
		t.Fatalf("open restored: %v", err)
	}
	if restored.Proposal.Name != "Website" || len(restored.Pages) != len(state.Pages) {
		t.Errorf("restored %q with %d pages", restored.Proposal.Name, len(restored.Pages))
	}
	for i, p := range restored.Pages {
		if p.ID != state.Pages[i].ID || p.Body != state.Pages[i].Body {
			t.Errorf("page %d differs after restore", i)
		}
	}
}

func TestBackup_InvalidSchedule(t *testing.T) {
	f := newFixture(t, 0)
	b := service.NewBackupService(f.store, f.cfg, f.emitter)
	if err := b.Start(context.Background(), "every now and then"); err == nil {
		t.Fatal("expected invalid schedule error")
	}
	if err := b.Start(context.Background(), ""); err != nil {
		t.Fatalf("empty schedule: %v", err)
	}
	b.Stop()
}

// ─────────────────────────────────────────────────────────────
// RunningJobsGuard tests
// ─────────────────────────────────────────────────────────────

func TestRunningGuard_TryLock(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-1") {
		t.Fatal("expected first TryLock to succeed")
	}
	if g.TryLock("job-1") {
		t.Fatal("expected second TryLock for same job to fail")
	}
	if !g.TryLock("job-2") {
		t.Fatal("expected TryLock for different job to succeed")
	}
	g.Unlock("job-1")
	g.Unlock("job-2")

	if !g.TryLock("job-1") {
		t.Fatal("expected TryLock to succeed after unlock")
	}
	g.Unlock("job-1")
}

func TestRunningGuard_WaitAll(t *testing.T) {
	var g service.ExportedRunningGuard

	if !g.TryLock("job-a") {
		t.Fatal("expected lock to succeed")
	}

	done := make(chan struct{})
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
		defer cancel()
		g.WaitAll(ctx)
		close(done)
	}()

	go func() {
		time.Sleep(20 * time.Millisecond)
		g.Unlock("job-a")
	}()

	select {
	case <-done:
	case <-time.After(1 * time.Second):
		t.Fatal("WaitAll timed out")
	}
}

// ─────────────────────────────────────────────────────────────
// Queue and emitter
// ─────────────────────────────────────────────────────────────

func TestClosedServiceRejectsWork(t *testing.T) {
	f := newFixture(t, 0)
	f.create(t)
	f.svc.Close()
	if _, err := f.svc.Document(); !errors.Is(err, service.ErrQueueClosed) {
		t.Fatalf("expected ErrQueueClosed, got %v", err)
	}
}

func TestMockEmitter_Named(t *testing.T) {
	m := &service.MockEmitter{}
	ctx := context.Background()

	m.Emit(ctx, "a", "first")
	m.Emit(ctx, "b", "second")
	m.Emit(ctx, "a", "third")

	got := m.Named("a")
	if len(got) != 2 || got[1].Data != "third" {
		t.Errorf("unexpected events: %+v", got)
	}
	m.Reset()
	if len(m.Events) != 0 {
		t.Error("expected reset to clear events")
	}
}
