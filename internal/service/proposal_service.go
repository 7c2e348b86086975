package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/bep/debounce"
	"github.com/google/uuid"

	"proposals/internal/config"
	"proposals/internal/content"
	"proposals/internal/document"
	"proposals/internal/domain"
	"proposals/internal/layout"
	"proposals/internal/reflow"
	"proposals/internal/storage"
)

var ErrNoProposal = errors.New("no proposal is open")

// NewController builds the reflow controller for the configured page
// geometry and typography.
func NewController(cfg config.Config) *reflow.Controller {
	engine := layout.New(cfg.Page.ContentWidth(), cfg.Style)
	detector := reflow.NewDetector(engine, cfg.Reflow.Tolerance)
	page := cfg.Page
	var opts []reflow.Option
	if cfg.Reflow.MaxSteps > 0 {
		opts = append(opts, reflow.WithMaxSteps(cfg.Reflow.MaxSteps))
	}
	return reflow.NewController(detector, func(p domain.Page) float64 {
		return page.Capacity(p.IsContinuation)
	}, opts...)
}

// ─────────────────────────────────────────────────────────────
// Proposal Service: the open document and everything that edits it
// ─────────────────────────────────────────────────────────────

// ProposalService owns the open proposal's page model. All access to the
// model runs on the serial queue; the fields below the queue are only
// touched from there.
type ProposalService struct {
	store   domain.ProposalStore
	history *storage.HistoryStore
	ctrl    *reflow.Controller
	emitter EventEmitter
	settle  time.Duration
	queue   *serialQueue

	proposal *domain.Proposal
	model    *document.Model
	notice   string
	// pages stored by EditPageDeferred whose overflow check has not run
	pending map[string]bool

	debounceMu sync.Mutex
	debouncers map[string]func(func())
}

// NewProposalService creates a ProposalService. history may be nil. A zero
// settle delay makes EditPageDeferred behave like EditPage.
func NewProposalService(
	store domain.ProposalStore,
	history *storage.HistoryStore,
	ctrl *reflow.Controller,
	emitter EventEmitter,
	settle time.Duration,
) *ProposalService {
	return &ProposalService{
		store:      store,
		history:    history,
		ctrl:       ctrl,
		emitter:    emitter,
		settle:     settle,
		queue:      newSerialQueue(),
		pending:    make(map[string]bool),
		debouncers: make(map[string]func(func())),
	}
}

// Close waits for the running task and stops the queue.
func (s *ProposalService) Close() {
	s.queue.Close()
}

// ── Proposals ──────────────────────────────────────────────

func (s *ProposalService) ListProposals() ([]domain.Proposal, error) {
	return s.store.ListProposals()
}

// CreateProposal stores a new proposal with one page of each kind and
// opens it.
func (s *ProposalService) CreateProposal(ctx context.Context, name, client string) (*domain.DocumentState, error) {
	p := &domain.Proposal{ID: uuid.NewString(), Name: name, Client: client}
	var pages []domain.Page
	for _, kind := range []domain.PageKind{domain.PageCover, domain.PageContent, domain.PageTable, domain.PageAcceptance} {
		pages = append(pages, domain.Page{ID: uuid.NewString(), Kind: kind, Body: content.DefaultBody(kind)})
	}

	var state *domain.DocumentState
	err := s.queue.Do(func() error {
		if err := s.store.CreateProposal(p); err != nil {
			return fmt.Errorf("create proposal: %w", err)
		}
		s.openLocked(p, document.New(pages...), "")
		if err := s.saveLocked(); err != nil {
			return err
		}
		s.recordLocked("Create proposal")
		state = s.stateLocked()
		s.emitter.Emit(ctx, EventDocumentLoaded, state)
		return nil
	})
	return state, err
}

// OpenProposal loads a proposal into the model. Records that cannot be
// trusted are not fatal: the proposal opens with a blank page and a notice.
func (s *ProposalService) OpenProposal(ctx context.Context, id string) (*domain.DocumentState, error) {
	var state *domain.DocumentState
	err := s.queue.Do(func() error {
		p, err := s.store.GetProposal(id)
		if err != nil {
			return err
		}
		m, err := storage.LoadDocument(s.store, id)
		notice := ""
		switch {
		case errors.Is(err, storage.ErrCorrupt):
			log.Printf("[STORE] proposal %s has corrupt pages, opening blank: %v", id, err)
			notice = "The saved pages of this proposal could not be read. It was opened with a blank page."
			m = document.New(domain.Page{ID: uuid.NewString(), Kind: domain.PageContent, Body: content.DefaultBody("")})
		case err != nil:
			return err
		}
		s.openLocked(p, m, notice)
		state = s.stateLocked()
		s.emitter.Emit(ctx, EventDocumentLoaded, state)
		if notice != "" {
			s.emitter.Emit(ctx, EventDocumentNotice, map[string]string{"proposalId": id, "message": notice})
		}
		return nil
	})
	return state, err
}

// Reload re-reads the open proposal from the store. Used when another
// process (the standalone MCP server) wrote to it.
func (s *ProposalService) Reload(ctx context.Context) error {
	id := s.OpenProposalID()
	if id == "" {
		return ErrNoProposal
	}
	_, err := s.OpenProposal(ctx, id)
	return err
}

// OpenProposalID returns the id of the open proposal, or "".
func (s *ProposalService) OpenProposalID() string {
	var id string
	s.queue.Do(func() error {
		if s.proposal != nil {
			id = s.proposal.ID
		}
		return nil
	})
	return id
}

func (s *ProposalService) RenameProposal(ctx context.Context, name, client string) error {
	return s.queue.Do(func() error {
		if err := s.requireOpen(); err != nil {
			return err
		}
		s.proposal.Name = name
		s.proposal.Client = client
		if err := s.store.UpdateProposal(s.proposal); err != nil {
			return fmt.Errorf("rename proposal: %w", err)
		}
		s.emitter.Emit(ctx, EventDocumentLoaded, s.stateLocked())
		return nil
	})
}

// DeleteProposal removes a proposal, its pages and its history. Deleting
// the open proposal closes it.
func (s *ProposalService) DeleteProposal(id string) error {
	return s.queue.Do(func() error {
		if err := s.store.DeleteProposal(id); err != nil {
			return err
		}
		if s.history != nil {
			if err := s.history.Clear(id); err != nil {
				log.Printf("[STORE] clear history of %s: %v", id, err)
			}
		}
		if s.proposal != nil && s.proposal.ID == id {
			s.proposal, s.model, s.notice = nil, nil, ""
		}
		return nil
	})
}

// Document returns the open proposal with all of its pages.
func (s *ProposalService) Document() (*domain.DocumentState, error) {
	var state *domain.DocumentState
	err := s.queue.Do(func() error {
		if err := s.requireOpen(); err != nil {
			return err
		}
		state = s.stateLocked()
		return nil
	})
	return state, err
}

// Snapshot returns the open proposal and a copy of its pages as they are
// between tasks, never mid-cascade. Pages edited with EditPageDeferred may
// not have had their overflow check yet; use SettledSnapshot to output.
func (s *ProposalService) Snapshot() (domain.Proposal, []domain.Page, error) {
	return s.snapshot(nil)
}

// SettledSnapshot runs every outstanding deferred overflow check before
// copying the pages, so the copy is the settled post-reflow document.
func (s *ProposalService) SettledSnapshot(ctx context.Context) (domain.Proposal, []domain.Page, error) {
	return s.snapshot(func() error { return s.settlePendingLocked(ctx) })
}

func (s *ProposalService) snapshot(prepare func() error) (domain.Proposal, []domain.Page, error) {
	var p domain.Proposal
	var pages []domain.Page
	err := s.queue.Do(func() error {
		if err := s.requireOpen(); err != nil {
			return err
		}
		if prepare != nil {
			if err := prepare(); err != nil {
				return err
			}
		}
		p = *s.proposal
		pages = s.model.All()
		return nil
	})
	return p, pages, err
}

// ── Pages ──────────────────────────────────────────────────

// AddPage inserts a page of kind with its starter content after afterID,
// or at the end when afterID is empty.
func (s *ProposalService) AddPage(ctx context.Context, kind domain.PageKind, afterID string) (*domain.Page, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown page kind %q", kind)
	}
	page := domain.Page{ID: uuid.NewString(), Kind: kind, Body: content.DefaultBody(kind)}
	err := s.queue.Do(func() error {
		if err := s.requireOpen(); err != nil {
			return err
		}
		var err error
		if afterID == "" {
			err = s.model.Append(page)
		} else {
			err = s.model.InsertAfter(afterID, page)
		}
		if err != nil {
			return err
		}
		if err := s.saveLocked(); err != nil {
			return err
		}
		s.recordLocked("Add " + string(kind) + " page")
		s.emitter.Emit(ctx, EventPagesChanged, s.stateLocked())
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &page, nil
}

// RemovePage deletes a page. This is the only way pages disappear; reflow
// never removes one.
func (s *ProposalService) RemovePage(ctx context.Context, pageID string) error {
	return s.queue.Do(func() error {
		if err := s.requireOpen(); err != nil {
			return err
		}
		if err := s.model.RemovePage(pageID); err != nil {
			return err
		}
		if err := s.saveLocked(); err != nil {
			return err
		}
		s.recordLocked("Remove page")
		s.emitter.Emit(ctx, EventPagesChanged, s.stateLocked())
		return nil
	})
}

// Page returns one page of the open proposal.
func (s *ProposalService) Page(pageID string) (domain.Page, error) {
	var page domain.Page
	err := s.queue.Do(func() error {
		if err := s.requireOpen(); err != nil {
			return err
		}
		var err error
		page, err = s.model.Get(pageID)
		return err
	})
	return page, err
}

// ── Editing ────────────────────────────────────────────────

// EditPage stores body as the content of pageID and settles pagination
// before returning.
func (s *ProposalService) EditPage(ctx context.Context, pageID, body string) (*reflow.Result, error) {
	var res *reflow.Result
	err := s.queue.Do(func() error {
		var err error
		res, err = s.editLocked(ctx, pageID, body, "Edit page")
		return err
	})
	return res, err
}

// EditPageDeferred stores body right away and checks for overflow once
// edits to the page have paused for the settle delay. The check reads the
// page as it is then, not the body passed here. History is recorded when
// the page settles.
func (s *ProposalService) EditPageDeferred(ctx context.Context, pageID, body string) error {
	if s.settle <= 0 {
		_, err := s.EditPage(ctx, pageID, body)
		return err
	}

	var proposalID string
	err := s.queue.Do(func() error {
		if err := s.requireOpen(); err != nil {
			return err
		}
		page, err := s.model.Get(pageID)
		if err != nil {
			return err
		}
		proposalID = s.proposal.ID
		if page.Body == body {
			return nil
		}
		if err := s.model.UpdateBody(pageID, body); err != nil {
			return err
		}
		s.pending[pageID] = true
		return s.saveLocked()
	})
	if err != nil {
		return err
	}

	s.debouncer(pageID)(func() {
		s.settleCheck(ctx, proposalID, pageID)
	})
	return nil
}

func (s *ProposalService) debouncer(pageID string) func(func()) {
	s.debounceMu.Lock()
	defer s.debounceMu.Unlock()
	d, ok := s.debouncers[pageID]
	if !ok {
		d = debounce.New(s.settle)
		s.debouncers[pageID] = d
	}
	return d
}

func (s *ProposalService) settleCheck(ctx context.Context, proposalID, pageID string) {
	err := s.queue.Do(func() error {
		if s.proposal == nil || s.proposal.ID != proposalID || !s.pending[pageID] {
			return nil
		}
		return s.settleLocked(ctx, pageID)
	})
	if err != nil && !errors.Is(err, ErrQueueClosed) {
		log.Printf("[REFLOW] settle check of page %s failed: %v", pageID, err)
	}
}

// settlePendingLocked runs the outstanding deferred checks in page order.
// The debounced timers still fire later and find nothing left to do.
func (s *ProposalService) settlePendingLocked(ctx context.Context) error {
	for _, page := range s.model.All() {
		if !s.pending[page.ID] {
			continue
		}
		if err := s.settleLocked(ctx, page.ID); err != nil {
			return fmt.Errorf("settle page %s: %w", page.ID, err)
		}
	}
	// ids of pages removed while settling
	clear(s.pending)
	return nil
}

func (s *ProposalService) settleLocked(ctx context.Context, pageID string) error {
	delete(s.pending, pageID)
	page, err := s.model.Get(pageID)
	if err != nil {
		// removed while the edit was settling
		return nil
	}
	if !page.Reflowable() {
		s.recordLocked("Edit page")
		return nil
	}
	res, err := s.ctrl.Reflow(s.model, pageID)
	if res == nil {
		return err
	}
	if err != nil && !errors.Is(err, reflow.ErrCascadeLimit) {
		return err
	}
	if res.Moved() {
		if err := s.saveLocked(); err != nil {
			return err
		}
	}
	s.recordLocked("Edit page")
	s.emitResultLocked(ctx, res)
	return nil
}

// ApplyCommand runs a content command against a page and settles
// pagination like any other edit.
func (s *ProposalService) ApplyCommand(ctx context.Context, pageID string, cmd content.Command) (*reflow.Result, error) {
	var res *reflow.Result
	err := s.queue.Do(func() error {
		body, err := s.bodyLocked(pageID)
		if err != nil {
			return err
		}
		out, err := content.Apply(body, cmd)
		if err != nil {
			return err
		}
		res, err = s.editLocked(ctx, pageID, out.Render(), "Apply "+string(cmd.Kind))
		return err
	})
	return res, err
}

// Pricing reads the pricing table of a page.
func (s *ProposalService) Pricing(pageID string) (content.PricingTable, error) {
	var t content.PricingTable
	err := s.queue.Do(func() error {
		body, err := s.bodyLocked(pageID)
		if err != nil {
			return err
		}
		t, _, err = content.FindPricing(body)
		return err
	})
	return t, err
}

func (s *ProposalService) AddPricingRow(ctx context.Context, pageID string) (*reflow.Result, error) {
	return s.editPricing(ctx, pageID, "Add pricing row", func(t *content.PricingTable) error {
		t.AddRow()
		return nil
	})
}

func (s *ProposalService) RemovePricingRow(ctx context.Context, pageID string, row int) (*reflow.Result, error) {
	return s.editPricing(ctx, pageID, "Remove pricing row", func(t *content.PricingTable) error {
		return t.RemoveRow(row)
	})
}

func (s *ProposalService) editPricing(ctx context.Context, pageID, label string, fn func(*content.PricingTable) error) (*reflow.Result, error) {
	var res *reflow.Result
	err := s.queue.Do(func() error {
		body, err := s.bodyLocked(pageID)
		if err != nil {
			return err
		}
		out, err := content.EditPricing(body, fn)
		if err != nil {
			return err
		}
		res, err = s.editLocked(ctx, pageID, out.Render(), label)
		return err
	})
	return res, err
}

// AcknowledgeFocus clears the pending focus once the frontend has moved
// the caret to pageID. Acknowledging any other page is a no-op.
func (s *ProposalService) AcknowledgeFocus(pageID string) error {
	return s.queue.Do(func() error {
		if err := s.requireOpen(); err != nil {
			return err
		}
		if s.model.FocusPageID() == pageID {
			s.model.ClearPendingFocus()
		}
		return nil
	})
}

// ReflowAll re-paginates every content page of the open proposal.
func (s *ProposalService) ReflowAll(ctx context.Context) (*reflow.Result, error) {
	var res *reflow.Result
	err := s.queue.Do(func() error {
		if err := s.requireOpen(); err != nil {
			return err
		}
		var err error
		res, err = s.ctrl.ReflowAll(s.model)
		if err != nil && !errors.Is(err, reflow.ErrCascadeLimit) {
			return err
		}
		if err != nil {
			log.Printf("[REFLOW] proposal %s: %v", s.proposal.ID, err)
		}
		return s.commitLocked(ctx, res, "Repaginate")
	})
	return res, err
}

// ── History ────────────────────────────────────────────────

func (s *ProposalService) History() (*storage.HistoryTree, error) {
	if s.history == nil {
		return nil, nil
	}
	id := s.OpenProposalID()
	if id == "" {
		return nil, ErrNoProposal
	}
	return s.history.LoadTree(id)
}

// RestoreHistory replaces the open document with a saved snapshot. Later
// edits branch off the restored node.
func (s *ProposalService) RestoreHistory(ctx context.Context, nodeID string) (*domain.DocumentState, error) {
	if s.history == nil {
		return nil, errors.New("history is not available")
	}
	var state *domain.DocumentState
	err := s.queue.Do(func() error {
		if err := s.requireOpen(); err != nil {
			return err
		}
		node, err := s.history.Get(nodeID)
		if err != nil {
			return err
		}
		if node.ProposalID != s.proposal.ID {
			return fmt.Errorf("history node %s belongs to another proposal", nodeID)
		}
		m, err := document.Deserialize([]byte(node.SnapshotJSON))
		if err != nil {
			return err
		}
		s.model = m
		if err := s.saveLocked(); err != nil {
			return err
		}
		if err := s.history.GoTo(s.proposal.ID, nodeID); err != nil {
			return fmt.Errorf("move history pointer: %w", err)
		}
		state = s.stateLocked()
		s.emitter.Emit(ctx, EventDocumentLoaded, state)
		return nil
	})
	return state, err
}

// ── Internals (queue goroutine only) ──────────────────────

func (s *ProposalService) requireOpen() error {
	if s.model == nil {
		return ErrNoProposal
	}
	return nil
}

func (s *ProposalService) openLocked(p *domain.Proposal, m *document.Model, notice string) {
	s.proposal = p
	s.model = m
	s.notice = notice
	clear(s.pending)
	s.debounceMu.Lock()
	s.debouncers = make(map[string]func(func()))
	s.debounceMu.Unlock()
}

func (s *ProposalService) stateLocked() *domain.DocumentState {
	return &domain.DocumentState{
		Proposal:    *s.proposal,
		Pages:       s.model.All(),
		FocusPageID: s.model.FocusPageID(),
		Notice:      s.notice,
	}
}

func (s *ProposalService) bodyLocked(pageID string) (content.Body, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	page, err := s.model.Get(pageID)
	if err != nil {
		return nil, err
	}
	return content.Parse(page.Body)
}

// editLocked commits body and drains the cascade it causes. A cascade that
// hits the step limit keeps what it settled; the model is consistent after
// every step.
func (s *ProposalService) editLocked(ctx context.Context, pageID, body, label string) (*reflow.Result, error) {
	if err := s.requireOpen(); err != nil {
		return nil, err
	}
	res, err := s.ctrl.OnContentChanged(s.model, pageID, body)
	if res == nil {
		return nil, err
	}
	if err != nil {
		log.Printf("[REFLOW] edit of page %s: %v", pageID, err)
	}
	if cerr := s.commitLocked(ctx, res, label); cerr != nil {
		return res, cerr
	}
	if errors.Is(err, reflow.ErrCascadeLimit) {
		return res, nil
	}
	return res, err
}

func (s *ProposalService) commitLocked(ctx context.Context, res *reflow.Result, label string) error {
	if len(res.Changed) > 0 {
		if err := s.saveLocked(); err != nil {
			return err
		}
		s.recordLocked(label)
	}
	s.emitResultLocked(ctx, res)
	return nil
}

func (s *ProposalService) emitResultLocked(ctx context.Context, res *reflow.Result) {
	if len(res.Created) > 0 {
		s.emitter.Emit(ctx, EventPagesChanged, s.stateLocked())
	}
	for _, id := range res.Changed {
		if p, err := s.model.Get(id); err == nil {
			s.emitter.Emit(ctx, EventPageUpdated, p)
		}
	}
	if res.FocusPageID != "" {
		s.emitter.Emit(ctx, EventPageFocus, map[string]string{"pageId": res.FocusPageID})
	}
	for _, id := range res.Unsplittable {
		s.emitter.Emit(ctx, EventUnsplittable, map[string]string{"pageId": id})
	}
	if res.Moved() {
		log.Printf("[REFLOW] %d step(s), %d page(s) changed, %d created", res.Steps, len(res.Changed), len(res.Created))
	}
}

func (s *ProposalService) saveLocked() error {
	if err := storage.SaveDocument(s.store, s.proposal.ID, s.model); err != nil {
		return err
	}
	s.notice = ""
	return nil
}

// recordLocked pushes a history snapshot. History is best-effort.
func (s *ProposalService) recordLocked(label string) {
	if s.history == nil {
		return
	}
	data, err := s.model.Serialize()
	if err != nil {
		log.Printf("[STORE] snapshot %s: %v", s.proposal.ID, err)
		return
	}
	if _, err := s.history.Push(s.proposal.ID, label, string(data)); err != nil {
		log.Printf("[STORE] push history %s: %v", s.proposal.ID, err)
	}
}
