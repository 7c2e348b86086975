package app

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"proposals/internal/domain"
	"proposals/internal/service"
)

// Events for changes made outside this process.
const (
	EventProposalsChanged = "proposals:changed"
	EventExternalChange   = "mcp:document-changed"
	EventApprovalRequired = "mcp:approval-required"
	EventMCPActivity      = "mcp:activity"
)

// pageWatcher polls the store for changes to the open proposal made by
// another process (the standalone MCP server, or a teammate on a shared
// store) and reloads it so the frontend shows the stored state.
type pageWatcher struct {
	ctx       context.Context
	proposals *service.ProposalService
	store     domain.ProposalStore
	db        *sql.DB // local database holding mcp_approvals
	emitter   service.EventEmitter
	interval  time.Duration

	mu          sync.Mutex
	proposalID  string
	lastUpdated time.Time
	lastList    string // proposal list fingerprint (count + max updated_at)
	stopCh      chan struct{}
	// approvals already announced, so each is emitted once
	emittedApprovals map[string]bool
}

func newPageWatcher(ctx context.Context, proposals *service.ProposalService, store domain.ProposalStore, db *sql.DB, emitter service.EventEmitter) *pageWatcher {
	return &pageWatcher{
		ctx:              ctx,
		proposals:        proposals,
		store:            store,
		db:               db,
		emitter:          emitter,
		interval:         2 * time.Second,
		emittedApprovals: map[string]bool{},
	}
}

// Start begins the polling loop. Should be called once on app startup.
func (w *pageWatcher) Start() {
	w.stopCh = make(chan struct{})
	go w.pollLoop(w.stopCh)
}

func (w *pageWatcher) Stop() {
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

func (w *pageWatcher) pollLoop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.check()
		case <-stop:
			return
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *pageWatcher) check() {
	w.checkList()
	w.checkDocument()
	w.checkApprovals()
}

// ── Proposal list (sidebar) ──────────────────────────────────

func (w *pageWatcher) checkList() {
	list, err := w.store.ListProposals()
	if err != nil {
		return
	}
	var newest time.Time
	for _, p := range list {
		if p.UpdatedAt.After(newest) {
			newest = p.UpdatedAt
		}
	}
	fingerprint := fmt.Sprintf("%d:%d", len(list), newest.UnixNano())

	w.mu.Lock()
	changed := w.lastList != "" && w.lastList != fingerprint
	w.lastList = fingerprint
	w.mu.Unlock()

	if changed {
		w.emitter.Emit(w.ctx, EventProposalsChanged, map[string]int{"count": len(list)})
	}
}

// ── Open proposal ────────────────────────────────────────────

func (w *pageWatcher) checkDocument() {
	id := w.proposals.OpenProposalID()
	if id == "" {
		return
	}
	p, err := w.store.GetProposal(id)
	if err != nil {
		return
	}

	w.mu.Lock()
	touched := w.proposalID == id && !p.UpdatedAt.Equal(w.lastUpdated)
	w.proposalID, w.lastUpdated = id, p.UpdatedAt
	w.mu.Unlock()

	// our own saves touch updated_at too; only reload when the stored
	// pages differ from the open ones
	if !touched || !w.storedDiffers(id) {
		return
	}
	log.Printf("[WATCH] proposal %s changed outside the app, reloading", id)
	if err := w.proposals.Reload(w.ctx); err != nil {
		log.Printf("[WATCH] reload %s: %v", id, err)
		return
	}
	w.emitter.Emit(w.ctx, EventExternalChange, map[string]string{"proposalId": id})
}

func (w *pageWatcher) storedDiffers(id string) bool {
	stored, err := w.store.LoadPages(id)
	if err != nil {
		return false
	}
	open, pages, err := w.proposals.Snapshot()
	if err != nil || open.ID != id {
		return false
	}
	return !samePages(stored, pages)
}

func samePages(a, b []domain.Page) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Kind != b[i].Kind ||
			a[i].Body != b[i].Body || a[i].IsContinuation != b[i].IsContinuation {
			return false
		}
	}
	return true
}

// ── Pending MCP approvals (cross-process IPC) ────────────────

func (w *pageWatcher) checkApprovals() {
	if w.db == nil {
		return
	}
	pending, err := listPendingApprovals(w.db)
	if err != nil {
		return
	}

	live := make(map[string]bool, len(pending))
	for _, a := range pending {
		live[a.ID] = true
		w.mu.Lock()
		alreadySent := w.emittedApprovals[a.ID]
		w.emittedApprovals[a.ID] = true
		w.mu.Unlock()
		if alreadySent {
			continue
		}
		w.emitter.Emit(w.ctx, EventMCPActivity, map[string]any{"changes": 1})
		w.emitter.Emit(w.ctx, EventApprovalRequired, a)
	}

	// the standalone server deletes rows once it has read the answer
	w.mu.Lock()
	for id := range w.emittedApprovals {
		if !live[id] {
			delete(w.emittedApprovals, id)
		}
	}
	w.mu.Unlock()
}
