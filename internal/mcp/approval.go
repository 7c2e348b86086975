package mcpserver

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EventEmitter allows the approval queue to notify the frontend.
type EventEmitter interface {
	Emit(ctx context.Context, event string, data any)
}

const (
	EventApprovalRequired  = "mcp:approval-required"
	EventApprovalDismissed = "mcp:approval-dismissed"
)

// PendingAction is a destructive tool call waiting for the user.
type PendingAction struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"` // JSON, e.g. the page about to be removed
}

// ApprovalQueue asks the user before an agent removes anything.
// In-process it waits on a channel fed by the Approve/Reject bindings; the
// standalone server has no frontend of its own, so it writes the request to
// mcp_approvals and polls until the desktop app resolves it.
type ApprovalQueue struct {
	mu      sync.Mutex
	pending map[string]chan bool
	ctx     context.Context
	emitter EventEmitter
	timeout time.Duration
	poll    time.Duration
	db      *sql.DB
}

func NewApprovalQueue(ctx context.Context, emitter EventEmitter) *ApprovalQueue {
	return &ApprovalQueue{
		pending: make(map[string]chan bool),
		ctx:     ctx,
		emitter: emitter,
		timeout: 120 * time.Second,
		poll:    500 * time.Millisecond,
	}
}

// SetDB switches to cross-process approval through the local database.
func (q *ApprovalQueue) SetDB(db *sql.DB) {
	q.db = db
}

// SetTimeout bounds how long a request waits for the user.
func (q *ApprovalQueue) SetTimeout(d time.Duration) {
	q.timeout = d
}

// Request blocks until the user approves, rejects, or the request times
// out. Only approval returns nil.
func (q *ApprovalQueue) Request(tool, description, metadata string) error {
	id := uuid.NewString()
	if metadata == "" {
		metadata = "{}"
	}
	if q.db != nil {
		return q.requestViaDB(id, tool, description, metadata)
	}
	return q.requestViaChannel(id, tool, description, metadata)
}

func (q *ApprovalQueue) requestViaDB(id, tool, description, metadata string) error {
	_, err := q.db.Exec(
		`INSERT INTO mcp_approvals (id, tool, description, status, metadata) VALUES (?, ?, ?, 'pending', ?)`,
		id, tool, description, metadata,
	)
	if err != nil {
		return fmt.Errorf("insert approval: %w", err)
	}
	defer q.db.Exec(`DELETE FROM mcp_approvals WHERE id = ?`, id)

	deadline := time.After(q.timeout)
	ticker := time.NewTicker(q.poll)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			var status string
			if err := q.db.QueryRow(`SELECT status FROM mcp_approvals WHERE id = ?`, id).Scan(&status); err != nil {
				continue
			}
			switch status {
			case "approved":
				return nil
			case "rejected":
				return fmt.Errorf("action rejected by user: %s", tool)
			}
		case <-deadline:
			return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
		case <-q.ctx.Done():
			return fmt.Errorf("context cancelled")
		}
	}
}

func (q *ApprovalQueue) requestViaChannel(id, tool, description, metadata string) error {
	ch := make(chan bool, 1)
	q.mu.Lock()
	q.pending[id] = ch
	q.mu.Unlock()
	defer q.cleanup(id)

	q.emitter.Emit(q.ctx, EventApprovalRequired, PendingAction{
		ID:          id,
		Tool:        tool,
		Description: description,
		CreatedAt:   time.Now().UTC().Format(time.RFC3339),
		Metadata:    metadata,
	})

	select {
	case approved := <-ch:
		if !approved {
			return fmt.Errorf("action rejected by user: %s", tool)
		}
		return nil
	case <-time.After(q.timeout):
		q.emitter.Emit(q.ctx, EventApprovalDismissed, map[string]string{"id": id})
		return fmt.Errorf("action timed out after %s: %s", q.timeout, tool)
	case <-q.ctx.Done():
		return fmt.Errorf("context cancelled")
	}
}

// Approve resolves a pending in-process request.
func (q *ApprovalQueue) Approve(actionID string) {
	q.resolve(actionID, true)
}

// Reject resolves a pending in-process request.
func (q *ApprovalQueue) Reject(actionID string) {
	q.resolve(actionID, false)
}

func (q *ApprovalQueue) resolve(actionID string, approved bool) {
	q.mu.Lock()
	ch, ok := q.pending[actionID]
	q.mu.Unlock()
	if ok {
		select {
		case ch <- approved:
		default:
		}
	}
}

func (q *ApprovalQueue) cleanup(id string) {
	q.mu.Lock()
	delete(q.pending, id)
	q.mu.Unlock()
}

// ResolveStored answers a request written by the standalone server. The
// desktop app calls it from the approval bindings.
func ResolveStored(db *sql.DB, actionID string, approved bool) error {
	status := "rejected"
	if approved {
		status = "approved"
	}
	res, err := db.Exec(`UPDATE mcp_approvals SET status = ? WHERE id = ? AND status = 'pending'`, status, actionID)
	if err != nil {
		return fmt.Errorf("resolve approval: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("approval %s is not pending", actionID)
	}
	return nil
}
