package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// historyLimit bounds the snapshots kept per proposal.
const historyLimit = 40

// HistoryNode is one saved document state.
type HistoryNode struct {
	ID           string    `json:"id"`
	ProposalID   string    `json:"proposalId"`
	ParentID     *string   `json:"parentId"`
	Label        string    `json:"label"`
	SnapshotJSON string    `json:"snapshotJson"`
	CreatedAt    time.Time `json:"createdAt"`
}

// HistoryTree is the full history returned to the frontend.
type HistoryTree struct {
	Nodes     []HistoryNode `json:"nodes"`
	CurrentID string        `json:"currentId"`
	RootID    string        `json:"rootId"`
}

// HistoryStore keeps document snapshots in the local SQLite database. New
// snapshots hang off the current node, so restoring an older state and
// editing again starts a branch.
type HistoryStore struct {
	db *DB
}

func NewHistoryStore(db *DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// LoadTree returns every node of a proposal's history, or nil if it has none.
func (s *HistoryStore) LoadTree(proposalID string) (*HistoryTree, error) {
	rows, err := s.db.Conn().Query(
		`SELECT id, proposal_id, parent_id, label, snapshot_json, created_at
		 FROM history_nodes WHERE proposal_id = ? ORDER BY rowid ASC`, proposalID,
	)
	if err != nil {
		return nil, fmt.Errorf("load history nodes: %w", err)
	}
	defer rows.Close()

	var nodes []HistoryNode
	var rootID string
	for rows.Next() {
		var n HistoryNode
		if err := rows.Scan(&n.ID, &n.ProposalID, &n.ParentID, &n.Label, &n.SnapshotJSON, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history node: %w", err)
		}
		if n.ParentID == nil {
			rootID = n.ID
		}
		nodes = append(nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, nil
	}

	currentID, err := s.current(proposalID)
	if err != nil || currentID == "" {
		currentID = rootID
	}
	return &HistoryTree{Nodes: nodes, CurrentID: currentID, RootID: rootID}, nil
}

func (s *HistoryStore) current(proposalID string) (string, error) {
	var id string
	err := s.db.Conn().QueryRow(
		`SELECT current_node_id FROM history_state WHERE proposal_id = ?`, proposalID,
	).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return id, err
}

// Push records a snapshot as a child of the current node and makes it current.
func (s *HistoryStore) Push(proposalID, label, snapshotJSON string) (*HistoryNode, error) {
	parentID, err := s.current(proposalID)
	if err != nil {
		return nil, fmt.Errorf("read history state: %w", err)
	}
	var pID *string
	if parentID != "" {
		pID = &parentID
	}

	node := &HistoryNode{
		ID:           uuid.NewString(),
		ProposalID:   proposalID,
		ParentID:     pID,
		Label:        label,
		SnapshotJSON: snapshotJSON,
		CreatedAt:    time.Now().UTC(),
	}
	_, err = s.db.Conn().Exec(
		`INSERT INTO history_nodes (id, proposal_id, parent_id, label, snapshot_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		node.ID, proposalID, pID, label, snapshotJSON, node.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert history node: %w", err)
	}
	if err := s.GoTo(proposalID, node.ID); err != nil {
		return nil, fmt.Errorf("update history state: %w", err)
	}

	s.prune(proposalID, historyLimit)
	return node, nil
}

func (s *HistoryStore) Get(nodeID string) (*HistoryNode, error) {
	var n HistoryNode
	err := s.db.Conn().QueryRow(
		`SELECT id, proposal_id, parent_id, label, snapshot_json, created_at FROM history_nodes WHERE id = ?`, nodeID,
	).Scan(&n.ID, &n.ProposalID, &n.ParentID, &n.Label, &n.SnapshotJSON, &n.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("history node %s: %w", nodeID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// GoTo moves the current position pointer.
func (s *HistoryStore) GoTo(proposalID, nodeID string) error {
	_, err := s.db.Conn().Exec(
		`INSERT INTO history_state (proposal_id, current_node_id) VALUES (?, ?)
		 ON CONFLICT(proposal_id) DO UPDATE SET current_node_id = excluded.current_node_id`,
		proposalID, nodeID,
	)
	return err
}

// Clear removes all history of a proposal.
func (s *HistoryStore) Clear(proposalID string) error {
	_, _ = s.db.Conn().Exec(`DELETE FROM history_state WHERE proposal_id = ?`, proposalID)
	_, err := s.db.Conn().Exec(`DELETE FROM history_nodes WHERE proposal_id = ?`, proposalID)
	return err
}

// prune drops the oldest nodes beyond maxNodes, re-parenting their children
// so the tree stays connected. The current node is never dropped.
func (s *HistoryStore) prune(proposalID string, maxNodes int) {
	var count int
	s.db.Conn().QueryRow(`SELECT COUNT(*) FROM history_nodes WHERE proposal_id = ?`, proposalID).Scan(&count)
	if count <= maxNodes {
		return
	}

	currentID, _ := s.current(proposalID)

	// Collect ids before writing; the single connection cannot serve a
	// write while a rows cursor is open.
	rows, err := s.db.Conn().Query(
		`SELECT id FROM history_nodes WHERE proposal_id = ? ORDER BY rowid ASC LIMIT ?`,
		proposalID, count-maxNodes,
	)
	if err != nil {
		return
	}
	var ids []string
	for rows.Next() {
		var id string
		if rows.Scan(&id) == nil && id != currentID {
			ids = append(ids, id)
		}
	}
	rows.Close()

	for _, id := range ids {
		var parentID sql.NullString
		s.db.Conn().QueryRow(`SELECT parent_id FROM history_nodes WHERE id = ?`, id).Scan(&parentID)
		if parentID.Valid {
			s.db.Conn().Exec(`UPDATE history_nodes SET parent_id = ? WHERE parent_id = ?`, parentID.String, id)
		} else {
			s.db.Conn().Exec(`UPDATE history_nodes SET parent_id = NULL WHERE parent_id = ?`, id)
		}
		s.db.Conn().Exec(`DELETE FROM history_nodes WHERE id = ?`, id)
	}
}
