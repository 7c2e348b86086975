package app

import (
	"database/sql"

	mcpserver "proposals/internal/mcp"
)

// ============================================================
// MCP approvals
// ============================================================

// ListPendingApprovals returns actions the standalone MCP server is
// waiting on.
func (a *App) ListPendingApprovals() ([]ApprovalView, error) {
	return listPendingApprovals(a.backend.DB.Conn())
}

func (a *App) ApproveAction(actionID string) error {
	return mcpserver.ResolveStored(a.backend.DB.Conn(), actionID, true)
}

func (a *App) RejectAction(actionID string) error {
	return mcpserver.ResolveStored(a.backend.DB.Conn(), actionID, false)
}

func listPendingApprovals(db *sql.DB) ([]ApprovalView, error) {
	rows, err := db.Query(
		`SELECT id, tool, description, created_at, metadata FROM mcp_approvals WHERE status = 'pending' ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	views := []ApprovalView{}
	for rows.Next() {
		var v ApprovalView
		if err := rows.Scan(&v.ID, &v.Tool, &v.Description, &v.CreatedAt, &v.Metadata); err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, rows.Err()
}
