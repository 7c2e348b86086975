package app

// ExportView is the frontend view of a written PDF.
type ExportView struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
	Size  string `json:"size"`
}

type BackupView struct {
	Path string `json:"path"`
	Name string `json:"name"`
	Size string `json:"size"`
	Age  string `json:"age"`
}

// ApprovalView is a pending MCP action waiting for the user.
type ApprovalView struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Description string `json:"description"`
	CreatedAt   string `json:"createdAt"`
	Metadata    string `json:"metadata"`
}
