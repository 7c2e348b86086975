package domain

// DocumentState is the full state of an open proposal.
// Returned to the frontend to render every page canvas.
type DocumentState struct {
	Proposal    Proposal `json:"proposal"`
	Pages       []Page   `json:"pages"`
	FocusPageID string   `json:"focusPageId,omitempty"`
	Notice      string   `json:"notice,omitempty"`
}
