package domain

import "time"

type Proposal struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Client    string    `json:"client"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProposalStore persists proposals and their ordered page records.
// LoadPages returns the pages ordered by position.
type ProposalStore interface {
	CreateProposal(p *Proposal) error
	GetProposal(id string) (*Proposal, error)
	ListProposals() ([]Proposal, error)
	UpdateProposal(p *Proposal) error
	DeleteProposal(id string) error

	SavePages(proposalID string, pages []Page) error
	LoadPages(proposalID string) ([]Page, error)
}
