package storage

import (
	"fmt"

	"proposals/internal/document"
	"proposals/internal/domain"
)

// LoadDocument reads a proposal's pages into a document model. A missing
// proposal yields ErrNotFound; untrustworthy records yield ErrCorrupt.
func LoadDocument(s domain.ProposalStore, proposalID string) (*document.Model, error) {
	if _, err := s.GetProposal(proposalID); err != nil {
		return nil, err
	}
	pages, err := s.LoadPages(proposalID)
	if err != nil {
		return nil, err
	}
	m, err := document.FromPages(pages)
	if err != nil {
		return nil, fmt.Errorf("load document %s: %w", proposalID, err)
	}
	return m, nil
}

func SaveDocument(s domain.ProposalStore, proposalID string, m *document.Model) error {
	if err := s.SavePages(proposalID, m.All()); err != nil {
		return fmt.Errorf("save document %s: %w", proposalID, err)
	}
	return nil
}
