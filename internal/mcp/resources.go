package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"proposals/internal/domain"
	"proposals/internal/storage"
)

const (
	proposalsURI   = "proposals://list"
	documentPrefix = "proposals://proposal/"
	documentSuffix = "/document"
)

func (s *Server) registerResources() {
	// ── proposals://list ───────────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		proposalsURI,
		"All Proposals",
		mcp.WithMIMEType("application/json"),
	), s.handleProposalsResource)

	// ── proposals://proposal/{proposalId}/document ─────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			documentPrefix+"{proposalId}"+documentSuffix,
			"Pages of a Proposal",
		),
		s.handleDocumentResource,
	)
}

func (s *Server) handleProposalsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	proposals, err := s.proposals.ListProposals()
	if err != nil {
		return nil, err
	}
	if proposals == nil {
		proposals = []domain.Proposal{}
	}
	data, _ := json.MarshalIndent(proposals, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      proposalsURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleDocumentResource serves the open document when it is the one asked
// for, so unsaved focus state is visible; otherwise it reads the store.
func (s *Server) handleDocumentResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := proposalIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract proposalId from URI: %s", uri)
	}

	var state *domain.DocumentState
	if s.proposals.OpenProposalID() == id {
		var err error
		if state, err = s.proposals.Document(); err != nil {
			return nil, err
		}
	} else {
		p, err := s.store.GetProposal(id)
		if err != nil {
			return nil, err
		}
		m, err := storage.LoadDocument(s.store, id)
		if err != nil {
			return nil, err
		}
		state = &domain.DocumentState{Proposal: *p, Pages: m.All()}
	}

	data, _ := json.MarshalIndent(state, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// proposalIDFromURI extracts the id from "proposals://proposal/{id}/document".
func proposalIDFromURI(uri string) string {
	rest, ok := strings.CutPrefix(uri, documentPrefix)
	if !ok {
		return ""
	}
	id, ok := strings.CutSuffix(rest, documentSuffix)
	if !ok || id == "" || strings.Contains(id, "/") {
		return ""
	}
	return id
}
