package service

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"proposals/internal/config"
	"proposals/internal/domain"
	"proposals/internal/export"
	"proposals/internal/layout"
	"proposals/internal/storage"
)

// ExportResult describes a written PDF.
type ExportResult struct {
	Path  string `json:"path"`
	Pages int    `json:"pages"`
	Bytes int64  `json:"bytes"`
}

// ─────────────────────────────────────────────────────────────
// Export Service: PDF output of the open proposal
// ─────────────────────────────────────────────────────────────

// ExportService turns the settled document into a PDF. It only ever sees
// the model between queue tasks, so no export observes a running cascade.
type ExportService struct {
	proposals *ProposalService
	geometry  layout.Geometry
	style     layout.Style
	emitter   EventEmitter
	running   runningJobsGuard
}

func NewExportService(proposals *ProposalService, cfg config.Config, emitter EventEmitter) *ExportService {
	return &ExportService{
		proposals: proposals,
		geometry:  cfg.Page,
		style:     cfg.Style,
		emitter:   emitter,
	}
}

// ExportPDF writes the open proposal to path. With rasters it assembles the
// frontend's page images; without, it draws the vector rendition. Failures
// leave the document untouched and are reported as retryable.
func (s *ExportService) ExportPDF(ctx context.Context, path string, rasters []export.Raster) (*ExportResult, error) {
	p, pages, err := s.proposals.SettledSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if !s.running.TryLock(p.ID) {
		return nil, fmt.Errorf("export of %s is already running", p.Name)
	}
	defer s.running.Unlock(p.ID)

	res, err := writePDF(path, len(pages), func(w io.Writer) error {
		if len(rasters) > 0 {
			return export.Rasters(w, pages, rasters, metaFor(p))
		}
		return export.Vector(w, pages, s.geometry, s.style, metaFor(p))
	})
	if err != nil {
		log.Printf("[EXPORT] proposal %s: %v", p.ID, err)
		s.emitter.Emit(ctx, EventExportFailed, map[string]any{
			"proposalId": p.ID,
			"error":      err.Error(),
			"retryable":  true,
		})
		return nil, err
	}
	log.Printf("[EXPORT] proposal %s: %d page(s) to %s", p.ID, res.Pages, res.Path)
	return res, nil
}

// WaitRunning blocks until running exports finish or ctx is cancelled.
func (s *ExportService) WaitRunning(ctx context.Context) {
	s.running.WaitAll(ctx)
}

// ExportStored draws the vector PDF of a stored proposal without opening
// it. Used by the CLI and the standalone MCP server.
func ExportStored(store domain.ProposalStore, id, path string, cfg config.Config) (*ExportResult, error) {
	p, err := store.GetProposal(id)
	if err != nil {
		return nil, err
	}
	m, err := storage.LoadDocument(store, id)
	if err != nil {
		return nil, err
	}
	pages := m.All()
	return writePDF(path, len(pages), func(w io.Writer) error {
		return export.Vector(w, pages, cfg.Page, cfg.Style, metaFor(*p))
	})
}

func metaFor(p domain.Proposal) export.Meta {
	meta := export.Meta{Title: p.Name}
	if p.Client != "" {
		meta.Subject = "Proposal for " + p.Client
	}
	return meta
}

// writePDF renders into a temp file next to path and renames it into
// place, so a failed export never clobbers an earlier file.
func writePDF(path string, pages int, render func(io.Writer) error) (*ExportResult, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create export directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".export-*.pdf")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := render(tmp); err != nil {
		tmp.Close()
		return nil, err
	}
	info, err := tmp.Stat()
	if err != nil {
		tmp.Close()
		return nil, err
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return nil, fmt.Errorf("move pdf into place: %w", err)
	}
	return &ExportResult{Path: path, Pages: pages, Bytes: info.Size()}, nil
}
