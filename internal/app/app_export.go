package app

import (
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"proposals/internal/domain"
	"proposals/internal/export"
	"proposals/internal/service"
)

// ============================================================
// Export
// ============================================================

// ExportPDF asks where to save and writes the open proposal there. rasters
// are the frontend's page captures in document order; without them the
// vector rendition is written. A cancelled dialog returns nil.
func (a *App) ExportPDF(rasters []export.Raster) (*ExportView, error) {
	p, _, err := a.proposals.Snapshot()
	if err != nil {
		return nil, err
	}
	path, err := wailsRuntime.SaveFileDialog(a.ctx, wailsRuntime.SaveDialogOptions{
		Title:           "Export proposal",
		DefaultFilename: exportFileName(p),
		Filters:         []wailsRuntime.FileFilter{{DisplayName: "PDF", Pattern: "*.pdf"}},
	})
	if err != nil || path == "" {
		return nil, err
	}
	return a.exportTo(path, rasters)
}

func (a *App) exportTo(path string, rasters []export.Raster) (*ExportView, error) {
	res, err := a.exports.ExportPDF(a.ctx, path, rasters)
	if err != nil {
		return nil, err
	}
	wailsRuntime.LogInfof(a.ctx, "[EXPORT] %d page(s) to %s", res.Pages, res.Path)
	return newExportView(res), nil
}

func exportFileName(p domain.Proposal) string {
	name := p.Name
	if p.Client != "" {
		name += " - " + p.Client
	}
	if name == "" {
		name = p.ID
	}
	return name + ".pdf"
}

func newExportView(res *service.ExportResult) *ExportView {
	return &ExportView{
		Path:  res.Path,
		Pages: res.Pages,
		Size:  humanize.Bytes(uint64(res.Bytes)),
	}
}

// ============================================================
// Backups
// ============================================================

func (a *App) BackupNow() (*service.BackupRun, error) {
	return a.backups.RunOnce(a.ctx)
}

// ListBackups returns a proposal's snapshots, newest first.
func (a *App) ListBackups(proposalID string) ([]BackupView, error) {
	files, err := a.backups.List(proposalID)
	if err != nil {
		return nil, err
	}
	views := []BackupView{}
	for i := len(files) - 1; i >= 0; i-- {
		info, err := os.Stat(files[i])
		if err != nil {
			continue
		}
		views = append(views, BackupView{
			Path: files[i],
			Name: filepath.Base(files[i]),
			Size: humanize.Bytes(uint64(info.Size())),
			Age:  humanize.Time(info.ModTime()),
		})
	}
	return views, nil
}

// RestoreBackup writes a snapshot back to the store and opens it.
func (a *App) RestoreBackup(path string) (*domain.DocumentState, error) {
	id, err := a.backups.Restore(path)
	if err != nil {
		return nil, err
	}
	return a.proposals.OpenProposal(a.ctx, id)
}
