package app

import (
	"proposals/internal/content"
	"proposals/internal/domain"
	"proposals/internal/reflow"
	"proposals/internal/storage"
)

// ============================================================
// Proposals
// ============================================================

func (a *App) ListProposals() ([]domain.Proposal, error) {
	list, err := a.proposals.ListProposals()
	if list == nil {
		list = []domain.Proposal{}
	}
	return list, err
}

func (a *App) CreateProposal(name, client string) (*domain.DocumentState, error) {
	return a.proposals.CreateProposal(a.ctx, name, client)
}

func (a *App) OpenProposal(id string) (*domain.DocumentState, error) {
	return a.proposals.OpenProposal(a.ctx, id)
}

func (a *App) RenameProposal(name, client string) error {
	return a.proposals.RenameProposal(a.ctx, name, client)
}

// DeleteProposal removes a proposal. Its backups are kept.
func (a *App) DeleteProposal(id string) error {
	return a.proposals.DeleteProposal(id)
}

// GetDocument returns the open proposal with every page, including any
// page waiting to take focus.
func (a *App) GetDocument() (*domain.DocumentState, error) {
	return a.proposals.Document()
}

// ============================================================
// Pages
// ============================================================

func (a *App) AddPage(kind string, afterID string) (*domain.Page, error) {
	return a.proposals.AddPage(a.ctx, domain.PageKind(kind), afterID)
}

func (a *App) RemovePage(pageID string) error {
	return a.proposals.RemovePage(a.ctx, pageID)
}

// EditPage replaces a page's body and settles pagination before returning.
func (a *App) EditPage(pageID, body string) (*reflow.Result, error) {
	return a.proposals.EditPage(a.ctx, pageID, body)
}

// EditPageDeferred is called on every keystroke; pagination settles once
// typing pauses.
func (a *App) EditPageDeferred(pageID, body string) error {
	return a.proposals.EditPageDeferred(a.ctx, pageID, body)
}

func (a *App) ApplyCommand(pageID string, cmd content.Command) (*reflow.Result, error) {
	return a.proposals.ApplyCommand(a.ctx, pageID, cmd)
}

// AcknowledgeFocus is called once the frontend has moved the caret to the
// page named in a page:focus event.
func (a *App) AcknowledgeFocus(pageID string) error {
	return a.proposals.AcknowledgeFocus(pageID)
}

func (a *App) ReflowAll() (*reflow.Result, error) {
	return a.proposals.ReflowAll(a.ctx)
}

func (a *App) ListPresets() []content.Preset {
	return content.Presets()
}

// ============================================================
// Pricing
// ============================================================

func (a *App) GetPricing(pageID string) (content.PricingTable, error) {
	return a.proposals.Pricing(pageID)
}

func (a *App) AddPricingRow(pageID string) (*reflow.Result, error) {
	return a.proposals.AddPricingRow(a.ctx, pageID)
}

func (a *App) RemovePricingRow(pageID string, row int) (*reflow.Result, error) {
	return a.proposals.RemovePricingRow(a.ctx, pageID, row)
}

// ============================================================
// History
// ============================================================

func (a *App) LoadHistory() (*storage.HistoryTree, error) {
	return a.proposals.History()
}

func (a *App) RestoreHistory(nodeID string) (*domain.DocumentState, error) {
	return a.proposals.RestoreHistory(a.ctx, nodeID)
}
