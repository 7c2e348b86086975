package app

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"proposals/internal/config"
	mcpserver "proposals/internal/mcp"
	"proposals/internal/secret"
	"proposals/internal/service"
)

// noopEmitter is a no-op EventEmitter used in MCP-only mode (no Wails frontend).
type noopEmitter struct{}

func (noopEmitter) Emit(_ context.Context, _ string, _ any) {}

// Headless is the service stack without the desktop shell, used by the
// standalone MCP server and the CLI commands.
type Headless struct {
	Config    config.Config
	Backend   *Backend
	Proposals *service.ProposalService
	Exports   *service.ExportService
	Backups   *service.BackupService
}

func OpenHeadless(cfg config.Config) (*Headless, error) {
	backend, err := OpenBackend(cfg, secret.NewKeychainStore())
	if err != nil {
		return nil, err
	}
	emitter := noopEmitter{}
	proposals := service.NewProposalService(
		backend.Store, backend.History, service.NewController(cfg), emitter, 0,
	)
	return &Headless{
		Config:    cfg,
		Backend:   backend,
		Proposals: proposals,
		Exports:   service.NewExportService(proposals, cfg, emitter),
		Backups:   service.NewBackupService(backend.Store, cfg, emitter),
	}, nil
}

func (h *Headless) Close() {
	h.Backups.Stop()
	h.Proposals.Close()
	h.Backend.Close()
}

// ServeMCP runs a standalone MCP server on stdin/stdout until interrupted.
// Destructive tools wait for approval from the desktop app through the
// mcp_approvals table.
func ServeMCP(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	h, err := OpenHeadless(cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer h.Close()

	if err := h.Backups.Start(ctx, cfg.Backup.Schedule); err != nil {
		log.Printf("[BACKUP] disabled: %v", err)
	}

	mcpSrv := mcpserver.New(ctx, mcpserver.Deps{
		Emitter:    noopEmitter{},
		Store:      h.Backend.Store,
		Proposals:  h.Proposals,
		Exports:    h.Exports,
		ExportDir:  filepath.Join(cfg.DataDir, "exports"),
		ApprovalDB: h.Backend.DB.Conn(),
	})

	log.Println("[MCP] Starting standalone stdio server...")
	return mcpSrv.ServeStdio()
}
