package app

import (
	"context"
	"os/exec"
	"runtime"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"proposals/internal/config"
	"proposals/internal/neovim"
	"proposals/internal/secret"
	"proposals/internal/service"
	"proposals/internal/storage"
	"proposals/internal/terminal"
)

// App is the main Wails application struct.
// All exported methods are available as Wails bindings.
type App struct {
	ctx     context.Context
	cfgPath string
	cfg     config.Config
	emitter service.EventEmitter

	backend   *Backend
	secrets   secret.SecretStore
	proposals *service.ProposalService
	exports   *service.ExportService
	backups   *service.BackupService
	watcher   *pageWatcher

	nvim *neovim.Bridge
	term *terminal.Manager
}

// New creates an App reading its config from cfgPath.
func New(cfgPath string) *App {
	return &App{cfgPath: cfgPath, emitter: wailsEmitter{}}
}

// wailsEmitter sends service events to the frontend.
type wailsEmitter struct{}

func (wailsEmitter) Emit(ctx context.Context, event string, data any) {
	wailsRuntime.EventsEmit(ctx, event, data)
}

// Backend is the opened persistence layer: the local SQLite file (history,
// approvals) and the configured proposal store.
type Backend struct {
	DB      *storage.DB
	Store   storage.ProposalBackend
	History *storage.HistoryStore
}

// OpenBackend opens the local database and the proposal store named by cfg.
// A shared store's password comes from secrets when the environment does
// not set one.
func OpenBackend(cfg config.Config, secrets secret.SecretStore) (*Backend, error) {
	sc, err := secret.ResolvePassword(secrets, cfg.Store)
	if err != nil {
		return nil, err
	}
	db, err := storage.New(cfg.DBPath(), cfg.EditDir())
	if err != nil {
		return nil, err
	}
	store, err := storage.OpenProposalStore(db, sc)
	if err != nil {
		db.Close()
		return nil, err
	}
	return &Backend{DB: db, Store: store, History: storage.NewHistoryStore(db)}, nil
}

func (b *Backend) Close() {
	b.Store.Close()
	b.DB.Close()
}

// Startup is called when the app starts.
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx

	if runtime.GOOS == "darwin" {
		// key repeat instead of the accent popup, so j/k repeat in the editor
		exec.Command("defaults", "write", "com.wails.proposals", "ApplePressAndHoldEnabled", "-bool", "false").Run()
		exec.Command("defaults", "write", "-g", "ApplePressAndHoldEnabled", "-bool", "false").Run()
	}

	cfg, err := config.Load(a.cfgPath)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to load config: %v", err)
		return
	}
	a.secrets = secret.NewKeychainStore()
	backend, err := OpenBackend(cfg, a.secrets)
	if err != nil {
		wailsRuntime.LogFatalf(ctx, "Failed to open store: %v", err)
		return
	}
	a.wire(ctx, cfg, backend)

	if err := a.backups.Start(ctx, cfg.Backup.Schedule); err != nil {
		wailsRuntime.LogErrorf(ctx, "Backups disabled: %v", err)
	}

	a.term = terminal.New(cfg.Editor, terminalDataCallback(a), terminalExitCallback(a))
	nvim, err := neovim.New(a.onEditorSave)
	if err != nil {
		wailsRuntime.LogErrorf(ctx, "Failed to create editor bridge: %v", err)
	}
	a.nvim = nvim

	a.watcher.Start()
}

// wire builds the services over an opened backend.
func (a *App) wire(ctx context.Context, cfg config.Config, backend *Backend) {
	a.ctx = ctx
	a.cfg = cfg
	a.backend = backend
	a.proposals = service.NewProposalService(
		backend.Store, backend.History, service.NewController(cfg), a.emitter, cfg.Reflow.SettleDelay,
	)
	a.exports = service.NewExportService(a.proposals, cfg, a.emitter)
	a.backups = service.NewBackupService(backend.Store, cfg, a.emitter)
	a.watcher = newPageWatcher(ctx, a.proposals, backend.Store, backend.DB.Conn(), a.emitter)
}

// Shutdown is called when the app is closing.
func (a *App) Shutdown(ctx context.Context) {
	if a.watcher != nil {
		a.watcher.Stop()
	}
	if a.term != nil {
		a.term.Close()
	}
	if a.nvim != nil {
		a.nvim.Close()
	}
	if a.backups != nil {
		a.backups.Stop()
	}
	if a.exports != nil {
		a.exports.WaitRunning(ctx)
	}
	if a.proposals != nil {
		a.proposals.Close()
	}
	if a.backend != nil {
		a.backend.Close()
	}
}
