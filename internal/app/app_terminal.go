package app

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	wailsRuntime "github.com/wailsapp/wails/v2/pkg/runtime"

	"proposals/internal/terminal"
)

// ============================================================
// External editor
// ============================================================

// TerminalWrite sends input from xterm.js to the PTY.
func (a *App) TerminalWrite(data string) error {
	return a.term.Write(data)
}

func (a *App) TerminalResize(cols, rows int) error {
	return a.term.Resize(uint16(cols), uint16(rows))
}

// OpenPageInEditor writes the page's markup to a file and opens it in the
// configured editor. Every save goes through EditPage.
func (a *App) OpenPageInEditor(pageID string) error {
	if a.nvim == nil {
		return fmt.Errorf("editor bridge is not available")
	}
	path, err := a.writeEditorFile(pageID)
	if err != nil {
		return err
	}

	if prev, ok := a.term.Editing(); ok && prev != pageID {
		a.nvim.StopWatching(prev)
	}
	if err := a.nvim.WatchFile(pageID, path); err != nil {
		return fmt.Errorf("watch %s: %w", path, err)
	}
	if err := a.term.OpenPage(pageID, path, 0); err != nil {
		a.nvim.StopWatching(pageID)
		return err
	}
	return nil
}

// CloseEditor closes the editor session without reading the file again.
func (a *App) CloseEditor() {
	if pageID, ok := a.term.Editing(); ok && a.nvim != nil {
		a.nvim.StopWatching(pageID)
	}
	a.term.Close()
}

// writeEditorFile puts the page body at <editDir>/<proposal>/<page>.html.
func (a *App) writeEditorFile(pageID string) (string, error) {
	page, err := a.proposals.Page(pageID)
	if err != nil {
		return "", err
	}
	dir := filepath.Join(a.cfg.EditDir(), a.proposals.OpenProposalID())
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create edit dir: %w", err)
	}
	path := filepath.Join(dir, pageID+".html")
	if err := os.WriteFile(path, []byte(page.Body+"\n"), 0644); err != nil {
		return "", fmt.Errorf("write page file: %w", err)
	}
	return path, nil
}

// onEditorSave applies a save from the editor. When reflow moved part of
// the page elsewhere, the file is rewritten with what stayed, so the next
// save does not bring the moved content back.
func (a *App) onEditorSave(pageID, content string) {
	if _, err := a.proposals.EditPage(a.ctx, pageID, content); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[EDITOR] apply save of %s: %v", pageID, err)
		return
	}
	page, err := a.proposals.Page(pageID)
	if err != nil || strings.TrimSpace(page.Body) == strings.TrimSpace(content) {
		return
	}
	if err := a.nvim.SetContent(pageID, page.Body); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[EDITOR] rewrite %s: %v", pageID, err)
	}
}

// onEditorExit applies the file's final content, which may not have been
// seen by the watcher yet.
func (a *App) onEditorExit(exit terminal.Exit) {
	pageID := exit.PageID
	if a.nvim != nil {
		a.nvim.StopWatching(pageID)
	}
	data, err := os.ReadFile(exit.Path)
	if err != nil {
		return
	}
	final := strings.TrimSpace(string(data))
	page, err := a.proposals.Page(pageID)
	if err != nil || final == "" || final == strings.TrimSpace(page.Body) {
		return
	}
	if _, err := a.proposals.EditPage(a.ctx, pageID, final); err != nil {
		wailsRuntime.LogErrorf(a.ctx, "[EDITOR] apply final content of %s: %v", pageID, err)
	}
}

// terminalDataCallback forwards PTY output to the frontend.
func terminalDataCallback(a *App) func(data []byte) {
	return func(data []byte) {
		encoded := base64.StdEncoding.EncodeToString(data)
		wailsRuntime.EventsEmit(a.ctx, "terminal:data", encoded)
	}
}

func terminalExitCallback(a *App) func(terminal.Exit) {
	return func(exit terminal.Exit) {
		a.onEditorExit(exit)
		wailsRuntime.EventsEmit(a.ctx, "terminal:exit", map[string]any{
			"pageId":     exit.PageID,
			"cursorLine": exit.Line,
		})
	}
}
