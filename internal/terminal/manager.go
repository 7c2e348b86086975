package terminal

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/creack/pty"
)

// Exit describes how an editor session on a page ended.
type Exit struct {
	PageID string
	Path   string
	// Line is the cursor line the editor left on, 0 when unknown.
	Line int
}

// Manager runs one external editor session at a time on a PTY, streaming
// its output to the frontend terminal. Opening a page while another is
// being edited replaces the running session.
type Manager struct {
	mu      sync.Mutex
	session *session
	seq     int
	size    pty.Winsize

	editor string
	onData func(data []byte)
	onExit func(Exit)

	pathOnce  sync.Once
	shellPath string
}

type session struct {
	pageID     string
	path       string
	cursorFile string
	ptmx       *os.File
	cmd        *exec.Cmd
	// killed sessions were replaced or closed on request and report no exit
	killed bool
}

// New creates a terminal manager for editor, falling back to $EDITOR and
// then nvim when editor is empty.
func New(editor string, onData func(data []byte), onExit func(Exit)) *Manager {
	if editor == "" {
		editor = os.Getenv("EDITOR")
	}
	if editor == "" {
		editor = "nvim"
	}
	return &Manager{
		editor: resolveEditor(editor, searchDirs()),
		onData: onData,
		onExit: onExit,
		size:   pty.Winsize{Cols: 80, Rows: 24},
	}
}

// OpenPage starts the editor on the page file at path, at line when line
// is positive.
func (m *Manager) OpenPage(pageID, path string, line int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.killLocked()
	m.seq++
	s := &session{
		pageID:     pageID,
		path:       path,
		cursorFile: filepath.Join(os.TempDir(), fmt.Sprintf("proposals-cursor-%d-%d", os.Getpid(), m.seq)),
	}
	os.Remove(s.cursorFile)

	s.cmd = exec.Command(m.editor, editorArgs(m.editor, path, line, s.cursorFile)...)
	s.cmd.Env = append(withPath(os.Environ(), m.loginPath()),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)
	size := m.size
	ptmx, err := pty.StartWithSize(s.cmd, &size)
	if err != nil {
		return fmt.Errorf("start %s on %s: %w", filepath.Base(m.editor), filepath.Base(path), err)
	}
	s.ptmx = ptmx
	m.session = s

	go m.pump(s)
	return nil
}

// pump forwards PTY output until the editor exits, then reports the exit
// unless the session was killed.
func (m *Manager) pump(s *session) {
	buf := make([]byte, 32*1024)
	for {
		n, err := s.ptmx.Read(buf)
		if n > 0 && m.onData != nil {
			m.onData(append([]byte(nil), buf[:n]...))
		}
		if err != nil {
			break
		}
	}
	line := readCursor(s.cursorFile)

	m.mu.Lock()
	killed := s.killed
	if m.session == s {
		s.ptmx.Close()
		s.cmd.Wait()
		m.session = nil
	}
	m.mu.Unlock()

	if !killed && m.onExit != nil {
		m.onExit(Exit{PageID: s.pageID, Path: s.path, Line: line})
	}
}

// Editing returns the page of the running session, if any.
func (m *Manager) Editing() (pageID string, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return "", false
	}
	return m.session.pageID, true
}

// Write sends keystrokes from the frontend terminal to the PTY.
func (m *Manager) Write(data string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return fmt.Errorf("no page is open in the editor")
	}
	_, err := io.WriteString(m.session.ptmx, data)
	return err
}

// Resize records the frontend terminal size and applies it to a running
// session. The next session starts at the last recorded size.
func (m *Manager) Resize(cols, rows uint16) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.size = pty.Winsize{Cols: cols, Rows: rows}
	if m.session == nil {
		return nil
	}
	return pty.Setsize(m.session.ptmx, &m.size)
}

// Close ends the running session without reporting an exit.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.killLocked()
}

func (m *Manager) killLocked() {
	s := m.session
	if s == nil {
		return
	}
	m.session = nil
	s.killed = true
	s.ptmx.Close()
	if s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	os.Remove(s.cursorFile)
}

// loginPath is the PATH of the user's login shell, resolved on first use.
// GUI apps on macOS start with a minimal PATH, so editor plugins would not
// find the user's tools without it.
func (m *Manager) loginPath() string {
	m.pathOnce.Do(func() {
		shell := os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/zsh"
		}
		out, err := exec.Command(shell, "-lc", "echo $PATH").Output()
		if err == nil {
			m.shellPath = strings.TrimSpace(string(out))
		}
	})
	return m.shellPath
}

func readCursor(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	os.Remove(path)
	line, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0
	}
	return line
}

// searchDirs lists where editors are installed outside the process PATH.
func searchDirs() []string {
	dirs := []string{"/opt/homebrew/bin", "/usr/local/bin", "/run/current-system/sw/bin"}
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local/bin"), filepath.Join(home, ".nix-profile/bin"))
	}
	return dirs
}

// resolveEditor finds the editor binary on PATH or in dirs. An unresolved
// name is returned as is so starting it fails with a clear error.
func resolveEditor(name string, dirs []string) string {
	if filepath.IsAbs(name) {
		return name
	}
	if p, err := exec.LookPath(name); err == nil {
		return p
	}
	for _, d := range dirs {
		c := filepath.Join(d, name)
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return name
}

// isVim reports whether editor accepts vim's +line and -c flags.
func isVim(editor string) bool {
	switch filepath.Base(editor) {
	case "vim", "nvim", "vi":
		return true
	}
	return false
}

// editorArgs builds the command line for opening path at line. Vim-family
// editors also record the cursor line into cursorFile on exit.
func editorArgs(editor, path string, line int, cursorFile string) []string {
	if !isVim(editor) {
		return []string{path}
	}
	var args []string
	if line > 0 {
		args = append(args, fmt.Sprintf("+%d", line))
	}
	return append(args,
		"-c", fmt.Sprintf("autocmd VimLeave * call writefile([line('.')], '%s')", cursorFile),
		path,
	)
}

// withPath replaces (or adds) PATH in env.
func withPath(env []string, path string) []string {
	if path == "" {
		return env
	}
	out := append([]string(nil), env...)
	for i, e := range out {
		if strings.HasPrefix(e, "PATH=") {
			out[i] = "PATH=" + path
			return out
		}
	}
	return append(out, "PATH="+path)
}
