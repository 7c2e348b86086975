package terminal

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestEditorArgsVim(t *testing.T) {
	args := editorArgs("/usr/bin/nvim", "/tmp/p.html", 12, "/tmp/cursor")
	if args[0] != "+12" {
		t.Errorf("first arg = %q, want +12", args[0])
	}
	if args[len(args)-1] != "/tmp/p.html" {
		t.Errorf("last arg = %q", args[len(args)-1])
	}
	if !strings.Contains(strings.Join(args, " "), "writefile([line('.')], '/tmp/cursor')") {
		t.Errorf("missing cursor autocmd: %v", args)
	}

	args = editorArgs("vim", "/tmp/p.html", 0, "/tmp/cursor")
	if strings.HasPrefix(args[0], "+") {
		t.Errorf("line 0 should not add a +line arg: %v", args)
	}
}

func TestEditorArgsOtherEditors(t *testing.T) {
	args := editorArgs("/usr/bin/nano", "/tmp/p.html", 12, "/tmp/cursor")
	if !reflect.DeepEqual(args, []string{"/tmp/p.html"}) {
		t.Errorf("args = %v", args)
	}
}

func TestWithPath(t *testing.T) {
	env := []string{"HOME=/root", "PATH=/usr/bin"}
	got := withPath(env, "/opt/bin:/usr/bin")
	if got[1] != "PATH=/opt/bin:/usr/bin" {
		t.Errorf("PATH not replaced: %v", got)
	}
	if env[1] != "PATH=/usr/bin" {
		t.Error("input env was modified")
	}

	got = withPath([]string{"HOME=/root"}, "/opt/bin")
	if got[len(got)-1] != "PATH=/opt/bin" {
		t.Errorf("PATH not added: %v", got)
	}

	if got := withPath(env, ""); !reflect.DeepEqual(got, env) {
		t.Errorf("empty path changed env: %v", got)
	}
}

func TestWriteWithoutSession(t *testing.T) {
	m := New("nano", nil, nil)
	if err := m.Write("x"); err == nil {
		t.Fatal("expected error without a running session")
	}
	if err := m.Resize(120, 40); err != nil {
		t.Fatalf("Resize without session: %v", err)
	}
	if m.size.Cols != 120 || m.size.Rows != 40 {
		t.Errorf("size = %dx%d", m.size.Cols, m.size.Rows)
	}
	if _, ok := m.Editing(); ok {
		t.Error("expected no page being edited")
	}
	m.Close()
}

func TestResolveEditor(t *testing.T) {
	dir := t.TempDir()
	bin := filepath.Join(dir, "proposals-test-editor")
	if err := os.WriteFile(bin, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
	if got := resolveEditor("proposals-test-editor", []string{t.TempDir(), dir}); got != bin {
		t.Errorf("resolveEditor = %q, want %q", got, bin)
	}
	if got := resolveEditor("/abs/editor", nil); got != "/abs/editor" {
		t.Errorf("absolute path changed: %q", got)
	}
	if got := resolveEditor("proposals-missing-editor", []string{dir}); got != "proposals-missing-editor" {
		t.Errorf("unresolved name changed: %q", got)
	}
}

func TestReadCursor(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cursor")
	if got := readCursor(path); got != 0 {
		t.Errorf("missing file = %d", got)
	}
	os.WriteFile(path, []byte("42\n"), 0644)
	if got := readCursor(path); got != 42 {
		t.Errorf("readCursor = %d, want 42", got)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("cursor file should be removed after reading")
	}
}

func TestOpenPageReportsExit(t *testing.T) {
	exits := make(chan Exit, 1)
	m := New("true", nil, func(e Exit) { exits <- e })
	m.shellPath = os.Getenv("PATH")
	m.pathOnce.Do(func() {})

	if err := m.OpenPage("page-1", "/tmp/page-1.html", 0); err != nil {
		t.Skipf("no pty available: %v", err)
	}
	select {
	case e := <-exits:
		if e.PageID != "page-1" || e.Path != "/tmp/page-1.html" {
			t.Errorf("unexpected exit: %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("exit was not reported")
	}
	if _, ok := m.Editing(); ok {
		t.Error("session should be cleared after exit")
	}
}

func TestReplacedSessionReportsNoExit(t *testing.T) {
	exits := make(chan Exit, 2)
	m := New("sleep", nil, func(e Exit) { exits <- e })
	m.shellPath = os.Getenv("PATH")
	m.pathOnce.Do(func() {})

	// sleep takes the path as its duration
	if err := m.OpenPage("page-1", "30", 0); err != nil {
		t.Skipf("no pty available: %v", err)
	}
	if err := m.OpenPage("page-2", "30", 0); err != nil {
		t.Fatalf("open second page: %v", err)
	}
	if id, _ := m.Editing(); id != "page-2" {
		t.Errorf("editing %q, want page-2", id)
	}
	m.Close()

	select {
	case e := <-exits:
		t.Errorf("killed session reported an exit: %+v", e)
	case <-time.After(200 * time.Millisecond):
	}
}
