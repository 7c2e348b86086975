package neovim

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ContentChangedHandler is called with the page whose file changed and the
// file's new content.
type ContentChangedHandler func(pageID string, content string)

// Bridge watches the page files handed to the external editor. Every save
// with new content is passed to the handler, so edits made outside the app
// go through the same reflow as edits made in it.
type Bridge struct {
	watcher  *fsnotify.Watcher
	onChange ContentChangedHandler
	mu       sync.Mutex
	watching map[string]string // filePath -> pageID
	last     map[string]string // filePath -> last delivered content
}

func New(onChange ContentChangedHandler) (*Bridge, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	b := &Bridge{
		watcher:  watcher,
		onChange: onChange,
		watching: make(map[string]string),
		last:     make(map[string]string),
	}

	go b.watchLoop()

	return b, nil
}

// WatchFile starts watching filePath for pageID. The file's current content
// is taken as already delivered.
func (b *Bridge) WatchFile(pageID, filePath string) error {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return err
	}
	current, _ := os.ReadFile(absPath)

	b.mu.Lock()
	b.watching[absPath] = pageID
	b.last[absPath] = strings.TrimSpace(string(current))
	b.mu.Unlock()

	// editors often save by rename, so watch the directory
	return b.watcher.Add(filepath.Dir(absPath))
}

func (b *Bridge) StopWatching(pageID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for path, id := range b.watching {
		if id != pageID {
			continue
		}
		delete(b.watching, path)
		delete(b.last, path)
		if !b.dirWatchedLocked(filepath.Dir(path)) {
			b.watcher.Remove(filepath.Dir(path))
		}
	}
}

// Watching returns the page currently watched at filePath.
func (b *Bridge) Watching(filePath string) (string, bool) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return "", false
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	id, ok := b.watching[absPath]
	return id, ok
}

// SetContent rewrites the file watched for pageID, e.g. after reflow moved
// part of the page away. The write is not echoed back to the handler.
func (b *Bridge) SetContent(pageID, content string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for path, id := range b.watching {
		if id != pageID {
			continue
		}
		b.last[path] = strings.TrimSpace(content)
		return os.WriteFile(path, []byte(content+"\n"), 0644)
	}
	return fmt.Errorf("page %s is not being edited", pageID)
}

func (b *Bridge) Close() error {
	return b.watcher.Close()
}

func (b *Bridge) dirWatchedLocked(dir string) bool {
	for path := range b.watching {
		if filepath.Dir(path) == dir {
			return true
		}
	}
	return false
}

func (b *Bridge) watchLoop() {
	for {
		select {
		case event, ok := <-b.watcher.Events:
			if !ok {
				return
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				b.deliver(event.Name)
			}
		case err, ok := <-b.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("[EDITOR] watcher error: %v", err)
		}
	}
}

// deliver reads path and calls the handler if the content differs from the
// last delivery. Empty reads are skipped: a truncating save shows up as an
// empty write before the real one.
func (b *Bridge) deliver(path string) {
	absPath, _ := filepath.Abs(path)

	b.mu.Lock()
	pageID, watched := b.watching[absPath]
	b.mu.Unlock()
	if !watched {
		return
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		log.Printf("[EDITOR] read %s: %v", absPath, err)
		return
	}
	content := strings.TrimSpace(string(data))
	if content == "" {
		return
	}

	b.mu.Lock()
	if b.last[absPath] == content {
		b.mu.Unlock()
		return
	}
	b.last[absPath] = content
	b.mu.Unlock()

	if b.onChange != nil {
		b.onChange(pageID, content)
	}
}
