package document

import (
	"errors"
	"fmt"

	"proposals/internal/domain"
)

var (
	ErrPageNotFound  = errors.New("page not found")
	ErrDuplicatePage = errors.New("duplicate page id")
)

// Model is the ordered page list of one proposal and the single source of
// truth for page content. It is not safe for concurrent use; callers
// serialize access.
type Model struct {
	pages []domain.Page
}

func New(pages ...domain.Page) *Model {
	m := &Model{pages: make([]domain.Page, 0, len(pages))}
	m.pages = append(m.pages, pages...)
	return m
}

func (m *Model) Len() int { return len(m.pages) }

// All returns a copy of the pages in order.
func (m *Model) All() []domain.Page {
	out := make([]domain.Page, len(m.pages))
	copy(out, m.pages)
	return out
}

func (m *Model) index(id string) int {
	for i := range m.pages {
		if m.pages[i].ID == id {
			return i
		}
	}
	return -1
}

func (m *Model) Get(id string) (domain.Page, error) {
	i := m.index(id)
	if i < 0 {
		return domain.Page{}, fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	return m.pages[i], nil
}

// Next returns the page immediately after id.
func (m *Model) Next(id string) (domain.Page, bool) {
	i := m.index(id)
	if i < 0 || i+1 >= len(m.pages) {
		return domain.Page{}, false
	}
	return m.pages[i+1], true
}

func (m *Model) Append(p domain.Page) error {
	if m.index(p.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicatePage, p.ID)
	}
	m.pages = append(m.pages, p)
	return nil
}

// InsertAfter places p directly after the page afterID.
func (m *Model) InsertAfter(afterID string, p domain.Page) error {
	i := m.index(afterID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, afterID)
	}
	if m.index(p.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrDuplicatePage, p.ID)
	}
	m.pages = append(m.pages, domain.Page{})
	copy(m.pages[i+2:], m.pages[i+1:])
	m.pages[i+1] = p
	return nil
}

func (m *Model) RemovePage(id string) error {
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	m.pages = append(m.pages[:i], m.pages[i+1:]...)
	return nil
}

func (m *Model) UpdateBody(id, body string) error {
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	m.pages[i].Body = body
	return nil
}

// SetPendingFocus marks id as the page that should take the caret. Any
// other pending focus is cleared.
func (m *Model) SetPendingFocus(id string) error {
	i := m.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrPageNotFound, id)
	}
	m.ClearPendingFocus()
	m.pages[i].HasPendingFocus = true
	return nil
}

func (m *Model) ClearPendingFocus() {
	for i := range m.pages {
		m.pages[i].HasPendingFocus = false
	}
}

// FocusPageID returns the page with pending focus, or "".
func (m *Model) FocusPageID() string {
	for _, p := range m.pages {
		if p.HasPendingFocus {
			return p.ID
		}
	}
	return ""
}

func (m *Model) Clone() *Model {
	return New(m.pages...)
}

// Restore replaces m's pages with those of snap.
func (m *Model) Restore(snap *Model) {
	m.pages = snap.All()
}
