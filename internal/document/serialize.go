package document

import (
	"encoding/json"
	"errors"
	"fmt"

	"proposals/internal/domain"
)

// ErrCorrupt is returned when persisted document data cannot be trusted.
var ErrCorrupt = errors.New("corrupt document")

const formatVersion = 1

type record struct {
	ID             string          `json:"id"`
	Kind           domain.PageKind `json:"kind"`
	Body           string          `json:"body"`
	IsContinuation bool            `json:"isContinuation"`
}

type envelope struct {
	Version int      `json:"version"`
	Pages   []record `json:"pages"`
}

// Serialize encodes the document. Pending focus is transient and not stored.
func (m *Model) Serialize() ([]byte, error) {
	env := envelope{Version: formatVersion, Pages: make([]record, len(m.pages))}
	for i, p := range m.pages {
		env.Pages[i] = record{ID: p.ID, Kind: p.Kind, Body: p.Body, IsContinuation: p.IsContinuation}
	}
	return json.Marshal(env)
}

func Deserialize(data []byte) (*Model, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if env.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, env.Version)
	}
	pages := make([]domain.Page, len(env.Pages))
	for i, r := range env.Pages {
		pages[i] = domain.Page{ID: r.ID, Kind: r.Kind, Body: r.Body, IsContinuation: r.IsContinuation}
	}
	return FromPages(pages)
}

// FromPages builds a model from stored page records, rejecting records a
// well-formed document can never contain.
func FromPages(pages []domain.Page) (*Model, error) {
	seen := make(map[string]bool, len(pages))
	for i, p := range pages {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: page %d has no id", ErrCorrupt, i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: page %s appears twice", ErrCorrupt, p.ID)
		}
		if !p.Kind.Valid() {
			return nil, fmt.Errorf("%w: page %s has kind %q", ErrCorrupt, p.ID, p.Kind)
		}
		seen[p.ID] = true
	}
	m := New(pages...)
	m.ClearPendingFocus()
	return m, nil
}
