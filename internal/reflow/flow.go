package reflow

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"proposals/internal/content"
	"proposals/internal/document"
	"proposals/internal/domain"
)

var (
	ErrNotReflowable = errors.New("page does not take part in reflow")
	ErrCascadeLimit  = errors.New("reflow cascade step limit reached")
)

// CapacityFunc returns the content height available on a page.
type CapacityFunc func(p domain.Page) float64

// Result summarizes what one reflow pass changed.
type Result struct {
	Changed      []string `json:"changed"`
	Created      []string `json:"created"`
	Unsplittable []string `json:"unsplittable"`
	FocusPageID  string   `json:"focusPageId,omitempty"`
	Steps        int      `json:"steps"`
}

// Moved reports whether the pass relocated any content.
func (r *Result) Moved() bool {
	return r.Steps > 0
}

func (r *Result) touch(id string) {
	for _, c := range r.Changed {
		if c == id {
			return
		}
	}
	r.Changed = append(r.Changed, id)
}

// Controller keeps content pages within their capacity by moving overflow
// forward: into the next content page when there is one, otherwise into a
// new continuation page inserted right after the overflowing page.
type Controller struct {
	detector Detector
	capacity CapacityFunc
	newID    func() string
	maxSteps int
}

type Option func(*Controller)

// WithMaxSteps caps the number of split steps a single pass may take. By
// default the cap is derived from the amount of content in the document.
func WithMaxSteps(n int) Option {
	return func(c *Controller) { c.maxSteps = n }
}

// WithIDGenerator overrides how continuation page ids are minted.
func WithIDGenerator(fn func() string) Option {
	return func(c *Controller) { c.newID = fn }
}

func NewController(d Detector, capacity CapacityFunc, opts ...Option) *Controller {
	c := &Controller{detector: d, capacity: capacity, newID: uuid.NewString}
	for _, o := range opts {
		o(c)
	}
	return c
}

// OnContentChanged stores body as the content of pageID and reflows from
// that page until every affected page fits. A freshly created continuation
// page takes pending focus only when it continues the edited page, directly
// or through other fresh pages.
func (c *Controller) OnContentChanged(m *document.Model, pageID, body string) (*Result, error) {
	page, err := m.Get(pageID)
	if err != nil {
		return nil, err
	}
	if err := m.UpdateBody(pageID, body); err != nil {
		return nil, err
	}
	res := &Result{}
	if page.Body != body {
		res.touch(pageID)
	}
	if !page.Reflowable() {
		return res, nil
	}
	return res, c.run(m, []string{pageID}, pageID, res)
}

// Reflow re-checks pageID against its current body.
func (c *Controller) Reflow(m *document.Model, pageID string) (*Result, error) {
	page, err := m.Get(pageID)
	if err != nil {
		return nil, err
	}
	if !page.Reflowable() {
		return nil, fmt.Errorf("%w: %s is a %s page", ErrNotReflowable, pageID, page.Kind)
	}
	res := &Result{}
	return res, c.run(m, []string{pageID}, pageID, res)
}

// ReflowAll checks every content page in document order. No page takes
// focus.
func (c *Controller) ReflowAll(m *document.Model) (*Result, error) {
	var seeds []string
	for _, p := range m.All() {
		if p.Reflowable() {
			seeds = append(seeds, p.ID)
		}
	}
	res := &Result{}
	return res, c.run(m, seeds, "", res)
}

func (c *Controller) run(m *document.Model, seeds []string, origin string, res *Result) error {
	limit := c.stepLimit(m)
	chain := map[string]bool{}
	if origin != "" {
		chain[origin] = true
	}

	work := append([]string(nil), seeds...)
	for len(work) > 0 {
		id := work[0]
		work = work[1:]

		page, err := m.Get(id)
		if err != nil {
			return err
		}
		body, err := content.Parse(page.Body)
		if err != nil {
			return fmt.Errorf("reflow %s: %w", id, err)
		}
		capacity := c.capacity(page)
		if !c.detector.Overflowing(body, capacity) {
			continue
		}

		if res.Steps >= limit {
			log.Printf("[REFLOW] step limit %d reached at page %s", limit, id)
			return fmt.Errorf("%w: %d", ErrCascadeLimit, limit)
		}

		split := Split(body, c.detector.Fits(capacity))
		if split.Aborted || len(split.Overflowing) == 0 {
			log.Printf("[REFLOW] page %s holds an unsplittable block taller than the page", id)
			res.Unsplittable = append(res.Unsplittable, id)
			continue
		}

		snap := m.Clone()
		next, err := c.step(m, page, split, chain, res)
		if err != nil {
			m.Restore(snap)
			return fmt.Errorf("reflow %s: %w", id, err)
		}
		res.Steps++
		work = append(work, next)
	}
	return nil
}

// step commits one split: the fitting part stays, the overflow lands on the
// following page. It returns the page that received the overflow.
func (c *Controller) step(m *document.Model, page domain.Page, split SplitResult, chain map[string]bool, res *Result) (string, error) {
	if err := m.UpdateBody(page.ID, split.Fitting.Render()); err != nil {
		return "", err
	}
	res.touch(page.ID)

	if next, ok := m.Next(page.ID); ok && next.Reflowable() {
		nextBody, err := content.Parse(next.Body)
		if err != nil {
			return "", err
		}
		if err := m.UpdateBody(next.ID, content.Concat(split.Overflowing, nextBody).Render()); err != nil {
			return "", err
		}
		res.touch(next.ID)
		return next.ID, nil
	}

	np := domain.Page{
		ID:             c.newID(),
		Kind:           domain.PageContent,
		Body:           split.Overflowing.Render(),
		IsContinuation: true,
	}
	if err := m.InsertAfter(page.ID, np); err != nil {
		return "", err
	}
	res.Created = append(res.Created, np.ID)
	res.touch(np.ID)

	if chain[page.ID] {
		chain[np.ID] = true
		if err := m.SetPendingFocus(np.ID); err != nil {
			return "", err
		}
		res.FocusPageID = np.ID
	}
	return np.ID, nil
}

func (c *Controller) stepLimit(m *document.Model) int {
	if c.maxSteps > 0 {
		return c.maxSteps
	}
	units := 0
	for _, p := range m.All() {
		if !p.Reflowable() {
			continue
		}
		if b, err := content.Parse(p.Body); err == nil {
			units += b.Units()
		}
	}
	return 2*units + 16
}
