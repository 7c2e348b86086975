package domain

type PageKind string

const (
	PageCover      PageKind = "cover"
	PageContent    PageKind = "content"
	PageTable      PageKind = "table"
	PageAcceptance PageKind = "acceptance"
)

func (k PageKind) Valid() bool {
	switch k {
	case PageCover, PageContent, PageTable, PageAcceptance:
		return true
	}
	return false
}

// Page is one A4 canvas of a proposal. Body holds the page's rich content
// as markup. Only content pages take part in reflow.
type Page struct {
	ID              string   `json:"id"`
	Kind            PageKind `json:"kind"`
	Body            string   `json:"body"`
	IsContinuation  bool     `json:"isContinuation"`
	HasPendingFocus bool     `json:"hasPendingFocus"`
}

func (p Page) Reflowable() bool {
	return p.Kind == PageContent
}
