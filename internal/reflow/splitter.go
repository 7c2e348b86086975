package reflow

import (
	"golang.org/x/net/html"

	"proposals/internal/content"
)

// SplitResult is the outcome of splitting one body. Fitting ++ Overflowing
// always holds exactly the content of the input, in order.
type SplitResult struct {
	Fitting     content.Body
	Overflowing content.Body
	// Aborted is set when no split would leave content on the page; Fitting
	// is then the unchanged input.
	Aborted bool
}

// Split removes nodes from the end of b until the remainder fits. Lists shed
// trailing items one at a time before being moved whole; the removed items
// travel in a copy of the list wrapper so tag and attributes are kept. Other
// top-level nodes, text included, move as a unit. b is not modified.
//
// Split aborts whenever nothing with content would stay behind, even when
// the remainder fits, as with a lone empty paragraph before a huge block.
// Moving that paragraph alone would only open a continuation page and
// leave the block overflowing there.
func Split(b content.Body, fits func(content.Body) bool) SplitResult {
	if fits(b) {
		return SplitResult{Fitting: b.Clone()}
	}

	work := b.Clone()
	var overflow content.Body
	var shellFor, shell *html.Node

	for len(work) > 0 {
		last := work[len(work)-1]

		if items := content.ListItems(last); content.IsList(last) && len(items) > 0 {
			if shellFor != last {
				shellFor, shell = last, content.ShallowClone(last)
				overflow = append(content.Body{shell}, overflow...)
			}
			// The item travels with the whitespace after it; the last item
			// takes everything left in the wrapper.
			from := items[len(items)-1]
			if len(items) == 1 {
				from = last.FirstChild
			}
			moveTail(shell, last, from)

			if len(items) == 1 {
				// A list never stays behind without items.
				work = work[:len(work)-1]
			}
			if fits(work) {
				break
			}
			continue
		}

		work = work[:len(work)-1]
		overflow = append(content.Body{last}, overflow...)
		if fits(work) {
			break
		}
	}

	if !work.HasContent() {
		return SplitResult{Fitting: b.Clone(), Aborted: true}
	}
	return SplitResult{Fitting: work, Overflowing: overflow}
}

// moveTail moves from and every later sibling out of src to the front of
// dst, keeping their order.
func moveTail(dst, src, from *html.Node) {
	first := dst.FirstChild
	for c := from; c != nil; {
		next := c.NextSibling
		src.RemoveChild(c)
		if first == nil {
			dst.AppendChild(c)
		} else {
			dst.InsertBefore(c, first)
		}
		c = next
	}
}
