package content

import (
	"errors"
	"fmt"
	"strconv"

	"golang.org/x/net/html"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrUnknownPreset  = errors.New("unknown preset")
	ErrBlockRange     = errors.New("block index out of range")
	ErrNotApplicable  = errors.New("command not applicable to block")
	ErrTableSize      = errors.New("table size must be between 1x1 and 10x10")
)

type CommandKind string

const (
	CmdBold            CommandKind = "bold"
	CmdItalic          CommandKind = "italic"
	CmdUnderline       CommandKind = "underline"
	CmdHeading         CommandKind = "heading"
	CmdUnorderedList   CommandKind = "unorderedList"
	CmdOrderedList     CommandKind = "orderedList"
	CmdInsertTable     CommandKind = "insertTable"
	CmdInsertPlanTable CommandKind = "insertPlanTable"
	CmdInsertPreset    CommandKind = "insertPreset"
	CmdInsertHTML      CommandKind = "insertHTML"
)

// Command is a discrete editing operation on one page body. Block is the
// index of the target among the body's non-whitespace top-level nodes;
// inserts land after it, and -1 means the end of the body.
type Command struct {
	Kind   CommandKind `json:"kind"`
	Block  int         `json:"block"`
	Level  int         `json:"level,omitempty"`
	Rows   int         `json:"rows,omitempty"`
	Cols   int         `json:"cols,omitempty"`
	Preset string      `json:"preset,omitempty"`
	Markup string      `json:"markup,omitempty"`
}

// Apply returns a new body with cmd applied. b is not modified.
func Apply(b Body, cmd Command) (Body, error) {
	out := b.Clone()
	switch cmd.Kind {
	case CmdBold:
		return toggleInline(out, cmd.Block, "strong")
	case CmdItalic:
		return toggleInline(out, cmd.Block, "em")
	case CmdUnderline:
		return toggleInline(out, cmd.Block, "u")
	case CmdHeading:
		return setHeading(out, cmd.Block, cmd.Level)
	case CmdUnorderedList:
		return toggleList(out, cmd.Block, "ul")
	case CmdOrderedList:
		return toggleList(out, cmd.Block, "ol")
	case CmdInsertTable:
		if cmd.Rows < 1 || cmd.Cols < 1 || cmd.Rows > 10 || cmd.Cols > 10 {
			return nil, ErrTableSize
		}
		return insertMarkup(out, cmd.Block, TableMarkup(cmd.Rows, cmd.Cols))
	case CmdInsertPlanTable:
		return insertMarkup(out, cmd.Block, PlanTableMarkup(out))
	case CmdInsertPreset:
		m, ok := LookupPreset(cmd.Preset)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, cmd.Preset)
		}
		return insertMarkup(out, cmd.Block, "<br/><br/>"+m)
	case CmdInsertHTML:
		return insertMarkup(out, cmd.Block, cmd.Markup)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, cmd.Kind)
}

// blockPos maps a block index to its position in b.
func blockPos(b Body, block int) (int, error) {
	seen := 0
	for i, n := range b {
		if IsWhitespace(n) {
			continue
		}
		if seen == block {
			return i, nil
		}
		seen++
	}
	return -1, fmt.Errorf("%w: %d", ErrBlockRange, block)
}

func insertMarkup(b Body, block int, markup string) (Body, error) {
	nodes, err := Parse(markup)
	if err != nil {
		return nil, err
	}
	at := len(b)
	if block >= 0 {
		pos, err := blockPos(b, block)
		if err != nil {
			return nil, err
		}
		at = pos + 1
	}
	out := make(Body, 0, len(b)+len(nodes))
	out = append(out, b[:at]...)
	out = append(out, nodes...)
	out = append(out, b[at:]...)
	return out, nil
}

// toggleInline wraps the inline content of a block in tag, or unwraps it
// when the content is already a single tag wrapper. Lists apply per item.
func toggleInline(b Body, block int, tag string) (Body, error) {
	pos, err := blockPos(b, block)
	if err != nil {
		return nil, err
	}
	n := b[pos]
	switch Classify(n) {
	case KindParagraph, KindHeading, KindBlock:
		toggleWrap(n, tag)
	case KindList:
		for _, li := range ListItems(n) {
			toggleWrap(li, tag)
		}
	case KindText, KindInline:
		w := element(tag)
		w.AppendChild(n)
		b[pos] = w
	default:
		return nil, fmt.Errorf("%w: %s on <%s>", ErrNotApplicable, tag, n.Data)
	}
	return b, nil
}

func toggleWrap(n *html.Node, tag string) {
	if c := n.FirstChild; c != nil && c == n.LastChild && c.Type == html.ElementNode && c.Data == tag {
		n.RemoveChild(c)
		moveChildren(n, c)
		return
	}
	w := element(tag)
	moveChildren(w, n)
	n.AppendChild(w)
}

func setHeading(b Body, block, level int) (Body, error) {
	if level < 0 || level > 3 {
		return nil, fmt.Errorf("%w: heading level %d", ErrNotApplicable, level)
	}
	pos, err := blockPos(b, block)
	if err != nil {
		return nil, err
	}
	n := b[pos]
	if k := Classify(n); k != KindParagraph && k != KindHeading {
		return nil, fmt.Errorf("%w: heading on <%s>", ErrNotApplicable, n.Data)
	}
	tag := "p"
	if level > 0 {
		tag = "h" + strconv.Itoa(level)
	}
	n.Data = tag
	n.DataAtom = atomOf(tag)
	return b, nil
}

// toggleList turns a paragraph into a one-item list, converts a list of the
// other type, or unwraps a list of the same type into paragraphs.
func toggleList(b Body, block int, tag string) (Body, error) {
	pos, err := blockPos(b, block)
	if err != nil {
		return nil, err
	}
	n := b[pos]
	switch Classify(n) {
	case KindList:
		if n.Data != tag {
			n.Data = tag
			n.DataAtom = atomOf(tag)
			return b, nil
		}
		var paras Body
		for _, li := range ListItems(n) {
			p := element("p")
			moveChildren(p, li)
			paras = append(paras, p)
		}
		out := make(Body, 0, len(b)+len(paras))
		out = append(out, b[:pos]...)
		out = append(out, paras...)
		out = append(out, b[pos+1:]...)
		return out, nil
	case KindParagraph, KindHeading:
		li := element("li")
		moveChildren(li, n)
		b[pos] = element(tag, li)
		return b, nil
	}
	return nil, fmt.Errorf("%w: list on <%s>", ErrNotApplicable, n.Data)
}
