// Package dom provides the ordered document tree the merge engine operates
// on: paragraphs, tables, rows, and cells with ordered children, plain text,
// and an opaque bulk attributes value that is captured and replayed
// byte-for-byte without interpretation.
package dom

import "strings"

// Kind discriminates the node types relevant to merging.
type Kind int

const (
	KindBody Kind = iota
	KindParagraph
	KindTable
	KindRow
	KindCell
	KindPageBreak
)

func (k Kind) String() string {
	switch k {
	case KindBody:
		return "body"
	case KindParagraph:
		return "paragraph"
	case KindTable:
		return "table"
	case KindRow:
		return "row"
	case KindCell:
		return "cell"
	case KindPageBreak:
		return "pagebreak"
	default:
		return "unknown"
	}
}

// Node is one element of the document tree. Text is meaningful for
// paragraphs; Attrs is an opaque bulk value the engine never decomposes;
// RunStyle is the single sampled run style of a paragraph's first character.
type Node struct {
	Kind     Kind
	Text     string
	Attrs    interface{}
	RunStyle interface{}
	Children []*Node
}

// NewBody creates a document body holding the given top-level elements.
func NewBody(children ...*Node) *Node {
	return &Node{Kind: KindBody, Children: children}
}

// NewParagraph creates a paragraph node with the given text.
func NewParagraph(text string) *Node {
	return &Node{Kind: KindParagraph, Text: text}
}

// NewTable creates a table node from ordered rows.
func NewTable(rows ...*Node) *Node {
	return &Node{Kind: KindTable, Children: rows}
}

// NewRow creates a row node from ordered cells.
func NewRow(cells ...*Node) *Node {
	return &Node{Kind: KindRow, Children: cells}
}

// NewCell creates a cell node holding a small sub-tree of paragraphs.
func NewCell(children ...*Node) *Node {
	return &Node{Kind: KindCell, Children: children}
}

// NewPageBreak creates a page-break node.
func NewPageBreak() *Node {
	return &Node{Kind: KindPageBreak}
}

// InsertChild inserts c at index i, shifting later siblings right.
// An index past the end appends.
func (n *Node) InsertChild(i int, c *Node) {
	if i < 0 {
		i = 0
	}
	if i >= len(n.Children) {
		n.Children = append(n.Children, c)
		return
	}
	n.Children = append(n.Children, nil)
	copy(n.Children[i+1:], n.Children[i:])
	n.Children[i] = c
}

// RemoveChild removes and returns the child at index i, or nil if the
// index is out of range.
func (n *Node) RemoveChild(i int) *Node {
	if i < 0 || i >= len(n.Children) {
		return nil
	}
	c := n.Children[i]
	n.Children = append(n.Children[:i], n.Children[i+1:]...)
	return c
}

// SetText replaces the node's text content.
func (n *Node) SetText(s string) {
	n.Text = s
}

// CellText returns the combined text of a cell's paragraphs, joined with
// newlines. For a paragraph it returns the paragraph text itself.
func (n *Node) CellText() string {
	if n.Kind == KindParagraph {
		return n.Text
	}
	var parts []string
	for _, c := range n.Children {
		if c.Kind == KindParagraph {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// SetCellText collapses a cell to a single paragraph holding text. The
// first paragraph is reused in place so its style survives; any further
// paragraphs are dropped.
func (n *Node) SetCellText(text string) {
	if n.Kind == KindParagraph {
		n.Text = text
		return
	}
	for i, c := range n.Children {
		if c.Kind == KindParagraph {
			c.Text = text
			// remove any paragraphs after the first
			kept := n.Children[:i+1]
			for _, rest := range n.Children[i+1:] {
				if rest.Kind != KindParagraph {
					kept = append(kept, rest)
				}
			}
			n.Children = kept
			return
		}
	}
	n.Children = append(n.Children, NewParagraph(text))
}

// FirstParagraph returns the first paragraph under the node, or nil.
func (n *Node) FirstParagraph() *Node {
	if n.Kind == KindParagraph {
		return n
	}
	for _, c := range n.Children {
		if p := c.FirstParagraph(); p != nil {
			return p
		}
	}
	return nil
}

// RowText returns the combined text of every cell in a row.
func (n *Node) RowText() string {
	var b strings.Builder
	for _, cell := range n.Children {
		b.WriteString(cell.CellText())
	}
	return b.String()
}

// Clone returns a deep copy of the node. Attrs and RunStyle are opaque and
// copied by reference.
func (n *Node) Clone() *Node {
	if n == nil {
		return nil
	}
	c := &Node{
		Kind:     n.Kind,
		Text:     n.Text,
		Attrs:    n.Attrs,
		RunStyle: n.RunStyle,
	}
	if len(n.Children) > 0 {
		c.Children = make([]*Node, len(n.Children))
		for i, child := range n.Children {
			c.Children[i] = child.Clone()
		}
	}
	return c
}

// Walk visits n and every descendant in document order. Returning false
// from fn stops descent into that node's children.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	if !fn(n) {
		return
	}
	for _, c := range n.Children {
		c.Walk(fn)
	}
}
