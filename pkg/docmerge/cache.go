package docmerge

import (
	"sync"

	"github.com/halcyondocs/docmerge/pkg/docmerge/dom"
)

// textCache memoizes combined text reads (row text, cell text) during one
// merge. It is created per merge, passed through the pipeline explicitly,
// invalidated after every stage that mutates the tree, and never shared
// across merges. Keys are node identities, so entries are scoped to the
// document being merged.
type textCache struct {
	mu      sync.Mutex
	rowText map[*dom.Node]string
}

func newTextCache() *textCache {
	return &textCache{rowText: make(map[*dom.Node]string)}
}

// RowText returns the combined cell text of a row, reading through the
// cache.
func (c *textCache) RowText(row *dom.Node) string {
	c.mu.Lock()
	if text, ok := c.rowText[row]; ok {
		c.mu.Unlock()
		return text
	}
	c.mu.Unlock()

	text := row.RowText()

	c.mu.Lock()
	c.rowText[row] = text
	c.mu.Unlock()
	return text
}

// Invalidate drops a single row's cached text after an in-place mutation.
func (c *textCache) Invalidate(row *dom.Node) {
	c.mu.Lock()
	delete(c.rowText, row)
	c.mu.Unlock()
}

// Clear drops every entry. Called at merge start and after each mutating
// pipeline stage.
func (c *textCache) Clear() {
	c.mu.Lock()
	c.rowText = make(map[*dom.Node]string)
	c.mu.Unlock()
}

// Size returns the current number of cached rows.
func (c *textCache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.rowText)
}
