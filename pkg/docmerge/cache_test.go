package docmerge

import (
	"testing"

	"github.com/halcyondocs/docmerge/pkg/docmerge/dom"
)

func TestTextCache(t *testing.T) {
	row := dom.NewRow(dom.NewCell(dom.NewParagraph("original")))
	cache := newTextCache()

	if got := cache.RowText(row); got != "original" {
		t.Fatalf("RowText = %q", got)
	}
	if cache.Size() != 1 {
		t.Errorf("Size = %d, want 1", cache.Size())
	}

	// A stale entry keeps serving until invalidated.
	row.Children[0].SetCellText("changed")
	if got := cache.RowText(row); got != "original" {
		t.Errorf("RowText after mutation = %q, want cached value", got)
	}

	cache.Invalidate(row)
	if got := cache.RowText(row); got != "changed" {
		t.Errorf("RowText after invalidate = %q", got)
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Errorf("Size after Clear = %d", cache.Size())
	}
}

func TestTextCacheKeyedByNodeIdentity(t *testing.T) {
	a := dom.NewRow(dom.NewCell(dom.NewParagraph("same")))
	b := dom.NewRow(dom.NewCell(dom.NewParagraph("same")))
	cache := newTextCache()

	cache.RowText(a)
	cache.RowText(b)
	if cache.Size() != 2 {
		t.Errorf("Size = %d, want distinct entries per node", cache.Size())
	}
}
