package docmerge

import (
	"strings"

	"github.com/halcyondocs/docmerge/pkg/docmerge/dom"
)

// ResolveBlockConditionals resolves conditionals whose IF and /IF markers
// each occupy an entire tree node by themselves and whose body may span
// any number of sibling nodes, including whole tables. It must run before
// repeater expansion so a conditional can guard a repeater whose backing
// collection is absent.
func ResolveBlockConditionals(body *dom.Node, ctx Context) error {
	return resolveBlockConditionals(body, ctx, EvaluateCondition)
}

func resolveBlockConditionals(parent *dom.Node, ctx Context, eval condEvalFunc) error {
	// Resolve every block at this sibling level. Each pass handles the
	// first span; nested spans that survive are picked up on the next pass.
	for {
		open, closeIdx, cond, found, err := findBlockSpan(parent.Children)
		if err != nil {
			return err
		}
		if !found {
			break
		}

		if eval(cond, ctx) {
			// Condition true: delete only the two marker nodes, highest
			// index first so the lower one stays valid.
			parent.RemoveChild(closeIdx)
			parent.RemoveChild(open)
		} else {
			// Condition false: the entire span vanishes atomically,
			// including any tables it wraps.
			for i := closeIdx; i >= open; i-- {
				parent.RemoveChild(i)
			}
		}
	}

	// Recurse into table cells: a cell holds its own sibling list of blocks.
	for _, child := range parent.Children {
		if child.Kind != dom.KindTable {
			continue
		}
		for _, row := range child.Children {
			for _, cell := range row.Children {
				if err := resolveBlockConditionals(cell, ctx, eval); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// findBlockSpan locates the first block-level opener among siblings and
// its matching closer by tracking a nesting depth counter. No closer
// before the end of siblings is a fatal UnclosedBlockError.
func findBlockSpan(siblings []*dom.Node) (open, closeIdx int, cond string, found bool, err error) {
	for i, node := range siblings {
		m, ok := blockMarker(node)
		if !ok || m.Type != MarkerIf {
			continue
		}

		depth := 1
		for j := i + 1; j < len(siblings); j++ {
			inner, ok := blockMarker(siblings[j])
			if !ok {
				continue
			}
			switch inner.Type {
			case MarkerIf:
				depth++
			case MarkerEndIf:
				depth--
				if depth == 0 {
					return i, j, m.Value, true, nil
				}
			}
		}

		return 0, 0, "", false, NewUnclosedBlockError(m.Value)
	}

	return 0, 0, "", false, nil
}

// blockMarker reports whether a node consists of exactly one conditional
// marker and nothing else, making it a block-level marker node.
func blockMarker(node *dom.Node) (Marker, bool) {
	if node.Kind != dom.KindParagraph {
		return Marker{}, false
	}
	text := strings.TrimSpace(node.Text)
	markers := ScanMarkers(text)
	if len(markers) != 1 {
		return Marker{}, false
	}
	m := markers[0]
	if m.Type != MarkerIf && m.Type != MarkerEndIf {
		return Marker{}, false
	}
	if m.Start != 0 || m.End != len(text) {
		return Marker{}, false
	}
	return m, true
}
