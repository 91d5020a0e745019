package docmerge

import (
	"fmt"

	"github.com/halcyondocs/docmerge/pkg/docmerge/dom"
)

// Result reports the outcome of a successful merge: the document tree was
// rewritten in place, and Warnings lists every non-fatal problem recorded
// along the way.
type Result struct {
	Warnings []Warning
}

// mergeState carries everything scoped to a single merge run: the
// configuration snapshot, the type table, the row-text cache, the set of
// rows already produced by table expansion, and the warnings gathered
// so far. A fresh state is created per merge, so a Merger value is safe
// for concurrent use.
type mergeState struct {
	config   *Config
	types    TypeTable
	logger   *Logger
	cache    *textCache
	expanded map[*dom.Node]bool
	warnings []Warning
}

func newMergeState(config *Config, types TypeTable, logger *Logger) *mergeState {
	return &mergeState{
		config:   config,
		types:    types,
		logger:   logger,
		cache:    newTextCache(),
		expanded: make(map[*dom.Node]bool),
	}
}

func (s *mergeState) warn(w Warning) {
	s.warnings = append(s.warnings, w)
	s.logger.WithFields(Fields{
		"code":    w.Code,
		"section": w.Section,
	}).Warn("%s", w.Message)
}

// eval evaluates a conditional expression against a context, converting
// any expression failure into a recorded warning and a false result.
// Unparseable or unresolvable conditions must never abort a merge.
func (s *mergeState) eval(expr string, ctx Context) bool {
	result, err := evaluateCondition(expr, ctx)
	if err != nil {
		s.warn(Warning{
			Code:    WarnExpression,
			Message: err.Error(),
		})
		return false
	}
	return result
}

// run executes the merge pipeline against one document body. Stage order
// is fixed: block conditionals prune whole nodes first, repeaters expand
// against the pruned tree, inline conditionals resolve in the remaining
// text, page-break markers become nodes, and field substitution runs
// last. Rows produced by table expansion are already fully substituted
// and are skipped by the later stages; inline-expanded paragraphs stay
// visible so markers outside the expanded span still resolve.
func (s *mergeState) run(body *dom.Node, ctx Context) (*Result, error) {
	if body == nil || body.Kind != dom.KindBody {
		return nil, fmt.Errorf("merge: document root must be a body node")
	}

	if err := resolveBlockConditionals(body, ctx, s.eval); err != nil {
		return nil, err
	}
	s.cache.Clear()

	if err := s.expandSections(body, ctx); err != nil {
		return nil, err
	}
	s.cache.Clear()

	err := s.forEachParagraph(body, func(p *dom.Node) error {
		if !containsMarker(p.Text) {
			return nil
		}
		text, err := resolveInlineConditionals(p.Text, ctx, s.config.MaxConditionalPasses, s.eval)
		if err != nil {
			return err
		}
		p.SetText(text)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.resolvePageBreaks(body)

	err = s.forEachParagraph(body, func(p *dom.Node) error {
		if !containsMarker(p.Text) {
			return nil
		}
		text, err := SubstituteFields(p.Text, ctx, s.types)
		if err != nil {
			return err
		}
		p.SetText(text)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := checkLeftoverSections(body); err != nil {
		return nil, err
	}

	return &Result{Warnings: s.warnings}, nil
}

// checkLeftoverSections walks the merged tree for repeater markers that
// survived every stage. An opener whose closer sits in another paragraph
// or row never forms an expandable span, and without this check the
// literal marker text would pass through as document content.
func checkLeftoverSections(body *dom.Node) error {
	var leftover *Marker
	body.Walk(func(n *dom.Node) bool {
		if n.Kind != dom.KindParagraph || !containsMarker(n.Text) {
			return true
		}
		for _, m := range ScanMarkers(n.Text) {
			switch m.Type {
			case MarkerSection, MarkerSectionEnd, MarkerSource, MarkerSourceEnd:
				leftover = &m
				return false
			}
		}
		return true
	})
	if leftover != nil {
		return NewUnterminatedSectionError(leftover.Value)
	}
	return nil
}

// expandSections runs repeater expansion over the body: tables are
// checked for a template row, and body paragraphs are checked for inline
// repeater spans.
func (s *mergeState) expandSections(body *dom.Node, ctx Context) error {
	for _, node := range body.Children {
		switch node.Kind {
		case dom.KindTable:
			if err := s.expandTable(node, ctx); err != nil {
				return err
			}
		case dom.KindParagraph:
			if !containsMarker(node.Text) {
				continue
			}
			// The spliced span content is already fully substituted, but
			// the paragraph may carry markers outside the span; the whole
			// text stays visible to the later stages.
			text, err := s.expandTextSections(node.Text, nil, ctx, true)
			if err != nil {
				return err
			}
			node.SetText(text)
		}
	}
	return nil
}

// forEachParagraph visits every paragraph the later pipeline stages still
// own: body paragraphs and table cell paragraphs, excluding rows produced
// by table expansion.
func (s *mergeState) forEachParagraph(body *dom.Node, fn func(p *dom.Node) error) error {
	for _, node := range body.Children {
		switch node.Kind {
		case dom.KindParagraph:
			if err := fn(node); err != nil {
				return err
			}
		case dom.KindTable:
			for _, row := range node.Children {
				if s.expanded[row] {
					continue
				}
				for _, cell := range row.Children {
					for _, p := range cell.Children {
						if p.Kind != dom.KindParagraph {
							continue
						}
						if err := fn(p); err != nil {
							return err
						}
					}
				}
			}
		}
	}
	return nil
}

// resolvePageBreaks turns page-break markers in body paragraphs into
// page-break nodes. A paragraph holding text around the marker is split,
// so a marker emitted once per repeated record yields one page per
// record.
func (s *mergeState) resolvePageBreaks(body *dom.Node) {
	for i := 0; i < len(body.Children); i++ {
		p := body.Children[i]
		if p.Kind != dom.KindParagraph || !containsMarker(p.Text) {
			continue
		}

		var breaks []Marker
		for _, m := range ScanMarkers(p.Text) {
			if m.Type == MarkerPageBreak {
				breaks = append(breaks, m)
			}
		}
		if len(breaks) == 0 {
			continue
		}

		var nodes []*dom.Node
		last := 0
		for _, m := range breaks {
			if seg := p.Text[last:m.Start]; seg != "" {
				nodes = append(nodes, paragraphLike(p, seg))
			}
			nodes = append(nodes, dom.NewPageBreak())
			last = m.End
		}
		if seg := p.Text[last:]; seg != "" {
			nodes = append(nodes, paragraphLike(p, seg))
		}

		body.RemoveChild(i)
		for j, n := range nodes {
			body.InsertChild(i+j, n)
		}
		i += len(nodes) - 1
	}
}

// paragraphLike builds a paragraph carrying over the source paragraph's
// attributes and run style.
func paragraphLike(src *dom.Node, text string) *dom.Node {
	p := dom.NewParagraph(text)
	p.Attrs = src.Attrs
	p.RunStyle = src.RunStyle
	return p
}
