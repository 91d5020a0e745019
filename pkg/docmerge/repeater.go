package docmerge

import (
	"fmt"
	"strings"

	"github.com/halcyondocs/docmerge/pkg/docmerge/dom"
)

// cellTemplate is the captured snapshot of one template-row cell: its text
// verbatim, its bulk visual attributes as an opaque value, and a single
// run style sampled from the first character of its first paragraph.
// Multi-run styling within one template cell is not preserved across
// replayed rows.
type cellTemplate struct {
	text     string
	attrs    interface{}
	runStyle interface{}
}

// bindSection resolves a repeater binding: first as an array-valued
// property of the current record (nested and child collections), then as
// an array-valued property of the broader merged context (named external
// sources). Neither yielding a non-empty list is fatal, which forces
// authors to guard optional repeaters with conditionals.
func (s *mergeState) bindSection(name string, record map[string]interface{}, ctx Context) ([]map[string]interface{}, error) {
	if record != nil {
		if val, ok := record[name]; ok {
			if list, ok := asList(val); ok && len(list) > 0 {
				return list, nil
			}
		}
	}

	if val, ok := ResolvePath(ctx, name); ok {
		if list, ok := asList(val); ok && len(list) > 0 {
			return list, nil
		}
	}

	return nil, NewMissingSectionDataError(name)
}

// checkSectionSize emits the non-fatal oversized-section warning when a
// bound list exceeds the configured ceiling. Processing continues.
func (s *mergeState) checkSectionSize(name string, size int) {
	if size <= s.config.RepeaterWarnLimit {
		return
	}
	s.warn(Warning{
		Code:    WarnRepeaterSize,
		Section: name,
		Message: fmt.Sprintf("bound list has %d records, above the configured ceiling of %d", size, s.config.RepeaterWarnLimit),
	})
}

// expandTable detects and expands the repeater section of one table. A
// table with no section marker is ordinary content: no row duplication,
// only the later substitution stages apply.
func (s *mergeState) expandTable(table *dom.Node, ctx Context) error {
	rowIdx := -1
	var marker Marker
	for i, row := range table.Children {
		if m, ok := sectionMarkerIn(s.cache.RowText(row)); ok {
			rowIdx, marker = i, m
			break
		}
	}
	if rowIdx < 0 {
		return nil
	}

	records, err := s.bindSection(marker.Value, nil, ctx)
	if err != nil {
		return err
	}
	s.checkSectionSize(marker.Value, len(records))

	// Capture the template once: per-cell text, per-cell bulk attributes,
	// and the sampled run style of each cell's first paragraph.
	templateRow := table.Children[rowIdx]
	rowAttrs := templateRow.Attrs
	templates := make([]cellTemplate, len(templateRow.Children))
	for i, cell := range templateRow.Children {
		templates[i] = cellTemplate{
			text:  cell.CellText(),
			attrs: cell.Attrs,
		}
		if p := cell.FirstParagraph(); p != nil {
			templates[i].runStyle = p.RunStyle
		}
	}

	for i, record := range records {
		rowCtx := rowContext(ctx, record, i, nil)

		texts := make([]string, len(templates))
		for k, tpl := range templates {
			text := stripSectionMarkers(tpl.text, marker.Value)
			text, err := s.processRowText(text, record, rowCtx)
			if err != nil {
				return err
			}
			texts[k] = text
		}

		if i == 0 {
			// Record 0 reuses the captured row node directly, text
			// substituted in place.
			for k, cell := range templateRow.Children {
				cell.SetCellText(texts[k])
			}
			s.cache.Invalidate(templateRow)
			s.expanded[templateRow] = true
			continue
		}

		// Later records are materialized as new rows inserted after the
		// growing block, captured attributes applied before the text fill.
		row := dom.NewRow()
		row.Attrs = rowAttrs
		for k, tpl := range templates {
			cell := dom.NewCell()
			cell.Attrs = tpl.attrs
			p := dom.NewParagraph("")
			p.RunStyle = tpl.runStyle
			cell.Children = append(cell.Children, p)
			p.SetText(texts[k])
			row.Children = append(row.Children, cell)
		}
		table.InsertChild(rowIdx+i, row)
		s.expanded[row] = true
	}

	return nil
}

// processRowText finishes one replayed row's cell text: nested repeaters
// bound to the current record expand first, then inline conditionals, then
// field substitution, all against the row context. Image markers survive
// every step untouched.
func (s *mergeState) processRowText(text string, record map[string]interface{}, rowCtx Context) (string, error) {
	text, err := s.expandTextSections(text, record, rowCtx, false)
	if err != nil {
		return "", err
	}
	text, err = resolveInlineConditionals(text, rowCtx, s.config.MaxConditionalPasses, s.eval)
	if err != nil {
		return "", err
	}
	return SubstituteFields(text, rowCtx, s.types)
}

// expandTextSections expands repeater spans delimited inside one text
// blob. At the top level (body paragraphs) both marker syntaxes bind
// against the merged context and a missing binding is fatal. Inside a
// replayed row only {{#Name}} spans naming an array-valued property of the
// current record expand; everything else is left for the outer scope.
func (s *mergeState) expandTextSections(text string, record map[string]interface{}, ctx Context, topLevel bool) (string, error) {
	for {
		open, closer, found := nextSectionSpan(text, record, topLevel)
		if !found {
			return text, nil
		}

		records, err := s.bindSection(open.Value, record, ctx)
		if err != nil {
			return "", err
		}
		s.checkSectionSize(open.Value, len(records))

		inner := text[open.End:closer.Start]
		var parentRowNum interface{}
		if !topLevel {
			parentRowNum = ctx[VarRowNum]
		}

		var out strings.Builder
		for i, rec := range records {
			rowCtx := rowContext(ctx, rec, i, parentRowNum)

			seg, err := s.expandTextSections(inner, rec, rowCtx, false)
			if err != nil {
				return "", err
			}
			seg, err = resolveInlineConditionals(seg, rowCtx, s.config.MaxConditionalPasses, s.eval)
			if err != nil {
				return "", err
			}
			seg, err = SubstituteFields(seg, rowCtx, s.types)
			if err != nil {
				return "", err
			}
			out.WriteString(seg)
		}

		text = text[:open.Start] + out.String() + text[closer.End:]
	}
}

// nextSectionSpan locates the first expandable repeater span in text: an
// open marker and its matching closer, depth-counted for same-name
// nesting.
func nextSectionSpan(text string, record map[string]interface{}, topLevel bool) (open, closer Marker, found bool) {
	markers := ScanMarkers(text)

	for i, m := range markers {
		var endType MarkerType
		switch m.Type {
		case MarkerSection:
			endType = MarkerSectionEnd
		case MarkerSource:
			endType = MarkerSourceEnd
		default:
			continue
		}

		if !topLevel {
			// Nested expansion only applies to the current record's own
			// collections, never the outer scope.
			if m.Type != MarkerSection || record == nil {
				continue
			}
			if _, ok := record[m.Value]; !ok {
				continue
			}
		}

		depth := 1
		for j := i + 1; j < len(markers); j++ {
			switch {
			case markers[j].Type == m.Type && markers[j].Value == m.Value:
				depth++
			case markers[j].Type == endType && markers[j].Value == m.Value:
				depth--
				if depth == 0 {
					return m, markers[j], true
				}
			}
		}
		// No closer in this blob; not an expandable span here.
	}

	return Marker{}, Marker{}, false
}

// stripSectionMarkers removes a section's own open and close markers from
// a cell's text, leaving the template content between them.
func stripSectionMarkers(text, name string) string {
	markers := ScanMarkers(text)
	var b strings.Builder
	last := 0
	for _, m := range markers {
		switch m.Type {
		case MarkerSection, MarkerSectionEnd, MarkerSource, MarkerSourceEnd:
			if m.Value != name {
				continue
			}
			b.WriteString(text[last:m.Start])
			last = m.End
		}
	}
	b.WriteString(text[last:])
	return b.String()
}
