package docmerge

// condEvalFunc evaluates a condition against a context. The merge driver
// injects a wrapper that records recovered expression errors as warnings.
type condEvalFunc func(expr string, ctx Context) bool

// branch is one arm of a conditional block: a condition, or nil for the
// trailing else, and the byte bounds of its content within the blob.
type branch struct {
	condition *string
	start     int
	end       int
}

// ResolveInlineConditionals resolves nested IF/ELSEIF/ELSE/ENDIF markers
// occurring anywhere within one text blob. It repeatedly locates the
// innermost complete IF…ENDIF span and splices the selected branch's
// content back at exact bounds, so surrounding text is preserved
// unchanged. Exceeding maxPasses is a fatal IterationLimitError.
func ResolveInlineConditionals(text string, ctx Context, maxPasses int) (string, error) {
	return resolveInlineConditionals(text, ctx, maxPasses, EvaluateCondition)
}

func resolveInlineConditionals(text string, ctx Context, maxPasses int, eval condEvalFunc) (string, error) {
	for pass := 0; ; pass++ {
		markers := ScanMarkers(text)
		open, closeIdx, found := innermostSpan(markers)
		if !found {
			return text, nil
		}
		if pass >= maxPasses {
			return "", NewIterationLimitError(maxPasses)
		}

		replacement := selectBranch(text, markers, open, closeIdx, ctx, eval)
		text = text[:markers[open].Start] + replacement + text[markers[closeIdx].End:]
	}
}

// innermostSpan finds the first complete IF…ENDIF span: the leftmost ENDIF
// paired with the nearest preceding unmatched IF. By construction its body
// holds no nested unresolved IF. Stray closers with no opener are skipped.
func innermostSpan(markers []Marker) (open, closeIdx int, found bool) {
	openStack := make([]int, 0, 4)
	for i, m := range markers {
		switch m.Type {
		case MarkerIf:
			openStack = append(openStack, i)
		case MarkerEndIf:
			if len(openStack) == 0 {
				continue
			}
			return openStack[len(openStack)-1], i, true
		}
	}
	return 0, 0, false
}

// selectBranch evaluates the branches of the span markers[open..closeIdx]
// and returns the content of the first true branch, the trailing else if
// no condition holds, or the empty string when there is neither.
func selectBranch(text string, markers []Marker, open, closeIdx int, ctx Context, eval condEvalFunc) string {
	ifCond := markers[open].Value
	branches := []branch{{condition: &ifCond, start: markers[open].End}}

	for i := open + 1; i < closeIdx; i++ {
		switch markers[i].Type {
		case MarkerElseIf:
			branches[len(branches)-1].end = markers[i].Start
			cond := markers[i].Value
			branches = append(branches, branch{condition: &cond, start: markers[i].End})
		case MarkerElse:
			branches[len(branches)-1].end = markers[i].Start
			branches = append(branches, branch{start: markers[i].End})
		}
	}
	branches[len(branches)-1].end = markers[closeIdx].Start

	for _, b := range branches {
		if b.condition == nil || eval(*b.condition, ctx) {
			return text[b.start:b.end]
		}
	}
	return ""
}
