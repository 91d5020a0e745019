package docmerge

import "strings"

// FieldSpec is one parsed field marker: `path[:format] [?? 'default']`.
// Specs are parsed per occurrence, not cached.
type FieldSpec struct {
	Path    string
	Format  string
	Default *string
}

// ParseFieldSpec parses the content of a field marker. The default
// literal, when present, is unquoted here and later used verbatim.
func ParseFieldSpec(raw string) FieldSpec {
	spec := FieldSpec{}
	rest := strings.TrimSpace(raw)

	if idx := strings.Index(rest, "??"); idx >= 0 {
		def := unquote(strings.TrimSpace(rest[idx+2:]))
		spec.Default = &def
		rest = strings.TrimSpace(rest[:idx])
	}

	if idx := strings.Index(rest, ":"); idx >= 0 {
		spec.Format = strings.TrimSpace(rest[idx+1:])
		rest = strings.TrimSpace(rest[:idx])
	}

	spec.Path = rest
	return spec
}

func unquote(s string) string {
	if len(s) >= 2 {
		if (s[0] == '\'' && s[len(s)-1] == '\'') || (s[0] == '"' && s[len(s)-1] == '"') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

// Resolve renders the field against the context. A field is either
// resolved (value or default) or the whole merge fails: unresolved with no
// default is a fatal UnresolvedFieldError naming the exact path. The
// default literal is used verbatim; no format directive applies to it.
func (spec FieldSpec) Resolve(ctx Context, types TypeTable) (string, error) {
	val, ok := ResolvePath(ctx, spec.Path)
	if !ok || val == nil {
		if spec.Default != nil {
			return *spec.Default, nil
		}
		return "", NewUnresolvedFieldError(spec.Path)
	}

	format := spec.Format
	if format == "" {
		if implicit, found := types.Lookup(spec.Path); found {
			format = implicit
		}
	}
	return FormatField(val, format), nil
}

// isImage reports whether the spec references an image field, either by
// explicit format or through the type table. Image markers are left
// untouched for the deferred image pass.
func (spec FieldSpec) isImage(types TypeTable) bool {
	if strings.EqualFold(spec.Format, FormatImage) {
		return true
	}
	if spec.Format == "" {
		if implicit, ok := types.Lookup(spec.Path); ok {
			return strings.EqualFold(implicit, FormatImage)
		}
	}
	return false
}

// SubstituteFields replaces every field marker in a text blob with its
// resolved, formatted value. Markers of other types, and image fields, are
// left in place. Running it over marker-free text is a no-op.
func SubstituteFields(text string, ctx Context, types TypeTable) (string, error) {
	if !containsMarker(text) {
		return text, nil
	}

	markers := ScanMarkers(text)
	if len(markers) == 0 {
		return text, nil
	}

	var b strings.Builder
	last := 0
	for _, m := range markers {
		if m.Type != MarkerField {
			continue
		}
		spec := ParseFieldSpec(m.Value)
		if spec.isImage(types) {
			continue
		}
		value, err := spec.Resolve(ctx, types)
		if err != nil {
			return "", err
		}
		b.WriteString(text[last:m.Start])
		b.WriteString(value)
		last = m.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}
