package docmerge

import (
	"strings"
)

// Context is the combined data mapping a merge operation evaluates fields
// and conditions against. Values may be scalars, nested mappings
// (related-record access via dot notation), or ordered lists of mappings
// (collections bound to repeaters). It is built once per merge and never
// mutated; repeater expansion derives row contexts instead.
type Context map[string]interface{}

// Repeater-scoped variables added to each row context.
const (
	VarRowNum       = "ROW_NUM"
	VarRowIndex     = "ROW_INDEX"
	VarParentRowNum = "PARENT_ROW_NUM"
)

// NewContext builds a merge context by shallow-merging record fields,
// system variables, and named external collections, in that order.
// Later maps win on key collisions.
func NewContext(record map[string]interface{}, system map[string]interface{}, sources map[string]interface{}) Context {
	ctx := make(Context, len(record)+len(system)+len(sources))
	for k, v := range record {
		ctx[k] = v
	}
	for k, v := range system {
		ctx[k] = v
	}
	for k, v := range sources {
		ctx[k] = v
	}
	return ctx
}

// rowContext derives a repeater row context: the outer context, overlaid
// with the record's own fields and the positional variables. The outer
// context is not mutated.
func rowContext(outer Context, record map[string]interface{}, index int, parentRowNum interface{}) Context {
	ctx := make(Context, len(outer)+len(record)+3)
	for k, v := range outer {
		ctx[k] = v
	}
	for k, v := range record {
		ctx[k] = v
	}
	ctx[VarRowNum] = index + 1
	ctx[VarRowIndex] = index
	if parentRowNum != nil {
		ctx[VarParentRowNum] = parentRowNum
	}
	return ctx
}

// ResolvePath walks a dot-separated path through the context. The boolean
// result distinguishes "unresolved" (a missing key, or a null or
// non-traversable intermediate) from a present value that happens to be
// nil or the empty string. The walk is total and side-effect free.
func ResolvePath(ctx Context, path string) (interface{}, bool) {
	if path == "" {
		return nil, false
	}

	parts := strings.Split(path, ".")
	var current interface{} = map[string]interface{}(ctx)

	for i, part := range parts {
		m, ok := asMap(current)
		if !ok {
			return nil, false
		}
		val, present := m[part]
		if !present {
			return nil, false
		}
		if i < len(parts)-1 && val == nil {
			return nil, false
		}
		current = val
	}

	return current, true
}

// asMap normalizes the map shapes that appear in merge data.
func asMap(v interface{}) (map[string]interface{}, bool) {
	switch m := v.(type) {
	case Context:
		return m, true
	case map[string]interface{}:
		return m, true
	case map[string]string:
		out := make(map[string]interface{}, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// asList normalizes a value to an ordered list of records, the only shape
// a repeater may bind to.
func asList(v interface{}) ([]map[string]interface{}, bool) {
	switch list := v.(type) {
	case []map[string]interface{}:
		return list, true
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(list))
		for _, item := range list {
			m, ok := asMap(item)
			if !ok {
				return nil, false
			}
			out = append(out, m)
		}
		return out, true
	default:
		return nil, false
	}
}
