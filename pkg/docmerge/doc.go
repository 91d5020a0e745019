// Package docmerge merges structured record data into document trees.
//
// Docmerge takes a document template represented as a tree of body,
// paragraph, table, row, and cell nodes, plus a merged data context, and
// rewrites the tree in place: conditionals decide what survives, repeater
// sections replay table rows and text spans per record, and field markers
// are replaced with resolved, formatted values.
//
// # Quick Start
//
// The simplest way to use docmerge is through the package-level Merge:
//
//	doc, err := dom.ReadDocument(file)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	ctx := docmerge.NewContext(record, system, sources)
//
//	result, err := docmerge.Merge(doc, ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, w := range result.Warnings {
//	    log.Println(w)
//	}
//
// # Marker Syntax
//
// All markers use double curly braces {{}}:
//
// Fields:
//
//	{{Name}}                         - Simple field
//	{{ORG.Phone}}                    - Dotted path into nested maps
//	{{Total:currency}}               - Explicit format
//	{{ORG.Phone ?? 'None on file'}}  - Default for unresolved fields
//
// Conditionals:
//
//	{{IF Balance > 0}}...{{/IF}}                    - Conditional
//	{{IF x}}...{{ELSE}}...{{/IF}}                   - If-else
//	{{IF x}}...{{ELSEIF y}}...{{ELSE}}...{{/IF}}    - Chains
//
// A conditional marker that is the entire text of a paragraph removes or
// keeps whole nodes; a marker embedded in surrounding text keeps or drops
// the enclosed text span.
//
// Repeaters:
//
//	{{#LineItems}}...{{/LineItems}}   - Record collection
//	{{@Transactions}}...{{/@Transactions}} - Named external source
//
// Inside a repeated region the variables ROW_NUM, ROW_INDEX, and (for
// nested sections) PARENT_ROW_NUM are available.
//
// Document Operations:
//
//	{{PAGEBREAK}}   - Insert a page break
//
// # Error Policy
//
// Condition expressions fail soft: a broken condition evaluates to false
// and records a warning. Fields fail hard: an unresolved field without a
// default aborts the merge with an UnresolvedFieldError. Repeaters with no
// bound data abort with a MissingSectionDataError, and a repeater marker
// that survives expansion, such as an opener and closer in different
// paragraphs, aborts with an UnterminatedSectionError.
package docmerge
