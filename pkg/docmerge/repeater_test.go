package docmerge

import (
	"testing"

	"github.com/halcyondocs/docmerge/pkg/docmerge/dom"
)

func testState(cfg *Config) *mergeState {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return newMergeState(cfg, nil, GetLogger())
}

func lineItemsTable() *dom.Node {
	return dom.NewTable(
		dom.NewRow(
			dom.NewCell(dom.NewParagraph("Description")),
			dom.NewCell(dom.NewParagraph("Amount")),
		),
		dom.NewRow(
			dom.NewCell(dom.NewParagraph("{{#LineItems}}{{ROW_NUM}}. {{Desc}}")),
			dom.NewCell(dom.NewParagraph("{{Amount:currency}}{{/LineItems}}")),
		),
	)
}

func TestExpandTable(t *testing.T) {
	table := lineItemsTable()
	ctx := Context{
		"LineItems": []map[string]interface{}{
			{"Desc": "Widget", "Amount": 19.99},
			{"Desc": "Gadget", "Amount": 5.0},
			{"Desc": "Gizmo", "Amount": 1250.0},
		},
	}

	s := testState(nil)
	if err := s.expandTable(table, ctx); err != nil {
		t.Fatalf("expandTable() error = %v", err)
	}

	if len(table.Children) != 4 {
		t.Fatalf("table has %d rows, want 4 (header + 3 records)", len(table.Children))
	}

	wantCells := [][2]string{
		{"1. Widget", "$19.99"},
		{"2. Gadget", "$5.00"},
		{"3. Gizmo", "$1,250.00"},
	}
	for i, want := range wantCells {
		row := table.Children[i+1]
		if got := row.Children[0].CellText(); got != want[0] {
			t.Errorf("row %d cell 0 = %q, want %q", i+1, got, want[0])
		}
		if got := row.Children[1].CellText(); got != want[1] {
			t.Errorf("row %d cell 1 = %q, want %q", i+1, got, want[1])
		}
		if !s.expanded[row] {
			t.Errorf("row %d not marked as expanded", i+1)
		}
	}
}

func TestExpandTableReusesTemplateRow(t *testing.T) {
	table := lineItemsTable()
	template := table.Children[1]
	template.Attrs = "row-attrs"
	template.Children[0].Attrs = "cell-attrs"
	template.Children[0].Children[0].RunStyle = "run-style"

	ctx := Context{
		"LineItems": []map[string]interface{}{
			{"Desc": "A", "Amount": 1},
			{"Desc": "B", "Amount": 2},
		},
	}

	s := testState(nil)
	if err := s.expandTable(table, ctx); err != nil {
		t.Fatal(err)
	}

	if table.Children[1] != template {
		t.Error("record 0 should reuse the template row node")
	}

	inserted := table.Children[2]
	if inserted.Attrs != "row-attrs" {
		t.Errorf("inserted row attrs = %v, want captured template attrs", inserted.Attrs)
	}
	if inserted.Children[0].Attrs != "cell-attrs" {
		t.Errorf("inserted cell attrs = %v", inserted.Children[0].Attrs)
	}
	if inserted.Children[0].Children[0].RunStyle != "run-style" {
		t.Errorf("inserted run style = %v", inserted.Children[0].Children[0].RunStyle)
	}
}

func TestExpandTableNamedSource(t *testing.T) {
	table := dom.NewTable(
		dom.NewRow(
			dom.NewCell(dom.NewParagraph("{{@Transactions}}{{Ref}}{{/@Transactions}}")),
		),
	)
	ctx := Context{
		"Transactions": []map[string]interface{}{
			{"Ref": "T-1"},
			{"Ref": "T-2"},
		},
	}

	s := testState(nil)
	if err := s.expandTable(table, ctx); err != nil {
		t.Fatal(err)
	}
	if len(table.Children) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Children))
	}
	if got := table.Children[0].RowText(); got != "T-1" {
		t.Errorf("row 0 = %q", got)
	}
	if got := table.Children[1].RowText(); got != "T-2" {
		t.Errorf("row 1 = %q", got)
	}
}

func TestExpandTableMissingData(t *testing.T) {
	tests := []struct {
		name string
		ctx  Context
	}{
		{"absent collection", Context{}},
		{"empty list", Context{"LineItems": []map[string]interface{}{}}},
		{"not a list", Context{"LineItems": "oops"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := testState(nil)
			err := s.expandTable(lineItemsTable(), tt.ctx)
			if err == nil {
				t.Fatal("expected MissingSectionDataError")
			}
			if !IsMissingSectionDataError(err) {
				t.Fatalf("got %T", err)
			}
			msde := err.(*MissingSectionDataError)
			if msde.Section != "LineItems" {
				t.Errorf("error names section %q, want LineItems", msde.Section)
			}
		})
	}
}

func TestExpandTableNonRepeater(t *testing.T) {
	table := dom.NewTable(
		dom.NewRow(dom.NewCell(dom.NewParagraph("{{Name}}"))),
	)

	s := testState(nil)
	if err := s.expandTable(table, Context{"Name": "Acme"}); err != nil {
		t.Fatal(err)
	}
	// No section marker: the table is untouched and later stages own it.
	if got := table.Children[0].RowText(); got != "{{Name}}" {
		t.Errorf("row = %q, want the marker left for field substitution", got)
	}
	if len(s.expanded) != 0 {
		t.Error("no rows should be marked expanded")
	}
}

func TestExpandTableOversizedWarning(t *testing.T) {
	records := make([]map[string]interface{}, 5)
	for i := range records {
		records[i] = map[string]interface{}{"Desc": "x", "Amount": i}
	}

	cfg := DefaultConfig()
	cfg.RepeaterWarnLimit = 3
	s := testState(cfg)

	if err := s.expandTable(lineItemsTable(), Context{"LineItems": records}); err != nil {
		t.Fatal(err)
	}
	if len(s.warnings) != 1 {
		t.Fatalf("got %d warnings, want 1", len(s.warnings))
	}
	w := s.warnings[0]
	if w.Code != WarnRepeaterSize || w.Section != "LineItems" {
		t.Errorf("warning = %+v", w)
	}
}

func TestExpandTableNestedSections(t *testing.T) {
	table := dom.NewTable(
		dom.NewRow(
			dom.NewCell(dom.NewParagraph("{{#Orders}}Order {{ROW_NUM}}: {{#Lines}}[{{PARENT_ROW_NUM}}.{{ROW_NUM}} {{Sku}}]{{/Lines}}{{/Orders}}")),
		),
	)
	ctx := Context{
		"Orders": []map[string]interface{}{
			{
				"Lines": []interface{}{
					map[string]interface{}{"Sku": "A"},
					map[string]interface{}{"Sku": "B"},
				},
			},
			{
				"Lines": []interface{}{
					map[string]interface{}{"Sku": "C"},
				},
			},
		},
	}

	s := testState(nil)
	if err := s.expandTable(table, ctx); err != nil {
		t.Fatal(err)
	}
	if len(table.Children) != 2 {
		t.Fatalf("got %d rows, want 2", len(table.Children))
	}
	if got := table.Children[0].RowText(); got != "Order 1: [1.1 A][1.2 B]" {
		t.Errorf("row 0 = %q", got)
	}
	if got := table.Children[1].RowText(); got != "Order 2: [2.1 C]" {
		t.Errorf("row 1 = %q", got)
	}
}

func TestExpandTableInlineConditionalInRow(t *testing.T) {
	table := dom.NewTable(
		dom.NewRow(
			dom.NewCell(dom.NewParagraph("{{#Items}}{{Name}}{{IF Qty > 1}} x{{Qty}}{{/IF}}{{/Items}}")),
		),
	)
	ctx := Context{
		"Items": []map[string]interface{}{
			{"Name": "Widget", "Qty": 3},
			{"Name": "Gadget", "Qty": 1},
		},
	}

	s := testState(nil)
	if err := s.expandTable(table, ctx); err != nil {
		t.Fatal(err)
	}
	if got := table.Children[0].RowText(); got != "Widget x3" {
		t.Errorf("row 0 = %q", got)
	}
	if got := table.Children[1].RowText(); got != "Gadget" {
		t.Errorf("row 1 = %q", got)
	}
}

func TestExpandTableLeavesImageMarkers(t *testing.T) {
	table := dom.NewTable(
		dom.NewRow(dom.NewCell(dom.NewParagraph("{{#Items}}{{Photo:image}} {{Name}}{{/Items}}"))),
	)
	ctx := Context{
		"Items": []map[string]interface{}{{"Name": "Widget", "Photo": "ref"}},
	}

	s := testState(nil)
	if err := s.expandTable(table, ctx); err != nil {
		t.Fatal(err)
	}
	if got := table.Children[0].RowText(); got != "{{Photo:image}} Widget" {
		t.Errorf("row = %q, want image marker untouched", got)
	}
}

func TestExpandTextSectionsTopLevel(t *testing.T) {
	ctx := Context{
		"Guests": []map[string]interface{}{
			{"Name": "Ana"},
			{"Name": "Ben"},
		},
	}

	s := testState(nil)
	got, err := s.expandTextSections("Guests: {{#Guests}}{{ROW_NUM}}-{{Name}} {{/Guests}}done", nil, ctx, true)
	if err != nil {
		t.Fatal(err)
	}
	want := "Guests: 1-Ana 2-Ben done"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestExpandTextSectionsTopLevelMissingIsFatal(t *testing.T) {
	s := testState(nil)
	_, err := s.expandTextSections("{{#Nope}}x{{/Nope}}", nil, Context{}, true)
	if !IsMissingSectionDataError(err) {
		t.Fatalf("got %v, want MissingSectionDataError", err)
	}
}

func TestStripSectionMarkers(t *testing.T) {
	got := stripSectionMarkers("{{#Items}}{{Name}}{{/Items}}", "Items")
	if got != "{{Name}}" {
		t.Errorf("got %q", got)
	}
	// Markers of other sections survive.
	got = stripSectionMarkers("{{#Items}}{{#Lines}}x{{/Lines}}{{/Items}}", "Items")
	if got != "{{#Lines}}x{{/Lines}}" {
		t.Errorf("got %q", got)
	}
}
