package docmerge

import (
	"reflect"
	"testing"
)

func TestScanMarkers(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []Marker
	}{
		{
			name: "field marker",
			text: "Hello {{Name}}!",
			want: []Marker{
				{Type: MarkerField, Value: "Name", Start: 6, End: 14},
			},
		},
		{
			name: "field with format and default",
			text: "{{ORG.Phone:phone ?? 'None'}}",
			want: []Marker{
				{Type: MarkerField, Value: "ORG.Phone:phone ?? 'None'", Start: 0, End: 29},
			},
		},
		{
			name: "conditional markers",
			text: "{{IF Balance > 0}}x{{ELSEIF Closed}}y{{ELSE}}z{{/IF}}",
			want: []Marker{
				{Type: MarkerIf, Value: "Balance > 0", Start: 0, End: 18},
				{Type: MarkerElseIf, Value: "Closed", Start: 19, End: 36},
				{Type: MarkerElse, Start: 37, End: 45},
				{Type: MarkerEndIf, Start: 46, End: 53},
			},
		},
		{
			name: "section markers",
			text: "{{#LineItems}}{{Desc}}{{/LineItems}}",
			want: []Marker{
				{Type: MarkerSection, Value: "LineItems", Start: 0, End: 14},
				{Type: MarkerField, Value: "Desc", Start: 14, End: 22},
				{Type: MarkerSectionEnd, Value: "LineItems", Start: 22, End: 36},
			},
		},
		{
			name: "source markers",
			text: "{{@Transactions}}{{/@Transactions}}",
			want: []Marker{
				{Type: MarkerSource, Value: "Transactions", Start: 0, End: 17},
				{Type: MarkerSourceEnd, Value: "Transactions", Start: 17, End: 35},
			},
		},
		{
			name: "page break",
			text: "{{PAGEBREAK}}",
			want: []Marker{
				{Type: MarkerPageBreak, Start: 0, End: 13},
			},
		},
		{
			name: "keywords are case-insensitive",
			text: "{{if x}}{{elsif y}}{{else}}{{/if}}",
			want: []Marker{
				{Type: MarkerIf, Value: "x", Start: 0, End: 8},
				{Type: MarkerElseIf, Value: "y", Start: 8, End: 19},
				{Type: MarkerElse, Start: 19, End: 27},
				{Type: MarkerEndIf, Start: 27, End: 34},
			},
		},
		{
			name: "whitespace inside braces is trimmed",
			text: "{{ Name }}",
			want: []Marker{
				{Type: MarkerField, Value: "Name", Start: 0, End: 10},
			},
		},
		{
			name: "no markers",
			text: "plain text",
			want: nil,
		},
		{
			name: "empty marker is skipped",
			text: "{{}}",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScanMarkers(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ScanMarkers(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestContainsMarker(t *testing.T) {
	if containsMarker("no markers here") {
		t.Error("plain text should not report markers")
	}
	if !containsMarker("a {{Field}} b") {
		t.Error("marker not detected")
	}
}

func TestSectionMarkerIn(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		wantValue string
		wantFound bool
	}{
		{"record section", "{{#LineItems}}{{Desc}}{{/LineItems}}", "LineItems", true},
		{"named source", "{{@Transactions}}...{{/@Transactions}}", "Transactions", true},
		{"conditionals are not sections", "{{IF x}}a{{/IF}}", "", false},
		{"fields are not sections", "{{Name}}", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, found := sectionMarkerIn(tt.text)
			if found != tt.wantFound {
				t.Fatalf("sectionMarkerIn(%q) found = %v, want %v", tt.text, found, tt.wantFound)
			}
			if found && m.Value != tt.wantValue {
				t.Errorf("sectionMarkerIn(%q) = %q, want %q", tt.text, m.Value, tt.wantValue)
			}
		})
	}
}
