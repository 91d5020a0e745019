package docmerge

import (
	"testing"
)

func TestResolveInlineConditionals(t *testing.T) {
	ctx := Context{
		"Premium": true,
		"Basic":   false,
		"Tier":    "gold",
		"Count":   3,
	}

	tests := []struct {
		name string
		text string
		want string
	}{
		{
			name: "true keeps branch and surrounding text",
			text: "Plan: {{IF Premium}}Premium{{/IF}} member",
			want: "Plan: Premium member",
		},
		{
			name: "false removes span entirely",
			text: "Plan: {{IF Basic}}Basic{{/IF}} member",
			want: "Plan:  member",
		},
		{
			name: "else branch",
			text: "{{IF Basic}}Basic{{ELSE}}Standard{{/IF}}",
			want: "Standard",
		},
		{
			name: "elseif chain picks first true",
			text: "{{IF Basic}}a{{ELSEIF Tier == 'gold'}}b{{ELSE}}c{{/IF}}",
			want: "b",
		},
		{
			name: "no branch true and no else yields empty",
			text: "x{{IF Basic}}a{{ELSEIF Count > 5}}b{{/IF}}y",
			want: "xy",
		},
		{
			name: "nested resolves innermost first",
			text: "{{IF Premium}}A{{IF Count > 1}}B{{/IF}}C{{/IF}}",
			want: "ABC",
		},
		{
			name: "nested false inside true",
			text: "{{IF Premium}}A{{IF Basic}}B{{/IF}}C{{/IF}}",
			want: "AC",
		},
		{
			name: "outer false drops nested entirely",
			text: "{{IF Basic}}A{{IF Premium}}B{{/IF}}C{{/IF}}",
			want: "",
		},
		{
			name: "sequential spans",
			text: "{{IF Premium}}1{{/IF}}-{{IF Basic}}2{{/IF}}-{{IF Premium}}3{{/IF}}",
			want: "1--3",
		},
		{
			name: "field markers inside kept branch survive",
			text: "{{IF Premium}}Hello {{Name}}{{/IF}}",
			want: "Hello {{Name}}",
		},
		{
			name: "malformed condition drops branch",
			text: "a{{IF Count >}}b{{/IF}}c",
			want: "ac",
		},
		{
			name: "stray closer is left alone",
			text: "a{{/IF}}b",
			want: "a{{/IF}}b",
		},
		{
			name: "unclosed opener is left alone",
			text: "a{{IF Premium}}b",
			want: "a{{IF Premium}}b",
		},
		{
			name: "no conditionals",
			text: "plain {{Name}} text",
			want: "plain {{Name}} text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveInlineConditionals(tt.text, ctx, 20)
			if err != nil {
				t.Fatalf("ResolveInlineConditionals(%q) error = %v", tt.text, err)
			}
			if got != tt.want {
				t.Errorf("ResolveInlineConditionals(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestResolveInlineConditionalsIterationLimit(t *testing.T) {
	// Three spans but a cap of two passes.
	text := "{{IF A}}1{{/IF}}{{IF A}}2{{/IF}}{{IF A}}3{{/IF}}"
	_, err := ResolveInlineConditionals(text, Context{"A": true}, 2)
	if err == nil {
		t.Fatal("expected iteration limit error")
	}
	if !IsIterationLimitError(err) {
		t.Errorf("got %T, want IterationLimitError", err)
	}
}

func TestResolveInlineConditionalsSplicePreservesBounds(t *testing.T) {
	ctx := Context{"Show": true}
	text := "prefix {{IF Show}}middle{{/IF}} suffix"
	got, err := ResolveInlineConditionals(text, ctx, 20)
	if err != nil {
		t.Fatal(err)
	}
	if got != "prefix middle suffix" {
		t.Errorf("got %q", got)
	}
}
