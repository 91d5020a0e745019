package dom

import (
	"encoding/json"
	"fmt"
	"io"
)

// nodeJSON is the serialized shape of a Node. Attrs and RunStyle survive a
// round trip as raw JSON so the engine can replay them without
// interpreting their contents.
type nodeJSON struct {
	Kind     string          `json:"kind"`
	Text     string          `json:"text,omitempty"`
	Attrs    json.RawMessage `json:"attrs,omitempty"`
	RunStyle json.RawMessage `json:"runStyle,omitempty"`
	Children []*Node         `json:"children,omitempty"`
}

var kindNames = map[Kind]string{
	KindBody:      "body",
	KindParagraph: "paragraph",
	KindTable:     "table",
	KindRow:       "row",
	KindCell:      "cell",
	KindPageBreak: "pagebreak",
}

var kindValues = map[string]Kind{
	"body":      KindBody,
	"paragraph": KindParagraph,
	"table":     KindTable,
	"row":       KindRow,
	"cell":      KindCell,
	"pagebreak": KindPageBreak,
}

func (n *Node) MarshalJSON() ([]byte, error) {
	j := nodeJSON{
		Kind:     kindNames[n.Kind],
		Text:     n.Text,
		Children: n.Children,
	}
	if n.Attrs != nil {
		raw, err := toRaw(n.Attrs)
		if err != nil {
			return nil, fmt.Errorf("marshal attrs: %w", err)
		}
		j.Attrs = raw
	}
	if n.RunStyle != nil {
		raw, err := toRaw(n.RunStyle)
		if err != nil {
			return nil, fmt.Errorf("marshal run style: %w", err)
		}
		j.RunStyle = raw
	}
	return json.Marshal(j)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var j nodeJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	kind, ok := kindValues[j.Kind]
	if !ok {
		return fmt.Errorf("unknown node kind %q", j.Kind)
	}
	n.Kind = kind
	n.Text = j.Text
	n.Children = j.Children
	if len(j.Attrs) > 0 {
		n.Attrs = json.RawMessage(j.Attrs)
	}
	if len(j.RunStyle) > 0 {
		n.RunStyle = json.RawMessage(j.RunStyle)
	}
	return nil
}

func toRaw(v interface{}) (json.RawMessage, error) {
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	return json.Marshal(v)
}

// ReadDocument decodes a document body from JSON.
func ReadDocument(r io.Reader) (*Node, error) {
	var body Node
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	if body.Kind != KindBody {
		return nil, fmt.Errorf("document root must be a body node, got %s", body.Kind)
	}
	return &body, nil
}

// WriteDocument encodes a document body as indented JSON.
func WriteDocument(w io.Writer, body *Node) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(body); err != nil {
		return fmt.Errorf("encode document: %w", err)
	}
	return nil
}
