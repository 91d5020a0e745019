package docmerge

import (
	"regexp"
	"strings"
)

// MarkerType represents the type of a template marker.
type MarkerType int

const (
	MarkerField MarkerType = iota
	MarkerIf
	MarkerElseIf
	MarkerElse
	MarkerEndIf
	MarkerSection    // {{#Name}} repeater over a record's own collection
	MarkerSectionEnd // {{/Name}}
	MarkerSource     // {{@Alias}} repeater over an external named source
	MarkerSourceEnd  // {{/@Alias}}
	MarkerPageBreak
)

func (t MarkerType) String() string {
	switch t {
	case MarkerField:
		return "field"
	case MarkerIf:
		return "if"
	case MarkerElseIf:
		return "elseif"
	case MarkerElse:
		return "else"
	case MarkerEndIf:
		return "endif"
	case MarkerSection:
		return "section"
	case MarkerSectionEnd:
		return "section-end"
	case MarkerSource:
		return "source"
	case MarkerSourceEnd:
		return "source-end"
	case MarkerPageBreak:
		return "pagebreak"
	default:
		return "unknown"
	}
}

// Marker is one {{...}} occurrence in a text blob. Start and End are the
// byte bounds of the whole marker span, including the braces, so selected
// content can be spliced back at exact positions.
type Marker struct {
	Type  MarkerType
	Value string
	Start int
	End   int
}

// Regular expression to match template markers.
var markerRegex = regexp.MustCompile(`\{\{([^{}]*)\}\}`)

// ScanMarkers finds every template marker in a text blob, in order.
func ScanMarkers(text string) []Marker {
	var markers []Marker

	matches := markerRegex.FindAllStringSubmatchIndex(text, -1)
	for _, match := range matches {
		content := strings.TrimSpace(text[match[2]:match[3]])
		if content == "" {
			continue
		}
		m := classifyMarker(content)
		m.Start = match[0]
		m.End = match[1]
		markers = append(markers, m)
	}

	return markers
}

// classifyMarker determines the type of marker from its trimmed content.
// Conditional keywords are recognized case-insensitively; section and
// source names keep their exact spelling.
func classifyMarker(content string) Marker {
	upper := strings.ToUpper(content)

	switch {
	case upper == "/IF":
		return Marker{Type: MarkerEndIf}
	case upper == "ELSE":
		return Marker{Type: MarkerElse}
	case upper == "PAGEBREAK":
		return Marker{Type: MarkerPageBreak}
	case strings.HasPrefix(upper, "IF "):
		return Marker{Type: MarkerIf, Value: strings.TrimSpace(content[3:])}
	case strings.HasPrefix(upper, "ELSEIF "):
		return Marker{Type: MarkerElseIf, Value: strings.TrimSpace(content[7:])}
	case strings.HasPrefix(upper, "ELSIF "):
		return Marker{Type: MarkerElseIf, Value: strings.TrimSpace(content[6:])}
	case strings.HasPrefix(content, "/@"):
		return Marker{Type: MarkerSourceEnd, Value: strings.TrimSpace(content[2:])}
	case strings.HasPrefix(content, "@"):
		return Marker{Type: MarkerSource, Value: strings.TrimSpace(content[1:])}
	case strings.HasPrefix(content, "#"):
		return Marker{Type: MarkerSection, Value: strings.TrimSpace(content[1:])}
	case strings.HasPrefix(content, "/"):
		return Marker{Type: MarkerSectionEnd, Value: strings.TrimSpace(content[1:])}
	default:
		return Marker{Type: MarkerField, Value: content}
	}
}

// containsMarker reports whether text holds any template marker at all.
func containsMarker(text string) bool {
	for i := 0; i+1 < len(text); i++ {
		if text[i] == '{' && text[i+1] == '{' {
			return true
		}
	}
	return false
}

// sectionMarkerIn returns the first repeater marker in text, if any.
// Conditional markers are explicitly excluded from this scan.
func sectionMarkerIn(text string) (Marker, bool) {
	for _, m := range ScanMarkers(text) {
		if m.Type == MarkerSection || m.Type == MarkerSource {
			return m, true
		}
	}
	return Marker{}, false
}
