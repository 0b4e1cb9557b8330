package session

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Format is a read-time rendering choice; the store keeps one canonical
// representation and renders either form on demand.
type Format string

const (
	// FormatJSON is the unabridged structured form.
	FormatJSON Format = "json"
	// FormatCompact is the column-oriented form sent to the LLM: one schema
	// header, then one delimited row per turn. Rows sharing a single header
	// cost far fewer tokens than repeating keys per record.
	FormatCompact Format = "compact"
)

// Render renders the turns in the requested format.
func Render(turns []Turn, format Format) (string, error) {
	switch format {
	case FormatJSON:
		return renderJSON(turns)
	case FormatCompact:
		return RenderCompact(turns), nil
	default:
		return "", fmt.Errorf("unknown history format %q", format)
	}
}

func renderJSON(turns []Turn) (string, error) {
	b, err := json.MarshalIndent(turns, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal history: %w", err)
	}
	return string(b), nil
}

// RenderCompact renders history as a schema header plus one row per turn:
//
//	messages[2]{role,content,timestamp}:
//	  user|What is the refund policy?|2026-08-30T10:12:03Z
//	  assistant|Refunds are issued within 14 days.|2026-08-30T10:12:05Z
func RenderCompact(turns []Turn) string {
	if len(turns) == 0 {
		return ""
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "messages[%d]{role,content,timestamp}:\n", len(turns))
	for _, t := range turns {
		sb.WriteString("  ")
		sb.WriteString(escapeField(t.Role))
		sb.WriteString("|")
		sb.WriteString(escapeField(t.Content))
		sb.WriteString("|")
		sb.WriteString(t.Timestamp.UTC().Format(time.RFC3339))
		sb.WriteString("\n")
	}
	return sb.String()
}

// escapeField keeps the row delimiter and newlines unambiguous.
func escapeField(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "|", `\|`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return s
}
