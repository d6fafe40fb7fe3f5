package hypertext

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	boldStyle = lipgloss.NewStyle().Bold(true)

	linkStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(lipgloss.Color("#5F87FF"))
)

// Terminal renders a compiled message for a terminal, styling each entity
// span. Link targets are appended in parentheses.
func Terminal(msg Message) string {
	var b strings.Builder
	cursor := 0
	for _, s := range Spans(msg) {
		b.WriteString(Slice(msg.Body, cursor, s.Offset-cursor))
		b.WriteString(styleSpan(s, Slice(msg.Body, s.Offset, s.Length)))
		cursor = s.Offset + s.Length
	}
	b.WriteString(Slice(msg.Body, cursor, UTF16Len(msg.Body)-cursor))
	return b.String()
}

func styleSpan(s Span, text string) string {
	// Styling the trailing newline would push escape codes onto the next line.
	trimmed := strings.TrimRight(text, "\n")
	tail := text[len(trimmed):]

	style := lipgloss.NewStyle()
	if s.URL != "" {
		style = linkStyle
	}
	if s.Bold {
		style = style.Inherit(boldStyle)
	}
	out := style.Render(trimmed)
	if s.URL != "" {
		out += " (" + s.URL + ")"
	}
	return out + tail
}
