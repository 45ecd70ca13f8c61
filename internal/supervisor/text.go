package supervisor

import "strings"

// Placeholder is shown when a field would otherwise be empty.
const Placeholder = "…"

// ShortLabel reduces output to its first line, trimmed.
func ShortLabel(text string) string {
	line, _, _ := strings.Cut(text, "\n")
	return orPlaceholder(strings.TrimSpace(line))
}

// FullText trims output for the detail view.
func FullText(text string) string {
	return orPlaceholder(strings.TrimSpace(text))
}

func orPlaceholder(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}
