package types

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxTokenLength is the rune cap applied to every persisted token.
const MaxTokenLength = 480

// SanitizeToken strips control characters, collapses runs of whitespace to
// a single space, trims the result, and truncates it to MaxTokenLength
// runes. Sanitizing an already-sanitized token returns the same string.
func SanitizeToken(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsControl(r) {
			b.WriteRune(' ')
			continue
		}
		b.WriteRune(r)
	}

	out := strings.Join(strings.Fields(b.String()), " ")
	if utf8.RuneCountInString(out) > MaxTokenLength {
		runes := []rune(out)
		out = strings.TrimSpace(string(runes[:MaxTokenLength]))
	}
	return out
}

// ComposeFullPrompt builds the renderer-facing prompt for one scene:
// the invariant token, the action token, and the style layer, period
// joined. Each component is sanitized before joining and the composition
// is sanitized again so the result always satisfies token constraints.
func ComposeFullPrompt(invariant, action, style string) string {
	parts := make([]string, 0, 3)
	for _, p := range []string{invariant, action, style} {
		p = strings.TrimRight(SanitizeToken(p), ".")
		if p != "" {
			parts = append(parts, p)
		}
	}
	return SanitizeToken(strings.Join(parts, ". "))
}
