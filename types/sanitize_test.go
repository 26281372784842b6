package types

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain token unchanged",
			input:    "slow reveal from shadow into light",
			expected: "slow reveal from shadow into light",
		},
		{
			name:     "control characters stripped",
			input:    "matte\x00 black\tbottle\r\non marble",
			expected: "matte black bottle on marble",
		},
		{
			name:     "whitespace collapsed and trimmed",
			input:    "   gentle   360   orbit   ",
			expected: "gentle 360 orbit",
		},
		{
			name:     "long token truncated",
			input:    strings.Repeat("a ", 600),
			expected: strings.TrimSpace(strings.Repeat("a ", 240)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, SanitizeToken(tt.input))
		})
	}
}

func TestSanitizeTokenIdempotent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		s := rapid.String().Draw(t, "s")
		once := SanitizeToken(s)
		twice := SanitizeToken(once)
		if once != twice {
			t.Fatalf("sanitize not idempotent: %q -> %q", once, twice)
		}
		if utf8.RuneCountInString(once) > MaxTokenLength {
			t.Fatalf("sanitized token exceeds max length: %d", utf8.RuneCountInString(once))
		}
	})
}

func TestComposeFullPrompt(t *testing.T) {
	tests := []struct {
		name      string
		invariant string
		action    string
		style     string
		expected  string
	}{
		{
			name:      "three components period joined",
			invariant: "matte black bottle",
			action:    "slow reveal from shadow into light",
			style:     "cinematic studio lighting",
			expected:  "matte black bottle. slow reveal from shadow into light. cinematic studio lighting",
		},
		{
			name:      "trailing periods not doubled",
			invariant: "matte black bottle.",
			action:    "gentle 360 degree orbit rotation.",
			style:     "soft daylight.",
			expected:  "matte black bottle. gentle 360 degree orbit rotation. soft daylight",
		},
		{
			name:      "empty components skipped",
			invariant: "product hero shot",
			action:    "",
			style:     "vivid neon",
			expected:  "product hero shot. vivid neon",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComposeFullPrompt(tt.invariant, tt.action, tt.style)
			assert.Equal(t, tt.expected, got)
			assert.Equal(t, got, SanitizeToken(got))
		})
	}
}
