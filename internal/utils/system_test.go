package utils

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeLabel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"LowercaseSimple", "Alice", "alice"},
		{"SpacesToHyphens", "Alice Smith", "alice-smith"},
		{"RemoveSpecialChars", "al!ce@home#1", "alcehome1"},
		{"RemoveConsecutiveHyphens", "alice--smith", "alice-smith"},
		{"TrimHyphens", "-alice-", "alice"},
		{"EmptyToDefault", "", "user"},
		{"OnlySpecialChars", "@#$%", "user"},
		{"PreserveUnderscores", "alice_s", "alice_s"},
		{"TrimWhitespace", "  alice  ", "alice"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, SanitizeLabel(tc.input))
		})
	}
}

func TestGetUsername(t *testing.T) {
	name, err := GetUsername()
	if err != nil {
		t.Skipf("no current user in this environment: %v", err)
	}
	assert.NotEmpty(t, name)
}

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("alice@example.com"))
	assert.True(t, IsValidEmail("a.b+c@sub.example.org"))
	assert.False(t, IsValidEmail(""))
	assert.False(t, IsValidEmail("alice"))
	assert.False(t, IsValidEmail("alice@example"))
}

func TestShortFingerprint(t *testing.T) {
	fp := strings.Repeat("ab", 32)
	assert.Equal(t, "abababababababab…abab", ShortFingerprint(fp))
	assert.Equal(t, "short", ShortFingerprint("short"))
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{" yes \n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
		{"yep\n", false},
		{"y", true},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		got := Confirm(strings.NewReader(tt.input), &out, "Continue?")
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		assert.Contains(t, out.String(), "Continue? [y/N]: ")
	}
}
