package ui

import (
	"os"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestFormatterWithColor(t *testing.T) {
	if v, ok := os.LookupEnv("NO_COLOR"); ok {
		os.Unsetenv("NO_COLOR")
		t.Cleanup(func() { os.Setenv("NO_COLOR", v) })
	}
	old := color.NoColor
	color.NoColor = false
	t.Cleanup(func() { color.NoColor = old })

	result := Fingerprint.Sprint("abc")
	assert.NotContains(t, result, "[abc]")
	assert.Contains(t, result, "\x1b[")
}

func TestFormatterWithNoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name      string
		formatter Formatter
		input     string
		want      string
	}{
		{"Code adds backticks", Code, "sealreel keys export", "`sealreel keys export`"},
		{"Path unchanged", Path, "sealreel-keys-alice.xlsx", "sealreel-keys-alice.xlsx"},
		{"Highlight adds quotes", Highlight, "Holiday", "'Holiday'"},
		{"Muted adds parentheses", Muted, "owner", "(owner)"},
		{"Fingerprint adds brackets", Fingerprint, "ab12", "[ab12]"},
		{"Success unchanged", Success, "✓", "✓"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.formatter.Sprint(tt.input))
		})
	}

	assert.Equal(t, "'3 requests'", Highlight.Sprintf("%d requests", 3))
}

func TestState(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	for _, s := range []string{"pending", "approved", "rejected", "restore_required"} {
		assert.Equal(t, s, State(s))
	}
}

func TestEnsureNewline(t *testing.T) {
	assert.Equal(t, "\n", EnsureNewline(""))
	assert.Equal(t, "a\n", EnsureNewline("a"))
	assert.Equal(t, "a\n", EnsureNewline("a\n"))
}
