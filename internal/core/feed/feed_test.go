package feed

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCleanTitle(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain", "AI 芯片新进展", "AI 芯片新进展"},
		{"newlines", "breaking\nnews\r\ntoday", "breaking news today"},
		{"runs of spaces", "  a \t b  ", "a b"},
		{"fullwidth ascii", "ＡＩ芯片", "AI芯片"},
		{"ideographic space", "前　后", "前 后"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CleanTitle(tt.input); got != tt.want {
				t.Errorf("CleanTitle(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseMode(t *testing.T) {
	for _, name := range []string{"daily", "current", "incremental", ""} {
		_, err := ParseMode(name)
		require.NoError(t, err)
	}

	_, err := ParseMode("hourly")
	require.Error(t, err)
}

func TestModeRoundTrip(t *testing.T) {
	for _, m := range []Mode{ModeDaily, ModeCurrent, ModeIncremental} {
		parsed, err := ParseMode(m.String())
		require.NoError(t, err)
		require.Equal(t, m, parsed)
	}
}
