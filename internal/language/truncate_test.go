package language

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncateUTF8(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"under limit unchanged", "hello", 10, "hello"},
		{"exactly at limit", "hello", 5, "hello"},
		{"ascii cut", "hello world", 5, "hello"},
		{"zero max", "hello", 0, ""},
		{"negative max", "hello", -1, ""},
		{"empty input", "", 5, ""},
		// é is 2 bytes; cutting at 1 would split it.
		{"two byte rune not split", "é", 1, ""},
		{"cut lands before multibyte", "aé", 2, "a"},
		// 日 is 3 bytes.
		{"three byte rune not split", "日本語", 4, "日"},
		{"three byte rune mid cut", "日本語", 5, "日"},
		{"three byte rune clean cut", "日本語", 6, "日本"},
		// emoji are 4 bytes.
		{"emoji not split", "a🎉b", 3, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TruncateUTF8(tt.in, tt.max)
			assert.Equal(t, tt.want, got)
			assert.True(t, utf8.ValidString(got))
			if tt.max >= 0 {
				assert.LessOrEqual(t, len(got), tt.max)
			}
		})
	}
}

func TestTruncateUTF8_LongMixedInput(t *testing.T) {
	s := strings.Repeat("héllo 日本 🎉 ", 600)
	got := TruncateUTF8(s, ScoreByteLimit)
	assert.LessOrEqual(t, len(got), ScoreByteLimit)
	assert.True(t, utf8.ValidString(got))
	assert.True(t, strings.HasPrefix(s, got))
}
