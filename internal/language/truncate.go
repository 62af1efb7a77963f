package language

import "unicode/utf8"

// TruncateUTF8 returns s cut to at most max bytes without splitting a
// multi-byte code point. The result is always valid UTF-8 when s is.
func TruncateUTF8(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 0 {
		return ""
	}
	cut := max
	// Back up past any continuation bytes so the cut lands on a rune start.
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
