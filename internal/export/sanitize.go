package export

import (
	"strings"
	"unicode"
)

// SanitizeName makes s safe for an EDL comment line: control characters are
// dropped, other punctuation becomes '_', and the result is cut to maxLen
// runes when maxLen > 0.
func SanitizeName(s string, maxLen int) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case unicode.IsControl(r):
		case allowedNameRune(r):
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := strings.TrimSpace(b.String())
	if maxLen > 0 {
		if runes := []rune(out); len(runes) > maxLen {
			out = string(runes[:maxLen])
		}
	}
	return out
}

func allowedNameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) {
		return true
	}
	return strings.ContainsRune(" -_.,()", r)
}
