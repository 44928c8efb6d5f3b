package display

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/muesli/reflow/truncate"
)

// Truncate cuts text to at most limit cells. Wide runes count double, so the
// result never holds more than limit runes either.
func Truncate(text string, limit int) (string, bool) {
	if limit <= 0 {
		return "", text != ""
	}
	if utf8.RuneCountInString(text) <= limit && !hasWide(text) {
		return text, false
	}
	out := truncate.String(text, uint(limit))
	return out, out != text
}

func hasWide(s string) bool {
	for _, r := range s {
		if r > unicode.MaxLatin1 {
			return true
		}
	}
	return false
}

// FirstParagraph returns s up to its first blank line.
func FirstParagraph(s string) string {
	head, _, _ := strings.Cut(s, "\n\n")
	return head
}

// Capitalize returns s with its first character uppercased.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
