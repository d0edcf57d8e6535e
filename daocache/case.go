package daocache

import (
	"strings"
	"unicode"
)

// toSnake converts an entity type name to the snake_case namespace used as
// key prefix. Punctuation from reflected names, such as generic brackets and
// package dots, collapses into single underscores so prefixes stay clean.
func toSnake(s string) string {
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(runes) + len(runes)/2)

	pendingUnderscore := false
	write := func(r rune) {
		if pendingUnderscore && b.Len() > 0 {
			b.WriteByte('_')
		}
		pendingUnderscore = false
		b.WriteRune(r)
	}

	for i, r := range runes {
		switch {
		case unicode.IsUpper(r):
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					pendingUnderscore = true
				}
			}
			write(unicode.ToLower(r))
		case unicode.IsDigit(r):
			if i > 0 && !unicode.IsDigit(runes[i-1]) {
				pendingUnderscore = true
			}
			write(r)
		case unicode.IsLower(r):
			write(r)
		default:
			pendingUnderscore = true
		}
	}
	return b.String()
}
