package identity

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeName trims value, splits it on runs of whitespace and rewrites each
// token with an upper-case first character and a lower-case remainder. Tokens
// are joined with a single space, so "  o'BRIEN-smith  jr " becomes
// "O'brien-smith Jr".
func NormalizeName(value string) string {
	fields := strings.Fields(value)
	for i, word := range fields {
		first, size := utf8.DecodeRuneInString(word)
		fields[i] = string(unicode.ToUpper(first)) + strings.ToLower(word[size:])
	}
	return strings.Join(fields, " ")
}

// FullName joins already-normalized first and last names.
func FullName(first, last string) string {
	return first + " " + last
}
