package textutil

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var titleCaser = cases.Title(language.BrazilianPortuguese)

// FoldDiacritics removes combining marks, turning "João Conceição" into
// "Joao Conceicao".
func FoldDiacritics(value string) string {
	if value == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, value)
	if err != nil {
		return value
	}
	return out
}

// NormalizeForCompare lowercases, folds diacritics, replaces every
// non-alphanumeric rune with a space, and collapses whitespace.
func NormalizeForCompare(value string) string {
	folded := strings.ToLower(FoldDiacritics(value))
	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteByte(' ')
	}
	return CollapseSpaces(b.String())
}

// CollapseSpaces trims the value and folds runs of whitespace into one space.
func CollapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// TitleCase collapses whitespace and title-cases every word.
func TitleCase(value string) string {
	collapsed := CollapseSpaces(value)
	if collapsed == "" {
		return ""
	}
	return titleCaser.String(strings.ToLower(collapsed))
}

// Tokens returns the whitespace separated tokens of NormalizeForCompare(value).
func Tokens(value string) []string {
	return strings.Fields(NormalizeForCompare(value))
}
