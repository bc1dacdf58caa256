package domain

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// MaxLemmaRunes bounds the stored lemma length.
const MaxLemmaRunes = 128

// NormalizeLemma returns the canonical key form of a lemma: NFC, lowercase,
// inner whitespace collapsed to single spaces. It returns "" when the input
// is blank or longer than MaxLemmaRunes.
func NormalizeLemma(raw string) string {
	s := strings.Join(strings.Fields(norm.NFC.String(raw)), " ")
	if s == "" {
		return ""
	}
	// Casers hold state; one per call.
	s = cases.Lower(language.Und).String(s)
	if utf8.RuneCountInString(s) > MaxLemmaRunes {
		return ""
	}
	return s
}
