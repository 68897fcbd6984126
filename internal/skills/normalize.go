// Package skills implements structured skill extraction from free text and
// the weighted match scoring between a job description's and a resume's
// skill sets.
package skills

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Punctuation kept verbatim in normalized names. Everything else folds to a
// space so "Node.js", "C++" and "CI/CD" survive while commas and quotes do
// not.
const keptPunct = "+.#/&()-"

// NormalizeName canonicalizes a skill name into its dedup and matching key:
// lowercase, diacritics stripped, punctuation outside the allowed set folded
// to spaces, whitespace collapsed.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range norm.NFD.String(name) {
		switch {
		case unicode.Is(unicode.Mn, r):
			// combining mark left over from decomposition
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		case strings.ContainsRune(keptPunct, r):
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
