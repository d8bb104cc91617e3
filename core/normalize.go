package core

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// label separators dropped by NormalizeLabel, on top of whitespace
const labelSeparators = "-.:ºª°"

// NormalizeLabel canonicalizes a free-text class label into a comparable key:
// diacritics are stripped, the result is lowered and separators are removed.
//
//	NormalizeLabel("1º Ano - A") == NormalizeLabel("1ANO A") == "1anoa"
//
// It never fails and NormalizeLabel(NormalizeLabel(s)) == NormalizeLabel(s).
func NormalizeLabel(s string) string {
	// a transform.Chain holds state, build one per call so it is safe for concurrent use
	stripMarks := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(stripMarks, s)
	if err != nil {
		stripped = s
	}

	var b strings.Builder
	b.Grow(len(stripped))
	for _, r := range strings.ToLower(stripped) {
		if unicode.IsSpace(r) || strings.ContainsRune(labelSeparators, r) {
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}
