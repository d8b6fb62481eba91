// Package standardize implements the text normalization the gazetteer's
// word-form index keys on: width folding and punctuation stripping, so
// that width variants of one word (full-width "ｔｏｋｙｏ" and "tokyo",
// half-width "ﾄｳｷｮｳ" and "トウキョウ") normalize to the same trie key.
package standardize

import (
	"strings"
	"unicode"

	"golang.org/x/text/width"
)

// stripSet holds punctuation and whitespace runes dropped during
// normalization; these carry no information for surface-form matching
// and the incumbent address library strips them the same way.
var stripSet = map[rune]bool{
	' ': true, '\t': true, '　': true,
	'-': true, 'ー': true, '−': true, '‐': true, '－': true,
	'・': true, '.': true, '·': true,
	',': true, '、': true,
}

// Normalize folds a surface or reading string to its canonical trie key:
// half-width/full-width variants are unified via golang.org/x/text/width,
// then separators in stripSet are dropped and the result is upper-cased
// (katakana readings pass through unaffected).
func Normalize(s string) string {
	folded := width.Fold.String(s)

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if stripSet[r] {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}
