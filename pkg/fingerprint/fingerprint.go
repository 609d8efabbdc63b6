// Package fingerprint computes the canonical fingerprint of a paper.
//
// The fingerprint is a deterministic function of the normalized title
// and the author surnames. Two papers with equal fingerprints are
// considered duplicates of one record. The human-readable form is kept
// available for collision reports; the stored form is a hex digest of
// it.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"slices"
	"strings"
	"unicode"
)

// Plain returns the human-readable fingerprint: normalized title words
// joined by dashes, a slash, then normalized author surnames joined by
// dashes. Surnames are sorted so that author ordering differences do
// not change the fingerprint.
func Plain(title string, surnames []string) string {
	words := tokens(title)

	last := make([]string, 0, len(surnames))
	for _, s := range surnames {
		t := tokens(s)
		if len(t) == 0 {
			continue
		}
		// Compound surnames collapse into one token.
		last = append(last, strings.Join(t, ""))
	}
	slices.Sort(last)

	var b strings.Builder
	b.WriteString(strings.Join(words, "-"))
	b.WriteByte('/')
	b.WriteString(strings.Join(last, "-"))
	return b.String()
}

// Compute returns the stored fingerprint: the hex digest of the plain
// fingerprint. The digest keeps the column width fixed regardless of
// title length.
func Compute(title string, surnames []string) string {
	sum := md5.Sum([]byte(Plain(title, surnames)))
	return hex.EncodeToString(sum[:])
}

// tokens lowercases s, folds accented letters to their base form,
// strips everything that is not a letter or digit, and splits the rest
// into words.
func tokens(s string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r):
			b.WriteRune(foldRune(r))
		case unicode.IsDigit(r):
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}

// foldRune maps common accented Latin letters to their ASCII base so
// that harvested records with inconsistent diacritics fingerprint
// identically.
func foldRune(r rune) rune {
	if r < 0x80 {
		return r
	}
	if folded, ok := accents[r]; ok {
		return folded
	}
	return r
}

var accents = map[rune]rune{
	'à': 'a', 'á': 'a', 'â': 'a', 'ã': 'a', 'ä': 'a', 'å': 'a',
	'ç': 'c', 'č': 'c', 'ć': 'c',
	'è': 'e', 'é': 'e', 'ê': 'e', 'ë': 'e', 'ě': 'e',
	'ì': 'i', 'í': 'i', 'î': 'i', 'ï': 'i',
	'ñ': 'n', 'ň': 'n', 'ń': 'n',
	'ò': 'o', 'ó': 'o', 'ô': 'o', 'õ': 'o', 'ö': 'o', 'ø': 'o',
	'š': 's', 'ś': 's',
	'ù': 'u', 'ú': 'u', 'û': 'u', 'ü': 'u', 'ů': 'u',
	'ý': 'y', 'ÿ': 'y',
	'ž': 'z', 'ź': 'z', 'ż': 'z',
	'ß': 's',
}
