// Package slug builds URL slugs from Vietnamese titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ is a distinct letter, not d plus a combining mark, so NFKD leaves it alone.
var letterFold = strings.NewReplacer("đ", "d", "Đ", "D")

// Make lowercases s, folds compatibility forms such as full-width letters,
// strips diacritics and joins the remaining alphanumeric runs with single
// hyphens: "Tiểu thuyết" becomes "tieu-thuyet". The result is empty when s has
// no letters or digits that fold to ASCII.
func Make(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, letterFold.Replace(s))
	if err != nil {
		folded = s
	}

	var b strings.Builder
	b.Grow(len(folded))
	pendingDash := false
	for _, r := range strings.ToLower(folded) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	return b.String()
}
