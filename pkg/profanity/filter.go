// Package profanity is the synchronous, local backstop of the content gate.
// Text is lowercased and stripped of diacritics before a substring match
// against a fixed blocklist, so "BOLUDÓ" and "boludo" are treated alike.
package profanity

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// defaultBlocklist avoids short stems that occur inside ordinary academic
// words (e.g. "puta" in "computación", "trolo" in "control").
var defaultBlocklist = []string{
	"boludo", "boluda", "pelotudo", "pelotuda",
	"forro", "forra", "idiota", "imbecil",
	"tarado", "tarada", "mogolico", "mogolica",
	"hijo de puta", "hija de puta", "la concha de",
	"mierda", "sorete", "culiado", "culiao",
	"chupala", "pajero", "garca", "choto",
	"la puta madre", "malparido", "gonorrea",
}

// Filter matches normalised text against a blocklist.
type Filter struct {
	terms []string
}

// New builds a filter over the default blocklist plus any extra terms.
func New(extra ...string) *Filter {
	terms := make([]string, 0, len(defaultBlocklist)+len(extra))
	for _, term := range append(append([]string{}, defaultBlocklist...), extra...) {
		if n := Normalize(term); n != "" {
			terms = append(terms, n)
		}
	}
	return &Filter{terms: terms}
}

// Match returns the first blocked term found in text.
func (f *Filter) Match(text string) (string, bool) {
	normalized := Normalize(text)
	if normalized == "" {
		return "", false
	}
	for _, term := range f.terms {
		if strings.Contains(normalized, term) {
			return term, true
		}
	}
	return "", false
}

// Normalize lowercases, strips combining marks and collapses whitespace.
func Normalize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	b.Grow(len(s))
	space := false
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		if unicode.IsSpace(r) {
			if !space && b.Len() > 0 {
				b.WriteByte(' ')
			}
			space = true
			continue
		}
		space = false
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}
