package zone

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize lower-cases name, decomposes accented characters and drops
// the combining marks, so "Bänkskiva" and "bankskiva" compare equal.
// Characters without a decomposition (ø, æ, ß) are kept as they are.
func Normalize(name string) string {
	// Transformers carry state, so build a fresh chain per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.ToLower(name))
	if err != nil {
		return strings.ToLower(name)
	}
	return out
}
