package census

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var accentFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeName lowercases a municipio name, strips accents, and collapses
// whitespace so "El Santuario", "el  santuario", and "El Santuário" all key
// the same registry entry.
func NormalizeName(nombre string) string {
	folded, _, err := transform.String(accentFolder, nombre)
	if err != nil {
		folded = nombre
	}
	return strings.Join(strings.Fields(strings.ToLower(folded)), " ")
}
