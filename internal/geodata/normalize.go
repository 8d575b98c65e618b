package geodata

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeStreetName title-cases a street name for use as a grouping key:
//  1. Lower-casing the whole string
//  2. Splitting on single spaces (empty tokens are kept)
//  3. Upper-casing the first rune of each token
//  4. Rejoining with single spaces
//
// The empty string maps to itself. The function is idempotent.
func NormalizeStreetName(name string) string {
	if name == "" {
		return ""
	}

	tokens := strings.Split(cases.Lower(language.Und).String(name), " ")
	for i, tok := range tokens {
		r, size := utf8.DecodeRuneInString(tok)
		if size == 0 || r == utf8.RuneError {
			continue
		}
		tokens[i] = string(unicode.ToUpper(r)) + tok[size:]
	}
	return strings.Join(tokens, " ")
}

// Normalize returns a copy of the collection with every street name rewritten
// by NormalizeStreetName. Geometry and all other properties pass through
// unchanged; the input collection is not modified.
func Normalize(raw *StreetCollection) *StreetCollection {
	if raw == nil {
		return nil
	}
	out := &StreetCollection{Features: make([]StreetFeature, len(raw.Features))}
	for i, f := range raw.Features {
		props := f.Properties.Clone()
		props[PropStreet] = NormalizeStreetName(f.Properties.String(PropStreet))
		out.Features[i] = StreetFeature{
			Index:      f.Index,
			Geometry:   f.Geometry,
			Properties: props,
		}
	}
	return out
}
