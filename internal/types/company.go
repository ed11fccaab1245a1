package types

import (
	"strings"
	"unicode"
)

var companySuffixes = map[string]bool{
	"inc": true, "incorporated": true, "llc": true, "ltd": true, "limited": true,
	"corp": true, "corporation": true, "co": true, "gmbh": true, "plc": true,
}

// NormalizeCompanyName reduces a company name to a comparison key:
// lower-case alphanumeric words with legal suffixes dropped ("Acme, Inc." -> "acme").
// A name with no letters or digits keys on its lower-cased trimmed form.
func NormalizeCompanyName(name string) string {
	words := strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(words) == 0 {
		return strings.ToLower(strings.TrimSpace(name))
	}
	for len(words) > 1 && companySuffixes[words[len(words)-1]] {
		words = words[:len(words)-1]
	}
	return strings.Join(words, " ")
}

// SameCompany reports whether two names refer to the same company after normalization.
func SameCompany(a, b string) bool {
	na := NormalizeCompanyName(a)
	return na != "" && na == NormalizeCompanyName(b)
}
