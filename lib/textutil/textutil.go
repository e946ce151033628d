package textutil

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

var accentStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// StripAccents folds accented characters into their base form
// ("elección" -> "eleccion").
func StripAccents(s string) string {
	out, _, err := transform.String(accentStripper, s)
	if err != nil {
		return s
	}
	return out
}

// NormalizeName lowercases, strips accents and collapses whitespace so
// that labels scraped from different sources compare equal.
func NormalizeName(name string) string {
	name = StripAccents(name)
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, " ")
	return name
}

// NormalizeKey is NormalizeName with all whitespace removed, used for
// hash-stable keys (teacher names, option labels).
func NormalizeKey(name string) string {
	name = NormalizeName(name)
	return strings.ReplaceAll(name, " ", "")
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, NormalizeName(m)) {
			return true
		}
	}
	return false
}

// CodePrefix returns the leading digit run of a label like
// "2933 CIENCIAS DE LA COMPUTACIÓN", or "" when the label does not start
// with a code.
func CodePrefix(label string) string {
	label = strings.TrimLeft(label, " \t")
	for i, r := range label {
		if r < '0' || r > '9' {
			return label[:i]
		}
	}
	return label
}
