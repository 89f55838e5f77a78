package indexer

import (
	"net/url"
	"slices"
	"strings"
	"unicode"
)

// minTokenLen drops single letters and digits, which match nearly every URL.
const minTokenLen = 2

// Tokenize lowercases s and returns its runs of letters and digits, in order,
// skipping runs shorter than two characters. Every other rune separates
// tokens.
func Tokenize(s string) []string {
	tokens := []string{}
	for _, field := range strings.FieldsFunc(strings.ToLower(s), isSeparator) {
		if len(field) >= minTokenLen {
			tokens = append(tokens, field)
		}
	}
	return tokens
}

func isSeparator(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// TokenizeURL returns the tokens of a URL's hostname, path and sorted query
// keys. Port, fragment and query values are not indexed. Text that does not
// parse as a URL is tokenized whole.
func TokenizeURL(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Tokenize(rawURL)
	}

	keys := make([]string, 0, len(u.Query()))
	for k := range u.Query() {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var b strings.Builder
	b.WriteString(u.Hostname())
	b.WriteByte(' ')
	b.WriteString(u.Path)
	for _, k := range keys {
		b.WriteByte(' ')
		b.WriteString(k)
	}
	return Tokenize(b.String())
}
