// Package textutil normalizes header and column names so the loose
// spellings that show up in vendor spreadsheets compare equal.
package textutil

import (
	"regexp"
	"strings"

	"golang.org/x/text/width"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// NormalizeName lowercases, strips whitespace and folds full-width
// characters to their narrow forms, so "ＡＳＩＮ " and "asin" compare
// equal.
func NormalizeName(name string) string {
	name = width.Fold.String(name)
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}
