package sparse

import (
	"regexp"
	"strings"
)

// tokenRegex extracts maximal alphanumeric runs that may carry internal
// hyphens, so error codes like E-4012 survive as single tokens instead of
// splitting on the hyphen. Leading and trailing hyphens are excluded.
var tokenRegex = regexp.MustCompile(`[a-z0-9](?:[a-z0-9-]*[a-z0-9])?`)

// Tokenize lowercases text and splits it into tokens. No stemming, no
// stop-word removal. Pure: identical input always yields identical output.
func Tokenize(text string) []string {
	return tokenRegex.FindAllString(strings.ToLower(text), -1)
}
