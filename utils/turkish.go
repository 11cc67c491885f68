package utils

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var turkishLower = cases.Lower(language.Turkish)

// FoldSearchTerm lowercases with Turkish casing rules (İ→i, I→ı) so that
// searches over Turkish course titles match regardless of input casing.
// Stored search columns are folded with the same caser.
func FoldSearchTerm(s string) string {
	return turkishLower.String(strings.TrimSpace(s))
}
