// Package sanitize reduces external display names to forms that are safe
// to reuse as filesystem paths and archive folder names.
package sanitize

import (
	"strings"
	"unicode"
)

// FileName strips every character except letters, digits, spaces, periods,
// underscores, and hyphens, then trims surrounding whitespace. Guild,
// category, and channel names all pass through it before they become folder
// or artifact names. The result is stable under repeated application.
func FileName(name string) string {
	kept := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			return r
		}
		switch r {
		case ' ', '.', '_', '-':
			return r
		}
		return -1
	}, name)

	return strings.TrimSpace(kept)
}
