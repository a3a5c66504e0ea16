// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package download

import (
	"strings"
	"unicode"
)

const (
	maxTitleLen  = 100
	defaultTitle = "video"
)

// SanitizeTitle turns a free-form title into a file-name stem: characters
// other than ASCII letters, digits, '_', '-' and whitespace are dropped,
// whitespace runs become a single '_', and the result is capped at 100
// characters. An empty result becomes "video". SanitizeTitle is idempotent.
func SanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	inSpace := false
	for _, r := range title {
		switch {
		case unicode.IsSpace(r):
			if !inSpace {
				b.WriteByte('_')
				inSpace = true
			}
		case keepRune(r):
			b.WriteRune(r)
			inSpace = false
		}
		// Dropped characters leave a whitespace run open: "a ! b" -> "a_b".
	}

	out := b.String()
	if len(out) > maxTitleLen {
		out = out[:maxTitleLen]
	}
	if out == "" {
		return defaultTitle
	}
	return out
}

func keepRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-'
}
