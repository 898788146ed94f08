package service

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rs/xid"
)

const maxSlugBase = 60

// Slugify lowercases title and joins its letter and digit runs with "-".
// A title with no letters or digits yields "article".
func Slugify(title string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}

	s := b.String()
	if len(s) > maxSlugBase {
		s = strings.TrimRight(truncateRunes(s, maxSlugBase), "-")
	}
	if s == "" {
		return "article"
	}
	return s
}

// newSlug returns a slug for title that is unique across articles.
func newSlug(title string) string {
	return Slugify(title) + "-" + xid.New().String()
}

// truncateRunes cuts s to at most n bytes without splitting a rune.
func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
