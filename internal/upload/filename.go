// Package upload prepares user-supplied file parts before they are
// forwarded to the backend.
package upload

import (
	"path"
	"regexp"
	"strings"
	"unicode"
)

const maxFilenameRunes = 255

var invalidFilenameChars = regexp.MustCompile(`[<>:"/\\|?*]`)

// CleanFilename reduces a client filename to a safe base name. Directory
// parts, control and invisible characters are dropped and reserved
// characters become "_". When nothing usable is left, fallback is
// returned.
func CleanFilename(name string, fallback string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), `\`, "/")
	name = path.Base(name)

	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsControl(r) || isInvisible(r) {
			continue
		}
		b.WriteRune(r)
	}

	cleaned := strings.TrimSpace(invalidFilenameChars.ReplaceAllString(b.String(), "_"))
	cleaned = strings.TrimLeft(cleaned, ".")
	if cleaned == "" {
		return fallback
	}

	if runes := []rune(cleaned); len(runes) > maxFilenameRunes {
		cleaned = string(runes[:maxFilenameRunes])
	}
	return cleaned
}

// WithExtension swaps the extension of a cleaned name.
func WithExtension(name string, ext string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + ext
}

func isInvisible(r rune) bool {
	switch r {
	case
		'\u200B', // zero-width space
		'\u200C', // zero-width non-joiner
		'\u200D', // zero-width joiner
		'\u200E', // left-to-right mark
		'\u200F', // right-to-left mark
		'\u2060', // word joiner
		'\u2061',
		'\u2062',
		'\u2063',
		'\u2064',
		'\uFEFF', // BOM
		'\uFFF9',
		'\uFFFA',
		'\uFFFB':
		return true
	}
	return unicode.Is(unicode.Cf, r)
}
