package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// SanitizeFilename makes name safe to use as a single path component. Letters
// outside ASCII are preserved in NFC form; separators and characters that are
// reserved on common filesystems become underscores.
func SanitizeFilename(name string) string {
	name = norm.NFC.String(strings.TrimSpace(name))

	var b strings.Builder
	for _, r := range name {
		switch {
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
		}
	}

	out := strings.Trim(b.String(), ". ")
	if out == "" {
		return "untitled"
	}
	return out
}
