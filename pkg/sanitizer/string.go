package sanitizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxNameLength    = 100
	MaxCommentLength = 500
)

func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else if unicode.IsControl(r) {
			continue
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

// NormalizeName collapses whitespace in a guest name and cuts it to the
// length the backend accepts.
func NormalizeName(name string) string {
	return truncateRunes(TrimAndNormalize(name), MaxNameLength)
}

// NormalizeComment keeps line breaks but drops other control characters.
func NormalizeComment(comment string) string {
	lines := strings.Split(strings.ReplaceAll(comment, "\r\n", "\n"), "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if l := TrimAndNormalize(line); l != "" {
			kept = append(kept, l)
		}
	}
	return truncateRunes(strings.Join(kept, "\n"), MaxCommentLength)
}

func truncateRunes(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return strings.TrimSpace(string(runes[:limit]))
}
