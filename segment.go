package tgdispatch

import (
	"strings"
	"unicode/utf8"
)

// Segment splits text into pieces of at most maxLen characters, cutting only
// at line boundaries. Joining the result with "\n" gives back text.
//
// A single line longer than maxLen is kept whole in its own segment.
// maxLen <= 0 disables splitting.
func Segment(text string, maxLen int) []string {
	if maxLen <= 0 || utf8.RuneCountInString(text) <= maxLen {
		return []string{text}
	}

	var segments []string
	var current []string
	currentLen := 0

	for _, line := range strings.Split(text, "\n") {
		lineLen := utf8.RuneCountInString(line)
		if len(current) > 0 && currentLen+1+lineLen > maxLen {
			segments = append(segments, strings.Join(current, "\n"))
			current = current[:0]
			currentLen = 0
		}

		if len(current) > 0 {
			currentLen++
		}
		current = append(current, line)
		currentLen += lineLen
	}
	segments = append(segments, strings.Join(current, "\n"))

	return segments
}
