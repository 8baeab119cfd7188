package tgdispatch

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	reMarkdownImg  = regexp.MustCompile(`!\[.*?\]\(.*?\)\n?`)
	headingMarkers = strings.NewReplacer("### ", "", "## ", "")
)

// Sanitize strips every markup tag except <b>, <i>, <u> and <a>, drops
// markdown images and removes "### " and "## " heading markers. Only tag
// delimiters go away; the text between tags stays.
//
// A removal can expose a new match (e.g. "<b![x](y)r>" becomes "<br>"), so
// the passes run until nothing changes. Every pass only deletes, which
// bounds the loop and makes Sanitize idempotent.
func Sanitize(text string) string {
	for {
		next := sanitizeOnce(text)
		if next == text {
			return next
		}
		text = next
	}
}

func sanitizeOnce(text string) string {
	text = stripTags(text)
	text = reMarkdownImg.ReplaceAllString(text, "")
	return headingMarkers.Replace(text)
}

// stripTags removes each "<...>" span, up to the first ">", that does not
// open with an allowed tag name. An allowed "<" is kept on its own and the
// scan resumes right after it, so a disallowed tag nested inside an allowed
// one is still removed: "<b <script>x" becomes "<b x".
func stripTags(text string) string {
	var sb strings.Builder
	sb.Grow(len(text))

	for i := 0; i < len(text); {
		if text[i] == '<' && !allowedTagAt(text[i+1:]) {
			if end := strings.IndexByte(text[i:], '>'); end >= 0 {
				i += end + 1
				continue
			}
		}
		sb.WriteByte(text[i])
		i++
	}
	return sb.String()
}

// allowedTagAt reports whether rest, the text after a "<", starts with an
// optional "/" and one of b, i, u, a followed by a word boundary.
func allowedTagAt(rest string) bool {
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return false
	}
	switch rest[0] {
	case 'b', 'i', 'u', 'a':
	default:
		return false
	}
	if len(rest) == 1 {
		return true
	}
	r, _ := utf8.DecodeRuneInString(rest[1:])
	return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_')
}
