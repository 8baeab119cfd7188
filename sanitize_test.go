package tgdispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "Plain text",
			input: "Hello, world!",
			want:  "Hello, world!",
		},
		{
			name:  "Allowed tags kept",
			input: `<b>bold</b> <i>it</i> <u>under</u> <a href="https://example.com">link</a>`,
			want:  `<b>bold</b> <i>it</i> <u>under</u> <a href="https://example.com">link</a>`,
		},
		{
			name:  "Script tag stripped, content kept",
			input: "<script>alert(1)</script>hi",
			want:  "alert(1)hi",
		},
		{
			name:  "Nested disallowed tags",
			input: "<div><p>text</p></div>",
			want:  "text",
		},
		{
			name:  "Tags that only start like allowed ones",
			input: "<br>line <abbr>x</abbr> <bold>y</bold>",
			want:  "line x y",
		},
		{
			name:  "Uppercase tags stripped",
			input: "<B>x</B>",
			want:  "x",
		},
		{
			name:  "Markdown image with trailing newline",
			input: "![cat](https://example.com/cat.png)\nafter",
			want:  "after",
		},
		{
			name:  "Markdown image inline",
			input: "before ![x](y) after",
			want:  "before  after",
		},
		{
			name:  "Heading markers",
			input: "## Title\n### Sub\nbody",
			want:  "Title\nSub\nbody",
		},
		{
			name:  "Heading marker mid-line",
			input: "a ## b",
			want:  "a b",
		},
		{
			name:  "Disallowed tag inside an unclosed allowed tag",
			input: "<b <script>alert(1)</script>",
			want:  "<b alert(1)",
		},
		{
			name:  "Disallowed tag right after an allowed name",
			input: "<a<script>>x",
			want:  "<a>x",
		},
		{
			name:  "Disallowed tag inside an attribute",
			input: "<i onclick=<iframe>>y",
			want:  "<i onclick=>y",
		},
		{
			name:  "Closing allowed tag followed by a disallowed one",
			input: "</u<style>>z",
			want:  "</u>z",
		},
		{
			name:  "Unterminated disallowed tag is left alone",
			input: "a <script b",
			want:  "a <script b",
		},
		{
			name:  "Removal exposes a disallowed tag",
			input: "<b![x](y)r>text",
			want:  "text",
		},
		{
			name:  "Empty",
			input: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Sanitize(tt.input))
		})
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{
		"<b>ok</b><script>x</script>",
		"<b![x](y)r>",
		"<<b>script>",
		"#### ## x",
		"## ## ### y",
		"!![a](b)[c](d)",
		"<a<i>>z</a>",
		"<sc<b>ript>alert(1)</sc</b>ript>",
		"![x](<b>y</b>)\n## t",
	}

	for _, input := range inputs {
		once := Sanitize(input)
		assert.Equal(t, once, Sanitize(once), "input %q", input)
	}
}
