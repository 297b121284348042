package tweak

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// blankRunRegex matches three or more consecutive newlines, i.e. two or more
// empty lines in a row.
var blankRunRegex = regexp.MustCompile(`\n{3,}`)

// trailingSpaceRegex matches horizontal whitespace at the end of a line.
var trailingSpaceRegex = regexp.MustCompile(`[ \t]+\n`)

// NormalizeScript canonicalizes a raw script fragment:
// 1. Convert CRLF and bare CR line terminators to LF
// 2. Strip trailing horizontal whitespace from every line
// 3. Collapse runs of blank lines so at most one empty line separates content
// 4. Trim leading and trailing blank lines
//
// Trailing whitespace is stripped before blank runs are collapsed: a line of
// bare spaces becomes empty in step 2 and must still take part in step 3,
// otherwise the function would not be idempotent.
func NormalizeScript(raw string) string {
	if raw == "" {
		return ""
	}

	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	s = trailingSpaceRegex.ReplaceAllString(s+"\n", "\n")
	s = strings.TrimSuffix(s, "\n")

	s = blankRunRegex.ReplaceAllString(s, "\n\n")

	s = strings.Trim(s, "\n")

	return s
}

// CountChars returns the character count as runes (not bytes).
func CountChars(text string) int {
	return utf8.RuneCountInString(text)
}

// LineCount returns the number of lines in text. Empty text has zero lines;
// text without a trailing newline still counts its last line.
func LineCount(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(text, "\n") + 1
}
