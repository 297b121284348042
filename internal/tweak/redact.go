package tweak

import (
	"regexp"
)

// DefaultMask is the replacement token for redacted spans.
const DefaultMask = "[REDACTED]"

// DefaultRedactPatterns matches the secret shapes most commonly pasted into
// tweak scripts: key/password/token assignments (bare, single- or
// double-quoted values) and bare AWS-style key ids. Patterns operate within a
// single line; none of them can match across "\n", so redaction never changes
// the line count.
var DefaultRedactPatterns = []string{
	`(?i)(api[_-]?key|apikey)([ \t]*[=:][ \t]*)(?:'[^'\n]*'|"[^"\n]*"|[^\s'"]+)`,
	`(?i)(password|passwd|pwd)([ \t]*[=:][ \t]*)(?:'[^'\n]*'|"[^"\n]*"|[^\s'"]+)`,
	`(?i)(token|secret|bearer)([ \t]*[=:][ \t]*)(?:'[^'\n]*'|"[^"\n]*"|[^\s'"]+)`,
	`\bAKIA[0-9A-Z]{16}\b`,
}

// Redactor masks sensitive substrings in script text. Construct once via
// NewRedactor and reuse; Redact is safe for concurrent use.
type Redactor struct {
	patterns []*regexp.Regexp
	mask     string
}

// NewRedactor compiles the given pattern set. Invalid patterns are reported
// rather than skipped so a bad config entry is caught at startup, not at
// redaction time. Empty patterns fall back to DefaultRedactPatterns; an empty
// mask falls back to DefaultMask.
func NewRedactor(patterns []string, mask string) (*Redactor, error) {
	if len(patterns) == 0 {
		patterns = DefaultRedactPatterns
	}
	if mask == "" {
		mask = DefaultMask
	}

	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, err
		}
		compiled = append(compiled, re)
	}

	return &Redactor{patterns: compiled, mask: mask}, nil
}

// Redact replaces every matched span with the mask token, preserving the
// surrounding text and line structure exactly. Deterministic and idempotent:
// a mask token that re-matches a pattern is replaced by itself.
//
// Patterns with capture groups keep group 1 (and a group-2 separator when
// present) so that "password = hunter2" redacts to "password = [REDACTED]"
// rather than losing the assignment shape.
func (r *Redactor) Redact(code string) string {
	if code == "" {
		return ""
	}

	out := code
	for _, re := range r.patterns {
		switch re.NumSubexp() {
		case 0:
			out = re.ReplaceAllString(out, r.mask)
		case 1:
			out = re.ReplaceAllString(out, "${1}"+r.mask)
		default:
			out = re.ReplaceAllString(out, "${1}${2}"+r.mask)
		}
	}
	return out
}

// Matches reports whether any configured pattern matches the text.
func (r *Redactor) Matches(text string) bool {
	for _, re := range r.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return false
}
