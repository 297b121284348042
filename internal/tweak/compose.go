package tweak

import (
	"strings"
)

// ComposeOptions controls how selected tweaks are merged into one document.
type ComposeOptions struct {
	// Redactor, when non-nil, is applied to each tweak's code (never to the
	// rendered header) before concatenation.
	Redactor *Redactor

	// Normalize runs NormalizeScript over each tweak's code first. Stored
	// fragments are normalized at ingest, so composition leaves them alone by
	// default; re-normalizing here would hide malformed stored data.
	Normalize bool
}

// Compose merges an ordered list of tweaks into one export-ready document.
// Each tweak contributes its rendered header followed by its code (empty
// string when absent); blocks are joined by exactly one blank line and the
// result is right-trimmed. Pure and total: an empty selection yields "".
func Compose(tweaks []Tweak, opts ComposeOptions) string {
	if len(tweaks) == 0 {
		return ""
	}

	blocks := make([]string, 0, len(tweaks))
	for i := range tweaks {
		t := &tweaks[i]

		code := ""
		if t.Code != nil {
			code = *t.Code
		}
		if opts.Normalize {
			code = NormalizeScript(code)
		}
		if opts.Redactor != nil {
			code = opts.Redactor.Redact(code)
		}

		block := RenderHeader(t)
		if code != "" {
			block += "\n" + code
		}
		blocks = append(blocks, block)
	}

	doc := strings.Join(blocks, "\n\n")
	return strings.TrimRight(doc, " \t\n")
}
