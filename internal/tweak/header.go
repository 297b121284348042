package tweak

import (
	"fmt"
	"strings"
)

// headerMarker prefixes every rendered metadata line. "#" is a comment in
// PowerShell and in every POSIX shell, so composed documents stay runnable.
const headerMarker = "#"

// missingField is the literal placeholder for absent metadata values.
const missingField = "-"

// RenderHeader renders a tweak's metadata as a two-line comment block:
//
//	# <description>
//	# report: <n> | downloads: <n> | comment: <text>
//
// Absent values render as "-". The format is stable: downstream consumers
// diff and grep composed documents by header text.
//
// Metadata fields are flattened before rendering: an embedded newline would
// spill unmarked text into the composed document as runnable lines, so the
// block is always exactly two "#" lines no matter what a seed file carried.
func RenderHeader(t *Tweak) string {
	desc := ""
	if t.Description != nil {
		desc = flattenField(*t.Description)
	}

	report := missingField
	if t.ReportCount != nil {
		report = fmt.Sprintf("%d", *t.ReportCount)
	}

	comment := missingField
	if t.Comment != nil && *t.Comment != "" {
		if flat := flattenField(*t.Comment); flat != "" {
			comment = flat
		}
	}

	line1 := strings.TrimRight(headerMarker+" "+desc, " ")
	line2 := fmt.Sprintf("%s report: %s | downloads: %d | comment: %s",
		headerMarker, report, t.DownloadCount, comment)

	return line1 + "\n" + line2
}

// flattenField collapses newlines (and any surrounding whitespace runs) to
// single spaces so a metadata value stays on its header line.
func flattenField(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	return strings.Join(strings.Fields(s), " ")
}
