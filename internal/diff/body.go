package diff

import "strings"

const noNewlineMarker = "\n\\ No newline at end of file"

// ExtractBody returns the patch part of `git show` output: the text after the
// last blank line, with "\ No newline at end of file" markers removed.
// Output without a blank line is returned whole. When the last paragraph is
// the commit header or message (a commit with no patch) the result is empty.
func ExtractBody(raw string) string {
	raw = strings.ReplaceAll(raw, noNewlineMarker, "")

	idx := strings.LastIndex(raw, "\n\n")
	if idx < 0 {
		return raw
	}
	body := raw[idx+2:]
	if strings.HasPrefix(body, "commit ") || strings.HasPrefix(body, "    ") {
		return ""
	}
	return body
}
