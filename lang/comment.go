package lang

import "strings"

// DefaultCommentMarker starts a comment that runs to the end of the line.
const DefaultCommentMarker = '%'

// StripComments removes, from every line of src, the first occurrence of
// marker and everything after it. Line breaks are preserved so token
// positions still match the original text.
func StripComments(src string, marker rune) string {
	lines := strings.Split(src, "\n")

	for i, line := range lines {
		if cut := strings.IndexRune(line, marker); cut >= 0 {
			lines[i] = line[:cut]
		}
	}

	return strings.Join(lines, "\n")
}
