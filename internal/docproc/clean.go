package docproc

import (
	"regexp"
	"strings"
)

var (
	horizontalWS  = regexp.MustCompile(`[ \t\r\f\v]+`)
	pageArtifact  = regexp.MustCompile(`\b[pP]age\s*\d+\b`)
	strayChars    = regexp.MustCompile(`[^\w\s.,!?;:()\-"']`)
	sentenceSpace = regexp.MustCompile(`\.\s+`)
	multiSpace    = regexp.MustCompile(` {2,}`)
)

// Clean normalizes raw extracted text into canonical plain text. Line breaks
// are preserved so that downstream header detection still sees document
// structure; everything else (runs of spaces, page-number artifacts, stray
// symbols) is collapsed or replaced line by line.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}

	lines := strings.Split(raw, "\n")
	for i, line := range lines {
		line = horizontalWS.ReplaceAllString(line, " ")
		line = pageArtifact.ReplaceAllString(line, "")
		// Replace rather than delete, so adjacent words never fuse.
		line = strayChars.ReplaceAllString(line, " ")
		line = sentenceSpace.ReplaceAllString(line, ". ")
		line = multiSpace.ReplaceAllString(line, " ")
		lines[i] = strings.TrimSpace(line)
	}

	cleaned := strings.Join(lines, "\n")
	return strings.Trim(cleaned, "\n")
}
