package docproc

import (
	"regexp"
	"strings"
)

// Section is a contiguous span of document text introduced by a detected
// header line. StartIndex and EndIndex are line offsets into the source text;
// EndIndex is exclusive and equals the index of the next header (or the total
// line count for the final section).
type Section struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	Level      int    `json:"level"`
	StartIndex int    `json:"startIndex"`
	EndIndex   int    `json:"endIndex"`
}

// Headers longer than this are assumed to be body text that merely looks
// like a heading (e.g. a capitalized sentence).
const maxHeaderLen = 100

var (
	numberedHeader = regexp.MustCompile(`(?i)^\d+\.|\bchapter\s+\d+\b|\bsection\s+\d+\b`)
	levelThree     = regexp.MustCompile(`^\d+\.\d+\.\d+`)
	levelTwo       = regexp.MustCompile(`^\d+\.\d+`)
	levelOne       = regexp.MustCompile(`^\d+\.`)
)

// Segment splits text into titled sections using header-detection
// heuristics. Body lines preceding the first detected header carry no
// section to attach to and are dropped.
func Segment(text string) []Section {
	lines := strings.Split(text, "\n")

	var sections []Section
	var current *Section

	for i, raw := range lines {
		line := strings.TrimSpace(raw)

		if line != "" && isLikelyHeader(line) {
			if current != nil {
				current.EndIndex = i
				current.Content = strings.TrimSpace(current.Content)
				sections = append(sections, *current)
			}
			current = &Section{
				Title:      line,
				Level:      headerLevel(line),
				StartIndex: i,
				EndIndex:   i,
			}
		} else if current != nil && line != "" {
			current.Content += line + " "
		}
	}

	if current != nil {
		current.EndIndex = len(lines)
		current.Content = strings.TrimSpace(current.Content)
		sections = append(sections, *current)
	}

	return sections
}

// isLikelyHeader decides whether a (non-empty, trimmed) line opens a new
// section. The rules fire in order: numbered headings, ALL-CAPS lines, then
// short title-case lines. A "Slide 1: Introduction" style line lands in the
// title-case rule.
func isLikelyHeader(line string) bool {
	if len(line) == 0 || len(line) > maxHeaderLen {
		return false
	}

	if numberedHeader.MatchString(line) {
		return true
	}

	if line == strings.ToUpper(line) && len(line) > 2 {
		return true
	}

	words := strings.Fields(line)
	if len(words) > 8 {
		return false
	}
	for _, w := range words {
		first := w[:1]
		if first != strings.ToUpper(first) {
			return false
		}
	}
	return true
}

func headerLevel(line string) int {
	switch {
	case levelThree.MatchString(line):
		return 3
	case levelTwo.MatchString(line):
		return 2
	case levelOne.MatchString(line):
		return 1
	case line == strings.ToUpper(line):
		return 1
	default:
		return 2
	}
}
