package docproc

import (
	"regexp"
	"strings"
)

// Complexity is a coarse lexical-difficulty tier for a document.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// Metadata carries coarse document statistics.
type Metadata struct {
	WordCount   int        `json:"wordCount"`
	ReadingTime int        `json:"readingTime"` // minutes, at 200 words/min
	Complexity  Complexity `json:"complexity"`
}

const (
	wordsPerMinute    = 200
	minSentenceLen    = 20
	longWordLen       = 7
	highComplexity    = 0.30
	mediumComplexity  = 0.15
)

var sentenceSplit = regexp.MustCompile(`[.!?]+`)

// Summarize derives a short extractive summary: the first, middle and last
// qualifying sentences joined with periods. Text with three or fewer
// qualifying sentences is returned unchanged rather than shortened.
func Summarize(text string) string {
	var sentences []string
	for _, s := range sentenceSplit.Split(text, -1) {
		s = strings.TrimSpace(s)
		if len(s) > minSentenceLen {
			sentences = append(sentences, s)
		}
	}

	if len(sentences) <= 3 {
		return text
	}

	picks := []string{
		sentences[0],
		sentences[len(sentences)/2],
		sentences[len(sentences)-1],
	}
	return strings.Join(picks, ". ") + "."
}

// CalculateMetadata computes word count, estimated reading time and a
// complexity tier based on the fraction of long words.
func CalculateMetadata(text string) Metadata {
	words := strings.Fields(text)
	if len(words) == 0 {
		return Metadata{Complexity: ComplexityLow}
	}

	longWords := 0
	for _, w := range words {
		if len(w) > longWordLen {
			longWords++
		}
	}
	ratio := float64(longWords) / float64(len(words))

	complexity := ComplexityLow
	if ratio > highComplexity {
		complexity = ComplexityHigh
	} else if ratio > mediumComplexity {
		complexity = ComplexityMedium
	}

	return Metadata{
		WordCount:   len(words),
		ReadingTime: (len(words) + wordsPerMinute - 1) / wordsPerMinute,
		Complexity:  complexity,
	}
}
