// Package docproc turns raw extracted document text into structured
// sections, ranked keywords, an extractive summary and coarse metadata.
// All operations are pure and deterministic: processing the same input
// twice yields identical results.
package docproc

// ProcessedDocument is the immutable result of running the full document
// pipeline over one piece of raw text.
type ProcessedDocument struct {
	CleanedText string    `json:"cleanedText"`
	Sections    []Section `json:"sections"`
	Keywords    []string  `json:"keywords"`
	Summary     string    `json:"summary"`
	Metadata    Metadata  `json:"metadata"`
}

// Process composes normalization, segmentation, keyword extraction,
// summarization and metadata calculation over the same cleaned text.
func Process(rawText string) *ProcessedDocument {
	cleaned := Clean(rawText)

	return &ProcessedDocument{
		CleanedText: cleaned,
		Sections:    Segment(cleaned),
		Keywords:    Keywords(cleaned, DefaultKeywordLimit),
		Summary:     Summarize(cleaned),
		Metadata:    CalculateMetadata(cleaned),
	}
}
