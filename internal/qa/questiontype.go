package qa

import (
	"strings"

	"github.com/dgallion1/docquery/internal/history"
)

// Keyword tables for question classification. Kept as static data so the
// lists are independently testable and swappable.
var algorithmKeywords = []string{
	"algorithm", "complexity", "time complexity", "space complexity",
	"approach", "greedy", "kruskal", "prim", "dijkstra",
	"dynamic programming", "big o",
}

var visualizationKeywords = []string{
	"data visual", "visualization", "chart", "graph", "plot", "dashboard",
}

// DetectQuestionType classifies a question by keyword matching. Algorithm
// keywords win over visualization keywords; anything else is general.
func DetectQuestionType(question string) history.QuestionType {
	q := strings.ToLower(question)

	for _, kw := range algorithmKeywords {
		if strings.Contains(q, kw) {
			return history.QuestionAlgorithm
		}
	}
	for _, kw := range visualizationKeywords {
		if strings.Contains(q, kw) {
			return history.QuestionVisualization
		}
	}
	return history.QuestionGeneral
}
