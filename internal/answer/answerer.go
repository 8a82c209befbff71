// Package answer holds the external LLM collaborators that turn a composed
// prompt context into answer text, plus the error taxonomy that maps
// provider failures to user-facing messages.
package answer

import (
	"context"

	"github.com/dgallion1/docquery/internal/history"
)

// Request is one answering call: the user's question plus the bounded
// context assembled from the document and conversation history.
type Request struct {
	Question     string
	Context      string
	QuestionType history.QuestionType
}

// Answerer produces answer text for a request. Implementations call an
// external provider and may fail with rate-limit, auth or content-filter
// errors; timeout and cancellation arrive through the context.
type Answerer interface {
	Answer(ctx context.Context, req Request) (string, error)
	Model() string
}
