package answer

import (
	"errors"
	"fmt"
	"strings"
)

// Category buckets provider failures into the few cases users can act on.
type Category string

const (
	CategoryQuota       Category = "quota"
	CategoryCredentials Category = "credentials"
	CategoryFiltered    Category = "content_filtered"
	CategoryGeneric     Category = "generic"
)

// ProviderError is a failure from an answering provider, carrying the HTTP
// status and provider message for classification and logs.
type ProviderError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, preview(e.Message, 200))
}

// Classify maps an answering failure to a user-facing category.
func Classify(err error) Category {
	if err == nil {
		return ""
	}

	var pe *ProviderError
	if errors.As(err, &pe) {
		switch pe.StatusCode {
		case 401, 403:
			return CategoryCredentials
		case 429:
			return CategoryQuota
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "quota"), strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "billing"):
		return CategoryQuota
	case strings.Contains(msg, "api key"), strings.Contains(msg, "unauthorized"),
		strings.Contains(msg, "authentication"):
		return CategoryCredentials
	case strings.Contains(msg, "blocked"), strings.Contains(msg, "safety"),
		strings.Contains(msg, "content filter"):
		return CategoryFiltered
	default:
		return CategoryGeneric
	}
}

// UserMessage is the answer text substituted for a failed provider call.
// Question answering never surfaces a raw error to the user.
func UserMessage(cat Category) string {
	switch cat {
	case CategoryQuota:
		return "Error: API quota exceeded. Please try again later or check your billing status."
	case CategoryCredentials:
		return "Error: Invalid API key. Please check your API key configuration."
	case CategoryFiltered:
		return "Error: The content was blocked by the provider's safety systems. Please try a different question or document."
	default:
		return "Sorry, there was an error processing your question. Please try again later."
	}
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
