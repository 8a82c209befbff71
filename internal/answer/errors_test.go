package answer

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassify_ByStatusCode(t *testing.T) {
	cases := []struct {
		status int
		want   Category
	}{
		{401, CategoryCredentials},
		{403, CategoryCredentials},
		{429, CategoryQuota},
	}
	for _, tc := range cases {
		err := &ProviderError{Provider: "claude", StatusCode: tc.status, Message: "nope"}
		if got := Classify(err); got != tc.want {
			t.Errorf("status %d: expected %q, got %q", tc.status, tc.want, got)
		}
	}
}

func TestClassify_WrappedProviderError(t *testing.T) {
	err := fmt.Errorf("asking failed: %w", &ProviderError{Provider: "gemini", StatusCode: 429})
	if got := Classify(err); got != CategoryQuota {
		t.Errorf("expected quota category through wrapping, got %q", got)
	}
}

func TestClassify_ByMessage(t *testing.T) {
	cases := []struct {
		err  error
		want Category
	}{
		{errors.New("gemini error: RESOURCE_EXHAUSTED: quota exceeded for project"), CategoryQuota},
		{errors.New("invalid api key supplied"), CategoryCredentials},
		{errors.New("gemini blocked content: SAFETY"), CategoryFiltered},
		{errors.New("connection reset by peer"), CategoryGeneric},
	}
	for _, tc := range cases {
		if got := Classify(tc.err); got != tc.want {
			t.Errorf("%v: expected %q, got %q", tc.err, tc.want, got)
		}
	}
}

func TestUserMessage_AlwaysNonEmpty(t *testing.T) {
	for _, cat := range []Category{CategoryQuota, CategoryCredentials, CategoryFiltered, CategoryGeneric, Category("bogus")} {
		if UserMessage(cat) == "" {
			t.Errorf("category %q produced an empty user message", cat)
		}
	}
}

func TestProviderError_TruncatesLongMessages(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	err := &ProviderError{Provider: "claude", StatusCode: 500, Message: string(long)}
	if len(err.Error()) > 300 {
		t.Errorf("expected truncated error text, got %d chars", len(err.Error()))
	}
}
