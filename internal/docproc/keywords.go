package docproc

import (
	"regexp"
	"sort"
	"strings"
)

// DefaultKeywordLimit caps document-level keyword extraction.
const DefaultKeywordLimit = 20

// stopwords are common function words and pronouns excluded from keyword
// frequency ranking.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "up": true, "about": true,
	"into": true, "through": true, "during": true, "before": true,
	"after": true, "above": true, "below": true, "between": true,
	"among": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "me": true, "my": true, "myself": true, "we": true,
	"our": true, "ours": true, "ourselves": true,
}

var nonWord = regexp.MustCompile(`[^\w]`)

// Keywords computes a stopword-filtered term-frequency ranking over text and
// returns up to limit terms, most frequent first. Ties keep first-encountered
// order. Tokens of length 3 or shorter are discarded.
func Keywords(text string, limit int) []string {
	if limit <= 0 {
		limit = DefaultKeywordLimit
	}

	freq := make(map[string]int)
	var order []string

	for _, word := range strings.Fields(strings.ToLower(text)) {
		cleaned := nonWord.ReplaceAllString(word, "")
		if len(cleaned) <= 3 || stopwords[cleaned] {
			continue
		}
		if freq[cleaned] == 0 {
			order = append(order, cleaned)
		}
		freq[cleaned]++
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}
	return order
}
