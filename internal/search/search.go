// Package search ranks document sections against a question using lexical
// term overlap and assembles a length-bounded context string from the best
// matches. Scoring is heuristic, not embedding-based.
package search

import (
	"regexp"
	"sort"
	"strings"

	"github.com/dgallion1/docquery/internal/docproc"
)

// Result pairs a section with its relevance score for one query.
type Result struct {
	Section        docproc.Section `json:"section"`
	RelevanceScore float64         `json:"relevanceScore"`
	MatchedTerms   []string        `json:"matchedTerms"`
}

// Scoring weights. Exact term hits count double, a verbatim phrase hit
// dominates, and terms appearing in the section title get extra credit.
const (
	exactWeight  = 2.0
	partialWeight = 1.0
	phraseWeight = 5.0
	titleWeight  = 1.5
)

// maxQueryTerms bounds term extraction for performance on long inputs.
const maxQueryTerms = 50

// DefaultLimit is the default number of ranked sections returned.
const DefaultLimit = 5

var nonWord = regexp.MustCompile(`[^\w]`)

// queryStopwords is a broader stopword set than keyword extraction uses,
// since questions are full of auxiliaries and interrogatives.
var queryStopwords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "from": true, "up": true, "about": true,
	"into": true, "through": true, "during": true, "before": true,
	"after": true, "above": true, "below": true, "between": true,
	"among": true, "this": true, "that": true, "these": true, "those": true,
	"i": true, "me": true, "my": true, "myself": true, "we": true,
	"our": true, "ours": true, "ourselves": true, "you": true, "your": true,
	"yours": true, "yourself": true, "yourselves": true, "he": true,
	"him": true, "his": true, "himself": true, "she": true, "her": true,
	"hers": true, "herself": true, "it": true, "its": true, "itself": true,
	"they": true, "them": true, "their": true, "theirs": true,
	"themselves": true, "what": true, "which": true, "who": true,
	"whom": true, "whose": true, "where": true, "when": true, "why": true,
	"how": true, "is": true, "are": true, "was": true, "were": true,
	"be": true, "been": true, "being": true, "have": true, "has": true,
	"had": true, "having": true, "do": true, "does": true, "did": true,
	"doing": true, "will": true, "would": true, "could": true,
	"should": true, "may": true, "might": true, "must": true, "can": true,
	"shall": true,
}

// Rank scores every section against the query and returns at most limit
// results, best first. Sections with a zero score are excluded; ties keep
// document order.
func Rank(sections []docproc.Section, query string, limit int) []Result {
	if limit <= 0 {
		limit = DefaultLimit
	}
	queryTerms := extractTerms(strings.ToLower(query))

	var results []Result
	for _, section := range sections {
		sectionText := strings.ToLower(section.Title + " " + section.Content)
		sectionTerms := extractTerms(sectionText)

		score := relevance(queryTerms, sectionTerms, sectionText)
		if score <= 0 {
			continue
		}

		var matched []string
		for _, term := range queryTerms {
			if strings.Contains(sectionText, term) {
				matched = append(matched, term)
			}
		}

		results = append(results, Result{
			Section:        section,
			RelevanceScore: score,
			MatchedTerms:   matched,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].RelevanceScore > results[j].RelevanceScore
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// BuildContext assembles ranked section blocks into a single context string
// of at most maxLength bytes. Blocks are included whole or not at all. With
// no scoring sections it falls back to the leading sections, and with a
// first block that is itself too large it degrades to truncated raw content,
// so the result is never empty while sections exist.
func BuildContext(sections []docproc.Section, query string, maxLength int) string {
	if len(sections) == 0 {
		return ""
	}

	ranked := Rank(sections, query, 10)
	if len(ranked) == 0 {
		n := len(sections)
		if n > 3 {
			n = 3
		}
		blocks := make([]string, 0, n)
		for _, s := range sections[:n] {
			blocks = append(blocks, s.Title+"\n"+s.Content)
		}
		return truncate(strings.Join(blocks, "\n\n"), maxLength)
	}

	var sb strings.Builder
	for _, r := range ranked {
		block := r.Section.Title + "\n" + r.Section.Content + "\n\n"
		if sb.Len()+len(block) > maxLength {
			break
		}
		sb.WriteString(block)
	}

	if sb.Len() == 0 {
		return truncate(sections[0].Content, maxLength)
	}
	return sb.String()
}

// extractTerms lower-cases, strips punctuation and filters stopwords and
// very short tokens, capped at maxQueryTerms.
func extractTerms(text string) []string {
	var terms []string
	for _, word := range strings.Fields(text) {
		cleaned := nonWord.ReplaceAllString(word, "")
		if len(cleaned) <= 2 || queryStopwords[cleaned] {
			continue
		}
		terms = append(terms, cleaned)
		if len(terms) >= maxQueryTerms {
			break
		}
	}
	return terms
}

func relevance(queryTerms, sectionTerms []string, sectionText string) float64 {
	if len(queryTerms) == 0 {
		return 0
	}

	sectionSet := make(map[string]bool, len(sectionTerms))
	for _, t := range sectionTerms {
		sectionSet[t] = true
	}

	var score float64
	for _, term := range queryTerms {
		if sectionSet[term] {
			score += exactWeight
		}
		for _, secTerm := range sectionTerms {
			if strings.Contains(secTerm, term) || strings.Contains(term, secTerm) {
				score += partialWeight
				break
			}
		}
	}

	if strings.Contains(sectionText, strings.Join(queryTerms, " ")) {
		score += phraseWeight
	}

	title := sectionText
	if idx := strings.IndexByte(sectionText, '\n'); idx >= 0 {
		title = sectionText[:idx]
	}
	for _, term := range queryTerms {
		if strings.Contains(title, term) {
			score += titleWeight
		}
	}

	return score
}

func truncate(s string, n int) string {
	if n < 0 {
		n = 0
	}
	if len(s) <= n {
		return s
	}
	return s[:n]
}
