package qa

import (
	"strings"

	"github.com/dgallion1/docquery/internal/docproc"
)

// buildPromptContext assembles the bounded context handed to the answering
// collaborator: document summary, top keywords, relevant sections, prior
// conversation, then the question itself.
func buildPromptContext(doc *docproc.ProcessedDocument, sectionContext, conversationContext, question string) string {
	var sb strings.Builder

	sb.WriteString("Document Summary: ")
	sb.WriteString(doc.Summary)
	sb.WriteString("\n\nKey Topics: ")
	sb.WriteString(strings.Join(doc.Keywords, ", "))
	sb.WriteString("\n\nRelevant Sections:\n")
	sb.WriteString(sectionContext)

	if conversationContext != "" {
		sb.WriteString("\n\nPrevious Conversation Context:\n")
		sb.WriteString(conversationContext)
	}

	sb.WriteString("\n\nCurrent Question: ")
	sb.WriteString(question)

	return strings.TrimSpace(sb.String())
}
