package llm

import (
	"strings"

	"github.com/Rrens/pdf-chat/internal/domain"
)

// Instructions is the fixed preamble placed before the document
const Instructions = `You are an AI assistant that analyzes documents.
Rules:
- Answer ONLY using the PDF content below. If the answer is not in it, say so.
- No generic intros like 'This PDF is...'
- Go straight to the point.
- Use bullet points with short, crisp sentences.
- Be concise.
- If the content is boring or obvious, say it bluntly.
- Keep it human, not corporate.`

// BuildPrompt renders the grounding prompt from the document text, the last
// window turns of history and the new question. It is pure and deterministic.
func BuildPrompt(documentText string, history []domain.Turn, question string, window int) string {
	if window >= 0 && len(history) > window {
		history = history[len(history)-window:]
	}

	var b strings.Builder
	b.WriteString(Instructions)
	b.WriteString("\n\nPDF CONTENT:\n")
	b.WriteString(documentText)
	b.WriteString("\n\nRECENT CONVERSATION:\n")
	for _, turn := range history {
		b.WriteString(roleLabel(turn.Role))
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	b.WriteString("User: ")
	b.WriteString(question)
	b.WriteString("\nAssistant:")
	return b.String()
}

func roleLabel(role domain.Role) string {
	if role == domain.RoleUser {
		return "User"
	}
	return "Assistant"
}
