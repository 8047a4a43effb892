package chat

import (
	"strings"

	"github.com/kailas-cloud/docuchat/internal/domain"
)

const (
	promptInstruction = "Use the following pieces of information to answer the user's question.\n" +
		"If you don't know the answer, just say that you don't know, don't try to make up an answer."
	promptClosing = "Only return the helpful answer. Answer must be detailed and well explained.\nHelpful answer:"
)

// PromptBuilder assembles the generation prompt deterministically:
// instruction, retrieved context, recent history, question. A character
// budget is enforced by dropping the lowest-ranked chunks, never by cutting
// text mid-chunk.
type PromptBuilder struct {
	historyTurns int
	budget       int // max prompt length in runes, 0 = unlimited
}

// NewPromptBuilder creates a prompt builder.
func NewPromptBuilder(historyTurns, budget int) *PromptBuilder {
	return &PromptBuilder{historyTurns: historyTurns, budget: budget}
}

// Build returns the prompt and the chunks that actually made it in.
// Chunks must arrive sorted best first; the tail is dropped under budget
// pressure.
func (b *PromptBuilder) Build(
	question string, chunks []domain.ScoredChunk, history domain.History,
) (string, []domain.ScoredChunk) {
	recent := history.Tail(b.historyTurns)

	included := chunks
	prompt := render(question, included, recent)
	for b.budget > 0 && len([]rune(prompt)) > b.budget && len(included) > 0 {
		included = included[:len(included)-1]
		prompt = render(question, included, recent)
	}

	return prompt, included
}

func render(question string, chunks []domain.ScoredChunk, history domain.History) string {
	var sb strings.Builder
	sb.WriteString(promptInstruction)
	sb.WriteString("\n\nContext:\n")

	if len(chunks) == 0 {
		sb.WriteString("(no relevant context found)\n")
	}
	for _, c := range chunks {
		sb.WriteString(c.Chunk.Text)
		sb.WriteString("\n\n")
	}

	if len(history) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range history {
			sb.WriteString(string(turn.Role))
			sb.WriteString(": ")
			sb.WriteString(turn.Content)
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\n\n")
	sb.WriteString(promptClosing)

	return sb.String()
}
