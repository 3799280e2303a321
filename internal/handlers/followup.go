package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

const contextSeparator = "\n\n---\n\n"

// answerFollowup answers a question strictly from the reference answers
// stored for the current category.
func (e *Engine) answerFollowup(ctx context.Context, state models.ChatState) string {
	question := state.LastUserMessage()
	category := state.HealthIssue

	docs := e.kb.Lookup(category)
	if len(docs) == 0 {
		return fmt.Sprintf("I could not find a knowledge base for '%s'. Please consult a healthcare professional.", category)
	}
	retrieved := strings.Join(docs, contextSeparator)

	reframed := fmt.Sprintf("What is the answer to the question '%s' in the context of '%s'?", question, category)

	prompt := fmt.Sprintf(`You are an answer-finding assistant. Your task is to provide a direct and concise answer to the user's question using ONLY the provided context.

**Context:**
---
%s
---

**User's Question (Re-framed for clarity):**
---
%s
---

Based **only** on the context provided above, give a specific and focused answer to the user's question. Do not provide a general summary. If the context does not contain a direct answer, state that the information is not available in the provided text.`, retrieved, reframed)

	answer, err := e.llm.Generate(ctx, prompt, e.routes.Answering)
	if err != nil {
		e.logger.Printf("followup generation failed: %v", err)
		return "I'm sorry, I ran into a problem while answering that. Please try again."
	}
	return strings.TrimSpace(answer)
}
