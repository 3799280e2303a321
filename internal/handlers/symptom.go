package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

// identifySymptoms resolves the user's description to a category and
// offers the next-step menu. A bare "analyze my symptoms" request gets
// a prompt for details instead of a resolution.
func (e *Engine) identifySymptoms(ctx context.Context, state models.ChatState) (models.ChatState, string) {
	input := state.LastUserMessage()
	lowered := strings.ToLower(input)
	if strings.Contains(lowered, "analyze") && strings.Contains(lowered, "symptoms") {
		return state, "Of course. Please describe the symptoms you are experiencing in detail."
	}

	category := e.resolver.Resolve(ctx, input)
	state.HealthIssue = category

	reply := fmt.Sprintf("Based on your symptoms, the potential issue is '%s'.\n\n"+
		"What would you like to do next?\n"+
		"1. Ask a follow-up question.\n"+
		"2. Find a doctor for this issue.\n"+
		"3. Analyze a different symptom.\n"+
		"4. Summarize a medical report.", category)
	return state, reply
}
