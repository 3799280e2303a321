package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/suyashnema0707/MedGraph-Navigator/internal/helpers"
	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

type doctorQuery struct {
	Specialty string `json:"specialty"`
	Location  string `json:"location"`
}

// findDoctors extracts a specialty and location from the conversation
// and queries the locator. Missing fields produce a clarification
// question instead of a search.
func (e *Engine) findDoctors(ctx context.Context, state models.ChatState) string {
	var history strings.Builder
	for _, m := range state.Messages {
		fmt.Fprintf(&history, "%s: %s\n", m.Role, m.Content)
	}

	prompt := fmt.Sprintf(`You are an intelligent assistant. Your task is to extract the medical specialty and location from a user's request.

The user has already been diagnosed with the following potential issue: "%s"
Use this as the medical specialty unless the user specifies a different one in their latest message.

Here is the full conversation history for context:
%s
Analyze the LAST user message to find the location.

Respond with ONLY a JSON object containing the "specialty" and "location", enclosed in markdown code fences.
For example:
`+"```json\n{\"specialty\": \"Cardiology\", \"location\": \"Bhopal, India\"}\n```"+`
If you cannot find a clear location, return:
`+"```json\n{\"specialty\": null, \"location\": null}\n```", state.HealthIssue, history.String())

	raw, err := e.llm.Generate(ctx, prompt, e.routes.Classification)
	if err != nil {
		e.logger.Printf("finder extraction failed: %v", err)
		return "I had trouble understanding the request. Could you please rephrase it to include both a medical issue and a specific location?"
	}

	obj, err := helpers.ExtractJSONObject(raw)
	if err != nil {
		e.logger.Printf("finder response carried no JSON: %v", err)
		return "I had trouble understanding the request. Could you please rephrase it to include both a medical issue and a specific location?"
	}
	var query doctorQuery
	if err := json.Unmarshal([]byte(obj), &query); err != nil {
		e.logger.Printf("finder JSON malformed: %v", err)
		return "I had trouble understanding the request. Could you please rephrase it to include both a medical issue and a specific location?"
	}

	if query.Specialty == "" {
		query.Specialty = state.HealthIssue
	}
	if query.Specialty == "" || query.Location == "" {
		return "I can help with that. To find the right doctor, could you please provide your current city or area?"
	}

	doctors, err := e.finder.Find(ctx, query.Specialty, query.Location)
	if err != nil {
		e.logger.Printf("locator call failed: %v", err)
		return "I'm sorry, I encountered an error while searching for doctors. Please try again later."
	}
	if len(doctors) == 0 {
		return fmt.Sprintf("I couldn't find any doctors specializing in '%s' near '%s'. You could try a broader search, like 'General Physician'.", query.Specialty, query.Location)
	}

	listing, err := json.MarshalIndent(doctors, "", "  ")
	if err != nil {
		return "I'm sorry, I encountered an error while searching for doctors. Please try again later."
	}
	return fmt.Sprintf("Here are the doctor details I found:\n```json\n%s\n```", listing)
}
