package handlers

import (
	"context"
	"fmt"

	"github.com/suyashnema0707/MedGraph-Navigator/internal/helpers"
	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

const summarizerPrompt = `You are an expert AI medical analyst. Your task is to analyze the provided medical report text and return a structured JSON summary.

The JSON object must have the following keys: "key_observations", "lab_analysis", "areas_for_improvement", "disclaimer".

- **key_observations**: A list of strings summarizing the key points from the doctor's narrative notes or impression.
- **lab_analysis**: A list of objects, where each object has "metric", "value", and "assessment" keys. Compare each lab value against the provided healthy ranges.
- **areas_for_improvement**: A list of strings containing general, actionable advice based on the analysis.
- **disclaimer**: A standard safety disclaimer.

**Healthy Ranges for Lab Values:**
- Blood Pressure: < 120/80 mmHg
- Total Cholesterol: < 200 mg/dL
- LDL Cholesterol: < 100 mg/dL
- HDL Cholesterol: > 60 mg/dL
- Triglycerides: < 150 mg/dL
- Hemoglobin A1c: < 5.7 %
- WBC: 4.5 - 11.0 x10^9/L
- Hemoglobin: 13.5-17.5 g/dL (male), 12.0-15.5 g/dL (female)

Respond with ONLY the JSON object, enclosed in markdown code fences (` + "```json ... ```" + `).`

// summarizeReport turns the extracted report text into a structured
// JSON summary. The JSON is re-extracted from the model output so the
// reply always carries a clean fenced block.
func (e *Engine) summarizeReport(ctx context.Context, state models.ChatState) string {
	if state.ExtractedText == "" {
		return "There was no report text to summarize. Please provide a report."
	}

	prompt := fmt.Sprintf("%s\n\nHere is the medical report to analyze:\n\n%s", summarizerPrompt, state.ExtractedText)
	raw, err := e.llm.Generate(ctx, prompt, e.routes.Answering)
	if err != nil {
		e.logger.Printf("summarization failed: %v", err)
		return "I'm sorry, I encountered an error while summarizing the report. The format of the report might be unusual. Please try again."
	}

	obj, err := helpers.ExtractJSONObject(raw)
	if err != nil {
		e.logger.Printf("summary carried no JSON: %v", err)
		return "I'm sorry, I encountered an error while summarizing the report. The format of the report might be unusual. Please try again."
	}
	return fmt.Sprintf("Here is the summary of the report:\n```json\n%s\n```", obj)
}
