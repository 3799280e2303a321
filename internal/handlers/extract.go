package handlers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	"image/png"
	"os"
	"strings"
)

const extractionPrompt = `Your task is to act as an Optical Character Recognition (OCR) engine.
Transcribe the text from the provided medical report image.
- Be as accurate as possible.
- Preserve the original formatting.
- Do not add any commentary or analysis.
- If the image is unreadable or contains no text, respond with only the phrase: "[UNREADABLE_IMAGE]".`

// reportKeywords is what a plausible report transcription must mention
// at least one of. Hallucinated or unreadable output rarely does.
var reportKeywords = []string{"patient", "report", "lab", "doctor", "impression", "results", "clinical"}

func looksLikeReport(extracted string) bool {
	lowered := strings.ToLower(extracted)
	if lowered == "" {
		return false
	}
	for _, kw := range reportKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// extractReportText reads the image, normalizes it to PNG and asks the
// vision model for a transcription. Failures come back as descriptive
// strings; the plausibility gate rejects them downstream.
func (e *Engine) extractReportText(ctx context.Context, imagePath string) string {
	if imagePath == "" {
		return "Error: No image path provided to the extractor agent."
	}

	raw, err := os.ReadFile(imagePath)
	if err != nil {
		e.logger.Printf("read image: %v", err)
		return fmt.Sprintf("Error: Image file not found at %s", imagePath)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		e.logger.Printf("decode image: %v", err)
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		e.logger.Printf("encode image: %v", err)
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}

	extracted, err := e.llm.GenerateVision(ctx, extractionPrompt, e.routes.Vision, buf.Bytes())
	if err != nil {
		e.logger.Printf("vision extraction failed: %v", err)
		return fmt.Sprintf("An unexpected error occurred: %v", err)
	}
	return strings.TrimSpace(extracted)
}
