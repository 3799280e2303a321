// Package resolve maps free-text symptom descriptions onto knowledge-base
// categories with a two-stage retrieve-and-rerank pipeline.
package resolve

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/suyashnema0707/MedGraph-Navigator/internal/helpers"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/knowledge"
)

// FallbackCategory is returned when retrieval yields no candidates.
const FallbackCategory = "Undetermined"

// bodySystems is the closed set the classification step may answer from.
var bodySystems = []string{
	"Cardiovascular",
	"Neurological",
	"Respiratory",
	"Dermatological",
	"Musculoskeletal",
	"Gastrointestinal",
	"General/Systemic",
}

// Generator is the slice of the provider contract the resolver needs.
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// Searcher is the retrieval capability, satisfied by *knowledge.Store.
type Searcher interface {
	Search(ctx context.Context, query string, k int) []knowledge.Candidate
}

// Resolver picks the single best-matching category for a symptom text.
type Resolver struct {
	llm    Generator
	kb     Searcher
	model  string
	topK   int
	logger *log.Logger
}

// New creates a resolver. model names the classification model.
func New(llm Generator, kb Searcher, model string, topK int) *Resolver {
	if topK <= 0 {
		topK = 5
	}
	return &Resolver{
		llm:    llm,
		kb:     kb,
		model:  model,
		topK:   topK,
		logger: log.New(log.Writer(), "[RESOLVE] ", log.LstdFlags),
	}
}

// Resolve is total: it always returns a non-empty category and never
// propagates an error. Every internal failure falls back to the top-1
// retrieval candidate, reusing the first retrieval rather than querying
// again, or to FallbackCategory when retrieval itself came back empty.
func (r *Resolver) Resolve(ctx context.Context, symptoms string) string {
	candidates := r.kb.Search(ctx, symptoms, r.topK)
	if len(candidates) == 0 {
		r.logger.Printf("no candidates for %q", symptoms)
		return FallbackCategory
	}

	category, err := r.classify(ctx, symptoms)
	if err != nil {
		r.logger.Printf("classification failed, using top retrieval result: %v", err)
		return candidates[0].Category
	}

	idx, err := r.rerank(ctx, symptoms, category, candidates)
	if err != nil {
		r.logger.Printf("re-rank failed, using top retrieval result: %v", err)
		return candidates[0].Category
	}
	return candidates[idx].Category
}

// classify buckets the symptoms into one body system. The prompt forbids
// anything besides the label; the first whitespace-delimited token of the
// response is taken, trailing punctuation stripped.
func (r *Resolver) classify(ctx context.Context, symptoms string) (string, error) {
	var b strings.Builder
	b.WriteString("Your task is to classify the following symptoms into one of the provided categories.\n\n")
	b.WriteString("Available Categories:\n")
	for _, c := range bodySystems {
		b.WriteString("- " + c + "\n")
	}
	fmt.Fprintf(&b, "\nUser's Symptoms: %q\n\n", symptoms)
	b.WriteString("CRITICAL INSTRUCTION: Respond with ONLY the single most appropriate category name from the list above. Do not add any explanation or conversational text.")

	resp, err := r.llm.Generate(ctx, b.String(), r.model)
	if err != nil {
		return "", err
	}
	fields := strings.Fields(resp)
	if len(fields) == 0 {
		return "", fmt.Errorf("empty classification response")
	}
	return strings.TrimRight(fields[0], ".,:;!?"), nil
}

// rerank asks the model for the 1-based index of the best candidate and
// returns it 0-based. Out-of-range or unparsable responses are errors;
// the caller falls back deterministically.
func (r *Resolver) rerank(ctx context.Context, symptoms, category string, candidates []knowledge.Candidate) (int, error) {
	var options strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&options, "Option [%d] (Topic: %s)\n", i+1, c.Category)
	}

	prompt := fmt.Sprintf(`You are a medical expert. Your task is to perform a differential diagnosis.
User's Symptoms: %q
The primary medical category for these symptoms is: %q

Based on a preliminary search, here are some potentially related health topics:
%s
Considering both the symptoms and the medical category, which topic from the list is the most specific and likely match?
Respond with ONLY the number of the best match (e.g., "1", "2", etc.).`, symptoms, category, options.String())

	resp, err := r.llm.Generate(ctx, prompt, r.model)
	if err != nil {
		return 0, err
	}
	n, ok := helpers.ExtractFirstInt(resp)
	if !ok {
		return 0, fmt.Errorf("no index in re-rank response %q", resp)
	}
	if n < 1 || n > len(candidates) {
		return 0, fmt.Errorf("re-rank index %d out of range [1,%d]", n, len(candidates))
	}
	return n - 1, nil
}
