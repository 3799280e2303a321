// Package eval scores a model's answers against reference answers by
// embedding both and comparing cosine similarity.
package eval

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/suyashnema0707/MedGraph-Navigator/internal/knowledge"
)

const answerPrompt = `You are a medical expert providing a concise, factual answer to the following question.
Your response should be similar in style and content to a medical textbook or encyclopedia.

Question: %s

Answer:`

// TestCase pairs a question with the answer the model is held to.
type TestCase struct {
	Question       string `json:"question"`
	ExpectedAnswer string `json:"expected_answer"`
}

// CaseResult is the outcome for one test case.
type CaseResult struct {
	Question string
	Score    float64
	Correct  bool
	Elapsed  time.Duration
}

// Report aggregates a full evaluation run.
type Report struct {
	Model    string
	Total    int
	Skipped  int
	Correct  int
	Accuracy float64
	Results  []CaseResult
}

// Model is the surface the runner needs from an LLM provider.
type Model interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
	CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error)
}

// Runner drives an evaluation of one model over a test-case file.
type Runner struct {
	llm       Model
	model     string
	threshold float64
	logger    *log.Logger
}

func NewRunner(llm Model, model string, threshold float64) *Runner {
	if threshold <= 0 {
		threshold = 0.8
	}
	return &Runner{
		llm:       llm,
		model:     model,
		threshold: threshold,
		logger:    log.New(log.Writer(), "[EVAL] ", log.LstdFlags),
	}
}

// LoadTestCases reads a JSON array of test cases.
func LoadTestCases(path string) ([]TestCase, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read test cases: %w", err)
	}
	var cases []TestCase
	if err := json.Unmarshal(raw, &cases); err != nil {
		return nil, fmt.Errorf("decode test cases: %w", err)
	}
	return cases, nil
}

// Run evaluates every test case. Malformed cases are skipped, scoring
// failures count as incorrect.
func (r *Runner) Run(ctx context.Context, cases []TestCase) (Report, error) {
	if len(cases) == 0 {
		return Report{}, fmt.Errorf("no test cases")
	}
	report := Report{Model: r.model, Total: len(cases)}

	for i, tc := range cases {
		if tc.Question == "" || tc.ExpectedAnswer == "" {
			r.logger.Printf("skipping malformed test case %d", i+1)
			report.Skipped++
			continue
		}

		start := time.Now()
		answer, err := r.llm.Generate(ctx, fmt.Sprintf(answerPrompt, tc.Question), r.model)
		elapsed := time.Since(start)
		if err != nil {
			return Report{}, fmt.Errorf("generate answer for case %d: %w", i+1, err)
		}

		score := r.similarity(ctx, answer, tc.ExpectedAnswer)
		correct := score >= r.threshold
		if correct {
			report.Correct++
		}
		report.Results = append(report.Results, CaseResult{
			Question: tc.Question,
			Score:    score,
			Correct:  correct,
			Elapsed:  elapsed,
		})
		r.logger.Printf("case %d/%d score %.4f correct=%v (%.2fs)", i+1, len(cases), score, correct, elapsed.Seconds())
	}

	scored := report.Total - report.Skipped
	if scored > 0 {
		report.Accuracy = float64(report.Correct) / float64(scored) * 100
	}
	return report, nil
}

func (r *Runner) similarity(ctx context.Context, answer, expected string) float64 {
	vecs, err := r.llm.CreateEmbedding(ctx, []string{answer, expected})
	if err != nil || len(vecs) < 2 {
		r.logger.Printf("similarity scoring failed: %v", err)
		return 0
	}
	return knowledge.Cosine(vecs[0], vecs[1])
}
