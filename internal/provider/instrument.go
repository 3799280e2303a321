package provider

import (
	"context"
	"time"
)

// Recorder receives timing for each outbound model call.
type Recorder interface {
	RecordLLMRequest(model string, duration time.Duration, err error)
}

type instrumented struct {
	inner          Provider
	rec            Recorder
	embeddingModel string
}

// WithTelemetry wraps p so every outbound call is timed and recorded.
func WithTelemetry(p Provider, rec Recorder, embeddingModel string) Provider {
	if rec == nil {
		return p
	}
	return &instrumented{inner: p, rec: rec, embeddingModel: embeddingModel}
}

func (p *instrumented) Generate(ctx context.Context, prompt, model string) (string, error) {
	start := time.Now()
	out, err := p.inner.Generate(ctx, prompt, model)
	p.rec.RecordLLMRequest(model, time.Since(start), err)
	return out, err
}

func (p *instrumented) GenerateVision(ctx context.Context, prompt, model string, image []byte) (string, error) {
	start := time.Now()
	out, err := p.inner.GenerateVision(ctx, prompt, model, image)
	p.rec.RecordLLMRequest(model, time.Since(start), err)
	return out, err
}

func (p *instrumented) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	out, err := p.inner.CreateEmbedding(ctx, texts)
	p.rec.RecordLLMRequest(p.embeddingModel, time.Since(start), err)
	return out, err
}
