package router

import (
	"context"
	"errors"
	"testing"

	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

type fixedLLM struct {
	reply string
	err   error
	calls int
}

func (f *fixedLLM) Generate(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.reply, f.err
}

func history(texts ...string) []models.Message {
	out := make([]models.Message, len(texts))
	for i, t := range texts {
		out[i] = models.Message{Role: models.RoleUser, Content: t}
	}
	return out
}

func TestRoutePendingImageWins(t *testing.T) {
	llm := &fixedLLM{reply: "finder"}
	r := New(llm, "test-model")

	got := r.Route(context.Background(), history("find me a doctor"), true, "Diabetes")
	if got != HandlerExtract {
		t.Fatalf("expected extract, got %s", got)
	}
	if llm.calls != 0 {
		t.Fatalf("pending image must not invoke the model, got %d calls", llm.calls)
	}
}

func TestRouteClassification(t *testing.T) {
	cases := []struct {
		reply string
		want  Handler
	}{
		{"symptom", HandlerSymptom},
		{"followup", HandlerFollowup},
		{"finder", HandlerFinder},
		{"summarize", HandlerSummarize},
		{"I would route this to the `finder` handler.", HandlerFinder},
	}
	for _, tc := range cases {
		r := New(&fixedLLM{reply: tc.reply}, "test-model")
		got := r.Route(context.Background(), history("hello"), false, "")
		if got != tc.want {
			t.Fatalf("reply %q: expected %s, got %s", tc.reply, tc.want, got)
		}
	}
}

func TestRouteDefaultsToSymptom(t *testing.T) {
	for _, llm := range []*fixedLLM{
		{reply: "no idea"},
		{err: errors.New("model unavailable")},
	} {
		r := New(llm, "test-model")
		if got := r.Route(context.Background(), history("hi"), false, ""); got != HandlerSymptom {
			t.Fatalf("expected symptom default, got %s", got)
		}
	}
}
