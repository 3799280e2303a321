// Package router classifies each conversational turn to one of the
// specialist handlers. It is a pure classification function of
// (history, pending image flag, current category); no state transitions
// happen here.
package router

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

// Handler identifies a downstream specialist.
type Handler string

const (
	HandlerExtract   Handler = "extract"
	HandlerSymptom   Handler = "symptom"
	HandlerFollowup  Handler = "followup"
	HandlerFinder    Handler = "finder"
	HandlerSummarize Handler = "summarize"
)

// routable is the fixed priority order the model response is scanned in.
var routable = []Handler{HandlerSymptom, HandlerFollowup, HandlerFinder, HandlerSummarize}

// Generator is the slice of the provider contract the router needs.
type Generator interface {
	Generate(ctx context.Context, prompt, model string) (string, error)
}

// Router picks the handler for the current turn.
type Router struct {
	llm    Generator
	model  string
	logger *log.Logger
}

// New creates a router using the named classification model.
func New(llm Generator, model string) *Router {
	return &Router{
		llm:    llm,
		model:  model,
		logger: log.New(log.Writer(), "[ROUTER] ", log.LstdFlags),
	}
}

// Route returns the handler for the latest user message. A pending image
// always wins; otherwise the model classifies the turn, and any failure
// or unrecognized response defaults to the symptom handler.
func (r *Router) Route(ctx context.Context, history []models.Message, hasPendingImage bool, currentCategory string) Handler {
	if hasPendingImage {
		return HandlerExtract
	}

	resp, err := r.llm.Generate(ctx, r.prompt(history, currentCategory), r.model)
	if err != nil {
		r.logger.Printf("classification failed, defaulting to symptom: %v", err)
		return HandlerSymptom
	}
	for _, h := range routable {
		if strings.Contains(resp, string(h)) {
			return h
		}
	}
	r.logger.Printf("unrecognized routing decision %q, defaulting to symptom", resp)
	return HandlerSymptom
}

func (r *Router) prompt(history []models.Message, currentCategory string) string {
	if currentCategory == "" {
		currentCategory = "none"
	}
	var convo strings.Builder
	for _, m := range history {
		fmt.Fprintf(&convo, "%s: %s\n", m.Role, m.Content)
	}

	return fmt.Sprintf(`You are an expert router for a multi-agent healthcare assistant. Your job is to analyze the conversation and decide which handler should process the LATEST user message.

The available handlers are:
- symptom: use if the user is describing symptoms for the first time or is clearly starting a new symptom analysis.
- followup: use ONLY for direct follow-up questions AFTER a health issue has already been identified.
- finder: use when the user asks to find a doctor, specialist, or clinic, or is providing a location after being asked for one.
- summarize: use if the user pastes a large block of text that looks like a medical report.

Currently identified health issue: %q

Full conversation history:
%s
Based on the LATEST user message and the full conversation context, which handler should be called?
Respond with ONLY the handler name (symptom, followup, finder, or summarize).`, currentCategory, convo.String())
}
