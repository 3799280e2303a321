// Package handlers runs a single conversational turn: the router picks a
// specialist, the specialist produces the reply and any state changes.
// Every specialist is total; failures surface as assistant messages,
// never as errors, so a turn always yields a reply.
package handlers

import (
	"context"
	"log"

	"github.com/suyashnema0707/MedGraph-Navigator/config"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/locator"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/provider"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/router"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/telemetry"
	"github.com/suyashnema0707/MedGraph-Navigator/models"
)

// TurnRouter decides which specialist handles the latest message.
type TurnRouter interface {
	Route(ctx context.Context, history []models.Message, hasPendingImage bool, currentCategory string) router.Handler
}

// CategoryResolver maps free-text symptoms to a knowledge category.
type CategoryResolver interface {
	Resolve(ctx context.Context, symptoms string) string
}

// AnswerSource serves the reference answers stored for a category.
type AnswerSource interface {
	Lookup(category string) []string
}

// Engine wires the router and the specialists together.
type Engine struct {
	llm      provider.Provider
	routes   config.RoutingConfig
	router   TurnRouter
	resolver CategoryResolver
	kb       AnswerSource
	finder   locator.Finder
	tele     *telemetry.Telemetry
	logger   *log.Logger
}

func NewEngine(llm provider.Provider, routes config.RoutingConfig, rt TurnRouter, resolver CategoryResolver, kb AnswerSource, finder locator.Finder, tele *telemetry.Telemetry) *Engine {
	return &Engine{
		llm:      llm,
		routes:   routes,
		router:   rt,
		resolver: resolver,
		kb:       kb,
		finder:   finder,
		tele:     tele,
		logger:   log.New(log.Writer(), "[ENGINE] ", log.LstdFlags),
	}
}

// Turn appends the user message, routes it, runs the chosen specialist
// and appends its reply. The returned state is the caller's to persist.
func (e *Engine) Turn(ctx context.Context, state models.ChatState, input string) models.ChatState {
	state = state.Append(models.Message{Role: models.RoleUser, Content: input})

	handler := e.router.Route(ctx, state.Messages, state.ImagePath != "", state.HealthIssue)
	e.logger.Printf("turn routed to %s", handler)
	e.tele.RecordTurn(string(handler))

	var reply string
	switch handler {
	case router.HandlerExtract:
		return e.runExtraction(ctx, state)
	case router.HandlerFollowup:
		reply = e.answerFollowup(ctx, state)
	case router.HandlerFinder:
		reply = e.findDoctors(ctx, state)
	case router.HandlerSummarize:
		reply = e.summarizeReport(ctx, state)
	default:
		state, reply = e.identifySymptoms(ctx, state)
	}
	return state.Append(models.Message{Role: models.RoleAssistant, Content: reply})
}

// runExtraction transcribes the pending report image and, when the
// transcription plausibly is a report, hands it to the summarizer. The
// pending image is consumed either way.
func (e *Engine) runExtraction(ctx context.Context, state models.ChatState) models.ChatState {
	extracted := e.extractReportText(ctx, state.ImagePath)
	state.ImagePath = ""

	if !looksLikeReport(extracted) {
		e.logger.Printf("extraction rejected by plausibility gate")
		return state.Append(models.Message{
			Role:    models.RoleAssistant,
			Content: "I was unable to read the provided medical report image, or the content was not recognized as a report. Please try again with a clearer image.",
		})
	}

	state.ExtractedText = extracted
	// The upload marker becomes the transcription so the summarizer and
	// any later turns see the report text, not the filename.
	msgs := make([]models.Message, len(state.Messages))
	copy(msgs, state.Messages)
	msgs[len(msgs)-1] = models.Message{Role: models.RoleUser, Content: extracted}
	state.Messages = msgs

	e.tele.RecordTurn(string(router.HandlerSummarize))
	reply := e.summarizeReport(ctx, state)
	return state.Append(models.Message{Role: models.RoleAssistant, Content: reply})
}
