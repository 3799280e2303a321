// Package server exposes the assistant over HTTP. One echo instance
// carries the chat API, health and metrics endpoints.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/suyashnema0707/MedGraph-Navigator/config"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/handlers"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/knowledge"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/locator"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/provider"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/resolve"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/router"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/store"
	"github.com/suyashnema0707/MedGraph-Navigator/internal/telemetry"
)

// Run wires all dependencies and serves until the listener fails.
func Run(cfg *config.Config) error {
	e := newEcho()

	ctx := context.Background()

	tele := telemetry.NewTelemetry(cfg.Telemetry)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(tele.Registry(), promhttp.HandlerOpts{})))
	e.GET("/statusz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{"turns": tele.TurnCounts()})
	})

	llm, err := provider.NewProvider(cfg.LLM)
	if err != nil {
		return fmt.Errorf("llm provider: %w", err)
	}
	llm = provider.WithTelemetry(llm, tele, cfg.LLM.EmbeddingModel)

	kb, err := knowledge.Load(cfg.Knowledge.CSVPath, cfg.Knowledge.IndexPath, llm)
	if err != nil {
		return fmt.Errorf("knowledge base: %w", err)
	}

	if dsn := cfg.Storage.Postgres.DSN(); dsn != "" {
		if err := Migrate("file://migrations", dsn, "up", 0); err != nil {
			log.Printf("[HTTP] migrations: %v", err)
		}
	}
	st, err := store.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("session store: %w", err)
	}

	engine := handlers.NewEngine(
		llm,
		cfg.LLM.Routing,
		router.New(llm, cfg.LLM.Routing.Classification),
		resolve.New(llm, kb, cfg.LLM.Routing.Classification, cfg.Knowledge.TopK),
		kb,
		locator.NewClient(cfg.Locator.URL, cfg.Locator.Timeout),
		tele,
	)

	api := e.Group("/api")
	if cfg.Server.JWTSecret != "" {
		api.Use(withAuth([]byte(cfg.Server.JWTSecret)))
	}

	ch := &ChatsHandler{Store: st, Engine: engine, UploadDir: cfg.Server.UploadDir}
	ch.Register(api.Group("/chats"))

	return e.Start(cfg.Server.Address)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())

	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie", "Authorization"},
		AllowCredentials: true,
	}))

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}
