package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

type Config struct {
	Port           string        `envconfig:"PORT" split_words:"true" default:"8080"`
	AllowedOrigin  string        `envconfig:"ALLOWED_ORIGIN" split_words:"true" default:"*"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" split_words:"true" default:"60s"`
}

// NewRouter assembles the HTTP surface.
func NewRouter(h *Handler, ws *WebSocketHandler, cfg Config) chi.Router {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(chiMiddleware.Timeout(cfg.RequestTimeout))

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", h.handleChat)
		r.Post("/actions/confirm", h.handleConfirm)

		r.Route("/cart/{sessionID}", func(r chi.Router) {
			r.Get("/", h.handleGetCart)
			r.Post("/", h.handleMutateCart)
		})

		r.Post("/search", h.handleSearch)
		r.Get("/products/{productID}", h.handleGetProduct)
		r.Get("/products/{productID}/related", h.handleRelated)
		r.Get("/history/{sessionID}", h.handleHistory)
	})

	r.Get("/ws/chat", ws.ServeHTTP)

	return r
}

// NewServer wraps the router in an http.Server with sane timeouts. The
// write timeout stays generous since a turn may wait on the LLM.
func NewServer(r chi.Router, cfg Config) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * cfg.RequestTimeout,
		IdleTimeout:  120 * time.Second,
	}
}
