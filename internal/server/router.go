package server

import (
	"net/http"

	"github.com/cloo-solutions/botwise/internal/api"
	"github.com/cloo-solutions/botwise/internal/api/handlers"
	"github.com/cloo-solutions/botwise/internal/api/middleware"
	"github.com/go-chi/chi/v5"
)

type RouterConfig struct {
	AuthValidator   middleware.AuthValidator
	BotHandler      *handlers.BotHandler
	ResourceHandler *handlers.ResourceHandler
	RetrieveHandler *handlers.RetrieveHandler
	AuthHandler     *handlers.AuthHandler
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	const maxBodyBytes int64 = 5 * 1024 * 1024

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog)
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.Success(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyAuth(cfg.AuthValidator))

		r.Post("/retrieve", cfg.RetrieveHandler.Retrieve)

		r.Route("/bots", func(r chi.Router) {
			r.Post("/", cfg.BotHandler.Create)
			r.Get("/", cfg.BotHandler.List)
			r.Get("/{id}", cfg.BotHandler.Get)
			r.Delete("/{id}", cfg.BotHandler.Delete)

			r.Route("/{botID}/resources", func(r chi.Router) {
				r.Post("/", cfg.ResourceHandler.Create)
				r.Get("/", cfg.ResourceHandler.List)
				r.Get("/{id}", cfg.ResourceHandler.Get)
				r.Delete("/{id}", cfg.ResourceHandler.Delete)
			})
		})

		r.Get("/apikeys", cfg.AuthHandler.ListAPIKeys)
		r.Delete("/apikeys/{id}", cfg.AuthHandler.RevokeAPIKey)
	})

	r.Post("/orgs", cfg.AuthHandler.CreateOrg)
	r.Post("/apikeys", cfg.AuthHandler.CreateAPIKey)

	return r
}
