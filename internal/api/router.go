package api

import (
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"coursechat-backend/internal/config"
	"coursechat-backend/internal/handlers"
)

// RouterDependencies holds all the dependencies required by the router setup,
// primarily handlers and configuration.
type RouterDependencies struct {
	ChatHandler   *handlers.ChatHandlers
	ModelsHandler *handlers.ModelsHandler
	Config        *config.Config
}

// NewRouter creates and configures the main Chi router for the application.
func NewRouter(deps RouterDependencies) *chi.Mux {
	r := chi.NewRouter()

	// --- Base Middleware Stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// --- Public Routes (No JWT Required) ---
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/v1", func(r chi.Router) {
		if deps.Config.JWTSecret != "" {
			r.Use(JwtAuthMiddleware(deps.Config.JWTSecret))
		} else {
			log.Println("WARN: JWT_SECRET is not set, /v1 routes are unauthenticated.")
		}

		// Streams may outlive any fixed request timeout; cancellation comes
		// from the client disconnecting.
		if deps.ChatHandler != nil {
			r.Post("/chat", deps.ChatHandler.HandleChat)
		} else {
			log.Println("WARN: ChatHandler dependency is nil, skipping /v1/chat route.")
		}

		if deps.ModelsHandler != nil {
			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(60 * time.Second))
				r.Get("/models", deps.ModelsHandler.HandleListModels)
				r.Post("/models", deps.ModelsHandler.HandleListModels)
			})
		} else {
			log.Println("WARN: ModelsHandler dependency is nil, skipping /v1/models routes.")
		}
	})

	return r
}
