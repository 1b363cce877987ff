package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/relmap/pkg/usecase"
	"github.com/secmon-lab/relmap/pkg/utils/errutil"
)

type Server struct {
	router             *chi.Mux
	uc                 *usecase.UseCases
	slackSigningSecret string
	now                func() time.Time
}

type Options func(*Server)

// WithSlackSigningSecret enables the Slack Events API endpoint
func WithSlackSigningSecret(secret string) Options {
	return func(s *Server) {
		s.slackSigningSecret = secret
	}
}

// WithClock overrides the time source of signature verification
func WithClock(now func() time.Time) Options {
	return func(s *Server) {
		s.now = now
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", healthHandler(s.now))

	r.Route("/api", func(r chi.Router) {
		// Public endpoints
		r.Route("/auth", func(r chi.Router) {
			r.Get("/slack/callback", authCallbackHandler(uc.Auth))
			r.Post("/slack/callback", authCallbackHandler(uc.Auth))
			r.Post("/logout", authLogoutHandler())

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware(uc.Auth))
				r.Get("/me", authMeHandler(uc.Auth))
				r.Post("/refresh", authRefreshHandler(uc.Auth))
			})
		})

		if uc.DemoEnabled() {
			r.Route("/demo", func(r chi.Router) {
				r.Post("/login", demoLoginHandler(uc.Demo))
				r.Post("/reset", demoResetHandler(uc.Demo))
				r.Get("/user", demoUserHandler(uc.Demo))
			})
		}

		// Protected endpoints
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(uc.Auth))

			r.Route("/relationships", func(r chi.Router) {
				r.Get("/map", relationshipMapHandler(uc.Relationship))
				r.Post("/add", addRelationshipHandler(uc.Relationship))
				r.Post("/add-team", addTeamHandler(uc.Relationship))
				r.Post("/add-recent-dms", addRecentDMsHandler(uc.Relationship))
				r.Get("/contact/{id}", contactHandler(uc.Relationship))
				r.Put("/{id}", updateRelationshipHandler(uc.Relationship))
				r.Delete("/{id}", deleteRelationshipHandler(uc.Relationship))
			})

			r.Route("/slack", func(r chi.Router) {
				r.Get("/users/search", searchUsersHandler(uc.Directory))
				r.Get("/channels", channelsHandler(uc.Directory))
				r.Get("/recent-dms", recentDMsHandler(uc.Directory))
				r.Post("/sync-user", syncUserHandler(uc.Directory))
				r.Post("/sync-team", syncTeamHandler(uc.Directory))
			})
		})
	})

	// Slack webhook endpoint. No bearer auth; requests are signed instead.
	if s.slackSigningSecret != "" {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret, s.now))
			r.Post("/event", NewSlackEventHandler(uc.Ingest).ServeHTTP)
		})
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		errutil.WriteJSONError(r.Context(), w, http.StatusNotFound, "Route not found")
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func healthHandler(now func() time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(r.Context(), w, http.StatusOK, healthResponse{
			Status:    "OK",
			Timestamp: now().UTC(),
		})
	}
}
