package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apierrors "github.com/pribylovaa/sabha/internal/errors"
	"github.com/pribylovaa/sabha/internal/http/handlers"
	"github.com/pribylovaa/sabha/internal/http/middleware"
	"github.com/pribylovaa/sabha/internal/service"
)

// Options: параметры сборки HTTP-роутера.
type Options struct {
	Logger         *slog.Logger
	Timeout        time.Duration
	AllowedOrigins []string
	// Ready проверяет зависимости для /healthz (обычно Ping БД); nil: всегда готов.
	Ready func(ctx context.Context) error
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(),
		middleware.Logging(opts.Logger),
		middleware.Metrics(),
		middleware.CORS(opts.AllowedOrigins),
	)

	root.Get("/livez", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	root.Get("/healthz", healthz(opts.Ready))
	root.Handle("/metrics", promhttp.Handler())

	h := handlers.New(svc)

	root.Group(func(r chi.Router) {
		r.Use(middleware.Authenticate(svc))
		if opts.Timeout > 0 {
			r.Use(middleware.Timeout(opts.Timeout))
		}
		registerRoutes(r, h)
	})

	return root
}

// registerRoutes: единая точка регистрации всех REST-эндпойнтов.
// /topics: синоним /posts.
func registerRoutes(r chi.Router, h *handlers.Handlers) {
	authed := r.With(middleware.RequireUser())

	// auth
	r.Post("/auth/register", h.RegisterUser)
	r.Post("/auth/login", h.LoginUser)
	r.Post("/auth/refresh", h.RefreshToken)
	r.Post("/auth/revoke", h.RevokeToken)
	authed.Get("/auth/me", h.Me)

	// posts / topics
	for _, base := range []string{"/posts", "/topics"} {
		r.Get(base, h.ListPosts)
		authed.Post(base, h.CreatePost)
		r.Get(base+"/{id}", h.GetPost)
		authed.Put(base+"/{id}", h.UpdatePost)
		authed.Delete(base+"/{id}", h.DeletePost)

		r.Get(base+"/{id}/comments", h.ListComments)
		authed.Post(base+"/{id}/comments", h.CreateComment)

		r.Get(base+"/{id}/reactions", h.ReactionSummary)
		authed.Post(base+"/{id}/reactions", h.React)
		authed.Delete(base+"/{id}/reactions", h.RemoveReaction)
	}

	// comments
	authed.Delete("/comments/{id}", h.DeleteComment)

	// officials / tags
	r.Get("/officials", h.ListOfficials)
	authed.Post("/officials", h.CreateOfficial)
	r.Get("/tags", h.ListTags)
	authed.Post("/tags", h.AddTag)
	authed.Delete("/tags/{id}", h.RemoveTag)

	// catalog
	r.Get("/categories", h.ListCategories)
	r.Get("/locations/states", h.ListStates)
	r.Get("/locations/cities", h.ListCities)

	// ai
	authed.Post("/ai/comments", h.AIComments)
	authed.Post("/ai/enhance", h.AIEnhance)

	// users
	authed.Post("/users/me/avatar/presign", h.AvatarPresign)
	authed.Post("/users/me/avatar/confirm", h.AvatarConfirm)
}

func healthz(ready func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := ready(ctx); err != nil {
				apierrors.WriteError(w, r, service.ErrUnavailable)
				return
			}
		}

		w.WriteHeader(http.StatusOK)
	}
}
