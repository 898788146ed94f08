// Package server wires the store, services and handlers into a chi router
// and runs the HTTP server.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/config"
	"github.com/sakif/conduit/internal/handler"
	"github.com/sakif/conduit/internal/middleware"
	"github.com/sakif/conduit/internal/repository/sqlstore"
	"github.com/sakif/conduit/internal/service"
)

const shutdownTimeout = 30 * time.Second

// Server owns the router. The store is owned by the caller.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	store  *sqlstore.Store
	tokens *auth.TokenService
}

// New builds the service graph on top of store and registers every route.
func New(cfg config.Config, logger *slog.Logger, store *sqlstore.Store, tokens *auth.TokenService) *Server {
	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		store:  store,
		tokens: tokens,
	}
	s.setupRoutes()
	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes registers middleware and routes.
//
//	GET    /healthz
//	GET    /metrics
//	POST   /api/users                              register
//	POST   /api/users/login                        login
//	GET    /api/user                               current user (auth)
//	PUT    /api/user                               update user (auth)
//	GET    /api/profiles/{username}                profile (optional auth)
//	POST   /api/profiles/{username}/follow         follow (auth)
//	DELETE /api/profiles/{username}/follow         unfollow (auth)
//	GET    /api/articles                           list (optional auth)
//	GET    /api/articles/feed                      feed (auth)
//	POST   /api/articles                           create (auth)
//	GET    /api/articles/{slug}                    get (optional auth)
//	PUT    /api/articles/{slug}                    update (auth, author only)
//	DELETE /api/articles/{slug}                    delete (auth, author only)
//	POST   /api/articles/{slug}/favorite           favorite (auth)
//	DELETE /api/articles/{slug}/favorite           unfavorite (auth)
//	GET    /api/articles/{slug}/comments           list comments (optional auth)
//	POST   /api/articles/{slug}/comments           add comment (auth)
//	DELETE /api/articles/{slug}/comments/{id}      delete comment (auth, author only)
//	GET    /api/tags                               tags
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(middleware.Metrics)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	hasher := auth.NewPasswordHasher()
	userService := service.NewUserService(s.store, hasher, s.tokens, s.logger)
	profileService := service.NewProfileService(s.store, s.store, s.logger)
	articleService := service.NewArticleService(s.store, s.store, s.store, s.logger)
	commentService := service.NewCommentService(s.store, s.store, s.store, s.store, s.logger)
	tagService := service.NewTagService(s.store)

	users := handler.NewUserHandler(userService, s.logger)
	profiles := handler.NewProfileHandler(profileService, s.logger)
	articles := handler.NewArticleHandler(articleService, s.logger)
	comments := handler.NewCommentHandler(commentService, s.logger)
	tags := handler.NewTagHandler(tagService, s.logger)
	health := handler.NewHealthHandler(s.store, s.logger)

	requireAuth := auth.RequireAuth(s.tokens, s.logger)
	optionalAuth := auth.OptionalAuth(s.tokens, s.logger)

	s.router.Get("/healthz", health.HandleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/users", users.HandleRegister)
		r.Post("/users/login", users.HandleLogin)
		r.Get("/tags", tags.HandleList)

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/profiles/{username}", profiles.HandleGet)
			r.Get("/articles", articles.HandleList)
			r.Get("/articles/{slug}", articles.HandleGet)
			r.Get("/articles/{slug}/comments", comments.HandleList)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/user", users.HandleCurrent)
			r.Put("/user", users.HandleUpdate)

			r.Post("/profiles/{username}/follow", profiles.HandleFollow)
			r.Delete("/profiles/{username}/follow", profiles.HandleUnfollow)

			r.Get("/articles/feed", articles.HandleFeed)
			r.Post("/articles", articles.HandleCreate)
			r.Put("/articles/{slug}", articles.HandleUpdate)
			r.Delete("/articles/{slug}", articles.HandleDelete)
			r.Post("/articles/{slug}/favorite", articles.HandleFavorite)
			r.Delete("/articles/{slug}/favorite", articles.HandleUnfavorite)

			r.Post("/articles/{slug}/comments", comments.HandleAdd)
			r.Delete("/articles/{slug}/comments/{id}", comments.HandleDelete)
		})
	})
}

// Start serves until SIGINT or SIGTERM, then drains in-flight requests for
// up to 30 seconds.
func (s *Server) Start() error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		IdleTimeout:  s.config.IdleTimeout,
		ErrorLog:     slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.store.Driver()),
			slog.Duration("token_ttl", s.tokens.TTL()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
