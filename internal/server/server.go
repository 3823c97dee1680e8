// Package server sets up the HTTP server, router, and all route definitions.
//
// SERVER ARCHITECTURE:
// This package is the wiring layer. It decides which URL patterns map to
// which handler functions, what middleware runs on which routes, and how
// the server starts and stops.
//
// DEPENDENCY INJECTION FLOW:
// main.go opens the infrastructure (SQLite, Redis, catalog clients) and
// hands it over as Deps. New then builds:
//
//	sqlite.DB → ActivityLedger → services → handlers → routes
//
// This is the composition root: every service is constructed here and
// nowhere else.
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
	"github.com/rs/cors"

	"github.com/sakif/playtrack/internal/auth"
	"github.com/sakif/playtrack/internal/catalog"
	"github.com/sakif/playtrack/internal/config"
	"github.com/sakif/playtrack/internal/handler"
	"github.com/sakif/playtrack/internal/metrics"
	"github.com/sakif/playtrack/internal/middleware"
	sqliteRepo "github.com/sakif/playtrack/internal/repository/sqlite"
	"github.com/sakif/playtrack/internal/service"
)

// Deps is the infrastructure the server is assembled from. Enricher may be
// nil when IGDB credentials are not configured.
type Deps struct {
	DB        *sqliteRepo.DB
	Catalog   catalog.Lookup
	Enricher  catalog.Enricher
	GitHub    *auth.GitHubProvider
	Passwords *auth.PasswordService
	Metrics   *metrics.Metrics
}

// Server owns the router and the database. The database is closed when
// Start returns.
type Server struct {
	router *chi.Mux
	config *config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New wires services and handlers onto a fresh router.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, fmt.Errorf("creating token service: %w", err)
	}
	if deps.Passwords == nil {
		deps.Passwords = auth.NewPasswordService()
	}
	if deps.GitHub == nil {
		deps.GitHub = auth.NewGitHubProvider("", "", "")
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     deps.DB,
	}
	s.setupRoutes(tokens, deps)
	return s, nil
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	/auth/*           register, login, logout, GitHub OAuth
//	/api/* (reads)    OptionalAuth: anonymous allowed, viewer-aware when signed in
//	/api/* (writes)   RequireAuth: 401 without a valid token
//	/metrics          Prometheus scrape endpoint
//	/healthz          database ping
//
// MIDDLEWARE ORDER MATTERS:
// RequestID first so the logger can print it. Recoverer sits inside the
// logger so a recovered panic is still logged as a 500. CORS runs before
// routing so preflight requests never reach a handler.
func (s *Server) setupRoutes(tokens *auth.TokenService, deps Deps) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	if deps.Metrics != nil {
		s.router.Use(middleware.Metrics(deps.Metrics))
	}
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.New(cors.Options{
		AllowedOrigins:   s.config.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	}).Handler)

	// === Services ===
	ledger := service.NewActivityLedger(deps.DB, deps.Metrics, s.logger)
	games := service.NewGameService(deps.DB, deps.Catalog, deps.Enricher, s.logger)
	library := service.NewLibraryService(deps.DB, games, ledger, s.logger)
	reviews := service.NewReviewService(deps.DB, ledger, s.logger)
	comments := service.NewCommentService(deps.DB, ledger, s.logger)
	social := service.NewSocialService(deps.DB, s.logger)
	feed := service.NewFeedService(deps.DB, ledger, deps.Metrics, s.logger)
	lists := service.NewListService(deps.DB, ledger, s.logger)
	analytics := service.NewAnalyticsService(deps.DB)
	authSvc := service.NewAuthService(deps.DB, tokens, deps.Passwords, s.logger)

	// === Handlers ===
	authH := handler.NewAuthHandler(authSvc, deps.GitHub, tokens.TTL(), s.config.FrontendURL, s.logger)
	gameH := handler.NewGameHandler(games, reviews, s.logger)
	libraryH := handler.NewLibraryHandler(library, s.logger)
	commentH := handler.NewCommentHandler(comments, s.logger)
	userH := handler.NewUserHandler(social, library, reviews, lists, s.logger)
	feedH := handler.NewFeedHandler(feed, s.logger)
	listH := handler.NewListHandler(lists, s.logger)
	analyticsH := handler.NewAnalyticsHandler(analytics, s.logger)

	if deps.Metrics != nil {
		s.router.Handle("/metrics", deps.Metrics.Handler())
	}
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authH.HandleRegister)
		r.Post("/login", authH.HandleLogin)
		r.Post("/logout", authH.HandleLogout)
		r.Get("/github/login", authH.HandleGitHubLogin)
		r.Get("/github/callback", authH.HandleGitHubCallback)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))

			r.Get("/games/{ref}", gameH.HandleGet)
			r.Get("/games/{ref}/reviews", gameH.HandleListReviews)
			r.Get("/games/{ref}/reviews/stats", gameH.HandleReviewStats)

			r.Get("/users/{id}", userH.HandleProfile)
			r.Get("/comments/game/{gameId}", commentH.HandleList)

			r.Get("/users/{id}/library", userH.HandleLibrary)
			r.Get("/users/{id}/activity", userH.HandleActivity)
			r.Get("/users/{id}/reviews", userH.HandleReviews)
			r.Get("/users/{id}/lists", userH.HandleLists)
			r.Get("/users/{id}/followers", userH.HandleFollowers)
			r.Get("/users/{id}/following", userH.HandleFollowing)

			r.Get("/lists/{id}", listH.HandleGet)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))

			r.Get("/me", authH.HandleMe)

			r.Get("/library", libraryH.HandleList)
			r.Put("/library/{gameId}", libraryH.HandleUpsert)
			r.Get("/library/{gameId}", libraryH.HandleGet)
			r.Post("/library/{gameId}/sessions", libraryH.HandleLogSession)
			r.Put("/library/{gameId}/favorite", libraryH.HandleSetFavorite)

			r.Post("/games/{ref}/reviews", gameH.HandleSubmitReview)
			r.Post("/reviews/{id}/like", gameH.HandleLikeReview)
			r.Post("/comments/game/{gameId}", commentH.HandleAdd)

			r.Post("/users/{id}/follow", userH.HandleFollow)
			r.Delete("/users/{id}/follow", userH.HandleUnfollow)

			r.Get("/feed", feedH.HandleFeed)

			r.Post("/lists", listH.HandleCreate)
			r.Put("/lists/{id}", listH.HandleUpdate)
			r.Delete("/lists/{id}", listH.HandleDelete)
			r.Post("/lists/{id}/items", listH.HandleAddItem)
			r.Delete("/lists/{id}/items/{gameId}", listH.HandleRemoveItem)
			r.Put("/lists/{id}/items/order", listH.HandleReorder)

			r.Get("/analytics/overview", analyticsH.HandleOverview)
			r.Get("/analytics/games", analyticsH.HandleGameStats)
			r.Get("/analytics/genres", analyticsH.HandleGenres)
		})
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.Ping(ctx); err != nil {
		s.logger.Error("health check failed", slog.String("error", err.Error()))
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"status":"unavailable"}`)
		return
	}
	fmt.Fprint(w, `{"status":"ok"}`)
}

// Start starts the HTTP server and handles graceful shutdown.
//
// GRACEFUL SHUTDOWN:
//  1. Stop accepting new HTTP connections
//  2. Wait for in-flight requests to finish (30s timeout)
//  3. Close the database connection (flushes WAL, releases file lock)
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
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

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
