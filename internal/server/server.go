package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/soliton-oj/adminserver/config"
	"github.com/soliton-oj/adminserver/internal/db"
	"github.com/soliton-oj/adminserver/internal/handlers"
	"github.com/soliton-oj/adminserver/internal/mq"
	"github.com/soliton-oj/adminserver/internal/services"
	"github.com/soliton-oj/adminserver/internal/storage"
	"github.com/soliton-oj/adminserver/internal/store"
)

// Server wraps the HTTP server and the resources it owns.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  mq.Publisher
	logger     *slog.Logger
}

// Services bundles what the router serves.
type Services struct {
	Auth       *services.AuthService
	Admin      *services.AdminService
	Question   *services.QuestionService
	Stats      *services.StatsService
	CookieName string
}

// New connects to the database and the optional export sinks and builds
// the HTTP server.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	logger := NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	jwtSecret := strings.TrimSpace(cfg.Auth.JWTSecret)
	if jwtSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if objects != nil {
		if err := objects.EnsureBucket(ctx); err != nil {
			_ = dbConn.Close()
			return nil, fmt.Errorf("ensure bucket: %w", err)
		}
	}

	publisher, err := mq.New(ctx, cfg.MQ)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	adminRepo := store.NewAdminRepository(dbConn)
	questionRepo := store.NewQuestionRepository(dbConn)

	exporter := services.NewBundleExporter(objects, publisher, cfg.MQ.EventsChannel, logger)

	router := NewRouter(Services{
		Auth:       services.NewAuthService(adminRepo, jwtSecret, cfg.Auth.SessionTTL, cfg.Auth.BcryptCost),
		Admin:      services.NewAdminService(adminRepo, cfg.Auth.BcryptCost),
		Question:   services.NewQuestionService(questionRepo, exporter),
		Stats:      services.NewStatsService(questionRepo, adminRepo),
		CookieName: cfg.Auth.CookieName,
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server configured",
		"port", port,
		"storage_backend", cfg.Storage.Backend,
		"mq_backend", cfg.MQ.Backend,
	)

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
		logger:     logger,
	}, nil
}

// NewRouter builds the chi router with the standard middleware stack.
func NewRouter(svc Services) *chi.Mux {
	authMiddleware := handlers.RequireAuth(svc.Auth, svc.CookieName)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, svc.Auth, svc.Admin, svc.CookieName)
	})
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminRouter(r, svc.Admin, svc.Stats, authMiddleware)
	})
	router.Route("/questions", func(r chi.Router) {
		handlers.QuestionRouter(r, svc.Question, authMiddleware)
	})
	return router
}

// NewLogger returns a JSON logger writing to stderr at the given level.
// Unknown levels mean info.
func NewLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until it is shut down.
func (s *Server) Start() error {
	s.logger.Info("listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests, then releases the broker and the
// database pool.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.httpServer.Shutdown(ctx)
	if s.publisher != nil {
		if cerr := s.publisher.Close(); cerr != nil {
			s.logger.Warn("close publisher", "error", cerr)
		}
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return err
}
