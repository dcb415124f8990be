package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
	"github.com/viajesoeste/apiserver/config"
	"github.com/viajesoeste/apiserver/internal/auth"
	"github.com/viajesoeste/apiserver/internal/db"
	"github.com/viajesoeste/apiserver/internal/github"
	"github.com/viajesoeste/apiserver/internal/handlers"
	"github.com/viajesoeste/apiserver/internal/mq"
	"github.com/viajesoeste/apiserver/internal/services"
	"github.com/viajesoeste/apiserver/internal/storage"
	"github.com/viajesoeste/apiserver/internal/store"
)

// Server wraps the HTTP server and router.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	log        logrus.FieldLogger
	repos      repositories
	mq         *mq.MQ
	stop       context.CancelFunc
}

type repositories struct {
	users          services.UserRepository
	travelRequests services.TravelRequestRepository
	db             *sql.DB
	blobs          *storage.Storage
}

func (r repositories) close() error {
	var err error
	if r.db != nil {
		err = errors.Join(err, r.db.Close())
	}
	if r.blobs != nil {
		err = errors.Join(err, r.blobs.Close())
	}
	return err
}

// NewLogger returns the process logger. Development uses text output at
// debug level; everything else logs JSON at info.
func NewLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Development() {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetLevel(logrus.InfoLevel)
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// New constructs a Server with its storage, broker and routes.
func New(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if insecure := cfg.InsecureDefaults(); len(insecure) > 0 {
		log.WithField("settings", strings.Join(insecure, ",")).
			Warn("using insecure development defaults")
	}

	repos, err := openRepositories(ctx, cfg)
	if err != nil {
		return nil, err
	}

	broker, err := mq.Open(ctx, cfg)
	if err != nil {
		_ = repos.close()
		return nil, err
	}

	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	revoked := auth.NewMemoryRevocationRegistry()
	githubClient := github.NewClient(github.Config{
		ClientID:     cfg.GitHub.ClientID,
		ClientSecret: cfg.GitHub.ClientSecret,
		RedirectURL:  cfg.GitHub.CallbackURL,
	})

	authService := services.NewAuthService(repos.users, auth.NewBcryptHasher(auth.DefaultBcryptCost), tokens, revoked, log)
	githubService := services.NewGitHubAuthService(githubClient, repos.users, services.NewEmailMatchLinker(repos.users), tokens, log)
	travelService := services.NewTravelRequestService(repos.travelRequests, log)
	if broker != nil {
		travelService = travelService.WithEvents(broker, cfg.MQ.Channel)
	}

	limiterCtx, stop := context.WithCancel(context.Background())

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		handlers.RequestLogger(log.WithField("component", "http")),
		middleware.Timeout(60*time.Second),
		corsMiddleware(cfg.FrontendURL),
	)
	router.NotFound(handlers.NotFound)
	router.MethodNotAllowed(handlers.MethodNotAllowed)

	router.Route("/api", func(r chi.Router) {
		r.With(handlers.OptionalAuth(authService)).Get("/health", handlers.Health)
		r.Route("/auth", func(r chi.Router) {
			if cfg.RateLimit.AuthPerMinute > 0 {
				r.Use(handlers.NewRateLimiter(limiterCtx, cfg.RateLimit.AuthPerMinute).Middleware)
			}
			handlers.AuthRouter(r, authService, githubService, log)
		})
		r.Route("/travel-requests", func(r chi.Router) {
			handlers.TravelRequestRouter(r, travelService, handlers.RequireAuth(authService, log), log)
		})
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 75 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		log:        log,
		repos:      repos,
		mq:         broker,
		stop:       stop,
	}, nil
}

func openRepositories(ctx context.Context, cfg config.Config) (repositories, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		dbConn, err := db.Open(ctx, cfg.Database)
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			users:          store.NewUserRepository(dbConn),
			travelRequests: store.NewTravelRequestRepository(dbConn),
			db:             dbConn,
		}, nil
	default:
		blobs, err := storage.Open(ctx, cfg)
		if err != nil {
			return repositories{}, err
		}
		return repositories{
			users:          store.NewDocumentUserRepository(blobs),
			travelRequests: store.NewDocumentTravelRequestRepository(blobs),
			blobs:          blobs,
		}, nil
	}
}

func corsMiddleware(frontendURL string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins:   []string{frontendURL},
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and releases the stores and broker.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stop()
	err := s.httpServer.Shutdown(ctx)
	if s.mq != nil {
		err = errors.Join(err, s.mq.Close())
	}
	return errors.Join(err, s.repos.close())
}
