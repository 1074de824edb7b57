package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"notibridge/service/config"
	"notibridge/service/integration"
	"notibridge/service/metrics"
	"notibridge/service/notification"
	"notibridge/service/subscription"
	"notibridge/service/util"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Server struct {
	cfg          *config.Config
	version      string
	store        *subscription.Store
	serializer   *notification.Serializer
	integrations *integration.Integrations
	logger       *slog.Logger
	router       *chi.Mux
	httpServer   *http.Server
	startTime    time.Time
	shutdownOnce sync.Once
	shutdownErr  error
}

func New(cfg *config.Config, version string, logger *slog.Logger) (*Server, error) {
	db, err := subscription.OpenDB(cfg.StoragePath)
	if err != nil {
		return nil, err
	}

	store, err := subscription.NewStore(db, cfg.APIKey, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	integrations, err := integration.Initialize(cfg, store, logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	return newServer(cfg, version, store, integrations, logger), nil
}

func newServer(cfg *config.Config, version string, store *subscription.Store, integrations *integration.Integrations, logger *slog.Logger) *Server {
	s := &Server{
		cfg:          cfg,
		version:      version,
		store:        store,
		serializer:   notification.NewSerializer(logger, nil),
		integrations: integrations,
		logger:       logger,
		startTime:    time.Now(),
	}

	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(loggingMiddleware(s.logger))
	r.Use(securityHeadersMiddleware())
	r.Use(metrics.Middleware)
	r.Use(middleware.StripSlashes)
	r.Use(httprate.LimitByIP(s.cfg.RateLimit, time.Minute))

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())

	auth := authMiddleware(s.cfg.APIKey)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(auth)
		r.Post("/bundle/{kind}", s.handleSerialize)
		r.Post("/deliver", s.handleDeliver)
		r.Get("/apps", s.handleGetApps)
		r.Get("/apps/{appName}/subscriptions", s.handleGetSubscriptions)
		r.Delete("/apps/{appName}", s.handleDeleteApp)
	})

	s.integrations.RegisterAll(r, auth)

	s.router = r
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start(ctx context.Context) error {
	s.integrations.Start(ctx)

	addr := fmt.Sprintf(":%d", s.cfg.Port)
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	msg := fmt.Sprintf("Notibridge running on:\n  Local: http://localhost:%d", s.cfg.Port)
	if lanIP := util.GetLANIP(); lanIP != "" {
		msg += fmt.Sprintf("\n  Network: http://%s:%d", lanIP, s.cfg.Port)
	}
	s.logger.Info(msg)

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown()
	case err := <-errCh:
		return err
	}
}

func (s *Server) Shutdown() error {
	s.shutdownOnce.Do(func() {
		s.logger.Info("Shutting down server")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if s.httpServer != nil {
			if err := s.httpServer.Shutdown(ctx); err != nil {
				s.shutdownErr = fmt.Errorf("failed to shutdown http server: %w", err)
				return
			}
		}

		s.integrations.Close()

		if err := s.store.Close(); err != nil {
			s.shutdownErr = fmt.Errorf("failed to close store: %w", err)
		}
	})
	return s.shutdownErr
}
