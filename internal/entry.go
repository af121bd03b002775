// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/taskview/internal/api"
	"github.com/starford/taskview/internal/mcpserver"
	"github.com/starford/taskview/internal/sse"
	"github.com/starford/taskview/internal/taskapi"
	"github.com/starford/taskview/internal/tasklist"
	"github.com/starford/taskview/internal/taskservice"
	pkgconfig "github.com/starford/taskview/pkg/config"
)

// liveSettings holds the configuration values that change without a restart.
type liveSettings struct {
	level       slog.LevelVar
	defaultSort atomic.Value // tasklist.SortMode
	current     atomic.Pointer[Config]
}

func newLiveSettings(cfg *Config) *liveSettings {
	s := &liveSettings{}
	s.apply(cfg)
	return s
}

func (s *liveSettings) apply(cfg *Config) {
	s.level.Set(cfg.App.LogLevel)
	s.defaultSort.Store(cfg.View.DefaultSort)
	s.current.Store(cfg)
}

// DefaultSort returns the configured default sort mode.
func (s *liveSettings) DefaultSort() tasklist.SortMode {
	return s.defaultSort.Load().(tasklist.SortMode)
}

// reload re-reads path and applies the hot-reloadable values. A file that
// fails to load or validate leaves the running settings untouched.
func (s *liveSettings) reload(path string, logger *slog.Logger) error {
	next := NewDefaultConfig()
	if err := pkgconfig.Load(path, next); err != nil {
		logger.Warn("config reload rejected", slog.String("error", err.Error()))
		return err
	}

	prev := s.current.Load()
	if prev.App.HTTP != next.App.HTTP || prev.API != next.API || prev.View.SummaryThrottle != next.View.SummaryThrottle {
		logger.Warn("config reload: http, api and summary_throttle changes apply after restart")
	}
	// Keep restart-only values so later reloads compare against what runs.
	next.App.HTTP = prev.App.HTTP
	next.API = prev.API
	next.View.SummaryThrottle = prev.View.SummaryThrottle

	s.apply(next)
	logger.Info("config reloaded",
		slog.String("log_level", next.App.LogLevel.String()),
		slog.String("default_sort", string(next.View.DefaultSort)))
	return nil
}

func newApplication(opts []Option) (*application, error) {
	app := &application{
		logOutput: os.Stdout,
		now:       time.Now,
		version:   "dev",
	}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}
	return app, nil
}

func (a *application) client(logger *slog.Logger) *taskapi.Client {
	return taskapi.New(a.config.API.BaseURL,
		taskapi.WithTimeout(a.config.API.Timeout),
		taskapi.WithLogger(logger),
	)
}

// NewService builds a task service against the configured task API.
func NewService(opts ...Option) (*taskservice.Service, error) {
	app, err := newApplication(opts)
	if err != nil {
		return nil, err
	}
	return taskservice.NewService(app.client(slog.Default()), taskservice.WithClock(app.now)), nil
}

// RunMCP serves the MCP tools on stdin/stdout until the client disconnects.
func RunMCP(_ context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}
	logger := slog.Default()
	svc := taskservice.NewService(app.client(logger),
		taskservice.WithClock(app.now),
		taskservice.WithLogger(logger),
	)
	return mcpserver.New(svc, app.version).ServeStdio()
}

// Run starts the view server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app, err := newApplication(opts)
	if err != nil {
		return err
	}

	cfg := app.config
	live := newLiveSettings(cfg)

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: &live.level,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("api_base_url", cfg.API.BaseURL),
		slog.String("default_sort", string(cfg.View.DefaultSort)),
		slog.String("log_level", cfg.App.LogLevel.String()))

	broker := sse.NewBroker(cfg.View.SummaryThrottle, sse.WithHeartbeat(15*time.Second))
	defer broker.Close()

	svc := taskservice.NewService(app.client(logger),
		taskservice.WithClock(app.now),
		taskservice.WithNotifier(broker.PublishTaskEvent),
		taskservice.WithLogger(logger),
	)
	viewRouter := api.NewRouter(svc, live.DefaultSort, broker)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(api.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Mount("/", viewRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := context.WithCancel(ctx)
	defer stop()
	g, gCtx := errgroup.WithContext(ctx)

	if app.configPath != "" {
		g.Go(func() error {
			err := pkgconfig.Watch(gCtx, app.configPath, logger, func() {
				_ = live.reload(app.configPath, logger)
			})
			if err != nil {
				logger.Warn("config hot reload disabled", slog.String("error", err.Error()))
			}
			return nil
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// SSE handlers only return once their clients go away.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}
		stop()

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
