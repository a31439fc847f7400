// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mandirops/queueline/internal/config"
	"github.com/mandirops/queueline/internal/domain"
	"github.com/mandirops/queueline/internal/notifications"
	"github.com/mandirops/queueline/internal/notifications/sms"
	"github.com/mandirops/queueline/internal/notifications/webpush"
	"github.com/mandirops/queueline/internal/pkg/httputil"
	"github.com/mandirops/queueline/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	smsStoreFile  = "notification_subscriptions.json"
	pushStoreFile = "web_push_subscriptions.json"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	server        *http.Server
	metricsServer *http.Server
	smsScheduler  *notifications.Scheduler[domain.SMSSubscription]
	pushScheduler *notifications.Scheduler[domain.PushSubscription]
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	smsStore := notifications.NewSMSStore(filepath.Join(cfg.Data.Dir, smsStoreFile))
	pushStore := notifications.NewPushStore(filepath.Join(cfg.Data.Dir, pushStoreFile))

	smsSender := sms.NewSender(sms.Config{
		AccountSID: cfg.Notifications.SMS.Twilio.AccountSID,
		AuthToken:  cfg.Notifications.SMS.Twilio.AuthToken,
		FromNumber: cfg.Notifications.SMS.Twilio.FromNumber,
	})
	pushSender := webpush.NewSender(webpush.Config{
		VAPIDPublicKey:  cfg.Notifications.Push.VAPID.PublicKey,
		VAPIDPrivateKey: cfg.Notifications.Push.VAPID.PrivateKey,
		Subject:         cfg.Notifications.Push.VAPID.Subject,
	})

	if !smsSender.IsConfigured() {
		slog.Warn("twilio is not configured: SMS updates will be logged instead of sent")
	}
	if !pushSender.IsConfigured() {
		slog.Warn("VAPID keys are not configured: web push delivery is disabled")
	}

	app := &App{
		config: cfg,
		logger: logger,
		smsScheduler: notifications.NewScheduler(
			notifications.SchedulerConfig{
				Transport: "sms",
				Interval:  cfg.Notifications.SMS.Interval(),
			},
			smsStore,
			notifications.NewSMSDelivery(smsSender),
			notifications.SyntheticEstimator[domain.SMSSubscription]{},
		),
		pushScheduler: notifications.NewScheduler(
			notifications.SchedulerConfig{
				Transport: "webpush",
				Interval:  cfg.Notifications.Push.Interval(),
			},
			pushStore,
			notifications.NewPushDelivery(pushSender),
			notifications.SyntheticEstimator[domain.PushSubscription]{},
		),
	}

	service := notifications.NewService(smsStore, pushStore, pushSender)
	router := app.setupRouter(notifications.NewHandler(service))

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the delivery schedulers and the HTTP servers.
func (a *App) Run() error {
	a.smsScheduler.Start(context.Background())
	a.pushScheduler.Start(context.Background())

	// Start metrics server in background
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	// Start main server
	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
	)

	if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	// Stop schedulers first so no delivery starts mid-shutdown
	a.smsScheduler.Stop()
	a.pushScheduler.Stop()

	// Shutdown both servers in parallel
	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupRouter(handler *notifications.Handler) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)

	// CORS must be early to handle preflight requests before other middleware
	r.Use(httputil.CORSMiddleware(a.config.CORS.AllowedOrigins))
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/version", a.versionHandler)

	r.Route("/api/v1", func(r chi.Router) {
		handler.RegisterRoutes(r)
	})

	return r
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
