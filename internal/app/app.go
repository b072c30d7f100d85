package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"glucoreport/internal/exporter"
	"glucoreport/internal/files"
	"glucoreport/internal/infrastructure"
	customMiddleware "glucoreport/internal/middleware"
	"glucoreport/internal/operations"
	"glucoreport/internal/services"
	handlers "glucoreport/internal/transport/http"
	ws "glucoreport/internal/websocket"
)

// Application is the HTTP shell around a Core.
type Application struct {
	*Core

	Hub      *ws.Hub
	Reports  *services.ReportService
	Health   *services.HealthService
	Exporter *exporter.Exporter
	Router   *chi.Mux
	Server   *http.Server
}

// NewApplication adds the WebSocket hub, the report queue and the router
// to core.
func NewApplication(core *Core) (*Application, error) {
	if core == nil {
		return nil, errors.New("app: nil core")
	}
	cfg := core.Config

	wsMetrics, err := ws.NewMetrics(core.OTel.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create websocket metrics: %w", err)
	}
	hub := ws.NewHub(core.Logger, wsMetrics)
	core.Status.AddSink(operations.HubSink{Hub: hub})

	reports := services.NewReportService(core.Pipeline, core.Status,
		files.NewManager(core.Paths.UploadsDir, core.Logger),
		services.WithQueueSize(cfg.Server.QueueSize),
		services.WithMetrics(core.Metrics),
		services.WithLogger(core.Logger),
	)

	a := &Application{
		Core:     core,
		Hub:      hub,
		Reports:  reports,
		Health:   services.NewHealthService(reports, hub, core.Logger),
		Exporter: exporter.New(core.Paths.ReportsDir, core.Logger),
	}
	a.setupRouter()
	a.Server = &http.Server{
		Addr:        cfg.Server.Addr(),
		Handler:     a.Router,
		ReadTimeout: cfg.Server.ReadTimeout,
		// WriteTimeout is applied per route group; a server wide deadline
		// would cut long lived WebSocket connections.
	}
	return a, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware that never wraps the ResponseWriter, so the
	// WebSocket upgrade can hijack the connection.
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Get("/ws", ws.Handler(a.Hub, a.Logger))

	if a.OTel.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTel.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → WriteDeadline → OTel → Logger → Recoverer
		r.Use(customMiddleware.WriteDeadline(a.Config.Server.WriteTimeout, a.Logger))
		r.Use(customMiddleware.NewOTelMiddleware(a.OTel.Tracer, a.Metrics, a.Logger).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
		r.Get("/healthz", healthHandler.HealthCheck)

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))
			if rl := a.Config.Server.RateLimit; rl.Enabled {
				r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger).Handler)
			}

			reportsHandler := handlers.NewReportsHandler(a.Reports, a.Config.Server.MaxUploadBytes, a.Logger)
			r.Mount("/reports", reportsHandler.Routes())
			r.Post("/simulate", handlers.NewSimulateHandler(a.Exporter, a.Logger).Simulate)
		})
	})

	a.Router = r
}

// Run starts the hub, the report worker and the HTTP server and blocks
// until ctx is cancelled or one of them fails.
func (a *Application) Run(ctx context.Context) error {
	a.Hub.Start()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.Reports.Run(gctx)
	})

	g.Go(func() error {
		return a.sweepRuns(gctx, sweepInterval(a.Config.Server.RunRetention))
	})

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "HTTP server listening", slog.String("addr", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return nil
	})

	err := g.Wait()
	a.Hub.Stop()

	if errors.Is(err, context.Canceled) {
		err = nil
	}
	a.Logger.Info("application stopped", slog.Any("error", err))
	return err
}

// sweepRuns drops finished run snapshots older than the retention window
// until ctx is done.
func (a *Application) sweepRuns(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			a.Status.CleanupOldRuns(a.Config.Server.RunRetention)
		}
	}
}

func sweepInterval(retention time.Duration) time.Duration {
	interval := retention / 4
	switch {
	case interval < time.Second:
		return time.Second
	case interval > 10*time.Minute:
		return 10 * time.Minute
	}
	return interval
}

// Stop releases the core. Call it after Run returns.
func (a *Application) Stop(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()
	if err := a.Core.Close(shutdownCtx); err != nil {
		infrastructure.WithError(a.Logger, err).Error("error shutting down telemetry")
		return err
	}
	return nil
}
