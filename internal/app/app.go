package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/marwannelsayed/spare-demand-forecast/internal/config"
	apierrors "github.com/marwannelsayed/spare-demand-forecast/internal/errors"
	"github.com/marwannelsayed/spare-demand-forecast/internal/infrastructure"
	customMiddleware "github.com/marwannelsayed/spare-demand-forecast/internal/middleware"
	"github.com/marwannelsayed/spare-demand-forecast/internal/sales"
	"github.com/marwannelsayed/spare-demand-forecast/internal/services"
	handlers "github.com/marwannelsayed/spare-demand-forecast/internal/transport/http"
	"github.com/marwannelsayed/spare-demand-forecast/pkg/contracts"
)

// minCleanupInterval keeps the expiry sweep from spinning on tiny TTLs
const minCleanupInterval = time.Second

// Application represents the main application container
type Application struct {
	Config          *config.Config
	Router          *chi.Mux
	Server          *http.Server
	Logger          *slog.Logger
	OTelProviders   *infrastructure.OTelProviders
	ErrorHandler    *apierrors.ErrorHandler
	Store           *sales.Store
	DatasetService  *services.DatasetService
	ForecastService *services.ForecastService
	HealthService   *services.HealthService

	listener  net.Listener
	started   chan struct{}
	serveErr  chan error
	stopSweep context.CancelFunc
	sweepDone chan struct{}
}

// NewApplication loads configuration, initializes the process logger and
// builds the application
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires services, router and server around an already loaded config
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("build_time", contracts.BuildTime))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		started:       make(chan struct{}),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to setup router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateForecastMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create forecast metrics: %w", err)
	}

	a.Store = sales.NewStore(a.Config.Upload.DatasetTTL, a.Config.Upload.MaxDatasets)
	a.DatasetService = services.NewDatasetService(a.Store, a.Config.Upload, metrics, a.Logger)

	pipeline := services.NewPipelineFromConfig(a.Config.Forecast, a.Logger)
	a.ForecastService = services.NewForecastService(a.DatasetService, pipeline, a.Config.Forecast, metrics, a.Logger)

	a.HealthService = services.NewHealthService(a.DatasetService, pipeline.BackendName(), a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	// Ordering: RequestID → RealIP → OTel → Logger → Recoverer → headers → limits → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to create OpenTelemetry middleware: %w", err)
	}
	r.Use(otelMiddleware.Handler)

	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	if a.Config.Server.RequestTimeout > 0 {
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	dashboard, err := handlers.NewDashboardHandler(a.Config, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to load dashboard: %w", err)
	}
	r.Get("/", dashboard.ServeDashboard)

	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.HealthService, a.ErrorHandler)
	a.setupAPIRoutes(r, metricsHandler)
	r.Mount("/metrics", metricsHandler.Routes())

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router, metricsHandler *handlers.MetricsHandler) {
	datasetHandler := handlers.NewDatasetHandler(a.DatasetService, a.Config.Upload, a.Logger, a.ErrorHandler)
	forecastHandler := handlers.NewForecastHandler(a.ForecastService, a.Logger, a.ErrorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Compress(5, "application/json", "text/csv"))

		r.Mount("/datasets", datasetHandler.Routes(forecastHandler))
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Get("/stats", metricsHandler.GetStats)
	})
}

// getCORSConfig returns the CORS policy for the configured origins
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	origins := []string{
		fmt.Sprintf("http://localhost:%d", a.Config.Server.Port),
		fmt.Sprintf("http://127.0.0.1:%d", a.Config.Server.Port),
	}
	origins = append(origins, a.Config.Security.AllowedOrigins...)

	a.Logger.Debug("CORS configured", slog.Any("allowed_origins", origins))

	return customMiddleware.CORSConfig{
		AllowedOrigins: origins,
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start binds the listener, then serves and sweeps expired datasets in the
// background. Serve failures are reported through Done.
func (a *Application) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", a.Server.Addr, err)
	}
	a.listener = ln
	a.serveErr = make(chan error, 1)
	close(a.started)

	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", a.URL()),
		slog.String("level", a.Config.Logging.Level),
		slog.Int("horizon_days", a.Config.Forecast.HorizonDays),
		slog.Duration("dataset_ttl", a.Config.Upload.DatasetTTL))

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
		}
		close(a.serveErr)
	}()

	sweepCtx, cancel := context.WithCancel(context.Background())
	a.stopSweep = cancel
	a.sweepDone = make(chan struct{})
	go a.sweepExpired(sweepCtx, cleanupInterval(a.Config.Upload.DatasetTTL))

	return nil
}

// Done yields a serve error, or closes once the server has stopped
func (a *Application) Done() <-chan error {
	return a.serveErr
}

// URL returns the base URL the server listens on
func (a *Application) URL() string {
	if a.listener == nil {
		return "http://" + a.Server.Addr
	}
	addr := a.listener.Addr().(*net.TCPAddr)
	host := a.Config.Server.Host
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return fmt.Sprintf("http://%s", net.JoinHostPort(host, strconv.Itoa(addr.Port)))
}

// sweepExpired removes datasets past their TTL until ctx is cancelled
func (a *Application) sweepExpired(ctx context.Context, interval time.Duration) {
	defer close(a.sweepDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.DatasetService.CleanupExpired(ctx)
		}
	}
}

func cleanupInterval(ttl time.Duration) time.Duration {
	interval := ttl / 4
	if interval < minCleanupInterval {
		return minCleanupInterval
	}
	if interval > time.Minute {
		return time.Minute
	}
	return interval
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.stopSweep != nil {
		a.stopSweep()
		<-a.sweepDone
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received interrupt signal")
	case serveErr = <-a.Done():
	}

	if err := a.Stop(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	return serveErr
}

// WaitReady blocks until Start has run, then polls the liveness endpoint
// until the server answers
func (a *Application) WaitReady(ctx context.Context, attempts int, delay time.Duration) error {
	select {
	case <-a.started:
	case <-ctx.Done():
		return ctx.Err()
	}

	client := &http.Client{Timeout: delay}
	url := a.URL() + "/api/health/live"

	for i := 0; i < attempts; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return err
		}
		resp, err := client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("server at %s did not become ready after %d attempts", url, attempts)
}

// OpenBrowser opens url in the user's default browser
func OpenBrowser(url string) error {
	name, args := browserCommand(runtime.GOOS, url)
	if name == "" {
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
	return exec.Command(name, args...).Start()
}

func browserCommand(goos, url string) (string, []string) {
	switch goos {
	case "windows":
		return "rundll32", []string{"url.dll,FileProtocolHandler", url}
	case "darwin":
		return "open", []string{url}
	case "linux", "freebsd", "openbsd", "netbsd":
		return "xdg-open", []string{url}
	default:
		return "", nil
	}
}
