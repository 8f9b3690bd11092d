package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"fertpulse/internal/config"
	"fertpulse/internal/dataset"
	apierrors "fertpulse/internal/errors"
	"fertpulse/internal/files"
	"fertpulse/internal/geo"
	"fertpulse/internal/infrastructure"
	customMiddleware "fertpulse/internal/middleware"
	"fertpulse/internal/services"
	handlers "fertpulse/internal/transport/http"
	"fertpulse/internal/websocket"
	"fertpulse/pkg/contracts"
	"fertpulse/pkg/contracts/domain"
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Dataset       *dataset.Store
	Boundaries    *geo.BoundaryStore
	Services      *ServiceContainer
	Hub           *websocket.Hub
	WebFS         fs.FS // Dashboard frontend, nil when not served

	errorHandler *apierrors.ErrorHandler
	startTime    time.Time
}

// ServiceContainer holds all application services
type ServiceContainer struct {
	Dashboard *services.DashboardService
	Health    *services.HealthService
}

// NewApplication loads the configuration and builds the application. A nil
// webFS falls back to the web directory when it holds an index.html.
func NewApplication(webFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, err
	}

	logger.Info("Ensuring required directories exist")
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	if webFS == nil && config.FileExists(paths.GetWebFilePath("index.html")) {
		webFS = os.DirFS(paths.WebDir)
		logger.Info("Serving frontend from disk", slog.String("web_dir", paths.WebDir))
	}

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	return New(cfg, paths, logger, otelProviders, webFS)
}

// New builds the application from already initialized infrastructure.
// Nothing is loaded or served until Start.
func New(cfg *config.Config, paths *config.Paths, logger *slog.Logger,
	otelProviders *infrastructure.OTelProviders, webFS fs.FS) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if otelProviders == nil {
		var err error
		otelProviders, err = infrastructure.InitializeOTel(&infrastructure.OTelConfig{
			ServiceName:    infrastructure.ServiceName,
			ServiceVersion: contracts.Version,
			TraceExporter:  "none",
			MetricExporter: "none",
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
		}
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		WebFS:         webFS,
		errorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Development),
		startTime:     time.Now(),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices creates the stores and the services reading them
func (a *Application) initializeServices() error {
	metrics, err := infrastructure.CreateBusinessMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create business metrics: %w", err)
	}
	a.Metrics = metrics

	if err := infrastructure.RegisterSystemMetrics(a.OTelProviders.Meter, a.startTime); err != nil {
		a.Logger.Warn("System metrics unavailable", slog.String("error", err.Error()))
	}

	opener := files.NewOpener(a.Config.Data.FetchTimeout, a.Logger)

	a.Dataset = dataset.NewStore(a.datasetSource(), opener, a.Logger)

	if src := a.Config.Data.BoundarySource; src != "" {
		a.Boundaries = geo.NewBoundaryStore(a.Paths.Resolve(src), opener, a.Logger)
	}

	joiner := geo.NewJoiner()
	if a.Config.Data.RegionNameProperty != "" {
		joiner.NameProperty = a.Config.Data.RegionNameProperty
	}

	// A nil *BoundaryStore must not become a non-nil interface.
	var boundarySource services.BoundarySource
	var boundaryReporter services.LoadReporter
	if a.Boundaries != nil {
		boundarySource = a.Boundaries
		boundaryReporter = a.Boundaries
	}

	a.Services = &ServiceContainer{
		Dashboard: services.NewDashboardService(a.Dataset, boundarySource, joiner,
			a.Config.Dashboard, a.Metrics, a.Logger),
		Health: services.NewHealthService(a.Dataset, boundaryReporter, a.startTime, a.Logger),
	}

	a.Hub = websocket.NewHub(websocket.HubOptions{
		Snapshot:       a.loadStates,
		AllowedOrigins: a.allowedOrigins(),
		Metrics:        a.Metrics,
	}, a.Logger)
	a.Hub.Start()
	a.Logger.Info("WebSocket hub started")
	return nil
}

// loadStates reports the dataset and, when configured, the boundary load.
func (a *Application) loadStates() []domain.LoadState {
	states := []domain.LoadState{a.Dataset.State()}
	if a.Boundaries != nil {
		states = append(states, a.Boundaries.State())
	}
	return states
}

// datasetSource resolves the configured dataset. A directory picks its
// newest data file; an unresolvable source is passed on unchanged so the
// load fails visibly instead of the process.
func (a *Application) datasetSource() string {
	source := a.Config.Data.Source
	if config.IsURL(source) {
		return source
	}

	resolved, err := files.NewDiscovery(a.Paths.ExecutableDir).ResolveSource(source)
	if err != nil {
		a.Logger.Warn("Dataset source not found",
			slog.String("source", source),
			slog.String("error", err.Error()))
		return a.Paths.Resolve(source)
	}
	return resolved
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Minimal middleware for everything, including the WebSocket upgrade
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	// The upgrade needs the raw ResponseWriter, so it skips the wrapping middleware
	r.With(apierrors.RecoveryMiddleware(a.errorHandler)).Get("/ws", a.Hub.ServeHTTP)

	r.Group(func(r chi.Router) {
		// Ordering: OTel → Logger → Recoverer → Timeout
		otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
		if err != nil {
			a.Logger.Error("Failed to create OpenTelemetry middleware", slog.String("error", err.Error()))
		} else {
			r.Use(otelMiddleware.Handler)
		}

		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)
		r.Use(customMiddleware.CORS(a.getCORSConfig()))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)

		// Scrape endpoint stays outside the request timeout
		metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.Services.Health)
		r.Mount(config.MetricsEndpoint, metricsHandler.Routes())

		if a.WebFS != nil {
			a.setupFrontend(r)
		}
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		// Set before mounting so every handler router inherits them
		r.NotFound(a.errorHandler.NotFound)
		r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

		healthHandler := handlers.NewHealthHandler(a.Services.Health, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		dashboard := a.Services.Dashboard
		r.Mount("/dashboard", handlers.NewDashboardHandler(dashboard, a.Logger, a.errorHandler).Routes())
		r.Mount("/products", handlers.NewProductHandler(dashboard, a.Logger, a.errorHandler).Routes())
		r.Mount("/map", handlers.NewMapHandler(dashboard, a.Logger, a.errorHandler).Routes())
		r.Mount("/export", handlers.NewExportHandler(dashboard, a.Metrics, a.Logger, a.errorHandler).Routes())
	})
}

// setupFrontend serves the dashboard assets. Paths without an extension
// fall back to index.html so client-side routes survive a reload.
func (a *Application) setupFrontend(r chi.Router) {
	fileServer := http.FileServer(http.FS(a.WebFS))

	r.With(customMiddleware.Compress(5)).Get("/*", func(w http.ResponseWriter, req *http.Request) {
		name := strings.TrimPrefix(path.Clean(req.URL.Path), "/")
		if name == "" {
			name = "index.html"
		}

		if _, err := fs.Stat(a.WebFS, name); err != nil {
			if path.Ext(name) != "" {
				a.errorHandler.NotFound(w, req)
				return
			}
			a.Logger.DebugContext(req.Context(), "Serving index for client route",
				slog.String("path", req.URL.Path))
			req.URL.Path = "/"
		}

		if path.Ext(req.URL.Path) == "" {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		} else {
			w.Header().Set("Cache-Control", "public, max-age=86400")
		}
		fileServer.ServeHTTP(w, req)
	})
}

// getCORSConfig returns CORS configuration based on environment
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{
			"Accept",
			"Content-Type",
			customMiddleware.RequestIDHeader,
			"X-Requested-With",
		},
		ExposedHeaders: []string{
			customMiddleware.RequestIDHeader,
			"Content-Disposition",
		},
		MaxAge: 300,
		Logger: a.Logger,
	}

	cfg.AllowedOrigins = a.allowedOrigins()

	a.Logger.Info("CORS configured",
		slog.Bool("development", a.Config.Logging.Development),
		slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

// allowedOrigins lists the cross-origin callers for both CORS and the
// WebSocket upgrade.
func (a *Application) allowedOrigins() []string {
	port := a.Config.Server.Port
	origins := []string{
		fmt.Sprintf("http://localhost:%d", port),
		fmt.Sprintf("http://127.0.0.1:%d", port),
	}

	if a.Config.Logging.Development {
		// Frontend dev server
		origins = append(origins,
			"http://localhost:3000",
			"http://127.0.0.1:3000")
	}

	if a.Config.Security.EnableCORS && len(a.Config.Security.AllowedOrigins) > 0 {
		origins = append(origins, a.Config.Security.AllowedOrigins...)
	}
	return origins
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// StartLoads begins the dataset and boundary loads in the background and
// records their outcome once each finishes.
func (a *Application) StartLoads(ctx context.Context) {
	a.Dataset.Start(ctx)
	go a.watchLoad(ctx, a.Dataset.Done(), a.Dataset.State)

	if a.Boundaries != nil {
		a.Boundaries.Start(ctx)
		go a.watchLoad(ctx, a.Boundaries.Done(), a.Boundaries.State)
	}
}

func (a *Application) watchLoad(ctx context.Context, done <-chan struct{}, state func() domain.LoadState) {
	select {
	case <-done:
	case <-ctx.Done():
		return
	}

	s := state()
	var err error
	if s.Status == domain.LoadStatusFailed {
		err = errors.New(s.Error)
	}
	infrastructure.RecordResourceLoad(ctx, a.Metrics, s.Name, s.Count, err)
	if err == nil && s.Name == dataset.ResourceName {
		if records, rerr := a.Dataset.Records(); rerr == nil {
			infrastructure.RecordInvalidValues(ctx, a.Metrics, dataset.Inspect(records).InvalidQuantity)
		}
	}
	a.Hub.BroadcastLoadState(s)
}

// Start starts the application
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	a.StartLoads(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			// Signal shutdown through context instead of os.Exit
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)),
		slog.String("dataset", string(a.Dataset.State().Status)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	// Hijacked connections are not tracked by Shutdown
	a.Hub.Stop()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return infrastructure.CloseLogFile()
}

// Run runs the application until interrupted or the server fails
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
	}

	// Loads and watchers stop with ctx; shutdown gets its own deadline.
	cancel()
	return a.Stop(context.Background())
}
