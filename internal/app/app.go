// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/bissquit/statusboard/api"
	"github.com/bissquit/statusboard/internal/catalog"
	catalogpostgres "github.com/bissquit/statusboard/internal/catalog/postgres"
	"github.com/bissquit/statusboard/internal/config"
	"github.com/bissquit/statusboard/internal/identity"
	"github.com/bissquit/statusboard/internal/identity/jwt"
	identitypostgres "github.com/bissquit/statusboard/internal/identity/postgres"
	identityredis "github.com/bissquit/statusboard/internal/identity/redis"
	"github.com/bissquit/statusboard/internal/incidents"
	incidentspostgres "github.com/bissquit/statusboard/internal/incidents/postgres"
	"github.com/bissquit/statusboard/internal/notifications"
	"github.com/bissquit/statusboard/internal/notifications/email"
	notificationspostgres "github.com/bissquit/statusboard/internal/notifications/postgres"
	"github.com/bissquit/statusboard/internal/pkg/ctxlog"
	"github.com/bissquit/statusboard/internal/pkg/httputil"
	"github.com/bissquit/statusboard/internal/pkg/metrics"
	"github.com/bissquit/statusboard/internal/pkg/postgres"
	"github.com/bissquit/statusboard/internal/statuspage"
	"github.com/bissquit/statusboard/internal/version"
	"github.com/bissquit/statusboard/internal/web"
	"github.com/bissquit/statusboard/migrations"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

const dbMetricsInterval = 15 * time.Second

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	db            *pgxpool.Pool
	redis         *redis.Client
	server        *http.Server
	metricsServer *http.Server
	hub           *statuspage.Hub
	notifier      *notifications.Notifier
	bgCancel      context.CancelFunc
	bg            sync.WaitGroup
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(cfg.Database.URL, migrations.FS); err != nil {
			return nil, fmt.Errorf("migrate database: %w", err)
		}
	}

	connectCtx, connectCancel := context.WithTimeout(context.Background(), cfg.Database.ConnectTimeout)
	defer connectCancel()

	db, err := postgres.Connect(connectCtx, postgres.Config{
		URL:             cfg.Database.URL,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnectAttempts: cfg.Database.ConnectAttempts,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	bgCtx, bgCancel := context.WithCancel(ctxlog.WithLogger(context.Background(), logger))

	app := &App{
		config:   cfg,
		logger:   logger,
		db:       db,
		bgCancel: bgCancel,
	}

	app.goBackground(func() { metrics.CollectDBPoolMetrics(bgCtx, db, dbMetricsInterval) })

	router, err := app.setupRouter(bgCtx)
	if err != nil {
		bgCancel()
		app.bg.Wait()
		if app.redis != nil {
			_ = app.redis.Close()
		}
		db.Close()
		return nil, fmt.Errorf("setup router: %w", err)
	}

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

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"version", version.Version,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

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

	// Stops the hub, the sweeper and the pool collector.
	a.bgCancel()
	a.bg.Wait()

	if a.notifier != nil {
		a.notifier.Wait()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	a.db.Close()

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

// Notifier returns the subscriber notifier, or nil when notifications are disabled.
func (a *App) Notifier() *notifications.Notifier {
	return a.notifier
}

func (a *App) goBackground(fn func()) {
	a.bg.Add(1)
	go func() {
		defer a.bg.Done()
		fn()
	}()
}

func (a *App) setupRouter(ctx context.Context) (*chi.Mux, error) {
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
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	r.Get("/api/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/x-yaml")
		_, _ = w.Write(api.OpenAPI)
	})
	r.Get("/docs", docsHandler)

	// Identity
	identityRepo := identitypostgres.NewRepository(a.db)
	denylist, err := a.setupDenylist(ctx, identityRepo)
	if err != nil {
		return nil, err
	}
	jwtAuth := jwt.NewAuthenticator(jwt.Config{
		SecretKey:     a.config.JWT.SecretKey,
		TokenDuration: a.config.JWT.TokenDuration,
	})
	identityService := identity.NewService(identityRepo, jwtAuth, denylist)
	identityHandler := identity.NewHandler(identityService, identity.CookieSettings{
		Secure:   a.config.Cookie.Secure,
		Domain:   a.config.Cookie.Domain,
		Lifetime: a.config.JWT.TokenDuration,
	})

	// Catalog
	catalogService := catalog.NewService(catalogpostgres.NewRepository(a.db))
	if a.config.Catalog.SeedDefaults {
		if err := catalogService.SeedDefaults(ctx); err != nil {
			return nil, fmt.Errorf("seed components: %w", err)
		}
	}
	catalogHandler := catalog.NewHandler(catalogService)

	// Incidents
	incidentsService := incidents.NewService(incidentspostgres.NewRepository(a.db), catalogService)
	incidentsHandler := incidents.NewHandler(incidentsService)

	// Status page and live stream
	statusService := statuspage.NewService(catalogService, incidentsService)
	a.hub = statuspage.NewHub(statusService, a.config.CORS.AllowedOrigins)
	a.goBackground(func() { a.hub.Run(ctx) })
	catalogService.Subscribe(a.hub)
	incidentsService.Subscribe(a.hub)
	statusHandler := statuspage.NewHandler(statusService, a.hub)

	// Subscribers
	notificationsService := notifications.NewService(notificationspostgres.NewRepository(a.db))
	notificationsHandler := notifications.NewHandler(notificationsService)
	if err := a.setupNotifier(notificationsService, incidentsService); err != nil {
		return nil, err
	}

	webHandler, err := web.NewHandler(web.Deps{
		Sessions:    identityService,
		Status:      statusService,
		Components:  catalogService,
		Incidents:   incidentsService,
		Subscribers: notificationsService,
	})
	if err != nil {
		return nil, fmt.Errorf("create web handler: %w", err)
	}
	webHandler.RegisterRoutes(r)

	r.Route("/api", func(r chi.Router) {
		identityHandler.RegisterRoutes(r)
		catalogHandler.RegisterPublicRoutes(r)
		incidentsHandler.RegisterPublicRoutes(r)
		statusHandler.RegisterRoutes(r)

		r.Group(func(r chi.Router) {
			r.Use(httputil.AuthMiddleware(identityService))

			catalogHandler.RegisterRoutes(r)
			incidentsHandler.RegisterRoutes(r)
			notificationsHandler.RegisterRoutes(r)
		})
	})

	return r, nil
}

// setupDenylist picks the revocation store. The postgres store is swept
// periodically; redis expires keys on its own.
func (a *App) setupDenylist(ctx context.Context, repo *identitypostgres.Repository) (identity.Denylist, error) {
	switch a.config.Revocation.Store {
	case config.RevocationStoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     a.config.Revocation.Redis.Addr,
			Password: a.config.Revocation.Redis.Password,
			DB:       a.config.Revocation.Redis.DB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.redis = client
		a.logger.Info("token revocation store configured", "store", "redis", "addr", a.config.Revocation.Redis.Addr)
		return identityredis.NewDenylist(client), nil

	default:
		a.goBackground(func() { identity.RunSweeper(ctx, repo, a.config.Revocation.SweepInterval) })
		a.logger.Info("token revocation store configured", "store", "postgres")
		return repo, nil
	}
}

func (a *App) setupNotifier(subscribers *notifications.Service, incidentsService *incidents.Service) error {
	cfg := a.config.Notifications
	a.logger.Info("notifications configured", "enabled", cfg.Enabled)
	if !cfg.Enabled {
		return nil
	}

	sender, err := email.NewSender(email.Config{
		SMTPHost:     cfg.Email.SMTPHost,
		SMTPPort:     cfg.Email.SMTPPort,
		SMTPUser:     cfg.Email.SMTPUser,
		SMTPPassword: cfg.Email.SMTPPassword,
		FromAddress:  cfg.Email.FromAddress,
		RateLimit:    cfg.Email.RateLimit,
		Burst:        cfg.Email.Burst,
	})
	if err != nil {
		return fmt.Errorf("create email sender: %w", err)
	}

	renderer, err := notifications.NewRenderer(cfg.BaseURL)
	if err != nil {
		return fmt.Errorf("create notification renderer: %w", err)
	}

	a.notifier = notifications.NewNotifier(subscribers, renderer, sender)
	incidentsService.Subscribe(a.notifier)
	return nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.db.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Database unavailable")
		return
	}
	if a.redis != nil {
		if err := a.redis.Ping(ctx).Err(); err != nil {
			ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
			httputil.Text(w, http.StatusServiceUnavailable, "Redis unavailable")
			return
		}
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, version.Get())
}

func docsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html")
	_, _ = w.Write([]byte(`<!DOCTYPE html>
<html>
<head>
    <title>Status API</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5/swagger-ui.css">
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
        SwaggerUIBundle({
            url: "/api/openapi.yaml",
            dom_id: '#swagger-ui',
            presets: [SwaggerUIBundle.presets.apis, SwaggerUIBundle.SwaggerUIStandalonePreset],
            layout: "BaseLayout"
        });
    </script>
</body>
</html>`))
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
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
