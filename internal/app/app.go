package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"student-records/internal/auth"
	"student-records/internal/config"
	"student-records/internal/db"
	"student-records/internal/health"
	"student-records/internal/httputil"
	"student-records/internal/messaging"
	"student-records/internal/middleware"
	"student-records/internal/note"
	"student-records/internal/student"
	"student-records/internal/telemetry"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

type App struct {
	config    *config.Config
	router    chi.Router
	server    *http.Server
	logger    *slog.Logger
	db        *bun.DB
	publisher messaging.Publisher
	telemetry *telemetry.Telemetry
}

// ServiceInfo is the body of GET /
type ServiceInfo struct {
	Version   string            `json:"version"`
	Endpoints map[string]string `json:"endpoints"`
	Features  []string          `json:"features"`
}

// New connects every dependency and mounts the routes. On error, whatever
// was opened is closed again.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	logger.Info("initializing application", "env", cfg.Env)

	app := &App{
		config: cfg,
		router: chi.NewRouter(),
		logger: logger,
	}

	tel, err := telemetry.Init(ctx, cfg.Telemetry, ServiceName, Version, cfg.Env, logger)
	if err != nil {
		return nil, err
	}
	app.telemetry = tel
	m := tel.Metrics

	database, err := db.New(ctx, cfg.Database)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.db = database
	logger.Info("database connected", "driver", cfg.Database.Driver)

	if err := db.RunMigrations(ctx, database, (*student.Student)(nil), (*note.Note)(nil)); err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := m.Database.RegisterDB(database.DB, m.Meter()); err != nil {
		logger.Warn("failed to register database metrics", "error", err)
	}
	if err := m.Health.RegisterDependencies(m.Meter(), "database"); err != nil {
		logger.Warn("failed to register dependency metrics", "error", err)
	}

	publisher, err := messaging.NewPublisher(cfg.Events, m, logger)
	if err != nil {
		app.close(ctx)
		return nil, fmt.Errorf("failed to initialize event publisher: %w", err)
	}
	app.publisher = publisher

	tokens, err := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		app.close(ctx)
		return nil, err
	}

	errorResponder := httputil.NewErrorResponder(logger, cfg.IsDevelopment())

	studentRepo := student.NewRepository(database, m)
	authService := auth.NewService(studentRepo, auth.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, publisher, m, logger)
	authHandler := auth.NewHandler(authService, errorResponder, logger)
	authenticator := auth.NewAuthenticator(tokens, studentRepo, m, logger)

	noteService := note.NewService(note.NewRepository(database, m), publisher, m, logger)
	noteHandler := note.NewHandler(noteService, errorResponder, logger)

	app.router.Use(middleware.RequestID)
	app.router.Use(middleware.Recovery(logger))
	app.router.Use(middleware.Logging(logger))
	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))

	app.router.NotFound(routeNotFound)
	app.router.MethodNotAllowed(routeNotFound)

	// Public endpoints
	app.router.Get("/", app.root)
	health.NewHandler(database, m, logger).RegisterRoutes(app.router)

	app.router.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r, authenticator.Middleware)

		r.Group(func(r chi.Router) {
			r.Use(authenticator.Middleware)
			noteHandler.RegisterRoutes(r)
		})
	})

	logger.Info("application initialized successfully")

	return app, nil
}

// Handler returns the root HTTP handler.
func (a *App) Handler() http.Handler {
	return a.router
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and then
// releases the publisher, the database and the meter provider.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	var errs []error
	if a.server != nil {
		if err := a.server.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http server: %w", err))
		}
	}
	if err := a.close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			errs = append(errs, fmt.Errorf("event publisher: %w", err))
		}
	}
	if a.db != nil {
		db.Close(a.db)
	}
	if err := a.telemetry.Shutdown(ctx, a.logger); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (a *App) root(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithData(w, http.StatusOK, "Welcome to Student Records System API", ServiceInfo{
		Version: Version,
		Endpoints: map[string]string{
			"auth":   "/api/auth",
			"notes":  "/api/notes",
			"health": "/health",
		},
		Features: []string{
			"Student registration and login",
			"JWT bearer authentication",
			"Personal notes",
		},
	})
}

func routeNotFound(w http.ResponseWriter, r *http.Request) {
	httputil.RespondWithMessage(w, http.StatusNotFound, "Route not found")
}
