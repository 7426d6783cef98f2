package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"code2deploy-console/docs"
	"code2deploy-console/internal/avatar"
	"code2deploy-console/internal/backend"
	"code2deploy-console/internal/config"
	"code2deploy-console/internal/database"
	"code2deploy-console/internal/handler"
	"code2deploy-console/internal/logger"
	"code2deploy-console/internal/middleware"
	"code2deploy-console/internal/model"
	"code2deploy-console/internal/repository"
	"code2deploy-console/internal/resource"
	"code2deploy-console/internal/router"
	"code2deploy-console/internal/seal"
	"code2deploy-console/internal/session"
)

type App struct {
	server       *http.Server
	logger       *slog.Logger
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx := context.Background()

	log.Info("connecting to PostgreSQL")
	db, err := database.New(ctx, database.Options{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.Migrate(ctx, log); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database schema: %w", err)
	}
	if err := db.RegisterPoolMetrics(prometheus.DefaultRegisterer); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register pool metrics: %w", err)
	}
	log.Info("database ready")

	rdb, err := database.NewRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	cleanup := []func(){
		func() { _ = rdb.Close() },
		db.Close,
	}
	fail := func(err error) (*App, error) {
		for _, fn := range cleanup {
			fn()
		}
		return nil, err
	}

	sealer, err := seal.New(cfg.SessionSecret)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize session sealing: %w", err))
	}

	api, err := backend.New(backend.Config{
		BaseURL:             cfg.APIURL,
		Timeout:             cfg.BackendTimeout,
		BreakerName:         "c2d-api",
		BreakerMaxRequests:  cfg.BreakerMaxRequests,
		BreakerInterval:     cfg.BreakerInterval,
		BreakerTimeout:      cfg.BreakerTimeout,
		BreakerFailureRatio: cfg.BreakerFailureRatio,
		BreakerMinRequests:  cfg.BreakerMinRequests,
	}, log)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize backend client: %w", err))
	}

	sessionRepo := repository.NewSessionRepository(rdb, sealer, cfg.SessionTTL)
	confirmRepo := repository.NewConfirmationRepository(rdb)
	activityRepo := repository.NewActivityRepository(db.Pool)
	draftRepo := repository.NewDraftRepository(db.Pool)

	manager := session.NewManager(sessionRepo, api, log)
	sessions := middleware.NewSessionMiddleware(manager, cfg.SessionCookie)

	adminOpts := resource.Options{
		Confirmations: confirmRepo,
		Activity:      activityRepo,
		ConfirmTTL:    cfg.DeleteConfirmTTL,
		Logger:        log,
	}
	meOpts := resource.Options{Logger: log}

	handlers := router.Handlers{
		Auth: handler.NewAuthHandler(manager, sessions, avatar.NewProcessor(cfg.AvatarMaxBytes, avatar.DefaultSize), handler.CookieConfig{
			Name:   cfg.SessionCookie,
			Secure: cfg.CookieSecure,
			MaxAge: cfg.SessionTTL,
		}),
		Activity: handler.NewActivityHandler(activityRepo),
		Drafts:   handler.NewDraftHandler(draftRepo),
		Docs:     handler.NewDocsHandler(docs.OpenAPI),
		Health: handler.NewHealthHandler(map[string]handler.Pinger{
			"postgres": db.Health,
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		}, api),
		Admin: []handler.Mountable{
			mount[model.User](resource.Users, api, adminOpts, manager),
			mount[model.Program](resource.Programs, api, adminOpts, manager),
			mount[model.Event](resource.Events, api, adminOpts, manager),
			mount[model.Mentor](resource.Mentors, api, adminOpts, manager),
			mount[model.Certificate](resource.Certificates, api, adminOpts, manager),
			mount[model.Badge](resource.Badges, api, adminOpts, manager),
			mount[model.Notification](resource.Notifications, api, adminOpts, manager),
			mount[model.PaymentOrder](resource.PaymentOrders, api, adminOpts, manager),
			mount[model.Coupon](resource.Coupons, api, adminOpts, manager),
			mount[model.PricingPlan](resource.PricingPlans, api, adminOpts, manager),
			mount[model.ContactSetting](resource.ContactSettings, api, adminOpts, manager),
			mount[model.ContactMessage](resource.ContactMessages, api, adminOpts, manager),
			mount[model.AuditLog](resource.AuditLogs, api, adminOpts, manager),
			mount[model.SecurityEvent](resource.SecurityEvents, api, adminOpts, manager),
		},
		Me: []handler.Mountable{
			mount[model.Enrollment](resource.MyPrograms, api, meOpts, manager),
			mount[model.Registration](resource.MyEvents, api, meOpts, manager),
			mount[model.Certificate](resource.MyCertificates, api, meOpts, manager),
			mount[model.Badge](resource.MyBadges, api, meOpts, manager),
			mount[model.Notification](resource.MyNotifications, api, meOpts, manager),
			mount[model.PaymentOrder](resource.MyOrders, api, meOpts, manager),
		},
	}

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router.New(cfg, log, sessions, handlers),
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server:       server,
		logger:       log,
		cleanupFuncs: cleanup,
	}, nil
}

func mount[T any](def resource.Definition, api resource.API, opts resource.Options, sessions *session.Manager) handler.Mountable {
	return handler.NewResourceHandler(resource.NewPanel[T](def, api, opts), sessions)
}

func (a *App) Run() error {
	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("server starting", "addr", a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case <-stop:
	case err := <-serveErr:
		runErr = fmt.Errorf("server failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil && runErr == nil {
		runErr = fmt.Errorf("graceful shutdown failed: %w", err)
	}

	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	a.logger.Info("server stopped")
	return runErr
}
