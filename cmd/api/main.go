package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/meridianerp/vendorhub-backend/api/routes"
	"github.com/meridianerp/vendorhub-backend/internal/approvals"
	"github.com/meridianerp/vendorhub-backend/internal/auth"
	"github.com/meridianerp/vendorhub-backend/internal/changerequests"
	"github.com/meridianerp/vendorhub-backend/internal/documents"
	"github.com/meridianerp/vendorhub-backend/internal/history"
	"github.com/meridianerp/vendorhub-backend/internal/matrix"
	"github.com/meridianerp/vendorhub-backend/internal/notifications"
	"github.com/meridianerp/vendorhub-backend/internal/users"
	"github.com/meridianerp/vendorhub-backend/internal/visibility"
	"github.com/meridianerp/vendorhub-backend/pkg/auth/session"
	"github.com/meridianerp/vendorhub-backend/pkg/config"
	"github.com/meridianerp/vendorhub-backend/pkg/db"
	"github.com/meridianerp/vendorhub-backend/pkg/logger"
	"github.com/meridianerp/vendorhub-backend/pkg/metrics"
	"github.com/meridianerp/vendorhub-backend/pkg/migrate"
	"github.com/meridianerp/vendorhub-backend/pkg/outbox"
	"github.com/meridianerp/vendorhub-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	svcs, err := buildServices(cfg, dbClient, redisClient, sessionManager, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, sessionManager, svcs),
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	go func() {
		<-shutdownCtx.Done()
		drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(drainCtx); err != nil {
			logg.Error(ctx, "error draining api server", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "api server shutting down gracefully")
}

func buildServices(cfg *config.Config, dbClient *db.Client, redisClient *redis.Client, sessionManager *session.Manager, logg *logger.Logger) (routes.Services, error) {
	gormDB := dbClient.DB()

	userRepo := users.NewRepository(gormDB)
	matrixRepo := matrix.NewRepository(gormDB)
	documentRepo := documents.NewRepository(gormDB)
	approvalRepo := approvals.NewRepository(gormDB)
	visibilityRepo := visibility.NewRepository(gormDB)
	changeRequestRepo := changerequests.NewRepository(gormDB)
	notificationRepo := notifications.NewRepository(gormDB)
	historyRepo := history.NewRepository(gormDB)

	outboxService := outbox.NewService(outbox.NewRepository(gormDB), logg)

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:       userRepo,
		SessionManager: sessionManager,
		RateLimiter:    redisClient,
		JWTConfig:      cfg.JWT,
		RateLimit:      cfg.AuthRateLimit,
	})
	if err != nil {
		return routes.Services{}, err
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	adminRegisterService, err := auth.NewAdminRegisterService(auth.AdminRegisterServiceParams{
		TxRunner:       dbClient,
		PasswordConfig: cfg.Password,
	})
	if err != nil {
		return routes.Services{}, err
	}

	userService, err := users.NewService(userRepo)
	if err != nil {
		return routes.Services{}, err
	}

	matrixService, err := matrix.NewService(matrixRepo, dbClient, outboxService)
	if err != nil {
		return routes.Services{}, err
	}

	visibilityService, err := visibility.NewService(visibilityRepo, userRepo, matrixRepo)
	if err != nil {
		return routes.Services{}, err
	}

	documentService, err := documents.NewService(documentRepo, matrixService, visibilityService, dbClient, outboxService)
	if err != nil {
		return routes.Services{}, err
	}

	historyRecorder, err := history.NewRecorder(historyRepo, dbClient)
	if err != nil {
		return routes.Services{}, err
	}

	approvalMetrics := metrics.NewApprovalMetrics(prometheus.DefaultRegisterer)
	approvalService, err := approvals.NewService(approvalRepo, historyRecorder, userRepo, dbClient, outboxService, approvalMetrics)
	if err != nil {
		return routes.Services{}, err
	}

	changeRequestService, err := changerequests.NewService(changeRequestRepo, dbClient, outboxService)
	if err != nil {
		return routes.Services{}, err
	}

	notificationService, err := notifications.NewService(notificationRepo, userRepo)
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Auth:           authService,
		Register:       registerService,
		AdminRegister:  adminRegisterService,
		Users:          userService,
		Matrices:       matrixService,
		Documents:      documentService,
		Approvals:      approvalService,
		Visibility:     visibilityService,
		ChangeRequests: changeRequestService,
		Notifications:  notificationService,
	}, nil
}
