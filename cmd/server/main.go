package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/academic-services-backend/internal/config"
	"github.com/ignatzorin/academic-services-backend/internal/db"
	"github.com/ignatzorin/academic-services-backend/internal/goroutine"
	httpHandlers "github.com/ignatzorin/academic-services-backend/internal/http/handlers"
	httpRouter "github.com/ignatzorin/academic-services-backend/internal/http/router"
	"github.com/ignatzorin/academic-services-backend/internal/logger"
	"github.com/ignatzorin/academic-services-backend/internal/repository"
	"github.com/ignatzorin/academic-services-backend/internal/service"
	"github.com/ignatzorin/academic-services-backend/internal/storage"
	"github.com/ignatzorin/academic-services-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	logger.Init(cfg.Env)
	logger.L().WithFields(logrus.Fields{"env": cfg.Env, "port": cfg.HTTPPort}).Info("Starting API server")

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.L().WithError(err).Fatal("main: ошибка подключения к базе")
	}
	defer safeClose(dbConn)

	applied, err := db.RunMigrations(ctx, dbConn, os.DirFS(cfg.MigrationsPath))
	if err != nil {
		logger.L().WithError(err).Fatal("main: ошибка миграций")
	}
	if len(applied) > 0 {
		logger.L().WithField("migrations", applied).Info("Migrations applied")
	}

	rates, err := config.LoadRateTable(cfg.RatesFile)
	if err != nil {
		logger.L().WithError(err).Fatal("main: не удалось загрузить курсы валют")
	}

	// Инициализируем вспомогательные сервисы.
	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTL)
	cache := service.NewCacheService(ctx)

	fileStorage, err := storage.NewFileStorage(cfg.StoragePath, cfg.MaxUploadSizeMB)
	if err != nil {
		logger.L().WithError(err).Fatal("main: не удалось подготовить файловое хранилище")
	}

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	serviceRepo := repository.NewServiceRepository(dbConn)
	requestRepo := repository.NewRequestRepository(dbConn)
	paymentRepo := repository.NewPaymentRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	deliverableRepo := repository.NewDeliverableRepository(dbConn)
	auditRepo := repository.NewAuditRepository(dbConn)
	notificationRepo := repository.NewNotificationRepository(dbConn)
	ticketRepo := repository.NewTicketRepository(dbConn)
	reportRepo := repository.NewReportRepository(dbConn)

	// Вебсокеты.
	hub := ws.NewHub(ctx)
	goroutine.SafeGo("ws-hub", hub.Run)

	// Сервисы.
	notificationService := service.NewNotificationService(notificationRepo, userRepo)
	notificationService.SetPusher(hub)

	lifecycle := service.NewLifecycleService(requestRepo, paymentRepo, disputeRepo, deliverableRepo, serviceRepo, auditRepo, notificationService)
	lifecycle.SetCache(cache)

	catalogService := service.NewCatalogService(serviceRepo, cache, auditRepo)
	userService := service.NewUserService(userRepo, auditRepo, notificationService)
	ticketService := service.NewTicketService(ticketRepo, requestRepo, auditRepo, notificationService)
	reportService := service.NewReportService(reportRepo, rates, cache, cfg.ReportCacheTTL)

	seedService := service.NewSeedService(serviceRepo)
	seedService.SetCache(cache)

	healthChecks := map[string]httpHandlers.Pinger{
		"database": dbConn,
		"storage":  httpHandlers.PingFunc(fileStorage.Ping),
	}

	// HTTP хэндлеры.
	handlers := httpRouter.Handlers{
		Requests:      httpHandlers.NewRequestHandler(lifecycle),
		Payments:      httpHandlers.NewPaymentHandler(lifecycle),
		Disputes:      httpHandlers.NewDisputeHandler(lifecycle),
		Deliverables:  httpHandlers.NewDeliverableHandler(lifecycle),
		Uploads:       httpHandlers.NewUploadHandler(fileStorage),
		Catalog:       httpHandlers.NewCatalogHandler(catalogService),
		Users:         httpHandlers.NewUserHandler(userService),
		Tickets:       httpHandlers.NewTicketHandler(ticketService),
		Notifications: httpHandlers.NewNotificationHandler(notificationService),
		Reports:       httpHandlers.NewReportHandler(reportService),
		Seed:          httpHandlers.NewSeedHandler(seedService),
		WS:            httpHandlers.NewWSHandler(hub, originChecker(cfg)),
		Health:        httpHandlers.NewHealthHandler(healthChecks),
	}

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, handlers, tokenManager, userService)

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Завершаем сервер при получении сигнала.
	goroutine.SafeGo("http-shutdown", func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.L().WithError(err).Error("main: ошибка остановки http сервера")
		}
	})

	logger.L().Infof("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.L().WithError(err).Fatal("main: сервер завершился с ошибкой")
	}
	logger.L().Info("main: сервер остановлен")
}

// originChecker ограничивает WebSocket теми же Origin, что и CORS. В development разрешён любой.
func originChecker(cfg *config.Config) func(r *http.Request) bool {
	if !cfg.IsProduction() {
		return nil
	}
	return func(r *http.Request) bool {
		return slices.Contains(cfg.AllowedOrigins, r.Header.Get("Origin"))
	}
}

// safeClose закрывает соединение с базой.
func safeClose(conn *sqlx.DB) {
	if err := conn.Close(); err != nil {
		logger.L().WithError(err).Error("main: ошибка закрытия базы")
	}
}
