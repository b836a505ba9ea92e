package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"lostfound/internal/adapter/api"
	"lostfound/internal/adapter/api/handler"
	apimiddleware "lostfound/internal/adapter/api/middleware"
	"lostfound/internal/adapter/api/router"
	"lostfound/internal/adapter/repository"
	"lostfound/internal/domain/entity"
	"lostfound/internal/infrastructure/firebase"
	"lostfound/internal/infrastructure/metrics"
	"lostfound/internal/infrastructure/ratelimit"
	"lostfound/internal/infrastructure/storage"
	"lostfound/internal/infrastructure/websocket"
	"lostfound/internal/usecase"
	"lostfound/pkg/config"
	"lostfound/pkg/logger"
)

const (
	initialSyncTimeout = 30 * time.Second
	shutdownTimeout    = 10 * time.Second
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Configure(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clients, err := firebase.NewClients(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}
	defer clients.Close()

	reportRepo := repository.NewFirestoreReportRepository(clients.Firestore)
	userRepo := repository.NewFirestoreUserRepository(clients.Firestore)

	// Photo upload and cleanup are optional; reports can carry external URLs.
	var photos usecase.PhotoStore
	if cfg.StorageBucket != "" {
		storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, clients.Credential)
		if err != nil {
			log.Fatalf("Failed to initialize Cloud Storage: %v", err)
		}
		defer storageClient.Close()
		photos = storageClient
	} else {
		logger.Warn("STORAGE_BUCKET not set, photo upload disabled")
	}

	appMetrics := metrics.New()

	feed := usecase.NewReportFeed(reportRepo, usecase.FeedOptions{
		ResubscribeBackoff: cfg.ResubscribeBackoff,
		Metrics:            appMetrics,
	})

	reportUseCase := usecase.NewReportUseCase(reportRepo, photos, nil)
	lifecycleUseCase := usecase.NewLifecycleUseCase(reportRepo, feed, photos, usecase.LifecycleOptions{
		UseTransactions:    cfg.UseTransactions,
		PreserveArchiveIDs: cfg.PreserveArchiveIDs(),
		Metrics:            appMetrics,
	})
	dashboardUseCase := usecase.NewDashboardUseCase(feed, cfg.Location())

	wsManager := websocket.NewManager()
	wsManager.OnConnect(func() ([]byte, error) {
		return websocket.NewMessage(websocket.MessageTypeDashboard, dashboardUseCase.CurrentView())
	})
	wsManager.Start(ctx)

	feed.OnChange(func(sets entity.ReportSets) {
		msg, err := websocket.NewMessage(websocket.MessageTypeDashboard, dashboardUseCase.View(sets))
		if err != nil {
			logger.Error("Failed to encode dashboard update: %v", err)
			return
		}
		wsManager.Broadcast(msg)
	})
	feed.OnReconnect(func(ctx context.Context, c entity.Collection) {
		if _, err := lifecycleUseCase.Reconcile(ctx); err != nil {
			logger.Warn("Reconcile after %s resubscribe incomplete: %v", c, err)
		}
	})

	if err := feed.Start(ctx); err != nil {
		log.Fatalf("Failed to start report feed: %v", err)
	}
	defer feed.Stop()

	syncCtx, cancelSync := context.WithTimeout(ctx, initialSyncTimeout)
	if err := feed.WaitSynced(syncCtx); err != nil {
		logger.Warn("Report feed not synced after %s, serving partial data: %v", initialSyncTimeout, err)
	} else if _, err := lifecycleUseCase.Reconcile(ctx); err != nil {
		logger.Warn("Startup reconcile incomplete: %v", err)
	}
	cancelSync()

	reportLimiter := ratelimit.NewRateLimiter(cfg.ReportRateLimit, cfg.ReportRateBurst)
	reportLimiter.StartCleanupRoutine(ctx)

	handler.Setup(reportUseCase, lifecycleUseCase, dashboardUseCase, feed, wsManager)

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebase.NewFirebaseAuthClient(clients.Auth))
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	router.Setup(e, authMiddleware, adminMiddleware, reportLimiter, appMetrics.Handler())

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}
