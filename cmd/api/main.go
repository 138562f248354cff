package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/BryServices/auradhom-v2/internal/application/backup"
	"github.com/BryServices/auradhom-v2/internal/application/notification"
	"github.com/BryServices/auradhom-v2/internal/application/order"
	"github.com/BryServices/auradhom-v2/internal/config"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/encoding/avro"
	ginserver "github.com/BryServices/auradhom-v2/internal/infrastructure/http/gin"
	kafkainfra "github.com/BryServices/auradhom-v2/internal/infrastructure/messaging/kafka"
	redisinfra "github.com/BryServices/auradhom-v2/internal/infrastructure/messaging/redis"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/metrics"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/local"
	"github.com/BryServices/auradhom-v2/internal/interfaces/http/handler"
	"github.com/BryServices/auradhom-v2/internal/interfaces/http/router"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	appLog, err := logger.NewZapLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer appLog.Sync()
	appLog = appLog.WithFields(logger.String("app", cfg.App.Name))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := persistence.NewGateway(ctx, cfg.Storage, cfg.DB, appLog)
	if err != nil {
		appLog.Fatal("storage init failed", logger.Error(err))
	}
	defer gw.Close()

	backupStore, err := local.New(cfg.Backup.Path)
	if err != nil {
		appLog.Fatal("backup store init failed", logger.Error(err))
	}

	orderRepo := persistence.NewOrderRepository(gw, appLog)
	if err := orderRepo.RefreshFromStore(ctx); err != nil {
		appLog.Warn("initial order load failed, starting with empty views", logger.Error(err))
	}

	bus := order.NewEventBus(appLog)
	orderService := order.NewService(orderRepo, bus, appLog, order.Options{
		WriteTimeout:      cfg.Storage.WriteTimeout,
		OrderNumberPrefix: cfg.Orders.NumberPrefix,
	})

	encoder, err := avro.NewOrderEncoder()
	if err != nil {
		appLog.Fatal("avro encoder init failed", logger.Error(err))
	}
	exporter := backup.NewExporter(persistence.NewBackupRepository(backupStore), encoder, appLog)
	orderService.Subscribe(exporter)

	relay, err := notification.NewRelay(ctx, persistence.NewNotificationRepository(gw), appLog)
	if err != nil {
		appLog.Fatal("notification relay init failed", logger.Error(err))
	}
	relayInProcess := cfg.Notification.Mode == config.NotificationInProcess
	if relayInProcess {
		orderService.Subscribe(relay)
	}

	m := metrics.New()
	orderService.Subscribe(m)

	stream := handler.NewEventStream()
	orderService.Subscribe(stream)

	if cfg.Kafka.Enabled() {
		producer, err := kafkainfra.NewEventProducer(cfg.Kafka, appLog)
		if err != nil {
			appLog.Fatal("kafka producer init failed", logger.Error(err))
		}
		defer producer.Close(context.Background())
		orderService.Subscribe(producer)
	}

	if cfg.Redis.Enabled() {
		publisher, err := redisinfra.NewPublisher(ctx, cfg.Redis, appLog)
		if err != nil {
			appLog.Warn("redis unavailable, status updates disabled", logger.Error(err))
		} else {
			defer publisher.Close()
			orderService.Subscribe(publisher)
		}
	}

	engine := ginserver.NewEngine(cfg.App.Env, appLog, m.Middleware())
	router.RegisterRoutes(engine, router.Handlers{
		Order:        handler.NewOrderHandler(orderService, appLog),
		Admin:        handler.NewAdminHandler(orderService, exporter, appLog),
		Notification: handler.NewNotificationHandler(relay, !relayInProcess, appLog),
		Events:       stream,
		Health:       handler.NewHealthHandler(gw.Name()),
		Metrics:      m.Handler(),
	})

	server := ginserver.NewServer(cfg.Server, engine)
	server.RegisterOnShutdown(stream.Close)

	drained := make(chan struct{})
	go func() {
		defer close(drained)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			appLog.Error("server shutdown failed", logger.Error(err))
		}
	}()

	appLog.Info("http server listening",
		logger.String("addr", cfg.Server.Address()),
		logger.String("storage", gw.Name()),
		logger.String("notification_mode", cfg.Notification.Mode),
	)
	if err := server.Run(); err != nil {
		appLog.Fatal("server run failed", logger.Error(err))
	}
	// handlers still running must finish before the deferred closes
	<-drained
	appLog.Info("http server stopped")
}
