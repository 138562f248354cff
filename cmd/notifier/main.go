package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/BryServices/auradhom-v2/internal/application/notification"
	"github.com/BryServices/auradhom-v2/internal/config"
	kafkainfra "github.com/BryServices/auradhom-v2/internal/infrastructure/messaging/kafka"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

// Notifier đọc lifecycle event từ Kafka và tạo notification cho admin.
// Dùng khi NOTIFICATION_MODE=kafka.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}
	if !cfg.Kafka.Enabled() {
		log.Fatal("KAFKA_BOOTSTRAP_SERVERS is empty (ví dụ: localhost:19092,localhost:29092)")
	}

	appLog, err := logger.NewZapLogger(cfg.App.Env)
	if err != nil {
		log.Fatalf("init logger failed: %v", err)
	}
	defer appLog.Sync()
	appLog = appLog.WithFields(logger.String("app", cfg.App.Name+"-notifier"))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gw, err := persistence.NewGateway(ctx, cfg.Storage, cfg.DB, appLog)
	if err != nil {
		appLog.Fatal("storage init failed", logger.Error(err))
	}
	defer gw.Close()
	if err := persistence.RequireDurable(gw); err != nil {
		appLog.Fatal("notifier needs the shared database", logger.Error(err))
	}

	relay, err := notification.NewRelay(ctx, persistence.NewNotificationRepository(gw), appLog)
	if err != nil {
		appLog.Fatal("notification relay init failed", logger.Error(err))
	}

	consumer := kafkainfra.NewEventConsumer(cfg.Kafka, relay, appLog)
	defer consumer.Close()

	appLog.Info("notifier consuming",
		logger.String("topic", cfg.Kafka.EventTopic),
		logger.String("group", cfg.Kafka.ConsumerGroup),
	)
	if err := consumer.Start(ctx); err != nil {
		appLog.Error("kafka consumer stopped", logger.Error(err))
	}
}
