package main

import (
	"context"
	"log"
	"time"

	"github.com/BryServices/auradhom-v2/internal/application/backup"
	"github.com/BryServices/auradhom-v2/internal/config"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/encoding/avro"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence"
	"github.com/BryServices/auradhom-v2/internal/infrastructure/persistence/local"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

// Chương trình nhỏ để đẩy các order chỉ có trong backup local vào durable store.
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

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	gw, err := persistence.NewGateway(ctx, cfg.Storage, cfg.DB, appLog)
	if err != nil {
		appLog.Fatal("storage init failed", logger.Error(err))
	}
	defer gw.Close()
	if gw.Name() == local.Name && cfg.Storage.Backend != config.BackendLocal {
		appLog.Fatal("durable store unavailable, nothing to migrate into")
	}

	backupStore, err := local.New(cfg.Backup.Path)
	if err != nil {
		appLog.Fatal("backup store init failed", logger.Error(err))
	}

	encoder, err := avro.NewOrderEncoder()
	if err != nil {
		appLog.Fatal("avro encoder init failed", logger.Error(err))
	}
	exporter := backup.NewExporter(persistence.NewBackupRepository(backupStore), encoder, appLog)

	res, err := exporter.Migrate(ctx, persistence.NewOrderRepository(gw, appLog))
	if err != nil {
		appLog.Fatal("migration failed", logger.Error(err))
	}
	appLog.Info("migration done",
		logger.Int("migrated", res.Migrated),
		logger.Int("skipped", res.Skipped),
		logger.Int("failed", res.Failed),
	)
}
