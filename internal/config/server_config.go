package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App          AppConfig
	Server       ServerConfig
	Storage      StorageConfig
	DB           PostgresConfig
	Backup       BackupConfig
	Kafka        KafkaConfig
	Redis        RedisConfig
	Orders       OrdersConfig
	Notification NotificationConfig
}

type AppConfig struct {
	Name string
	Env  string
}

type ServerConfig struct {
	Host string
	Port int
}

const (
	BackendPostgres = "postgres"
	BackendLocal    = "local"
)

// StorageConfig chọn backend lưu trữ chính. Backend chỉ được chọn một lần khi khởi động.
type StorageConfig struct {
	Backend      string
	LocalPath    string
	ProbeTimeout time.Duration
	WriteTimeout time.Duration
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
}

type BackupConfig struct {
	Path string
}

type KafkaConfig struct {
	Brokers       []string
	EventTopic    string
	ConsumerGroup string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Channel  string
}

type OrdersConfig struct {
	NumberPrefix string
}

const (
	NotificationInProcess = "inprocess"
	NotificationKafka     = "kafka"
)

type NotificationConfig struct {
	Mode string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name: getEnv("APP_NAME", "auradhom"),
			Env:  getEnv("APP_ENV", "local"),
		},
		Server: ServerConfig{
			Host: getEnv("HTTP_HOST", "0.0.0.0"),
			Port: getEnvAsInt("HTTP_PORT", 8030),
		},
		Storage: StorageConfig{
			Backend:      strings.ToLower(getEnv("STORAGE_BACKEND", BackendPostgres)),
			LocalPath:    getEnv("STORAGE_LOCAL_PATH", "data/store.json"),
			ProbeTimeout: getEnvAsMillis("STORAGE_PROBE_TIMEOUT_MS", 5000),
			WriteTimeout: getEnvAsMillis("STORE_WRITE_TIMEOUT_MS", 3000),
		},
		DB: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", ""),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			DBName:   getEnv("POSTGRES_DB", "postgres"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 10),
		},
		Backup: BackupConfig{
			Path: getEnv("BACKUP_PATH", "data/orders_backup.json"),
		},
		Kafka: KafkaConfig{
			Brokers:       splitAndTrim(getEnv("KAFKA_BOOTSTRAP_SERVERS", "")),
			EventTopic:    getEnv("KAFKA_EVENT_TOPIC", "storefront.order_events"),
			ConsumerGroup: getEnv("KAFKA_CONSUMER_GROUP", "storefront-notifier"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Channel:  getEnv("REDIS_EVENT_CHANNEL", "storefront:order_events"),
		},
		Orders: OrdersConfig{
			NumberPrefix: getEnv("ORDER_NUMBER_PREFIX", "ADH"),
		},
		Notification: NotificationConfig{
			Mode: strings.ToLower(getEnv("NOTIFICATION_MODE", NotificationInProcess)),
		},
	}

	return cfg, cfg.validate()
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User,
		p.Password,
		p.Host,
		p.Port,
		p.DBName,
		p.SSLMode,
	)
}

// Configured: chưa có host thì coi như không có durable backend.
func (p PostgresConfig) Configured() bool {
	return p.Host != "" && p.User != "" && p.DBName != ""
}

func (k KafkaConfig) Enabled() bool {
	return len(k.Brokers) > 0
}

func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

/* ================= helpers ================= */

func (c *Config) validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("HTTP_PORT is invalid")
	}
	switch c.Storage.Backend {
	case BackendPostgres, BackendLocal:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q", BackendPostgres, BackendLocal)
	}
	if c.Storage.WriteTimeout <= 0 || c.Storage.ProbeTimeout <= 0 {
		return fmt.Errorf("storage timeouts must be positive")
	}
	if c.Backup.Path == "" {
		return fmt.Errorf("BACKUP_PATH is empty")
	}
	// each local store owns its file and rewrites it whole
	if filepath.Clean(c.Backup.Path) == filepath.Clean(c.Storage.LocalPath) {
		return fmt.Errorf("BACKUP_PATH must differ from STORAGE_LOCAL_PATH")
	}
	if c.Orders.NumberPrefix == "" {
		return fmt.Errorf("ORDER_NUMBER_PREFIX is empty")
	}
	switch c.Notification.Mode {
	case NotificationInProcess:
	case NotificationKafka:
		if !c.Kafka.Enabled() {
			return fmt.Errorf("NOTIFICATION_MODE=kafka requires KAFKA_BOOTSTRAP_SERVERS")
		}
		// api and notifier would each own a copy of the same local file
		if c.Storage.Backend == BackendLocal {
			return fmt.Errorf("NOTIFICATION_MODE=kafka requires STORAGE_BACKEND=%s", BackendPostgres)
		}
	default:
		return fmt.Errorf("NOTIFICATION_MODE is invalid")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if v, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvAsMillis(key string, defaultMS int) time.Duration {
	return time.Duration(getEnvAsInt(key, defaultMS)) * time.Millisecond
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if val := strings.TrimSpace(p); val != "" {
			out = append(out, val)
		}
	}
	return out
}
