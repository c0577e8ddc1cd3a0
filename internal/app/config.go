package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/yungbote/coursetrack-backend/internal/data/db"
	"github.com/yungbote/coursetrack-backend/internal/observability"
)

type Config struct {
	AppEnv  string `env:"APP_ENV" envDefault:"development"`
	LogMode string `env:"LOG_MODE" envDefault:"development"`
	Port    string `env:"PORT" envDefault:"8080"`

	DBDriver         string `env:"DB_DRIVER" envDefault:"postgres"`
	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresName     string `env:"POSTGRES_NAME" envDefault:"coursetrack"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`
	SQLitePath       string `env:"SQLITE_PATH" envDefault:"coursetrack.db"`

	JWTSecretKey string `env:"JWT_SECRET_KEY"`

	RedisAddr            string        `env:"REDIS_ADDR"`
	ReconcileQueueKey    string        `env:"RECONCILE_QUEUE_KEY" envDefault:"coursetrack:reconcile"`
	ReconcileInterval    time.Duration `env:"RECONCILE_INTERVAL" envDefault:"30s"`
	ReconcileBatchSize   int           `env:"RECONCILE_BATCH_SIZE" envDefault:"100"`
	ReconcileConcurrency int           `env:"RECONCILE_CONCURRENCY" envDefault:"4"`
	ToggleMaxAttempts    int           `env:"TOGGLE_MAX_ATTEMPTS" envDefault:"4"`

	// ReconcileFullInterval paces the full pass over every user. Zero disables it.
	ReconcileFullInterval time.Duration `env:"RECONCILE_FULL_INTERVAL" envDefault:"1h"`

	MetricsEnabled bool   `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsAddr    string `env:"METRICS_ADDR"`

	TreeShapesFile  string        `env:"TREE_SHAPES_FILE"`
	CORSOrigins     []string      `env:"CORS_ORIGINS" envSeparator:","`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	Otel observability.OtelConfig
}

// LoadConfig reads Config from the process environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DBDriver)) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.ReconcileBatchSize <= 0 {
		return fmt.Errorf("RECONCILE_BATCH_SIZE must be positive, got %d", c.ReconcileBatchSize)
	}
	if c.ReconcileConcurrency <= 0 {
		return fmt.Errorf("RECONCILE_CONCURRENCY must be positive, got %d", c.ReconcileConcurrency)
	}
	if c.ReconcileFullInterval < 0 {
		return fmt.Errorf("RECONCILE_FULL_INTERVAL must not be negative, got %s", c.ReconcileFullInterval)
	}
	if c.ToggleMaxAttempts <= 0 {
		return fmt.Errorf("TOGGLE_MAX_ATTEMPTS must be positive, got %d", c.ToggleMaxAttempts)
	}
	return nil
}

func (c Config) DB() db.Config {
	return db.Config{
		Driver:           c.DBDriver,
		PostgresHost:     c.PostgresHost,
		PostgresPort:     c.PostgresPort,
		PostgresUser:     c.PostgresUser,
		PostgresPassword: c.PostgresPassword,
		PostgresName:     c.PostgresName,
		PostgresSSLMode:  c.PostgresSSLMode,
		SQLitePath:       c.SQLitePath,
	}
}

func (c Config) Address() string {
	port := strings.TrimSpace(c.Port)
	if strings.Contains(port, ":") {
		return port
	}
	return ":" + port
}
