package app

import (
	"fmt"
	"strings"
	"time"

	tallyredis "github.com/yungbote/tally-backend/internal/clients/redis"
	"github.com/yungbote/tally-backend/internal/data/db"
	"github.com/yungbote/tally-backend/internal/observability"
	"github.com/yungbote/tally-backend/internal/platform/config"
	"github.com/yungbote/tally-backend/internal/platform/retry"
	"github.com/yungbote/tally-backend/internal/services"
)

type Config struct {
	LogMode        string   `env:"LOG_MODE" envDefault:"development"`
	LogRedaction   bool     `env:"LOG_REDACTION_ENABLED" envDefault:"true"`
	LogHashSalt    string   `env:"LOG_HASH_SALT"`
	HTTPAddr       string   `env:"HTTP_ADDR" envDefault:":8080"`
	CORSOrigins    []string `env:"CORS_ORIGINS" envSeparator:","`
	JWTSecret      string   `env:"API_JWT_SECRET"`
	MetricsEnabled bool     `env:"METRICS_ENABLED" envDefault:"true"`

	CountCacheTTL time.Duration `env:"COUNT_CACHE_TTL" envDefault:"3s"`
	CountGoal     int64         `env:"COUNT_GOAL" envDefault:"1000000"`
	// MaxCountValue bounds admin-supplied numbers; 0 means the goal.
	MaxCountValue int64 `env:"MAX_COUNT_VALUE" envDefault:"0"`

	StorageTimeout     time.Duration `env:"STORAGE_TIMEOUT" envDefault:"10s"`
	StorageMaxAttempts int           `env:"STORAGE_MAX_ATTEMPTS" envDefault:"3"`
	StorageMinBackoff  time.Duration `env:"STORAGE_MIN_BACKOFF" envDefault:"100ms"`
	StorageMaxBackoff  time.Duration `env:"STORAGE_MAX_BACKOFF" envDefault:"5s"`

	RecalcBatchSize int           `env:"RECALC_BATCH_SIZE" envDefault:"500"`
	AdminLockTTL    time.Duration `env:"ADMIN_LOCK_TTL" envDefault:"2m"`
	StatsInterval   time.Duration `env:"METRICS_COLLECT_INTERVAL" envDefault:"15s"`

	DB    db.Config
	Redis tallyredis.Config
	Otel  observability.OtelConfig
}

// LoadConfig parses the process environment. A malformed or inconsistent environment is
// an error: the process must not start on it.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.DB.Driver)) {
	case db.DriverPostgres, db.DriverSQLite:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", db.DriverPostgres, db.DriverSQLite, c.DB.Driver)
	}
	if c.CountGoal <= 0 {
		return fmt.Errorf("COUNT_GOAL must be positive, got %d", c.CountGoal)
	}
	if c.MaxCountValue < 0 {
		return fmt.Errorf("MAX_COUNT_VALUE must not be negative, got %d", c.MaxCountValue)
	}
	if c.StorageMaxAttempts < 1 {
		return fmt.Errorf("STORAGE_MAX_ATTEMPTS must be at least 1, got %d", c.StorageMaxAttempts)
	}
	if c.StorageTimeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be positive, got %s", c.StorageTimeout)
	}
	if c.AdminLockTTL <= 0 {
		return fmt.Errorf("ADMIN_LOCK_TTL must be positive, got %s", c.AdminLockTTL)
	}
	return nil
}

func (c Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.StorageMaxAttempts,
		MinBackoff:  c.StorageMinBackoff,
		MaxBackoff:  c.StorageMaxBackoff,
		Timeout:     c.StorageTimeout,
	}
}

func (c Config) CounterConfig() services.CounterConfig {
	return services.CounterConfig{
		CacheTTL:      c.CountCacheTTL,
		Goal:          c.CountGoal,
		MaxCountValue: c.MaxCountValue,
		Retry:         c.RetryPolicy(),
	}
}
