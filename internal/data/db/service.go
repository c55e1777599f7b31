package db

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/yungbote/tally-backend/internal/platform/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config selects and addresses the storage backend.
type Config struct {
	Driver string `env:"DB_DRIVER" envDefault:"postgres"`

	PostgresHost     string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort     string `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser     string `env:"POSTGRES_USER" envDefault:"postgres"`
	PostgresPassword string `env:"POSTGRES_PASSWORD"`
	PostgresName     string `env:"POSTGRES_NAME" envDefault:"tally"`
	PostgresSSLMode  string `env:"POSTGRES_SSLMODE" envDefault:"disable"`

	SQLitePath string `env:"SQLITE_PATH" envDefault:"tally.db"`

	SlowQueryThreshold time.Duration `env:"DB_SLOW_QUERY_THRESHOLD" envDefault:"1s"`
}

// PostgresDSN builds a URL DSN. Credentials and the database name are escaped, so
// passwords may contain '@', '/' or '?'.
func (c Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(c.PostgresHost, c.PostgresPort),
		Path:     "/" + c.PostgresName,
		RawQuery: url.Values{"sslmode": {c.PostgresSSLMode}}.Encode(),
	}
	if c.PostgresPassword != "" {
		u.User = url.UserPassword(c.PostgresUser, c.PostgresPassword)
	} else {
		u.User = url.User(c.PostgresUser)
	}
	return u.String()
}

type Service struct {
	db     *gorm.DB
	driver string
	log    *logger.Logger
}

// NewService opens the configured backend and verifies it answers. Any failure here is
// fatal for the caller: the process must not accept attempts without storage.
func NewService(ctx context.Context, cfg Config, logg *logger.Logger) (*Service, error) {
	serviceLog := logg.With("service", "DBService")

	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	var dialector gorm.Dialector
	switch driver {
	case "", DriverPostgres, "postgresql":
		driver = DriverPostgres
		dialector = postgres.Open(cfg.PostgresDSN())
	case DriverSQLite, "sqlite3":
		driver = DriverSQLite
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			return nil, fmt.Errorf("sqlite driver selected but SQLITE_PATH is empty")
		}
		dialector = sqlite.Open(sqliteDSN(cfg.SQLitePath))
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Driver)
	}

	db, err := Open(dialector, cfg.SlowQueryThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}
	if driver == DriverSQLite {
		// sqlite allows one writer; a single connection turns lock contention into queueing
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql db: %w", err)
	}
	if err := sqlDB.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	serviceLog.Info("Database connected", "driver", driver)
	return &Service{db: db, driver: driver, log: serviceLog}, nil
}

// Open returns a gorm handle with the settings every backend shares. Unique violations are
// translated to gorm.ErrDuplicatedKey so claim conflicts look the same on every driver.
func Open(dialector gorm.Dialector, slow time.Duration) (*gorm.DB, error) {
	if slow <= 0 {
		slow = time.Second
	}
	gormLog := gormLogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormLogger.Config{
			SlowThreshold:             slow,
			LogLevel:                  gormLogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	return gorm.Open(dialector, &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
		Logger:                                   gormLog,
		NowFunc:                                  func() time.Time { return time.Now().UTC() },
	})
}

func sqliteDSN(path string) string {
	path = strings.TrimSpace(path)
	if strings.Contains(path, "?") {
		return path
	}
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}

func (s *Service) DB() *gorm.DB { return s.db }

func (s *Service) Driver() string { return s.driver }

func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks the pool can reach the database.
func (s *Service) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
