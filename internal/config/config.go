package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverGorm     = "gorm"

	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

type Config struct {
	Port     string `envconfig:"PORT" default:"8082"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	StoreDriver string `envconfig:"STORE_DRIVER" default:"memory"`
	DatabaseURL string `envconfig:"DATABASE_URL"`
	GormDialect string `envconfig:"GORM_DIALECT" default:"sqlite"`
	SQLitePath  string `envconfig:"SQLITE_PATH" default:"file:products.db?cache=shared"`
	Migrate     bool   `envconfig:"MIGRATE" default:"true"`

	DBMaxOpenConns    int           `envconfig:"DB_MAX_OPEN_CONNS" default:"10"`
	DBMaxIdleConns    int           `envconfig:"DB_MAX_IDLE_CONNS" default:"5"`
	DBConnMaxLifetime time.Duration `envconfig:"DB_CONN_MAX_LIFETIME" default:"30m"`

	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	MetricsToken   string `envconfig:"METRICS_TOKEN"`

	// WriteRateLimit is the number of mutating requests allowed per client IP
	// per WriteRateWindow. Zero disables the limiter.
	WriteRateLimit  int           `envconfig:"WRITE_RATE_LIMIT" default:"0"`
	WriteRateWindow time.Duration `envconfig:"WRITE_RATE_WINDOW" default:"1m"`

	HTTPReadTimeout     time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"5s"`
	HTTPWriteTimeout    time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"10s"`
	HTTPIdleTimeout     time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`
	HTTPShutdownTimeout time.Duration `envconfig:"HTTP_SHUTDOWN_TIMEOUT" default:"10s"`
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMemory:
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for STORE_DRIVER=postgres")
		}
	case DriverGorm:
		switch c.GormDialect {
		case DialectSQLite:
			if c.SQLitePath == "" {
				return errors.New("SQLITE_PATH is required for GORM_DIALECT=sqlite")
			}
		case DialectPostgres:
			if c.DatabaseURL == "" {
				return errors.New("DATABASE_URL is required for GORM_DIALECT=postgres")
			}
		default:
			return fmt.Errorf("unknown GORM_DIALECT %q", c.GormDialect)
		}
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}

	if c.WriteRateLimit < 0 {
		return errors.New("WRITE_RATE_LIMIT must not be negative")
	}
	if c.WriteRateLimit > 0 && c.WriteRateWindow <= 0 {
		return errors.New("WRITE_RATE_WINDOW must be positive when WRITE_RATE_LIMIT is set")
	}
	return nil
}

func (c *Config) Addr() string {
	return ":" + c.Port
}
