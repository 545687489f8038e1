package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func missingEnvFile(t *testing.T) string {
	return filepath.Join(t.TempDir(), "absent.env")
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":8082", cfg.Addr())
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DriverMemory, cfg.StoreDriver)
	assert.Equal(t, DialectSQLite, cfg.GormDialect)
	assert.True(t, cfg.Migrate)
	assert.True(t, cfg.MetricsEnabled)
	assert.Zero(t, cfg.WriteRateLimit)
	assert.Equal(t, time.Minute, cfg.WriteRateWindow)
	assert.Equal(t, 10*time.Second, cfg.HTTPShutdownTimeout)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("STORE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/catalog?sslmode=disable")
	t.Setenv("WRITE_RATE_LIMIT", "20")
	t.Setenv("WRITE_RATE_WINDOW", "10s")

	cfg, err := Load(missingEnvFile(t))
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr())
	assert.Equal(t, DriverPostgres, cfg.StoreDriver)
	assert.Equal(t, 20, cfg.WriteRateLimit)
	assert.Equal(t, 10*time.Second, cfg.WriteRateWindow)
}

func TestLoad_DotEnvDoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=7000\nLOG_LEVEL=debug\n"), 0o600))

	t.Setenv("PORT", "7001")
	// Registered for cleanup so the value loaded from the file does not leak.
	t.Setenv("LOG_LEVEL", "")
	require.NoError(t, os.Unsetenv("LOG_LEVEL"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":7001", cfg.Addr())
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_BadValue(t *testing.T) {
	t.Setenv("WRITE_RATE_LIMIT", "many")

	_, err := Load(missingEnvFile(t))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			StoreDriver:     DriverMemory,
			GormDialect:     DialectSQLite,
			SQLitePath:      "file:test.db",
			WriteRateWindow: time.Minute,
		}
	}

	cases := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "memory", mutate: func(c *Config) {}},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.StoreDriver = "mongo" },
			wantErr: `unknown STORE_DRIVER "mongo"`,
		},
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.StoreDriver = DriverPostgres },
			wantErr: "DATABASE_URL is required for STORE_DRIVER=postgres",
		},
		{name: "gorm sqlite", mutate: func(c *Config) { c.StoreDriver = DriverGorm }},
		{
			name: "gorm sqlite without path",
			mutate: func(c *Config) {
				c.StoreDriver = DriverGorm
				c.SQLitePath = ""
			},
			wantErr: "SQLITE_PATH is required for GORM_DIALECT=sqlite",
		},
		{
			name: "gorm postgres without url",
			mutate: func(c *Config) {
				c.StoreDriver = DriverGorm
				c.GormDialect = DialectPostgres
			},
			wantErr: "DATABASE_URL is required for GORM_DIALECT=postgres",
		},
		{
			name: "gorm unknown dialect",
			mutate: func(c *Config) {
				c.StoreDriver = DriverGorm
				c.GormDialect = "mysql"
			},
			wantErr: `unknown GORM_DIALECT "mysql"`,
		},
		{
			name:    "negative rate limit",
			mutate:  func(c *Config) { c.WriteRateLimit = -1 },
			wantErr: "WRITE_RATE_LIMIT must not be negative",
		},
		{
			name: "rate limit without window",
			mutate: func(c *Config) {
				c.WriteRateLimit = 5
				c.WriteRateWindow = 0
			},
			wantErr: "WRITE_RATE_WINDOW must be positive when WRITE_RATE_LIMIT is set",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mutate(&c)

			err := c.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.EqualError(t, err, tc.wantErr)
		})
	}
}
