package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	gormpg "gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"ProductAPI/internal/catalog"
	"ProductAPI/internal/config"
	"ProductAPI/pkg/postgres"
)

// openStore builds the Store selected by cfg. The returned func releases the
// underlying connections.
func openStore(ctx context.Context, cfg *config.Config, log *zap.Logger) (catalog.Store, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return catalog.NewMemStore(), func() {}, nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, cfg.DatabaseURL, postgres.PoolConfig{
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
		})
		if err != nil {
			return nil, nil, err
		}
		if cfg.Migrate {
			if err := postgres.Migrate(db, catalog.Migrations, catalog.MigrationsDir, log); err != nil {
				_ = db.Close()
				return nil, nil, err
			}
		}
		return catalog.NewPostgresStore(db), func() { _ = db.Close() }, nil

	case config.DriverGorm:
		var dialector gorm.Dialector
		if cfg.GormDialect == config.DialectPostgres {
			dialector = gormpg.Open(cfg.DatabaseURL)
		} else {
			dialector = sqlite.Open(cfg.SQLitePath)
		}

		db, err := gorm.Open(dialector, &gorm.Config{
			Logger: gormlogger.Default.LogMode(gormlogger.Warn),
		})
		if err != nil {
			return nil, nil, fmt.Errorf("gorm open: %w", err)
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("gorm db: %w", err)
		}

		s := catalog.NewGormStore(db)
		if cfg.Migrate {
			if err := s.AutoMigrate(ctx); err != nil {
				_ = sqlDB.Close()
				return nil, nil, err
			}
		}
		return s, func() { _ = sqlDB.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
