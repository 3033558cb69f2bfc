package database

import (
	"fmt"

	"github.com/ksred/klear-indexer/internal/config"
	"github.com/ksred/klear-indexer/internal/database/migrations"
	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/orders"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDatabase opens the configured database and runs migrations
func NewDatabase(conf *config.Config) (*gorm.DB, error) {
	db, err := Open(conf.DatabaseDriver, conf.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Open connects without migrating
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case config.DriverSQLite:
		dialector = sqlite.Open(dsn)
	case config.DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// sqlite allows a single writer; serialize at the pool instead of
		// surfacing "database is locked" to concurrent handlers.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		sqlDB.SetMaxOpenConns(1)
	}
	return db, nil
}

// Migrate creates or updates every table the service owns
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&markets.PerpetualMarket{}, &orders.Order{}); err != nil {
		return err
	}

	if err := migrations.AddOrderIndexes(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
