// Package dbtest opens throwaway migrated databases for package tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/ksred/klear-indexer/internal/config"
	"github.com/ksred/klear-indexer/internal/database"
	"github.com/ksred/klear-indexer/internal/markets"
)

// BTCUSD is the market most fixtures trade on
var BTCUSD = markets.PerpetualMarket{
	ID:         "0",
	ClobPairID: "0",
	Ticker:     "BTC-USD",
	TickSize:   "0.01",
	StepSize:   "0.0001",
	Status:     markets.StatusActive,
}

// New returns a private in-memory sqlite database with every table migrated.
// The database is dropped when the test ends.
func New(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := database.Open(config.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// SeedMarkets upserts every market into db
func SeedMarkets(t testing.TB, db *gorm.DB, all ...markets.PerpetualMarket) {
	t.Helper()

	store := markets.NewDatabase(db)
	for i := range all {
		market := all[i]
		require.NoError(t, store.Upsert(context.Background(), &market))
	}
}
