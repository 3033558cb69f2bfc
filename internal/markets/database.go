package markets

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Database struct {
	db *gorm.DB
}

// NewDatabase wraps db for perpetual market reads and writes
func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// Upsert creates or replaces a market row keyed by its id
func (d *Database) Upsert(ctx context.Context, market *PerpetualMarket) error {
	return d.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(market).Error
}

// GetByClobPairID returns ErrMarketNotFound when no row matches
func (d *Database) GetByClobPairID(ctx context.Context, clobPairID string) (*PerpetualMarket, error) {
	return FindByClobPairID(d.db.WithContext(ctx), clobPairID)
}

func (d *Database) FindAll(ctx context.Context) ([]PerpetualMarket, error) {
	var markets []PerpetualMarket
	if err := d.db.WithContext(ctx).Order("clob_pair_id").Find(&markets).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch perpetual markets: %w", err)
	}
	return markets, nil
}

// FindByClobPairID reads a market through tx, which may be a transaction
// owned by another store.
func FindByClobPairID(tx *gorm.DB, clobPairID string) (*PerpetualMarket, error) {
	var market PerpetualMarket
	if err := tx.Where("clob_pair_id = ?", clobPairID).First(&market).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: clob pair %s", ErrMarketNotFound, clobPairID)
		}
		return nil, err
	}
	return &market, nil
}
