package migrations

import (
	"gorm.io/gorm"
)

// AddOrderIndexes creates the indexes used by subaccount and market queries
func AddOrderIndexes(db *gorm.DB) error {
	indexes := []string{
		// Subaccount order listing, newest first
		`CREATE INDEX IF NOT EXISTS idx_orders_subaccount_height
		 ON orders(subaccount_id, updated_at_height)`,

		// Untriggered orders per market, scanned when prices move
		`CREATE INDEX IF NOT EXISTS idx_orders_clob_pair_status
		 ON orders(clob_pair_id, status)`,
	}

	for _, idx := range indexes {
		if err := db.Exec(idx).Error; err != nil {
			return err
		}
	}

	return nil
}
