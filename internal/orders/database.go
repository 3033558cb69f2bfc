package orders

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

// UpsertOrder writes the order keyed by its id in a single transaction and
// returns the stored row
func (d *Database) UpsertOrder(ctx context.Context, order *Order) (*Order, error) {
	// Begin transaction
	tx := d.db.WithContext(ctx).Begin()
	if err := tx.Error; err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	stored, err := upsertOrder(tx, order)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return stored, nil
}

// GetOrder wraps gorm.ErrRecordNotFound when the order does not exist
func (d *Database) GetOrder(ctx context.Context, id string) (*Order, error) {
	var order Order
	if err := d.db.WithContext(ctx).Where("id = ?", id).First(&order).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch order %s: %w", id, err)
	}
	return &order, nil
}

// ListBySubaccount returns the orders of one subaccount, most recently updated first
func (d *Database) ListBySubaccount(ctx context.Context, subaccountID string) ([]Order, error) {
	var orders []Order
	if err := d.db.WithContext(ctx).
		Where("subaccount_id = ?", subaccountID).
		Order("updated_at_height DESC, id").
		Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch subaccount orders: %w", err)
	}
	return orders, nil
}

// Count returns the number of stored orders
func (d *Database) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := d.db.WithContext(ctx).Model(&Order{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func upsertOrder(tx *gorm.DB, order *Order) (*Order, error) {
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(order).Error
	if err != nil {
		return nil, fmt.Errorf("failed to upsert order %s: %w", order.ID, err)
	}

	var stored Order
	if err := tx.Where("id = ?", order.ID).First(&stored).Error; err != nil {
		return nil, fmt.Errorf("failed to read back order %s: %w", order.ID, err)
	}
	return &stored, nil
}
