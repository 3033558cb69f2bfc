package orders

import (
	"context"
	"strconv"

	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/types"
	"gorm.io/gorm"
)

// PlaceConditionalOrder applies a conditional order placement as one atomic
// unit on the database side: the market is read from the market table, not
// the in-memory cache, and the order is upserted in the same transaction.
// Nothing is written if any step fails.
func (d *Database) PlaceConditionalOrder(
	ctx context.Context,
	block types.BlockInfo,
	event *types.ConditionalOrderPlacementEvent,
) (*Order, *markets.PerpetualMarket, error) {
	var (
		stored *Order
		market *markets.PerpetualMarket
	)

	err := d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		clobPairID := strconv.FormatUint(uint64(event.Order.OrderID.ClobPairID), 10)
		market, err = markets.FindByClobPairID(tx, clobPairID)
		if err != nil {
			return err
		}

		record, err := NewConditionalOrderRecord(event.Order, *market, block)
		if err != nil {
			return err
		}

		stored, err = upsertOrder(tx, record)
		return err
	})
	if err != nil {
		return nil, nil, err
	}

	return stored, market, nil
}
