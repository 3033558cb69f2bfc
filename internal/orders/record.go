package orders

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/types"
)

// NewConditionalOrderRecord builds the row a conditional order placement
// writes. Both placement paths persist exactly this value.
func NewConditionalOrderRecord(
	order types.IndexerOrder,
	market markets.PerpetualMarket,
	block types.BlockInfo,
) (*Order, error) {
	orderType, err := ConditionTypeToOrderType(order.ConditionType)
	if err != nil {
		return nil, err
	}
	side, err := SideToString(order.Side)
	if err != nil {
		return nil, err
	}
	timeInForce, err := TimeInForceToString(order.TimeInForce)
	if err != nil {
		return nil, err
	}
	price, err := SubticksToPrice(order.Subticks, market)
	if err != nil {
		return nil, fmt.Errorf("failed to convert subticks: %w", err)
	}
	size, err := QuantumsToSize(order.Quantums, market)
	if err != nil {
		return nil, fmt.Errorf("failed to convert quantums: %w", err)
	}
	triggerPrice, err := TriggerPrice(order, market)
	if err != nil {
		return nil, fmt.Errorf("failed to derive trigger price: %w", err)
	}

	record := &Order{
		ID:              order.OrderID.UUID(),
		SubaccountID:    order.OrderID.SubaccountID.UUID(),
		ClientID:        order.OrderID.ClientID,
		ClobPairID:      strconv.FormatUint(uint64(order.OrderID.ClobPairID), 10),
		Side:            side,
		Size:            size.String(),
		TotalFilled:     "0",
		Price:           price.String(),
		Type:            orderType,
		Status:          StatusUntriggered,
		TimeInForce:     timeInForce,
		ReduceOnly:      order.ReduceOnly,
		OrderFlags:      order.OrderID.OrderFlags,
		CreatedAtHeight: block.Height,
		ClientMetadata:  order.ClientMetadata,
		TriggerPrice:    triggerPrice,
		UpdatedAt:       block.Time.UTC().Format(time.RFC3339Nano),
		UpdatedAtHeight: block.Height,
	}

	// Exactly one of the two expiries is set on a protocol order
	if order.GoodTilBlockTime != 0 {
		gtbt := time.Unix(int64(order.GoodTilBlockTime), 0).UTC().Format(time.RFC3339)
		record.GoodTilBlockTime = &gtbt
	} else {
		gtb := order.GoodTilBlock
		record.GoodTilBlock = &gtb
	}

	return record, nil
}
