package orders

import (
	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/types"
)

// TriggerPrice returns the price at which a conditional order activates, or
// nil when the order carries no trigger. A zero trigger is absent, never a
// zero price.
func TriggerPrice(order types.IndexerOrder, market markets.PerpetualMarket) (*string, error) {
	if order.ConditionalOrderTriggerSubticks == 0 {
		return nil, nil
	}

	price, err := SubticksToPrice(order.ConditionalOrderTriggerSubticks, market)
	if err != nil {
		return nil, err
	}
	s := price.String()
	return &s, nil
}
