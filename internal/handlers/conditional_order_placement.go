package handlers

import (
	"context"

	"github.com/ksred/klear-indexer/internal/notifications"
	"github.com/ksred/klear-indexer/internal/orders"
	"github.com/ksred/klear-indexer/internal/types"
)

// ConditionalOrderPlacementHandler stores a newly placed conditional order as
// UNTRIGGERED and announces it to the owning subaccount.
type ConditionalOrderPlacementHandler struct {
	block   types.BlockInfo
	event   *types.ConditionalOrderPlacementEvent
	mutator PlacementMutator
}

var _ Handler = (*ConditionalOrderPlacementHandler)(nil)

func NewConditionalOrderPlacementHandler(
	block types.BlockInfo,
	event *types.ConditionalOrderPlacementEvent,
	mutator PlacementMutator,
) *ConditionalOrderPlacementHandler {
	return &ConditionalOrderPlacementHandler{block: block, event: event, mutator: mutator}
}

func (h *ConditionalOrderPlacementHandler) Name() string {
	return conditionalOrderPlacementHandlerName
}

func (h *ConditionalOrderPlacementHandler) ParallelizationIDs() []string {
	return []string{orders.ParallelizationID(h.event.Order.OrderID.UUID())}
}

func (h *ConditionalOrderPlacementHandler) Handle(ctx context.Context) ([]notifications.Event, error) {
	result, err := h.mutator.Apply(ctx, h.block, h.event)
	if err != nil {
		return nil, err
	}
	return BuildPlacementEvents(result, h.block)
}

// BuildPlacementEvents returns the single subaccount notification for a
// placed conditional order. The order is not on the book yet, so nothing is
// sent for the orderbook channels.
func BuildPlacementEvents(result *PlacementResult, block types.BlockInfo) ([]notifications.Event, error) {
	contents := notifications.SubaccountMessageContents{
		Orders: []notifications.OrderSubaccountMessage{
			notifications.OrderMessage(result.Order, result.Market.Ticker),
		},
	}

	event, err := notifications.NewSubaccountEvent(contents, result.SubaccountID, block)
	if err != nil {
		return nil, err
	}
	return []notifications.Event{event}, nil
}
