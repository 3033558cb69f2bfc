package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/orders"
	"github.com/ksred/klear-indexer/internal/types"
)

const conditionalOrderPlacementHandlerName = "conditionalOrderPlacementHandler"

// PlacementResult is the canonical state after a placement is applied
type PlacementResult struct {
	Order        *orders.Order
	Market       markets.PerpetualMarket
	SubaccountID types.SubaccountID
}

// PlacementMutator applies a conditional order placement to the order store.
// Implementations must produce the same result and the same failure for the
// same input, and must be safe to re-run with an already applied event.
type PlacementMutator interface {
	Apply(ctx context.Context, block types.BlockInfo, event *types.ConditionalOrderPlacementEvent) (*PlacementResult, error)
}

// PlacementProcedure runs the whole placement as one database-side atomic unit
type PlacementProcedure interface {
	PlaceConditionalOrder(
		ctx context.Context,
		block types.BlockInfo,
		event *types.ConditionalOrderPlacementEvent,
	) (*orders.Order, *markets.PerpetualMarket, error)
}

type OrderUpserter interface {
	UpsertOrder(ctx context.Context, order *orders.Order) (*orders.Order, error)
}

// NewPlacementMutator selects the placement strategy once, at wiring time
func NewPlacementMutator(
	useProcedure bool,
	procedure PlacementProcedure,
	lookup markets.Lookup,
	upserter OrderUpserter,
	metrics *Metrics,
) PlacementMutator {
	if useProcedure {
		return NewProcedureMutator(procedure, metrics)
	}
	return NewOrchestratedMutator(lookup, upserter, metrics)
}

// ProcedureMutator delegates the market read, trigger price derivation and
// upsert to the store's atomic placement procedure.
type ProcedureMutator struct {
	procedure PlacementProcedure
	metrics   *Metrics
}

// NewProcedureMutator applies placements through a single atomic store call
func NewProcedureMutator(procedure PlacementProcedure, metrics *Metrics) *ProcedureMutator {
	return &ProcedureMutator{procedure: procedure, metrics: metrics}
}

func (m *ProcedureMutator) Apply(
	ctx context.Context,
	block types.BlockInfo,
	event *types.ConditionalOrderPlacementEvent,
) (*PlacementResult, error) {
	type placed struct {
		order  *orders.Order
		market *markets.PerpetualMarket
	}

	logger := log.With().
		Uint32("block_height", block.Height).
		Interface("order", event.Order).
		Logger()

	result, err := RunWithTimingAndErrorLogging(ctx, m.metrics, TimingOptions{
		Handler:   conditionalOrderPlacementHandlerName,
		Operation: "place_conditional_order_procedure",
		Logger:    logger,
	}, func(ctx context.Context) (placed, error) {
		order, market, err := m.procedure.PlaceConditionalOrder(ctx, block, event)
		return placed{order: order, market: market}, err
	})
	if err != nil {
		return nil, err
	}

	return &PlacementResult{
		Order:        result.order,
		Market:       *result.market,
		SubaccountID: event.Order.OrderID.SubaccountID,
	}, nil
}

// OrchestratedMutator resolves the market from the cache and upserts the
// order itself.
type OrchestratedMutator struct {
	markets  markets.Lookup
	upserter OrderUpserter
	metrics  *Metrics
}

// NewOrchestratedMutator resolves the market from lookup and then upserts the order
func NewOrchestratedMutator(lookup markets.Lookup, upserter OrderUpserter, metrics *Metrics) *OrchestratedMutator {
	return &OrchestratedMutator{markets: lookup, upserter: upserter, metrics: metrics}
}

func (m *OrchestratedMutator) Apply(
	ctx context.Context,
	block types.BlockInfo,
	event *types.ConditionalOrderPlacementEvent,
) (*PlacementResult, error) {
	order := event.Order
	clobPairID := strconv.FormatUint(uint64(order.OrderID.ClobPairID), 10)

	market, ok := m.markets.GetByClobPairID(clobPairID)
	if !ok {
		log.Error().
			Str("at", conditionalOrderPlacementHandlerName+"#internalHandle").
			Str("clob_pair_id", clobPairID).
			Interface("order", order).
			Msg("unable to find perpetual market")
		return nil, fmt.Errorf("%w: clob pair %s", markets.ErrMarketNotFound, clobPairID)
	}

	record, err := orders.NewConditionalOrderRecord(order, market, block)
	if err != nil {
		log.Error().
			Err(err).
			Str("at", conditionalOrderPlacementHandlerName+"#internalHandle").
			Interface("order", order).
			Msg("unable to build conditional order record")
		return nil, err
	}

	logger := log.With().
		Uint32("block_height", block.Height).
		Str("order_id", record.ID).
		Interface("order", order).
		Logger()

	stored, err := RunWithTimingAndErrorLogging(ctx, m.metrics, TimingOptions{
		Handler:   conditionalOrderPlacementHandlerName,
		Operation: "upsert_order",
		Logger:    logger,
	}, func(ctx context.Context) (*orders.Order, error) {
		return m.upserter.UpsertOrder(ctx, record)
	})
	if err != nil {
		return nil, err
	}

	return &PlacementResult{
		Order:        stored,
		Market:       market,
		SubaccountID: order.OrderID.SubaccountID,
	}, nil
}
