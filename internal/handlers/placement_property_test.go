package handlers_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ksred/klear-indexer/internal/database/dbtest"
	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/types"
)

var ethUSD = markets.PerpetualMarket{
	ID:         "1",
	ClobPairID: "1",
	Ticker:     "ETH-USD",
	TickSize:   "0.001",
	StepSize:   "0.001",
	Status:     markets.StatusActive,
}

func drawPlacement(t *rapid.T) *types.ConditionalOrderPlacementEvent {
	order := types.IndexerOrder{
		OrderID: types.OrderID{
			SubaccountID: types.SubaccountID{
				Owner:  rapid.SampledFrom([]string{"klear1s1", "klear1s2"}).Draw(t, "owner").(string),
				Number: rapid.Uint32Range(0, 2).Draw(t, "number").(uint32),
			},
			ClientID:   rapid.Uint32Range(0, 8).Draw(t, "clientID").(uint32),
			OrderFlags: 32,
			ClobPairID: rapid.Uint32Range(0, 1).Draw(t, "clobPairID").(uint32),
		},
		Side:           rapid.SampledFrom([]types.Side{types.SideBuy, types.SideSell}).Draw(t, "side").(types.Side),
		Quantums:       rapid.Uint64Range(1, 1_000_000_000).Draw(t, "quantums").(uint64),
		Subticks:       rapid.Uint64Range(1, 1_000_000_000).Draw(t, "subticks").(uint64),
		TimeInForce:    rapid.SampledFrom([]types.TimeInForce{types.TimeInForceUnspecified, types.TimeInForceIOC, types.TimeInForcePostOnly, types.TimeInForceFillOrKill}).Draw(t, "tif").(types.TimeInForce),
		ReduceOnly:     rapid.Bool().Draw(t, "reduceOnly").(bool),
		ClientMetadata: rapid.Uint32().Draw(t, "clientMetadata").(uint32),
		ConditionType: rapid.SampledFrom([]types.ConditionType{
			types.ConditionTypeUnspecified,
			types.ConditionTypeStopLoss,
			types.ConditionTypeTakeProfit,
		}).Draw(t, "conditionType").(types.ConditionType),
		ConditionalOrderTriggerSubticks: rapid.Uint64Range(0, 1_000_000_000).Draw(t, "trigger").(uint64),
	}
	if rapid.Bool().Draw(t, "goodTilBlockTime").(bool) {
		order.GoodTilBlockTime = rapid.Uint32Range(1, 2_000_000_000).Draw(t, "gtbt").(uint32)
	} else {
		order.GoodTilBlock = rapid.Uint32().Draw(t, "gtb").(uint32)
	}
	return &types.ConditionalOrderPlacementEvent{Order: order}
}

// Both strategies see the same sequence of placements, replays included, and
// must end every step with identical rows and notifications.
func TestPlacementStrategiesAgreeOnRandomSequences(t *testing.T) {
	procedure := newTestEnv(t, true, dbtest.BTCUSD, ethUSD)
	orchestrated := newTestEnv(t, false, dbtest.BTCUSD, ethUSD)

	rapid.Check(t, func(rt *rapid.T) {
		event := drawPlacement(rt)
		replays := rapid.IntRange(1, 2).Draw(rt, "applications").(int)

		for i := 0; i < replays; i++ {
			procedureEvents, err := procedure.handle(t, event)
			require.NoError(rt, err)
			orchestratedEvents, err := orchestrated.handle(t, event)
			require.NoError(rt, err)
			require.Equal(rt, procedureEvents, orchestratedEvents)
		}

		require.Equal(rt, procedure.storedOrder(t, event), orchestrated.storedOrder(t, event))
		require.Equal(rt, procedure.orderCount(t), orchestrated.orderCount(t))
	})
}
