package dispatcher

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/klear-indexer/internal/database/dbtest"
	"github.com/ksred/klear-indexer/internal/handlers"
	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/orders"
	"github.com/ksred/klear-indexer/internal/publisher"
	"github.com/ksred/klear-indexer/internal/types"
)

var subaccountS1 = types.SubaccountID{Owner: "klear1s1", Number: 0}

func placementBlock(clobPairID uint32) types.Block {
	return types.Block{
		Height: 77,
		Time:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Events: []types.IndexerEvent{{
			Kind:       types.EventKindStatefulOrder,
			EventIndex: 0,
			StatefulOrder: &types.StatefulOrderEvent{
				ConditionalOrderPlacement: &types.ConditionalOrderPlacementEvent{
					Order: types.IndexerOrder{
						OrderID: types.OrderID{
							SubaccountID: subaccountS1,
							ClientID:     1,
							OrderFlags:   32,
							ClobPairID:   clobPairID,
						},
						Side:                            types.SideBuy,
						Quantums:                        10000,
						Subticks:                        500000,
						GoodTilBlockTime:                1720000000,
						ConditionType:                   types.ConditionTypeStopLoss,
						ConditionalOrderTriggerSubticks: 500000,
					},
				},
			},
		}},
	}
}

func newPlacementProcessor(t *testing.T, useProcedure bool, pub publisher.Publisher) (*Processor, *orders.Database) {
	t.Helper()

	db := dbtest.New(t)
	dbtest.SeedMarkets(t, db, dbtest.BTCUSD)
	cache := markets.NewCache()
	require.NoError(t, markets.NewRefresher(markets.NewDatabase(db), cache, time.Hour).Update(context.Background()))

	store := orders.NewDatabase(db)
	mutator := handlers.NewPlacementMutator(useProcedure, store, cache, store, handlers.NopMetrics())
	return NewProcessor(handlers.NewDefaultRegistry(mutator), pub, 4), store
}

func TestProcessBlockEndToEnd(t *testing.T) {
	for _, useProcedure := range []bool{true, false} {
		t.Run(map[bool]string{true: "procedure", false: "orchestrated"}[useProcedure], func(t *testing.T) {
			pub := &recordingPublisher{}
			processor, store := newPlacementProcessor(t, useProcedure, pub)
			block := placementBlock(0)

			events, err := processor.ProcessBlock(context.Background(), block)
			require.NoError(t, err)

			orderID := block.Events[0].StatefulOrder.ConditionalOrderPlacement.Order.OrderID.UUID()
			stored, err := store.GetOrder(context.Background(), orderID)
			require.NoError(t, err)
			assert.Equal(t, orders.StatusUntriggered, stored.Status)
			assert.Equal(t, orders.TypeStopLoss, stored.Type)
			require.NotNil(t, stored.TriggerPrice)
			assert.Equal(t, "5000", *stored.TriggerPrice)

			require.Len(t, events, 1)
			assert.Equal(t, subaccountS1.UUID(), events[0].Key)
			require.Len(t, pub.batches, 1)
			assert.Equal(t, events, pub.batches[0])
		})
	}
}

func TestProcessBlockHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	processor, _ := newPlacementProcessor(t, true, nil)
	router := gin.New()
	router.POST("/blocks", NewGinHandlers(processor).ProcessBlockHandler())

	unknown := placementBlock(0)
	unknown.Events[0].Kind = "FundingEvent"

	testCases := []struct {
		name     string
		block    types.Block
		expected int
	}{
		{name: "placement", block: placementBlock(0), expected: http.StatusCreated},
		{name: "unknown market", block: placementBlock(9), expected: http.StatusUnprocessableEntity},
		{name: "unknown event", block: unknown, expected: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			body, err := json.Marshal(tc.block)
			require.NoError(t, err)

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/blocks", bytes.NewReader(body))
			req.Header.Set("Content-Type", "application/json")
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.expected, w.Code, w.Body.String())
		})
	}
}
