package orders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/klear-indexer/internal/types"
)

func stopLossOrder() types.IndexerOrder {
	return types.IndexerOrder{
		OrderID: types.OrderID{
			SubaccountID: types.SubaccountID{Owner: "klear1s1", Number: 0},
			ClientID:     1,
			OrderFlags:   32,
			ClobPairID:   0,
		},
		Side:                            types.SideBuy,
		Quantums:                        10000,
		Subticks:                        490000,
		GoodTilBlockTime:                1700000000,
		ConditionType:                   types.ConditionTypeStopLoss,
		ConditionalOrderTriggerSubticks: 500000,
	}
}

func TestNewConditionalOrderRecord(t *testing.T) {
	block := types.BlockInfo{Height: 12, Time: time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)}
	order := stopLossOrder()

	record, err := NewConditionalOrderRecord(order, btcUSD, block)
	require.NoError(t, err)

	assert.Equal(t, order.OrderID.UUID(), record.ID)
	assert.Equal(t, order.OrderID.SubaccountID.UUID(), record.SubaccountID)
	assert.Equal(t, "0", record.ClobPairID)
	assert.Equal(t, "BUY", record.Side)
	requireDecimal(t, "1", record.Size)
	requireDecimal(t, "4900", record.Price)
	assert.Equal(t, "0", record.TotalFilled)
	assert.Equal(t, TypeStopLoss, record.Type)
	assert.Equal(t, StatusUntriggered, record.Status)
	assert.Equal(t, "GTT", record.TimeInForce)
	require.NotNil(t, record.TriggerPrice)
	requireDecimal(t, "5000.00", *record.TriggerPrice)
	assert.Equal(t, uint32(12), record.CreatedAtHeight)
	assert.Equal(t, uint32(12), record.UpdatedAtHeight)
	assert.Equal(t, "2024-01-02T03:04:05Z", record.UpdatedAt)

	require.NotNil(t, record.GoodTilBlockTime)
	assert.Equal(t, "2023-11-14T22:13:20Z", *record.GoodTilBlockTime)
	assert.Nil(t, record.GoodTilBlock)
}

func TestNewConditionalOrderRecordGoodTilBlock(t *testing.T) {
	order := stopLossOrder()
	order.GoodTilBlockTime = 0
	order.GoodTilBlock = 150
	order.ConditionalOrderTriggerSubticks = 0

	record, err := NewConditionalOrderRecord(order, btcUSD, types.BlockInfo{Height: 1})
	require.NoError(t, err)

	require.NotNil(t, record.GoodTilBlock)
	assert.Equal(t, uint32(150), *record.GoodTilBlock)
	assert.Nil(t, record.GoodTilBlockTime)
	assert.Nil(t, record.TriggerPrice)
}

func TestNewConditionalOrderRecordDeterministic(t *testing.T) {
	block := types.BlockInfo{Height: 3, Time: time.Unix(1700000000, 500).UTC()}

	first, err := NewConditionalOrderRecord(stopLossOrder(), btcUSD, block)
	require.NoError(t, err)
	second, err := NewConditionalOrderRecord(stopLossOrder(), btcUSD, block)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestParallelizationID(t *testing.T) {
	id := stopLossOrder().OrderID.UUID()
	assert.Equal(t, "order_"+id, ParallelizationID(id))
}
