package notifications

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/ksred/klear-indexer/internal/orders"
	"github.com/ksred/klear-indexer/internal/types"
)

// OrderMessage summarises a persisted order for subaccount subscribers
func OrderMessage(order *orders.Order, ticker string) OrderSubaccountMessage {
	msg := OrderSubaccountMessage{
		ID:               order.ID,
		SubaccountID:     order.SubaccountID,
		ClientID:         strconv.FormatUint(uint64(order.ClientID), 10),
		ClobPairID:       order.ClobPairID,
		Side:             order.Side,
		Size:             order.Size,
		Ticker:           ticker,
		Price:            order.Price,
		Type:             string(order.Type),
		TimeInForce:      order.TimeInForce,
		PostOnly:         order.TimeInForce == "POST_ONLY",
		ReduceOnly:       order.ReduceOnly,
		Status:           string(order.Status),
		OrderFlags:       strconv.FormatUint(uint64(order.OrderFlags), 10),
		TotalFilled:      order.TotalFilled,
		GoodTilBlockTime: order.GoodTilBlockTime,
		TriggerPrice:     order.TriggerPrice,
		UpdatedAt:        order.UpdatedAt,
		UpdatedAtHeight:  strconv.FormatUint(uint64(order.UpdatedAtHeight), 10),
		ClientMetadata:   strconv.FormatUint(uint64(order.ClientMetadata), 10),
	}
	if order.GoodTilBlock != nil {
		gtb := strconv.FormatUint(uint64(*order.GoodTilBlock), 10)
		msg.GoodTilBlock = &gtb
	}
	return msg
}

// NewSubaccountEvent serializes contents and scopes them to the subaccount
func NewSubaccountEvent(
	contents SubaccountMessageContents,
	subaccountID types.SubaccountID,
	block types.BlockInfo,
) (Event, error) {
	body, err := json.Marshal(contents)
	if err != nil {
		return Event{}, fmt.Errorf("failed to marshal subaccount contents: %w", err)
	}

	return Event{
		Topic: TopicSubaccounts,
		Key:   subaccountID.UUID(),
		Message: SubaccountMessage{
			BlockHeight:      strconv.FormatUint(uint64(block.Height), 10),
			TransactionIndex: block.TransactionIndex,
			EventIndex:       block.EventIndex,
			Contents:         string(body),
			SubaccountID:     subaccountID,
			Version:          SubaccountMessageVersion,
		},
	}, nil
}

// Decode parses the contents of a subaccount message
func (m SubaccountMessage) Decode() (SubaccountMessageContents, error) {
	var contents SubaccountMessageContents
	if err := json.Unmarshal([]byte(m.Contents), &contents); err != nil {
		return contents, fmt.Errorf("failed to unmarshal subaccount contents: %w", err)
	}
	return contents, nil
}
