package notifications

import (
	"github.com/ksred/klear-indexer/internal/types"
)

const (
	// TopicSubaccounts carries messages for subaccount websocket channels
	TopicSubaccounts = "to-websockets-subaccounts"

	SubaccountMessageVersion = "3.0.0"
)

// OrderSubaccountMessage is the order summary shown to subaccount subscribers
type OrderSubaccountMessage struct {
	ID               string  `json:"id"`
	SubaccountID     string  `json:"subaccount_id"`
	ClientID         string  `json:"client_id"`
	ClobPairID       string  `json:"clob_pair_id"`
	Side             string  `json:"side"`
	Size             string  `json:"size"`
	Ticker           string  `json:"ticker"`
	Price            string  `json:"price"`
	Type             string  `json:"type"`
	TimeInForce      string  `json:"time_in_force"`
	PostOnly         bool    `json:"post_only"`
	ReduceOnly       bool    `json:"reduce_only"`
	Status           string  `json:"status"`
	OrderFlags       string  `json:"order_flags"`
	TotalFilled      string  `json:"total_filled"`
	GoodTilBlock     *string `json:"good_til_block,omitempty"`
	GoodTilBlockTime *string `json:"good_til_block_time,omitempty"`
	TriggerPrice     *string `json:"trigger_price,omitempty"`
	UpdatedAt        string  `json:"updated_at"`
	UpdatedAtHeight  string  `json:"updated_at_height"`
	ClientMetadata   string  `json:"client_metadata"`
}

// SubaccountMessageContents is the payload serialized into a subaccount message
type SubaccountMessageContents struct {
	Orders []OrderSubaccountMessage `json:"orders,omitempty"`
}

// SubaccountMessage is what subscribers of a subaccount channel receive
type SubaccountMessage struct {
	BlockHeight      string             `json:"block_height"`
	TransactionIndex int32              `json:"transaction_index"`
	EventIndex       uint32             `json:"event_index"`
	Contents         string             `json:"contents"`
	SubaccountID     types.SubaccountID `json:"subaccount_id"`
	Version          string             `json:"version"`
}

// Event is an outbound notification paired with its partition key. Events
// are built once per handled block event and never persisted.
type Event struct {
	Topic   string            `json:"topic"`
	Key     string            `json:"key"`
	Message SubaccountMessage `json:"message"`
}
