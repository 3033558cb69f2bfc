package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Namespaces for the stable v5 identifiers derived from protocol ids. Changing
// either value re-keys every persisted row.
var (
	subaccountNamespace = uuid.MustParse("0f9da948-a6fb-4c45-9edc-4685c3f3317d")
	orderNamespace      = uuid.MustParse("0f9da948-a6fb-4c45-9edc-4685c3f3317e")
)

type Side int32

const (
	SideUnspecified Side = iota
	SideBuy
	SideSell
)

type TimeInForce int32

const (
	TimeInForceUnspecified TimeInForce = iota
	TimeInForceIOC
	TimeInForcePostOnly
	TimeInForceFillOrKill
)

// ConditionType tells whether an order waits for a trigger price before it is
// placed on the book.
type ConditionType int32

const (
	ConditionTypeUnspecified ConditionType = iota
	ConditionTypeStopLoss
	ConditionTypeTakeProfit
)

func (c ConditionType) String() string {
	switch c {
	case ConditionTypeUnspecified:
		return "CONDITION_TYPE_UNSPECIFIED"
	case ConditionTypeStopLoss:
		return "CONDITION_TYPE_STOP_LOSS"
	case ConditionTypeTakeProfit:
		return "CONDITION_TYPE_TAKE_PROFIT"
	default:
		return fmt.Sprintf("CONDITION_TYPE_%d", int32(c))
	}
}

// SubaccountID identifies the account that owns an order
type SubaccountID struct {
	Owner  string `json:"owner"`
	Number uint32 `json:"number"`
}

// UUID returns the stable identifier used for the subaccount in storage and
// as the notification scope.
func (s SubaccountID) UUID() string {
	return uuid.NewSHA1(subaccountNamespace, []byte(fmt.Sprintf("%s-%d", s.Owner, s.Number))).String()
}

// OrderID is the protocol identifier of an order. ClobPairID is the market
// identifier the order trades on.
type OrderID struct {
	SubaccountID SubaccountID `json:"subaccount_id"`
	ClientID     uint32       `json:"client_id"`
	OrderFlags   uint32       `json:"order_flags"`
	ClobPairID   uint32       `json:"clob_pair_id"`
}

// UUID returns the stable identifier of the order row. Two OrderIDs map to
// the same value only if every component matches.
func (o OrderID) UUID() string {
	name := fmt.Sprintf("%s-%d-%d-%d", o.SubaccountID.UUID(), o.ClientID, o.ClobPairID, o.OrderFlags)
	return uuid.NewSHA1(orderNamespace, []byte(name)).String()
}

// IndexerOrder is the order payload carried by stateful order events
type IndexerOrder struct {
	OrderID                         OrderID       `json:"order_id"`
	Side                            Side          `json:"side"`
	Quantums                        uint64        `json:"quantums"`
	Subticks                        uint64        `json:"subticks"`
	GoodTilBlock                    uint32        `json:"good_til_block,omitempty"`
	GoodTilBlockTime                uint32        `json:"good_til_block_time,omitempty"`
	TimeInForce                     TimeInForce   `json:"time_in_force"`
	ReduceOnly                      bool          `json:"reduce_only"`
	ClientMetadata                  uint32        `json:"client_metadata"`
	ConditionType                   ConditionType `json:"condition_type"`
	ConditionalOrderTriggerSubticks uint64        `json:"conditional_order_trigger_subticks"`
}

// BlockInfo is the block context an event is applied under
type BlockInfo struct {
	Height           uint32    `json:"height"`
	Time             time.Time `json:"time"`
	TransactionIndex int32     `json:"transaction_index"`
	EventIndex       uint32    `json:"event_index"`
}
