package orders

type OrderStatus string

const (
	StatusOpen               OrderStatus = "OPEN"
	StatusFilled             OrderStatus = "FILLED"
	StatusCanceled           OrderStatus = "CANCELED"
	StatusBestEffortCanceled OrderStatus = "BEST_EFFORT_CANCELED"
	StatusUntriggered        OrderStatus = "UNTRIGGERED"
)

type OrderType string

const (
	TypeLimit      OrderType = "LIMIT"
	TypeMarket     OrderType = "MARKET"
	TypeStopLoss   OrderType = "STOP_LOSS"
	TypeTakeProfit OrderType = "TAKE_PROFIT"
)

// Order is the persisted projection of a protocol order. There is exactly one
// row per protocol order id; every column is derived from the event and its
// block so that replaying an event rewrites the same values.
type Order struct {
	ID               string      `gorm:"primaryKey" json:"id"`
	SubaccountID     string      `gorm:"index" json:"subaccount_id"`
	ClientID         uint32      `json:"client_id"`
	ClobPairID       string      `gorm:"index" json:"clob_pair_id"`
	Side             string      `json:"side"` // BUY or SELL
	Size             string      `json:"size"`
	TotalFilled      string      `json:"total_filled"`
	Price            string      `json:"price"`
	Type             OrderType   `json:"type"`
	Status           OrderStatus `gorm:"index" json:"status"`
	TimeInForce      string      `json:"time_in_force"`
	ReduceOnly       bool        `json:"reduce_only"`
	OrderFlags       uint32      `json:"order_flags"`
	GoodTilBlock     *uint32     `json:"good_til_block,omitempty"`
	GoodTilBlockTime *string     `json:"good_til_block_time,omitempty"`
	CreatedAtHeight  uint32      `json:"created_at_height"`
	ClientMetadata   uint32      `json:"client_metadata"`
	TriggerPrice     *string     `json:"trigger_price,omitempty"`
	UpdatedAt        string      `gorm:"autoUpdateTime:false" json:"updated_at"`
	UpdatedAtHeight  uint32      `json:"updated_at_height"`
}

// ParallelizationID is the scheduling key shared by every event that touches
// the order with the given uuid.
func ParallelizationID(orderUUID string) string {
	return "order_" + orderUUID
}
