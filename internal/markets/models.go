package markets

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInvalidMarket wraps every market definition rejected by Validate
var ErrInvalidMarket = errors.New("invalid perpetual market")

// ErrMarketNotFound is returned when a clob pair id cannot be resolved to a
// perpetual market. The cache is populated before any order referencing the
// market can exist, so callers treat this as fatal.
var ErrMarketNotFound = errors.New("perpetual market not found")

const (
	StatusActive    = "ACTIVE"
	StatusPaused    = "PAUSED"
	StatusFinalOnly = "FINAL_SETTLEMENT"
)

// PerpetualMarket describes a tradable market. TickSize is the price of one
// subtick and StepSize the size of one quantum, both as decimal strings.
type PerpetualMarket struct {
	ID         string `gorm:"primaryKey" json:"id"`
	ClobPairID string `gorm:"uniqueIndex" json:"clob_pair_id"`
	Ticker     string `json:"ticker"`
	TickSize   string `json:"tick_size"`
	StepSize   string `json:"step_size"`
	Status     string `json:"status"`
}

// Validate checks the identifiers are set and both scales are positive decimals
func (m PerpetualMarket) Validate() error {
	if m.ID == "" || m.ClobPairID == "" || m.Ticker == "" {
		return fmt.Errorf("%w: id, clob_pair_id and ticker are required", ErrInvalidMarket)
	}
	for _, field := range [...]struct{ name, value string }{
		{"tick_size", m.TickSize},
		{"step_size", m.StepSize},
	} {
		name, value := field.name, field.value
		size, err := decimal.NewFromString(value)
		if err != nil {
			return fmt.Errorf("%w: %s %q is not a decimal", ErrInvalidMarket, name, value)
		}
		if !size.IsPositive() {
			return fmt.Errorf("%w: %s %q is not positive", ErrInvalidMarket, name, value)
		}
	}
	return nil
}
