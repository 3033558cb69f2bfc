package orders

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/ksred/klear-indexer/internal/markets"
	"github.com/ksred/klear-indexer/internal/types"
)

var (
	ErrInvalidConditionType = errors.New("invalid condition type")
	ErrInvalidSide          = errors.New("invalid order side")
	ErrInvalidTimeInForce   = errors.New("invalid time in force")
	ErrInvalidMarketScale   = errors.New("invalid market scale")
)

// ConditionTypeToOrderType maps the protocol condition type to the stored
// order type.
func ConditionTypeToOrderType(c types.ConditionType) (OrderType, error) {
	switch c {
	case types.ConditionTypeUnspecified:
		return TypeLimit, nil
	case types.ConditionTypeStopLoss:
		return TypeStopLoss, nil
	case types.ConditionTypeTakeProfit:
		return TypeTakeProfit, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrInvalidConditionType, c)
	}
}

func SideToString(s types.Side) (string, error) {
	switch s {
	case types.SideBuy:
		return "BUY", nil
	case types.SideSell:
		return "SELL", nil
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidSide, s)
	}
}

// TimeInForceToString maps the protocol value to the stored one. An
// unspecified time in force rests until its good-til expiry.
func TimeInForceToString(t types.TimeInForce) (string, error) {
	switch t {
	case types.TimeInForceUnspecified:
		return "GTT", nil
	case types.TimeInForceIOC:
		return "IOC", nil
	case types.TimeInForcePostOnly:
		return "POST_ONLY", nil
	case types.TimeInForceFillOrKill:
		return "FOK", nil
	default:
		return "", fmt.Errorf("%w: %d", ErrInvalidTimeInForce, t)
	}
}

// SubticksToPrice scales a subtick count by the market tick size
func SubticksToPrice(subticks uint64, market markets.PerpetualMarket) (decimal.Decimal, error) {
	return scale(subticks, market.TickSize)
}

// QuantumsToSize scales a quantum count by the market step size
func QuantumsToSize(quantums uint64, market markets.PerpetualMarket) (decimal.Decimal, error) {
	return scale(quantums, market.StepSize)
}

func scale(units uint64, unitSize string) (decimal.Decimal, error) {
	size, err := decimal.NewFromString(unitSize)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q: %v", ErrInvalidMarketScale, unitSize, err)
	}
	if !size.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: %q is not positive", ErrInvalidMarketScale, unitSize)
	}
	return decimal.NewFromBigInt(new(big.Int).SetUint64(units), 0).Mul(size), nil
}
