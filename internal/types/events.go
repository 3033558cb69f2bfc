package types

import (
	"errors"
	"time"
)

var ErrEmptyEvent = errors.New("event carries no payload")

type EventKind string

const (
	EventKindStatefulOrder EventKind = "StatefulOrderEvent"
)

// Route names the handler an event is dispatched to: the event kind plus the
// populated variant of its payload.
type Route struct {
	Kind    EventKind
	Variant string
}

func (r Route) String() string {
	if r.Variant == "" {
		return string(r.Kind)
	}
	return string(r.Kind) + "/" + r.Variant
}

const VariantConditionalOrderPlacement = "conditional_order_placement"

// ConditionalOrderPlacementEvent announces a conditional order accepted into
// protocol state but not yet on the book.
type ConditionalOrderPlacementEvent struct {
	Order IndexerOrder `json:"order"`
}

// StatefulOrderEvent holds exactly one populated variant
type StatefulOrderEvent struct {
	ConditionalOrderPlacement *ConditionalOrderPlacementEvent `json:"conditional_order_placement,omitempty"`
}

// Variant returns the name of the populated payload, or "" if none is set.
func (e *StatefulOrderEvent) Variant() string {
	switch {
	case e == nil:
		return ""
	case e.ConditionalOrderPlacement != nil:
		return VariantConditionalOrderPlacement
	default:
		return ""
	}
}

// IndexerEvent is one event of a block as delivered by the upstream node
type IndexerEvent struct {
	Kind             EventKind           `json:"kind"`
	TransactionIndex int32               `json:"transaction_index"`
	EventIndex       uint32              `json:"event_index"`
	StatefulOrder    *StatefulOrderEvent `json:"stateful_order,omitempty"`
}

// Route returns the routing key of the event
func (e IndexerEvent) Route() (Route, error) {
	switch e.Kind {
	case EventKindStatefulOrder:
		variant := e.StatefulOrder.Variant()
		if variant == "" {
			return Route{}, ErrEmptyEvent
		}
		return Route{Kind: e.Kind, Variant: variant}, nil
	default:
		return Route{Kind: e.Kind}, nil
	}
}

// Block is the ordered list of events committed at one height
type Block struct {
	Height uint32         `json:"height"`
	Time   time.Time      `json:"time"`
	Events []IndexerEvent `json:"events"`
}

// Info returns the block context for one of the block's events
func (b Block) Info(event IndexerEvent) BlockInfo {
	return BlockInfo{
		Height:           b.Height,
		Time:             b.Time,
		TransactionIndex: event.TransactionIndex,
		EventIndex:       event.EventIndex,
	}
}
