package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/ksred/klear-indexer/internal/notifications"
	"github.com/ksred/klear-indexer/internal/types"
)

var ErrUnknownEvent = errors.New("no handler registered for event")

// Handler applies one block event. ParallelizationIDs must be computable
// before Handle runs and must not touch storage: the scheduler uses them to
// order events that share a key.
type Handler interface {
	Name() string
	ParallelizationIDs() []string
	Handle(ctx context.Context) ([]notifications.Event, error)
}

// Constructor builds the handler for one event of a block
type Constructor func(block types.BlockInfo, event types.IndexerEvent) (Handler, error)

// Registry is the routing table from event route to handler constructor
type Registry struct {
	routes map[types.Route]Constructor
}

// NewRegistry creates an empty routing table
func NewRegistry() *Registry {
	return &Registry{routes: make(map[types.Route]Constructor)}
}

// NewDefaultRegistry routes every event kind this service understands
func NewDefaultRegistry(mutator PlacementMutator) *Registry {
	r := NewRegistry()
	r.Register(types.Route{
		Kind:    types.EventKindStatefulOrder,
		Variant: types.VariantConditionalOrderPlacement,
	}, func(block types.BlockInfo, event types.IndexerEvent) (Handler, error) {
		return NewConditionalOrderPlacementHandler(block, event.StatefulOrder.ConditionalOrderPlacement, mutator), nil
	})
	return r
}

// Register binds constructor to route, replacing any earlier binding
func (r *Registry) Register(route types.Route, constructor Constructor) {
	r.routes[route] = constructor
}

// Route returns the handler for event, or ErrUnknownEvent
func (r *Registry) Route(block types.Block, event types.IndexerEvent) (Handler, error) {
	route, err := event.Route()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnknownEvent, event.Kind, err)
	}

	constructor, ok := r.routes[route]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, route)
	}
	return constructor(block.Info(event), event)
}
