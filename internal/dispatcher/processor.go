package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ksred/klear-indexer/internal/handlers"
	"github.com/ksred/klear-indexer/internal/notifications"
	"github.com/ksred/klear-indexer/internal/publisher"
	"github.com/ksred/klear-indexer/internal/types"
)

const defaultWorkers = 8

// Processor applies the events of a block. Events sharing a parallelization
// id run in block order; events with disjoint ids run concurrently.
type Processor struct {
	registry  *handlers.Registry
	publisher publisher.Publisher
	workers   int
}

func NewProcessor(registry *handlers.Registry, pub publisher.Publisher, workers int) *Processor {
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Processor{
		registry:  registry,
		publisher: pub,
		workers:   workers,
	}
}

// ProcessBlock runs every handler of the block and publishes the resulting
// notifications, in event order, only if all of them succeed. Failures are
// returned unchanged; retrying the block is the caller's decision.
func (p *Processor) ProcessBlock(ctx context.Context, block types.Block) ([]notifications.Event, error) {
	logger := log.With().
		Uint32("block_height", block.Height).
		Int("event_count", len(block.Events)).
		Str("component", "dispatcher").
		Logger()
	start := time.Now()

	// Route everything first so an unknown event fails the block before any
	// handler mutates state.
	hs := make([]handlers.Handler, len(block.Events))
	for i, event := range block.Events {
		h, err := p.registry.Route(block, event)
		if err != nil {
			logger.Error().Err(err).Int("event_position", i).Msg("failed to route event")
			return nil, err
		}
		hs[i] = h
	}

	deps := dependencies(hs)
	results := make([][]notifications.Event, len(hs))
	succeeded := make([]bool, len(hs))
	done := make([]chan struct{}, len(hs))
	for i := range done {
		done[i] = make(chan struct{})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, h := range hs {
		i, h := i, h
		g.Go(func() error {
			defer close(done[i])

			for _, j := range deps[i] {
				select {
				case <-done[j]:
				case <-gctx.Done():
					return gctx.Err()
				}
				// The predecessor's own error fails the group
				if !succeeded[j] {
					return nil
				}
			}
			if err := gctx.Err(); err != nil {
				return err
			}

			// Handlers run to completion once started, so they get the
			// caller's context rather than the group's.
			events, err := h.Handle(ctx)
			if err != nil {
				return fmt.Errorf("%s failed at event %d: %w", h.Name(), i, err)
			}
			results[i] = events
			succeeded[i] = true
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error().Err(err).Dur("duration", time.Since(start)).Msg("failed to process block")
		return nil, err
	}

	var out []notifications.Event
	for _, events := range results {
		out = append(out, events...)
	}

	if p.publisher != nil && len(out) > 0 {
		if err := p.publisher.Publish(ctx, out); err != nil {
			logger.Error().Err(err).Msg("failed to publish notifications")
			return nil, fmt.Errorf("failed to publish notifications: %w", err)
		}
	}

	logger.Info().
		Int("notification_count", len(out)).
		Dur("duration", time.Since(start)).
		Msg("processed block")
	return out, nil
}

// dependencies returns, for each handler, the earlier handlers it must wait
// for: the latest previous handler for each of its parallelization ids.
func dependencies(hs []handlers.Handler) [][]int {
	deps := make([][]int, len(hs))
	last := make(map[string]int)
	for i, h := range hs {
		seen := make(map[int]bool)
		for _, id := range h.ParallelizationIDs() {
			if j, ok := last[id]; ok && !seen[j] {
				deps[i] = append(deps[i], j)
				seen[j] = true
			}
			last[id] = i
		}
	}
	return deps
}
