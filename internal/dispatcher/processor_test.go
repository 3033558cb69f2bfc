package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksred/klear-indexer/internal/handlers"
	"github.com/ksred/klear-indexer/internal/notifications"
	"github.com/ksred/klear-indexer/internal/types"
)

const testKind types.EventKind = "TestEvent"

type fakeHandler struct {
	keys []string
	run  func(ctx context.Context) error
	idx  uint32
}

func (h *fakeHandler) Name() string                 { return "fakeHandler" }
func (h *fakeHandler) ParallelizationIDs() []string { return h.keys }

func (h *fakeHandler) Handle(ctx context.Context) ([]notifications.Event, error) {
	if h.run != nil {
		if err := h.run(ctx); err != nil {
			return nil, err
		}
	}
	return []notifications.Event{{Topic: "test", Key: fmt.Sprintf("event-%d", h.idx)}}, nil
}

// newFakeRegistry routes test event i to handlers[i]
func newFakeRegistry(hs []*fakeHandler) *handlers.Registry {
	registry := handlers.NewRegistry()
	registry.Register(types.Route{Kind: testKind}, func(block types.BlockInfo, event types.IndexerEvent) (handlers.Handler, error) {
		h := hs[event.EventIndex]
		h.idx = event.EventIndex
		return h, nil
	})
	return registry
}

func testEvents(n int) types.Block {
	block := types.Block{Height: 1, Time: time.Unix(1700000000, 0).UTC()}
	for i := 0; i < n; i++ {
		block.Events = append(block.Events, types.IndexerEvent{Kind: testKind, EventIndex: uint32(i)})
	}
	return block
}

type recordingPublisher struct {
	mu      sync.Mutex
	batches [][]notifications.Event
	err     error
}

func (p *recordingPublisher) Publish(ctx context.Context, events []notifications.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.batches = append(p.batches, events)
	return p.err
}

type orderLog struct {
	mu    sync.Mutex
	steps []string
}

func (l *orderLog) add(step string) {
	l.mu.Lock()
	l.steps = append(l.steps, step)
	l.mu.Unlock()
}

func TestSharedKeysRunInBlockOrder(t *testing.T) {
	log := &orderLog{}
	hs := []*fakeHandler{
		{keys: []string{"order_a"}, run: func(ctx context.Context) error {
			time.Sleep(30 * time.Millisecond)
			log.add("first")
			return nil
		}},
		{keys: []string{"order_b"}},
		{keys: []string{"order_a"}, run: func(ctx context.Context) error {
			log.add("second")
			return nil
		}},
	}

	events, err := NewProcessor(newFakeRegistry(hs), nil, 4).ProcessBlock(context.Background(), testEvents(3))
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, log.steps)

	keys := make([]string, len(events))
	for i, e := range events {
		keys[i] = e.Key
	}
	assert.Equal(t, []string{"event-0", "event-1", "event-2"}, keys)
}

func TestDisjointKeysRunConcurrently(t *testing.T) {
	defer leaktest.Check(t)()

	var barrier sync.WaitGroup
	barrier.Add(2)
	meet := func(ctx context.Context) error {
		barrier.Done()
		done := make(chan struct{})
		go func() {
			barrier.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-time.After(2 * time.Second):
			return errors.New("handlers with disjoint keys did not overlap")
		}
	}
	hs := []*fakeHandler{
		{keys: []string{"order_a"}, run: meet},
		{keys: []string{"order_b"}, run: meet},
	}

	_, err := NewProcessor(newFakeRegistry(hs), nil, 2).ProcessBlock(context.Background(), testEvents(2))
	require.NoError(t, err)
}

func TestPublishesOnlyWhenBlockSucceeds(t *testing.T) {
	defer leaktest.Check(t)()

	boom := errors.New("boom")
	ran := make(chan struct{}, 1)
	hs := []*fakeHandler{
		{keys: []string{"order_a"}, run: func(ctx context.Context) error { return boom }},
		{keys: []string{"order_a"}, run: func(ctx context.Context) error {
			ran <- struct{}{}
			return nil
		}},
		{keys: []string{"order_b"}},
	}
	pub := &recordingPublisher{}

	events, err := NewProcessor(newFakeRegistry(hs), pub, 4).ProcessBlock(context.Background(), testEvents(3))
	require.ErrorIs(t, err, boom)
	assert.Nil(t, events)
	assert.Empty(t, pub.batches)
	assert.Empty(t, ran, "event queued behind a failed event must not run")

	ok := []*fakeHandler{{keys: []string{"order_a"}}, {keys: []string{"order_b"}}}
	events, err = NewProcessor(newFakeRegistry(ok), pub, 4).ProcessBlock(context.Background(), testEvents(2))
	require.NoError(t, err)
	require.Len(t, pub.batches, 1)
	assert.Equal(t, events, pub.batches[0])
}

func TestPublishFailureFailsBlock(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("hub closed")}
	hs := []*fakeHandler{{keys: []string{"order_a"}}}

	_, err := NewProcessor(newFakeRegistry(hs), pub, 1).ProcessBlock(context.Background(), testEvents(1))
	assert.ErrorIs(t, err, pub.err)
}

func TestUnknownEventFailsBeforeAnyHandlerRuns(t *testing.T) {
	ran := false
	hs := []*fakeHandler{{keys: []string{"order_a"}, run: func(ctx context.Context) error {
		ran = true
		return nil
	}}}
	block := testEvents(1)
	block.Events = append(block.Events, types.IndexerEvent{Kind: "Unknown", EventIndex: 1})

	_, err := NewProcessor(newFakeRegistry(hs), nil, 1).ProcessBlock(context.Background(), block)
	require.ErrorIs(t, err, handlers.ErrUnknownEvent)
	assert.False(t, ran)
}

func TestDependencies(t *testing.T) {
	hs := []handlers.Handler{
		&fakeHandler{keys: []string{"a"}},
		&fakeHandler{keys: []string{"b"}},
		&fakeHandler{keys: []string{"a", "b"}},
		&fakeHandler{keys: []string{"c"}},
		&fakeHandler{keys: []string{"a"}},
	}

	assert.Equal(t, [][]int{nil, nil, {0, 1}, nil, {2}}, dependencies(hs))
}

func TestEmptyBlock(t *testing.T) {
	pub := &recordingPublisher{}
	events, err := NewProcessor(handlers.NewRegistry(), pub, 0).ProcessBlock(context.Background(), types.Block{Height: 9})
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, pub.batches)
}
