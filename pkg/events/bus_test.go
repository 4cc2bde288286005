package events_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/scalarorg/lending-bridge/config"
	"github.com/scalarorg/lending-bridge/pkg/events"
	"github.com/scalarorg/lending-bridge/pkg/metrics"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestBusRoutesByName(t *testing.T) {
	bus := events.NewEventBus(&config.EventBusConfig{BufferSize: 4})
	paused := bus.Subscribe(types.EVENT_PAUSE_STATE_CHANGED)
	all := bus.Subscribe(events.ALL_EVENTS)

	bus.Emit(context.Background(), events.COMPONENT_BRIDGE,
		types.PauseStateChanged{IsPaused: true},
		types.AssetRemoved{Asset: types.NativeAsset},
	)

	envelope := <-paused
	require.Equal(t, types.EVENT_PAUSE_STATE_CHANGED, envelope.Name)
	require.Equal(t, events.COMPONENT_BRIDGE, envelope.Component)
	require.Equal(t, types.PauseStateChanged{IsPaused: true}, envelope.Data)
	require.Len(t, paused, 0)

	require.Equal(t, types.EVENT_PAUSE_STATE_CHANGED, (<-all).Name)
	require.Equal(t, types.EVENT_ASSET_REMOVED, (<-all).Name)
}

type collectSink struct {
	mu    sync.Mutex
	names []string
	fail  bool
}

func (s *collectSink) Name() string { return "collect" }

func (s *collectSink) Handle(ctx context.Context, envelope *types.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names = append(s.names, envelope.Name)
	if s.fail {
		return errors.New("sink down")
	}
	return nil
}

func (s *collectSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.names)
}

func TestBusRunFeedsSink(t *testing.T) {
	bus := events.NewEventBus(nil)
	sink := &collectSink{fail: true}
	done := make(chan struct{})
	started := make(chan struct{})
	go func() {
		defer close(done)
		close(started)
		bus.Run(context.Background(), sink)
	}()
	<-started
	require.Eventually(t, func() bool {
		bus.Emit(context.Background(), events.COMPONENT_BRIDGE, types.PauseStateChanged{})
		return sink.count() > 0
	}, time.Second, 10*time.Millisecond)

	bus.Close()
	<-done
	bus.Emit(context.Background(), events.COMPONENT_BRIDGE, types.PauseStateChanged{})
}

func TestBusDropsWhenSubscriberIsFull(t *testing.T) {
	bus := events.NewEventBus(&config.EventBusConfig{BufferSize: 1})
	stalled := bus.Subscribe(events.ALL_EVENTS)
	dropped := metrics.EventsDropped.WithLabelValues(types.EVENT_PAUSE_STATE_CHANGED)
	before := testutil.ToFloat64(dropped)

	emitted := make(chan struct{})
	go func() {
		defer close(emitted)
		for i := 0; i < 3; i++ {
			bus.Emit(context.Background(), events.COMPONENT_BRIDGE, types.PauseStateChanged{IsPaused: i%2 == 0})
		}
	}()
	select {
	case <-emitted:
	case <-time.After(time.Second):
		t.Fatal("emit blocked on a full subscriber")
	}

	require.Len(t, stalled, 1)
	require.Equal(t, before+2, testutil.ToFloat64(dropped))

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		bus.Close()
	}()
	select {
	case <-closed:
	case <-time.After(time.Second):
		t.Fatal("close blocked")
	}
}

func TestRecorder(t *testing.T) {
	r := events.NewRecorder()
	r.Emit(context.Background(), events.COMPONENT_INBOUND, types.InboundAccepted{Sequence: 1})
	require.Equal(t, []string{types.EVENT_INBOUND_ACCEPTED}, r.Names())
	r.Reset()
	require.Empty(t, r.Events())
}
