package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/config"
	"github.com/scalarorg/lending-bridge/pkg/metrics"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

var eventBus *EventBus

type Channels []chan *types.EventEnvelope

// Store subscriber channels by event name
type EventBus struct {
	mu         sync.RWMutex
	channels   map[string]Channels
	bufferSize int
	closed     bool
}

func NewEventBus(config *config.EventBusConfig) *EventBus {
	bufferSize := 256
	if config != nil && config.BufferSize > 0 {
		bufferSize = config.BufferSize
	}
	return &EventBus{
		channels:   make(map[string]Channels),
		bufferSize: bufferSize,
	}
}

func GetEventBus(config *config.EventBusConfig) *EventBus {
	if eventBus == nil {
		eventBus = NewEventBus(config)
	}
	return eventBus
}

func (eb *EventBus) filterChannels(eventName string) Channels {
	channels := append(Channels{}, eb.channels[eventName]...)
	return append(channels, eb.channels[ALL_EVENTS]...)
}

func (eb *EventBus) Emit(ctx context.Context, component string, events ...types.Event) {
	for _, event := range events {
		eb.BroadcastEvent(types.NewEventEnvelope(component, event))
	}
}

// BroadcastEvent never blocks: a subscriber whose buffer is full misses the
// event and bridge_events_dropped_total is incremented.
func (eb *EventBus) BroadcastEvent(event *types.EventEnvelope) {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	if eb.closed {
		return
	}
	metrics.EventsEmitted.WithLabelValues(event.Name).Inc()
	log.Debug().Str("event", event.Name).Str("component", event.Component).
		Msg("[EventBus] [BroadcastEvent] broadcasting event")
	for _, channel := range eb.filterChannels(event.Name) {
		select {
		case channel <- event:
		default:
			metrics.EventsDropped.WithLabelValues(event.Name).Inc()
			log.Warn().Str("event", event.Name).Int("buffer", cap(channel)).
				Msg("[EventBus] [BroadcastEvent] subscriber buffer full, event dropped")
		}
	}
}

// Subscribe returns a channel receiving events named eventName, or every
// event for ALL_EVENTS. The channel is closed by Close.
func (eb *EventBus) Subscribe(eventName string) <-chan *types.EventEnvelope {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	receiver := make(chan *types.EventEnvelope, eb.bufferSize)
	if eb.closed {
		close(receiver)
		return receiver
	}
	eb.channels[eventName] = append(eb.channels[eventName], receiver)
	return receiver
}

// Run feeds every event to sink until ctx is done or the bus is closed.
// Sink errors are logged and counted, never propagated.
func (eb *EventBus) Run(ctx context.Context, sink Sink) {
	eb.Consume(ctx, eb.Subscribe(ALL_EVENTS), sink)
}

// Consume feeds envelopes from an existing subscription to sink.
func (eb *EventBus) Consume(ctx context.Context, receiver <-chan *types.EventEnvelope, sink Sink) {
	for {
		select {
		case <-ctx.Done():
			return
		case envelope, ok := <-receiver:
			if !ok {
				return
			}
			if err := sink.Handle(ctx, envelope); err != nil {
				metrics.SinkErrors.WithLabelValues(sink.Name()).Inc()
				log.Error().Err(err).Str("sink", sink.Name()).Str("event", envelope.Name).
					Msg("[EventBus] [Run] sink failed to handle event")
			}
		}
	}
}

func (eb *EventBus) Close() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.closed {
		return
	}
	eb.closed = true
	for _, channels := range eb.channels {
		for _, channel := range channels {
			close(channel)
		}
	}
	eb.channels = make(map[string]Channels)
}
