package events

import (
	"context"

	"github.com/scalarorg/lending-bridge/pkg/types"
)

// ALL_EVENTS subscribes to every event name.
const ALL_EVENTS = "*"

const (
	COMPONENT_BRIDGE  = "Bridge"
	COMPONENT_INBOUND = "Inbound"
)

// Emitter receives domain events once the emitting call has committed.
type Emitter interface {
	Emit(ctx context.Context, component string, events ...types.Event)
}

// Sink consumes envelopes from the bus, e.g. the event log table or a broker.
type Sink interface {
	Name() string
	Handle(ctx context.Context, envelope *types.EventEnvelope) error
}
