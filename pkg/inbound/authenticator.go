package inbound

import (
	"context"
	"fmt"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/pkg/events"
	"github.com/scalarorg/lending-bridge/pkg/metrics"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

type Config struct {
	GatewayID    types.Identity
	TSSAuthority types.Identity
	// Secure enables the TSS signer and signature checks.
	Secure  bool
	ChainID uint64
}

// HistoryStore persists accepted deliveries in sequence order.
type HistoryStore interface {
	AppendInbound(ctx context.Context, entry types.InboundEntry) error
	LastInbound(ctx context.Context) (*types.InboundEntry, error)
}

// Authenticator accepts gateway deliveries. A delivery is applied only after
// every check passes; a rejected one leaves the mailbox untouched.
type Authenticator struct {
	mu      sync.Mutex
	config  Config
	history HistoryStore
	emitter events.Emitter
	mailbox types.InboundRecord
	now     func() time.Time
}

// NewAuthenticator builds an authenticator. history may be nil, in which
// case only the single-slot mailbox is kept.
func NewAuthenticator(config Config, history HistoryStore, emitter events.Emitter) *Authenticator {
	return &Authenticator{
		config:  config,
		history: history,
		emitter: emitter,
		now:     time.Now,
	}
}

// Restore reloads the mailbox and sequence from the last persisted delivery.
func (a *Authenticator) Restore(ctx context.Context) error {
	if a.history == nil {
		return nil
	}
	last, err := a.history.LastInbound(ctx)
	if err != nil {
		return fmt.Errorf("failed to load last inbound delivery: %w", err)
	}
	if last == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mailbox = types.InboundRecord{
		LastSender:  last.Sender,
		LastMessage: last.Message,
		Sequence:    last.Sequence,
	}
	return nil
}

func (a *Authenticator) Mailbox() types.InboundRecord {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mailbox
}

func (a *Authenticator) Accept(ctx context.Context, call types.InboundCall) (types.InboundRecord, error) {
	a.mu.Lock()
	record, entry, err := a.accept(ctx, call)
	a.mu.Unlock()

	metrics.InboundCalls.WithLabelValues(metrics.ResultLabel(err)).Inc()
	if err != nil {
		log.Warn().Err(err).Str("caller", call.Caller.String()).Str("sender", call.Sender.Hex()).
			Msg("[Authenticator] [Accept] inbound call rejected")
		return types.InboundRecord{}, err
	}
	log.Info().Uint64("sequence", record.Sequence).Str("sender", call.Sender.Hex()).
		Uint64("amount", call.Amount).Msg("[Authenticator] [Accept] inbound call accepted")
	if a.emitter != nil {
		a.emitter.Emit(ctx, events.COMPONENT_INBOUND, types.InboundAccepted{
			Sequence: entry.Sequence,
			Sender:   entry.Sender,
			Amount:   entry.Amount,
			Message:  entry.Message,
		})
	}
	return record, nil
}

func (a *Authenticator) accept(ctx context.Context, call types.InboundCall) (types.InboundRecord, types.InboundEntry, error) {
	if err := a.authenticate(call); err != nil {
		return types.InboundRecord{}, types.InboundEntry{}, err
	}
	next := a.mailbox.Sequence + 1
	if call.Sequence != next {
		return types.InboundRecord{}, types.InboundEntry{}, fmt.Errorf("%w: sequence %d, expected %d", types.ErrStaleDelivery, call.Sequence, next)
	}
	if !utf8.Valid(call.Payload) {
		return types.InboundRecord{}, types.InboundEntry{}, fmt.Errorf("%w: payload is not utf-8", types.ErrInvalidDataFormat)
	}
	entry := types.InboundEntry{
		Sequence:   next,
		Sender:     call.Sender,
		Amount:     call.Amount,
		Message:    string(call.Payload),
		ReceivedAt: a.now().UTC(),
	}
	if a.history != nil {
		if err := a.history.AppendInbound(ctx, entry); err != nil {
			return types.InboundRecord{}, types.InboundEntry{}, fmt.Errorf("%w: %w", types.ErrStore, err)
		}
	}
	a.mailbox = types.InboundRecord{
		LastSender:  entry.Sender,
		LastMessage: entry.Message,
		Sequence:    entry.Sequence,
	}
	return a.mailbox, entry, nil
}

func (a *Authenticator) authenticate(call types.InboundCall) error {
	if call.Caller != a.config.GatewayID {
		return fmt.Errorf("%w: caller %s", types.ErrUnauthorizedGateway, call.Caller)
	}
	if !a.config.Secure {
		return nil
	}
	if call.Signer != a.config.TSSAuthority {
		return fmt.Errorf("%w: signer %s", types.ErrUnauthorizedAuthority, call.Signer)
	}
	if len(call.Signature) != types.SignatureLength {
		return fmt.Errorf("%w: %d bytes, expected %d", types.ErrInvalidSignature, len(call.Signature), types.SignatureLength)
	}
	if len(call.Payload) == 0 {
		return types.ErrInvalidMessage
	}
	digest := SigningDigest(a.config.ChainID, call.Sequence, call.Sender, call.Amount, call.Payload)
	if !verify(a.config.TSSAuthority, digest, call.Signature) {
		return fmt.Errorf("%w: verification failed", types.ErrInvalidSignature)
	}
	return nil
}
