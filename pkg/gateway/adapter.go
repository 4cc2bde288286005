package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/pkg/metrics"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type AdapterConfig struct {
	RevertAddress common.Address
	AbortAddress  common.Address
	CallOnRevert  bool
	GasLimit      uint64
	// Consecutive failures before the breaker opens. Zero disables the breaker.
	BreakerFailures uint32
	BreakerTimeout  time.Duration
}

// Adapter builds outbound calls and submits each one exactly once. It does
// not retry; a failed submission is returned to the caller wrapped in
// types.ErrGatewayCall.
type Adapter struct {
	gateway Gateway
	config  AdapterConfig
	breaker *gobreaker.CircuitBreaker
}

func NewAdapter(gateway Gateway, config AdapterConfig) *Adapter {
	if config.GasLimit == 0 {
		config.GasLimit = types.GasLimit
	}
	adapter := &Adapter{gateway: gateway, config: config}
	if config.BreakerFailures > 0 {
		timeout := config.BreakerTimeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		adapter.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "Gateway",
			MaxRequests: 1,
			Timeout:     timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= config.BreakerFailures
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				metrics.GatewayBreakerState.Set(float64(to))
				log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
					Msg("[GatewayAdapter] circuit breaker state changed")
			},
		})
	}
	return adapter
}

// RevertPolicy builds the per-call revert instructions.
func (a *Adapter) RevertPolicy(message string) types.RevertPolicy {
	return types.RevertPolicy{
		RevertAddress: a.config.RevertAddress,
		CallOnRevert:  a.config.CallOnRevert,
		AbortAddress:  a.config.AbortAddress,
		RevertMessage: []byte(message),
		GasLimit:      a.config.GasLimit,
	}
}

func (a *Adapter) Submit(ctx context.Context, submission *Submission) error {
	if submission.ID == uuid.Nil {
		submission.ID = uuid.New()
	}
	kind := submission.Kind()
	ctx, span := otel.Tracer("lending-bridge/gateway").Start(ctx, "gateway.Submit")
	defer span.End()
	span.SetAttributes(
		attribute.String("call.id", submission.ID.String()),
		attribute.String("call.kind", string(kind)),
		attribute.String("call.destination", submission.Destination.Hex()),
		attribute.Int("call.payload_size", len(submission.Payload)),
	)

	start := time.Now()
	err := a.execute(ctx, submission)
	metrics.GatewaySubmitDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())
	metrics.GatewaySubmissions.WithLabelValues(string(kind), metrics.ResultLabel(err)).Inc()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		log.Error().Err(err).Str("call", submission.ID.String()).Str("kind", string(kind)).
			Msg("[GatewayAdapter] [Submit] submission failed")
		return fmt.Errorf("%w: %w", types.ErrGatewayCall, err)
	}
	log.Info().Str("call", submission.ID.String()).Str("kind", string(kind)).
		Str("destination", submission.Destination.Hex()).
		Msg("[GatewayAdapter] [Submit] call accepted by gateway")
	return nil
}

func (a *Adapter) execute(ctx context.Context, submission *Submission) error {
	if a.breaker == nil {
		return a.gateway.Submit(ctx, submission)
	}
	_, err := a.breaker.Execute(func() (interface{}, error) {
		return nil, a.gateway.Submit(ctx, submission)
	})
	return err
}
