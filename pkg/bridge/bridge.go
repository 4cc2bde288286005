package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/pkg/codec"
	"github.com/scalarorg/lending-bridge/pkg/custody"
	"github.com/scalarorg/lending-bridge/pkg/events"
	"github.com/scalarorg/lending-bridge/pkg/gateway"
	"github.com/scalarorg/lending-bridge/pkg/metrics"
	"github.com/scalarorg/lending-bridge/pkg/registry"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Store persists the bridge configuration and the asset registry.
// LoadConfig returns nil when nothing was saved yet.
type Store interface {
	SaveConfig(ctx context.Context, config types.BridgeConfig) error
	SaveAsset(ctx context.Context, entry types.AssetEntry) error
	LoadConfig(ctx context.Context) (*types.BridgeConfig, error)
	LoadAssets(ctx context.Context) ([]types.AssetEntry, error)
}

// Custody moves value between users and the contract. Hold must be all or
// nothing. A Settle error after a successful submission is logged only.
type Custody interface {
	Hold(ctx context.Context, owner types.Identity, asset types.AssetID, amount uint64) (*custody.Hold, error)
	Settle(ctx context.Context, hold *custody.Hold) error
	Release(ctx context.Context, hold *custody.Hold) error
}

type Submitter interface {
	Submit(ctx context.Context, submission *gateway.Submission) error
	RevertPolicy(message string) types.RevertPolicy
}

type Options struct {
	// Minimum native amount for deposit and repay. Defaults to types.DepositFee.
	DepositFee uint64
	// Remote chain ids accepted by Initialize. Empty accepts any.
	AllowedRemoteChains []uint64
	// Destination chains accepted by borrow and withdraw. Empty accepts any.
	AllowedDestChains []uint64
}

// Bridge is the custodial bridge state machine. Every entry point holds the
// bridge lock for its whole duration and either commits fully or leaves
// state untouched. Events are handed to the emitter after commit.
type Bridge struct {
	mu       sync.Mutex
	config   types.BridgeConfig
	registry *registry.Registry
	codec    codec.Codec
	gateway  Submitter
	custody  Custody
	store    Store
	emitter  events.Emitter
	options  Options
	tracer   trace.Tracer
}

// New creates an uninitialized bridge. store and emitter may be nil.
func New(c codec.Codec, gw Submitter, cust Custody, store Store, emitter events.Emitter, options Options) *Bridge {
	if options.DepositFee == 0 {
		options.DepositFee = types.DepositFee
	}
	return &Bridge{
		registry: registry.New(),
		codec:    c,
		gateway:  gw,
		custody:  cust,
		store:    store,
		emitter:  emitter,
		options:  options,
		tracer:   otel.Tracer("lending-bridge/bridge"),
	}
}

// Restore loads configuration and assets saved by a previous run.
func (b *Bridge) Restore(ctx context.Context) error {
	if b.store == nil {
		return nil
	}
	cfg, err := b.store.LoadConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to load bridge config: %w", err)
	}
	assets, err := b.store.LoadAssets(ctx)
	if err != nil {
		return fmt.Errorf("failed to load assets: %w", err)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if cfg != nil {
		b.config = *cfg
	}
	b.registry.Restore(assets)
	metrics.BridgePaused.Set(boolGauge(b.config.IsPaused))
	log.Info().Str("state", b.config.State().String()).Int("assets", len(assets)).
		Msg("[Bridge] [Restore] state restored")
	return nil
}

func (b *Bridge) Config() types.BridgeConfig {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.config
}

func (b *Bridge) Assets() []types.AssetEntry {
	return b.registry.List()
}

func (b *Bridge) Asset(assetID types.AssetID) (types.AssetEntry, bool) {
	return b.registry.Get(assetID)
}

func (b *Bridge) CodecMode() codec.Mode {
	return b.codec.Mode()
}

func (b *Bridge) requireInitialized() error {
	if !b.config.Initialized {
		return types.ErrNotInitialized
	}
	return nil
}

func (b *Bridge) requireAuthority(caller types.Identity) error {
	if err := b.requireInitialized(); err != nil {
		return err
	}
	if caller != b.config.Authority {
		return fmt.Errorf("%w: %s is not the bridge authority", types.ErrUnauthorized, caller)
	}
	return nil
}

func (b *Bridge) saveConfig(ctx context.Context, cfg types.BridgeConfig) error {
	if b.store == nil {
		return nil
	}
	if err := b.store.SaveConfig(ctx, cfg); err != nil {
		return fmt.Errorf("%w: %w", types.ErrStore, err)
	}
	return nil
}

func (b *Bridge) saveAsset(ctx context.Context, entry types.AssetEntry) error {
	if b.store == nil {
		return nil
	}
	if err := b.store.SaveAsset(ctx, entry); err != nil {
		return fmt.Errorf("%w: %w", types.ErrStore, err)
	}
	return nil
}

// begin opens a span and takes the bridge lock. The returned func releases
// both, records the outcome and, on success, emits the collected events.
func (b *Bridge) begin(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, func(err error, evts ...types.Event) error) {
	ctx, span := b.tracer.Start(ctx, "bridge."+operation, trace.WithAttributes(attrs...))
	b.mu.Lock()
	return ctx, func(err error, evts ...types.Event) error {
		b.mu.Unlock()
		defer span.End()
		metrics.EntryPointCalls.WithLabelValues(operation, metrics.ResultLabel(err)).Inc()
		if err != nil {
			kind := types.KindOf(err)
			metrics.EntryPointErrors.WithLabelValues(operation, kind.String()).Inc()
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			log.Debug().Err(err).Str("operation", operation).Str("kind", kind.String()).
				Msg("[Bridge] entry point rejected")
			return err
		}
		if b.emitter != nil && len(evts) > 0 {
			b.emitter.Emit(ctx, events.COMPONENT_BRIDGE, evts...)
		}
		return nil
	}
}

func boolGauge(v bool) float64 {
	if v {
		return 1
	}
	return 0
}

func containsChain(chains []uint64, id uint64) bool {
	for _, chain := range chains {
		if chain == id {
			return true
		}
	}
	return false
}
