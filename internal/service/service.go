package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/config"
	"github.com/scalarorg/lending-bridge/pkg/api"
	"github.com/scalarorg/lending-bridge/pkg/bridge"
	"github.com/scalarorg/lending-bridge/pkg/codec"
	"github.com/scalarorg/lending-bridge/pkg/custody"
	"github.com/scalarorg/lending-bridge/pkg/db"
	"github.com/scalarorg/lending-bridge/pkg/events"
	"github.com/scalarorg/lending-bridge/pkg/gateway"
	"github.com/scalarorg/lending-bridge/pkg/inbound"
	"github.com/scalarorg/lending-bridge/pkg/services/rabbitmq"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

type Service struct {
	Config        *config.Config
	DbAdapter     *db.DatabaseAdapter
	EventBus      *events.EventBus
	Gateway       gateway.Gateway
	Ledger        *custody.Ledger
	Bridge        *bridge.Bridge
	Authenticator *inbound.Authenticator
	ApiServer     *api.Server
	Publisher     *rabbitmq.Publisher
	sinks         []events.Sink
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

// NewService wires the bridge. dbAdapter may be nil, in which case state is
// kept in memory only.
func NewService(config *config.Config, dbAdapter *db.DatabaseAdapter,
	eventBus *events.EventBus) (*Service, error) {
	mode, err := codec.ParseMode(config.Bridge.CodecMode)
	if err != nil {
		return nil, err
	}
	messageCodec, err := codec.New(mode, nil)
	if err != nil {
		return nil, err
	}
	gw, err := newGateway(config)
	if err != nil {
		return nil, err
	}
	adapter := gateway.NewAdapter(gw, gateway.AdapterConfig{
		RevertAddress:   addressOrZero(config.Bridge.RevertAddress),
		AbortAddress:    addressOrZero(config.Bridge.AbortAddress),
		CallOnRevert:    config.Bridge.CallOnRevert,
		GasLimit:        config.Bridge.GasLimit,
		BreakerFailures: config.Gateway.BreakerFailures,
		BreakerTimeout:  config.Gateway.BreakerTimeout,
	})
	ledger := custody.NewLedger()

	var store bridge.Store
	var history inbound.HistoryStore
	var sinks []events.Sink
	if dbAdapter != nil {
		store = dbAdapter
		if config.Inbound.KeepHistory {
			history = dbAdapter
		}
		sinks = append(sinks, dbAdapter.EventLog())
		if archive := dbAdapter.EventArchive(); archive != nil {
			sinks = append(sinks, archive)
		}
	}

	var publisher *rabbitmq.Publisher
	if config.RabbitMQ.Enabled {
		publisher, err = rabbitmq.NewPublisher(&config.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("failed to create rabbitmq publisher: %w", err)
		}
		sinks = append(sinks, publisher)
	}

	b := bridge.New(messageCodec, adapter, ledger, store, eventBus, bridge.Options{
		DepositFee:          config.Bridge.DepositFee,
		AllowedRemoteChains: config.Bridge.AllowedRemoteChains,
		AllowedDestChains:   config.Bridge.AllowedDestChains,
	})
	authenticator := inbound.NewAuthenticator(inbound.Config{
		GatewayID:    config.Inbound.GatewayIdentity(),
		TSSAuthority: config.Inbound.TSSIdentity(),
		Secure:       config.Inbound.Secure,
		ChainID:      config.Inbound.ChainID,
	}, history, eventBus)

	return &Service{
		Config:        config,
		DbAdapter:     dbAdapter,
		EventBus:      eventBus,
		Gateway:       gw,
		Ledger:        ledger,
		Bridge:        b,
		Authenticator: authenticator,
		ApiServer:     api.NewServer(&config.Api, b, authenticator, ledger),
		Publisher:     publisher,
		sinks:         sinks,
	}, nil
}

func newGateway(config *config.Config) (gateway.Gateway, error) {
	switch config.Gateway.Mode {
	case "evm":
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		gw, err := gateway.DialEvmGateway(ctx, &config.Gateway.EvmGatewayConfig)
		if err != nil {
			return nil, fmt.Errorf("failed to create evm gateway: %w", err)
		}
		return gw, nil
	default:
		log.Warn().Msg("[Service] [NewService] using in-memory gateway, no calls leave the process")
		return gateway.NewMemoryGateway(), nil
	}
}

func addressOrZero(s string) common.Address {
	if s == "" {
		return common.Address{}
	}
	return common.HexToAddress(s)
}

// Start restores persisted state, starts the event sinks and the API server.
// It returns once everything is running.
func (s *Service) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)
	for _, sink := range s.sinks {
		receiver := s.EventBus.Subscribe(events.ALL_EVENTS)
		s.wg.Add(1)
		go func(sink events.Sink) {
			defer s.wg.Done()
			s.EventBus.Consume(ctx, receiver, sink)
		}(sink)
		log.Info().Str("sink", sink.Name()).Msg("[Service] [Start] event sink started")
	}

	if err := s.Bridge.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore bridge: %w", err)
	}
	if err := s.Authenticator.Restore(ctx); err != nil {
		return fmt.Errorf("failed to restore inbound mailbox: %w", err)
	}
	if err := s.autoInitialize(ctx); err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.ApiServer.Start(); err != nil {
			log.Error().Err(err).Msg("[Service] [Start] api server stopped with error")
		}
	}()
	log.Info().Str("state", s.Bridge.Config().State().String()).
		Str("codec", string(s.Bridge.CodecMode())).
		Msg("[Service] [Start] bridge service started")
	return nil
}

func (s *Service) autoInitialize(ctx context.Context) error {
	cfg := s.Config.Bridge
	if !cfg.AutoInitialize || s.Bridge.Config().Initialized {
		return nil
	}
	err := s.Bridge.Initialize(ctx, cfg.AuthorityIdentity(), common.HexToAddress(cfg.RemoteProtocolAddress), cfg.RemoteChainID)
	if err != nil && !errors.Is(err, types.ErrAlreadyInitialized) {
		return fmt.Errorf("failed to initialize bridge: %w", err)
	}
	log.Info().Str("authority", cfg.Authority).Uint64("remoteChainId", cfg.RemoteChainID).
		Msg("[Service] [autoInitialize] bridge initialized from config")
	return nil
}

func (s *Service) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.ApiServer.Shutdown(ctx); err != nil {
		log.Warn().Err(err).Msg("[Service] [Stop] failed to shutdown api server")
	}
	s.EventBus.Close()
	s.wg.Wait()
	if s.cancel != nil {
		s.cancel()
	}
	if s.Publisher != nil {
		if err := s.Publisher.Close(); err != nil {
			log.Warn().Err(err).Msg("[Service] [Stop] failed to close rabbitmq publisher")
		}
	}
	if s.DbAdapter != nil {
		if err := s.DbAdapter.Close(ctx); err != nil {
			log.Warn().Err(err).Msg("[Service] [Stop] failed to close database")
		}
	}
	log.Info().Msg("[Service] [Stop] bridge service stopped")
}
