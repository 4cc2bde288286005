package bridge

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/pkg/metrics"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"go.opentelemetry.io/otel/attribute"
)

// Initialize sets the authority and remote protocol. It succeeds once.
func (b *Bridge) Initialize(ctx context.Context, authority types.Identity, remoteProtocol common.Address, remoteChainID uint64) error {
	ctx, done := b.begin(ctx, "initialize", attribute.Int64("remote_chain_id", int64(remoteChainID)))
	if b.config.Initialized {
		return done(types.ErrAlreadyInitialized)
	}
	if authority.IsZero() {
		return done(fmt.Errorf("%w: zero authority", types.ErrInvalidAddress))
	}
	if len(b.options.AllowedRemoteChains) > 0 && !containsChain(b.options.AllowedRemoteChains, remoteChainID) {
		return done(fmt.Errorf("%w: remote chain %d is not allowed", types.ErrInvalidChainId, remoteChainID))
	}
	next := types.BridgeConfig{
		Authority:             authority,
		RemoteProtocolAddress: remoteProtocol,
		RemoteChainID:         remoteChainID,
		IsPaused:              false,
		Initialized:           true,
	}
	if err := b.saveConfig(ctx, next); err != nil {
		return done(err)
	}
	b.config = next
	metrics.BridgePaused.Set(0)
	log.Info().Str("authority", authority.String()).Str("protocol", remoteProtocol.Hex()).
		Uint64("chainId", remoteChainID).Msg("[Bridge] [Initialize] bridge initialized")
	return done(nil, types.ContractInitialized{
		Authority:             authority,
		RemoteProtocolAddress: remoteProtocol,
		RemoteChainID:         remoteChainID,
	})
}

func (b *Bridge) AddAsset(ctx context.Context, caller types.Identity, assetID types.AssetID, decimals uint8, isNative bool) error {
	ctx, done := b.begin(ctx, "add_asset", attribute.String("asset", assetID.String()))
	if err := b.requireAuthority(caller); err != nil {
		return done(err)
	}
	previous, existed := b.registry.Get(assetID)
	entry, err := b.registry.Add(assetID, decimals, isNative)
	if err != nil {
		return done(err)
	}
	if err := b.saveAsset(ctx, entry); err != nil {
		if existed {
			b.registry.Put(previous)
		} else {
			b.registry.Delete(assetID)
		}
		return done(err)
	}
	log.Info().Str("asset", assetID.String()).Uint8("decimals", decimals).Bool("native", isNative).
		Msg("[Bridge] [AddAsset] asset added")
	return done(nil, types.AssetAdded{Asset: assetID, Decimals: decimals, IsNative: isNative})
}

func (b *Bridge) RemoveAsset(ctx context.Context, caller types.Identity, assetID types.AssetID) error {
	ctx, done := b.begin(ctx, "remove_asset", attribute.String("asset", assetID.String()))
	if err := b.requireAuthority(caller); err != nil {
		return done(err)
	}
	previous, _ := b.registry.Get(assetID)
	entry, err := b.registry.Remove(assetID)
	if err != nil {
		return done(err)
	}
	if err := b.saveAsset(ctx, entry); err != nil {
		b.registry.Put(previous)
		return done(err)
	}
	log.Info().Str("asset", assetID.String()).Msg("[Bridge] [RemoveAsset] asset removed")
	return done(nil, types.AssetRemoved{Asset: assetID})
}

// UpdateRemoteProtocolAddress replaces the lending protocol address. The
// caller restates the remote chain id, which must match the stored one.
func (b *Bridge) UpdateRemoteProtocolAddress(ctx context.Context, caller types.Identity, newAddress common.Address, expectedChainID uint64) error {
	ctx, done := b.begin(ctx, "update_remote_protocol_address")
	if err := b.requireAuthority(caller); err != nil {
		return done(err)
	}
	if expectedChainID != b.config.RemoteChainID {
		return done(fmt.Errorf("%w: expected %d, bridge targets %d",
			types.ErrInvalidChainId, expectedChainID, b.config.RemoteChainID))
	}
	next := b.config
	next.RemoteProtocolAddress = newAddress
	if err := b.saveConfig(ctx, next); err != nil {
		return done(err)
	}
	old := b.config.RemoteProtocolAddress
	b.config = next
	log.Info().Str("old", old.Hex()).Str("new", newAddress.Hex()).
		Msg("[Bridge] [UpdateRemoteProtocolAddress] lending protocol address updated")
	return done(nil, types.LendingProtocolAddressUpdated{Old: old, New: newAddress, ChainID: next.RemoteChainID})
}

func (b *Bridge) SetPause(ctx context.Context, caller types.Identity, paused bool) error {
	ctx, done := b.begin(ctx, "set_pause", attribute.Bool("paused", paused))
	if err := b.requireAuthority(caller); err != nil {
		return done(err)
	}
	next := b.config
	next.IsPaused = paused
	if err := b.saveConfig(ctx, next); err != nil {
		return done(err)
	}
	b.config = next
	metrics.BridgePaused.Set(boolGauge(paused))
	log.Warn().Bool("paused", paused).Msg("[Bridge] [SetPause] pause state changed")
	return done(nil, types.PauseStateChanged{IsPaused: paused})
}
