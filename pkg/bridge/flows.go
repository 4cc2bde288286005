package bridge

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/pkg/gateway"
	"github.com/scalarorg/lending-bridge/pkg/metrics"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"go.opentelemetry.io/otel/attribute"
)

const (
	revertNativeDeposit = "native deposit failed"
	revertTokenDeposit  = "token deposit failed"
	revertNativeRepay   = "native repay failed"
	revertTokenRepay    = "token repay failed"
	revertCrossChain    = "cross-chain call failed"
)

type valueFlow struct {
	operation   string
	flow        string
	caller      types.Identity
	asset       types.AssetID
	amount      uint64
	beneficiary common.Address
	path        types.DepositPath
	revert      string
	encode      func() ([]byte, error)
	event       types.Event
}

func (b *Bridge) DepositNative(ctx context.Context, caller types.Identity, asset types.AssetID, amount uint64, beneficiary common.Address) error {
	return b.runValueFlow(ctx, b.depositFlow(caller, asset, amount, beneficiary, types.NativePath))
}

func (b *Bridge) DepositToken(ctx context.Context, caller types.Identity, asset types.AssetID, amount uint64, beneficiary common.Address) error {
	return b.runValueFlow(ctx, b.depositFlow(caller, asset, amount, beneficiary, types.TokenPath))
}

// Deposit routes to the native or token path according to the asset's
// registry entry. Unknown assets take the token path and are rejected there.
func (b *Bridge) Deposit(ctx context.Context, caller types.Identity, asset types.AssetID, amount uint64, beneficiary common.Address) error {
	return b.runValueFlow(ctx, b.depositFlow(caller, asset, amount, beneficiary, b.pathOf(asset)))
}

func (b *Bridge) RepayNative(ctx context.Context, caller types.Identity, asset types.AssetID, amount uint64, beneficiary common.Address) error {
	return b.runValueFlow(ctx, b.repayFlow(caller, asset, amount, beneficiary, types.NativePath))
}

func (b *Bridge) RepayToken(ctx context.Context, caller types.Identity, asset types.AssetID, amount uint64, beneficiary common.Address) error {
	return b.runValueFlow(ctx, b.repayFlow(caller, asset, amount, beneficiary, types.TokenPath))
}

func (b *Bridge) Repay(ctx context.Context, caller types.Identity, asset types.AssetID, amount uint64, beneficiary common.Address) error {
	return b.runValueFlow(ctx, b.repayFlow(caller, asset, amount, beneficiary, b.pathOf(asset)))
}

func (b *Bridge) pathOf(asset types.AssetID) types.DepositPath {
	if entry, ok := b.registry.Get(asset); ok && entry.IsSupported && entry.IsNative {
		return types.NativePath
	}
	return types.TokenPath
}

func (b *Bridge) depositFlow(caller types.Identity, asset types.AssetID, amount uint64, beneficiary common.Address, path types.DepositPath) valueFlow {
	revert := revertTokenDeposit
	if path == types.NativePath {
		revert = revertNativeDeposit
	}
	return valueFlow{
		operation:   "deposit_" + path.String(),
		flow:        "deposit",
		caller:      caller,
		asset:       asset,
		amount:      amount,
		beneficiary: beneficiary,
		path:        path,
		revert:      revert,
		encode: func() ([]byte, error) {
			return b.codec.EncodeSupply(types.Supply{Beneficiary: beneficiary, Amount: amount})
		},
		event: types.DepositInitiated{User: caller, Asset: asset, Amount: amount, Beneficiary: beneficiary},
	}
}

func (b *Bridge) repayFlow(caller types.Identity, asset types.AssetID, amount uint64, beneficiary common.Address, path types.DepositPath) valueFlow {
	revert := revertTokenRepay
	if path == types.NativePath {
		revert = revertNativeRepay
	}
	return valueFlow{
		operation:   "repay_" + path.String(),
		flow:        "repay",
		caller:      caller,
		asset:       asset,
		amount:      amount,
		beneficiary: beneficiary,
		path:        path,
		revert:      revert,
		encode: func() ([]byte, error) {
			return b.codec.EncodeRepay(types.Repay{Beneficiary: beneficiary, Amount: amount})
		},
		event: types.RepayInitiated{User: caller, Asset: asset, Amount: amount, Beneficiary: beneficiary},
	}
}

// runValueFlow checks preconditions, moves the amount into custody, then
// notifies the gateway. A failed notification refunds the hold.
func (b *Bridge) runValueFlow(ctx context.Context, f valueFlow) error {
	ctx, done := b.begin(ctx, f.operation,
		attribute.String("asset", f.asset.String()),
		attribute.Int64("amount", int64(f.amount)),
	)
	if err := b.requireInitialized(); err != nil {
		return done(err)
	}
	if b.config.IsPaused {
		return done(types.ErrPaused)
	}
	if f.amount == 0 {
		return done(types.ErrInvalidAmount)
	}
	if f.beneficiary == (common.Address{}) {
		return done(fmt.Errorf("%w: zero beneficiary", types.ErrInvalidAddress))
	}
	if err := b.registry.IsDepositEligible(f.asset, f.path); err != nil {
		return done(err)
	}
	if f.path == types.NativePath && f.amount < b.options.DepositFee {
		return done(fmt.Errorf("%w: %d is below the %d minimum",
			types.ErrInsufficientDepositFee, f.amount, b.options.DepositFee))
	}

	hold, err := b.custody.Hold(ctx, f.caller, f.asset, f.amount)
	if err != nil {
		return done(err)
	}
	payload, err := f.encode()
	if err == nil {
		submission := &gateway.Submission{
			Amount:      &f.amount,
			Destination: b.config.RemoteProtocolAddress,
			Payload:     payload,
			Revert:      b.gateway.RevertPolicy(f.revert),
		}
		if f.path == types.TokenPath {
			token := f.asset.EvmAddress()
			submission.Asset = &token
		}
		err = b.gateway.Submit(ctx, submission)
	}
	if err != nil {
		if releaseErr := b.custody.Release(ctx, hold); releaseErr != nil {
			log.Error().Err(releaseErr).Str("hold", hold.ID.String()).
				Msg("[Bridge] failed to release hold after gateway failure")
			return done(errors.Join(err, releaseErr))
		}
		return done(err)
	}
	// The gateway already accepted the call, so the outcome is success even
	// when the hold cannot be closed. The value stays in contract custody.
	if err := b.custody.Settle(ctx, hold); err != nil {
		log.Error().Err(err).Str("hold", hold.ID.String()).Str("operation", f.operation).
			Msg("[Bridge] failed to settle hold after gateway submission")
	}
	metrics.ValueLocked.WithLabelValues(f.asset.String(), f.flow).Add(float64(f.amount))
	log.Info().Str("operation", f.operation).Str("user", f.caller.String()).
		Str("asset", f.asset.String()).Uint64("amount", f.amount).
		Str("beneficiary", f.beneficiary.Hex()).Msg("[Bridge] value flow submitted")
	return done(nil, f.event)
}

func (b *Bridge) BorrowCrossChain(ctx context.Context, caller types.Identity, asset common.Address, amount uint64, destChain uint64, recipient common.Address) error {
	req := types.CrossChainRequest{User: caller, Asset: asset, Amount: amount, DestChain: destChain, Recipient: recipient}
	return b.runCrossChain(ctx, "borrow_cross_chain", req,
		func() ([]byte, error) { return b.codec.EncodeBorrow(types.BorrowCrossChain(req)) },
		types.BorrowCrossChainInitiated{User: caller, Asset: asset, Amount: amount, DestChain: destChain, Recipient: recipient},
	)
}

func (b *Bridge) WithdrawCrossChain(ctx context.Context, caller types.Identity, asset common.Address, amount uint64, destChain uint64, recipient common.Address) error {
	req := types.CrossChainRequest{User: caller, Asset: asset, Amount: amount, DestChain: destChain, Recipient: recipient}
	return b.runCrossChain(ctx, "withdraw_cross_chain", req,
		func() ([]byte, error) { return b.codec.EncodeWithdraw(types.WithdrawCrossChain(req)) },
		types.WithdrawCrossChainInitiated{User: caller, Asset: asset, Amount: amount, DestChain: destChain, Recipient: recipient},
	)
}

// runCrossChain relays a message-only call. No local value moves.
func (b *Bridge) runCrossChain(ctx context.Context, operation string, req types.CrossChainRequest, encode func() ([]byte, error), event types.Event) error {
	ctx, done := b.begin(ctx, operation,
		attribute.Int64("dest_chain", int64(req.DestChain)),
		attribute.Int64("amount", int64(req.Amount)),
	)
	if err := b.requireInitialized(); err != nil {
		return done(err)
	}
	if b.config.IsPaused {
		return done(types.ErrPaused)
	}
	if req.Amount == 0 {
		return done(types.ErrInvalidAmount)
	}
	if req.Recipient == (common.Address{}) {
		return done(fmt.Errorf("%w: zero recipient", types.ErrInvalidAddress))
	}
	if len(b.options.AllowedDestChains) > 0 && !containsChain(b.options.AllowedDestChains, req.DestChain) {
		return done(fmt.Errorf("%w: destination chain %d is not allowed", types.ErrInvalidChainId, req.DestChain))
	}
	payload, err := encode()
	if err != nil {
		return done(err)
	}
	err = b.gateway.Submit(ctx, &gateway.Submission{
		Destination: b.config.RemoteProtocolAddress,
		Payload:     payload,
		Revert:      b.gateway.RevertPolicy(revertCrossChain),
	})
	if err != nil {
		return done(err)
	}
	log.Info().Str("operation", operation).Str("user", req.User.String()).
		Uint64("amount", req.Amount).Uint64("destChain", req.DestChain).
		Str("recipient", req.Recipient.Hex()).Msg("[Bridge] cross-chain request submitted")
	return done(nil, event)
}
