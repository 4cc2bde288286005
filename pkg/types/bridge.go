package types

import (
	"github.com/ethereum/go-ethereum/common"
)

const (
	// GasLimit is the gas budget attached to every outbound revert policy.
	GasLimit uint64 = 5_000_000
	// DepositFee is the minimum native amount accepted by deposit and repay.
	DepositFee uint64 = 2_000_000
)

type BridgeState int

const (
	StateUninitialized BridgeState = iota
	StateActive
	StatePaused
)

func (s BridgeState) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePaused:
		return "paused"
	default:
		return "uninitialized"
	}
}

// BridgeConfig is the singleton configuration of a bridge deployment.
type BridgeConfig struct {
	Authority             Identity       `json:"authority"`
	RemoteProtocolAddress common.Address `json:"remote_protocol_address"`
	RemoteChainID         uint64         `json:"remote_chain_id"`
	IsPaused              bool           `json:"is_paused"`
	Initialized           bool           `json:"initialized"`
}

func (c BridgeConfig) State() BridgeState {
	switch {
	case !c.Initialized:
		return StateUninitialized
	case c.IsPaused:
		return StatePaused
	default:
		return StateActive
	}
}

type AssetEntry struct {
	AssetID     AssetID `json:"asset_id"`
	Decimals    uint8   `json:"decimals"`
	IsNative    bool    `json:"is_native"`
	IsSupported bool    `json:"is_supported"`
}

// DepositPath is the entry point family a value flow came through.
type DepositPath int

const (
	NativePath DepositPath = iota
	TokenPath
)

func (p DepositPath) String() string {
	if p == NativePath {
		return "native"
	}
	return "token"
}

// RevertPolicy tells the gateway how to unwind a call that fails remotely.
type RevertPolicy struct {
	RevertAddress common.Address
	CallOnRevert  bool
	AbortAddress  common.Address
	RevertMessage []byte
	GasLimit      uint64
}
