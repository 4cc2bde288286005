package api

import (
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/labstack/echo/v4"
	"github.com/scalarorg/lending-bridge/pkg/types"
	"github.com/shopspring/decimal"
)

type InitializeRequest struct {
	// Defaults to the caller.
	Authority             string `json:"authority"`
	RemoteProtocolAddress string `json:"remote_protocol_address" validate:"required,eth_addr"`
	RemoteChainID         uint64 `json:"remote_chain_id" validate:"required"`
}

type AddAssetRequest struct {
	AssetID  string `json:"asset_id" validate:"required"`
	Decimals uint8  `json:"decimals"`
	IsNative bool   `json:"is_native"`
}

// ValueRequest is a deposit or repay. Without Path the route is chosen by
// the asset's registry entry.
type ValueRequest struct {
	AssetID     string `json:"asset_id" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Beneficiary string `json:"beneficiary" validate:"required,eth_addr"`
	Path        string `json:"path" validate:"omitempty,oneof=native token"`
}

type CrossChainRequest struct {
	Asset     string `json:"asset" validate:"required,eth_addr"`
	Amount    string `json:"amount" validate:"required"`
	DestChain uint64 `json:"dest_chain"`
	Recipient string `json:"recipient" validate:"required,eth_addr"`
}

type ProtocolAddressRequest struct {
	Address string `json:"address" validate:"required,eth_addr"`
	ChainID uint64 `json:"chain_id"`
}

type PauseRequest struct {
	Paused *bool `json:"paused" validate:"required"`
}

type InboundRequest struct {
	Signer    string `json:"signer"`
	Sequence  uint64 `json:"sequence" validate:"required"`
	Amount    string `json:"amount" validate:"required"`
	Sender    string `json:"sender" validate:"required,eth_addr"`
	Payload   string `json:"payload" validate:"required"`
	Signature string `json:"signature"`
}

type CreditRequest struct {
	Owner   string `json:"owner" validate:"required"`
	AssetID string `json:"asset_id" validate:"required"`
	Amount  string `json:"amount" validate:"required"`
}

type ConfigResponse struct {
	types.BridgeConfig
	State     string `json:"state"`
	CodecMode string `json:"codec_mode"`
}

type SubmittedResponse struct {
	Status  string `json:"status"`
	Amount  string `json:"amount"`
	Display string `json:"display,omitempty"`
}

type BalanceResponse struct {
	Owner    types.Identity `json:"owner"`
	AssetID  types.AssetID  `json:"asset_id"`
	Balance  string         `json:"balance"`
	Display  string         `json:"display"`
	Contract string         `json:"contract"`
}

func bindRequest(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return invalid(types.ErrInvalidMessage, err)
	}
	if err := c.Validate(req); err != nil {
		return invalid(types.ErrInvalidMessage, err)
	}
	return nil
}

var maxAmount = decimal.NewFromUint64(math.MaxUint64)

// ParseAmount reads a base-unit integer amount.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, invalid(types.ErrInvalidAmount, err)
	}
	if d.IsNegative() || !d.IsInteger() || d.GreaterThan(maxAmount) {
		return 0, fmt.Errorf("%w: %s is not a base-unit amount", types.ErrInvalidAmount, s)
	}
	return d.BigInt().Uint64(), nil
}

// FormatAmount scales a base-unit amount by the asset's decimals.
func FormatAmount(amount uint64, decimals uint8) string {
	return decimal.NewFromUint64(amount).Shift(-int32(decimals)).String()
}

func parseIdentity(s string) (types.Identity, error) {
	id, err := types.ParseIdentity(s)
	if err != nil {
		return id, invalid(types.ErrInvalidAddress, err)
	}
	return id, nil
}

func parseHex(s string) ([]byte, error) {
	b, err := hexutil.Decode(s)
	if err != nil {
		return nil, invalid(types.ErrInvalidDataFormat, err)
	}
	return b, nil
}

func address(s string) common.Address {
	return common.HexToAddress(s)
}
