package codec

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

// ABICodec shares the legacy supply/repay layout and encodes cross-chain
// intents as a full abi tuple the remote protocol can decode.
type ABICodec struct{}

func NewABICodec() *ABICodec {
	return &ABICodec{}
}

func (c *ABICodec) Mode() Mode {
	return ModeABI
}

func (c *ABICodec) EncodeSupply(intent types.Supply) ([]byte, error) {
	return encodeAction(types.ActionSupply, intent.Beneficiary)
}

func (c *ABICodec) EncodeRepay(intent types.Repay) ([]byte, error) {
	return encodeAction(types.ActionRepay, intent.Beneficiary)
}

func (c *ABICodec) EncodeBorrow(intent types.BorrowCrossChain) ([]byte, error) {
	return encodeCrossChain(types.ActionBorrowCrossChain, types.CrossChainRequest(intent))
}

func (c *ABICodec) EncodeWithdraw(intent types.WithdrawCrossChain) ([]byte, error) {
	return encodeCrossChain(types.ActionWithdrawCrossChain, types.CrossChainRequest(intent))
}

func (c *ABICodec) Decode(payload []byte) (*Message, error) {
	if len(payload) == LegacyMessageLength {
		return decodeAction(payload)
	}
	values, err := crossChainArguments.Unpack(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidDataFormat, err)
	}
	action, _ := values[0].(string)
	switch types.Action(action) {
	case types.ActionBorrowCrossChain, types.ActionWithdrawCrossChain:
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownAction, action)
	}
	user, ok1 := values[1].([32]byte)
	asset, ok2 := values[2].(common.Address)
	amount, ok3 := values[3].(*big.Int)
	destChain, ok4 := values[4].(*big.Int)
	recipient, ok5 := values[5].(common.Address)
	if !ok1 || !ok2 || !ok3 || !ok4 || !ok5 {
		return nil, fmt.Errorf("%w: unexpected tuple layout", types.ErrInvalidDataFormat)
	}
	if !amount.IsUint64() || !destChain.IsUint64() {
		return nil, fmt.Errorf("%w: integer overflows u64", types.ErrInvalidDataFormat)
	}
	return &Message{
		Action:    types.Action(action),
		User:      types.Identity(user),
		Asset:     asset,
		Amount:    amount.Uint64(),
		DestChain: destChain.Uint64(),
		Recipient: recipient,
	}, nil
}

func encodeCrossChain(action types.Action, req types.CrossChainRequest) ([]byte, error) {
	payload, err := crossChainArguments.Pack(
		string(action),
		[32]byte(req.User),
		req.Asset,
		new(big.Int).SetUint64(req.Amount),
		new(big.Int).SetUint64(req.DestChain),
		req.Recipient,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", types.ErrEncoding, action, err)
	}
	return payload, nil
}
