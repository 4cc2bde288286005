package codec

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

// LegacyMessageLength is the size of an abi-encoded (string, address) tuple
// whose string fits in one word.
const LegacyMessageLength = 128

// LegacyCodec produces the fixed 128-byte (string action, address beneficiary)
// payload for supply and repay.
//
// Cross-chain intents are rendered as colon-delimited text. That form is a
// stand-in: the remote protocol cannot decode it. Use ABICodec for a
// decodable borrow/withdraw payload.
type LegacyCodec struct{}

func NewLegacyCodec() *LegacyCodec {
	return &LegacyCodec{}
}

func (c *LegacyCodec) Mode() Mode {
	return ModeLegacy
}

// CrossChainComplete reports whether cross-chain payloads are decodable by
// the remote protocol.
func (c *LegacyCodec) CrossChainComplete() bool {
	return false
}

func (c *LegacyCodec) EncodeSupply(intent types.Supply) ([]byte, error) {
	return encodeAction(types.ActionSupply, intent.Beneficiary)
}

func (c *LegacyCodec) EncodeRepay(intent types.Repay) ([]byte, error) {
	return encodeAction(types.ActionRepay, intent.Beneficiary)
}

func (c *LegacyCodec) EncodeBorrow(intent types.BorrowCrossChain) ([]byte, error) {
	return encodePlaceholder(types.ActionBorrowCrossChain, types.CrossChainRequest(intent)), nil
}

func (c *LegacyCodec) EncodeWithdraw(intent types.WithdrawCrossChain) ([]byte, error) {
	return encodePlaceholder(types.ActionWithdrawCrossChain, types.CrossChainRequest(intent)), nil
}

// Decode routes on the placeholder prefix before the length: a placeholder
// can itself be 128 bytes long, while an abi tuple starts with its offset word.
func (c *LegacyCodec) Decode(payload []byte) (*Message, error) {
	if isPlaceholder(payload) || len(payload) != LegacyMessageLength {
		return decodePlaceholder(payload)
	}
	return decodeAction(payload)
}

func isPlaceholder(payload []byte) bool {
	for _, action := range []types.Action{types.ActionBorrowCrossChain, types.ActionWithdrawCrossChain} {
		if bytes.HasPrefix(payload, []byte(string(action)+":")) {
			return true
		}
	}
	return false
}

func encodeAction(action types.Action, beneficiary common.Address) ([]byte, error) {
	payload, err := actionArguments.Pack(string(action), beneficiary)
	if err != nil {
		return nil, fmt.Errorf("%w: pack %s: %v", types.ErrEncoding, action, err)
	}
	if len(payload) != LegacyMessageLength {
		return nil, fmt.Errorf("%w: %s payload is %d bytes, expected %d",
			types.ErrEncoding, action, len(payload), LegacyMessageLength)
	}
	return payload, nil
}

func decodeAction(payload []byte) (*Message, error) {
	values, err := actionArguments.Unpack(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrInvalidDataFormat, err)
	}
	action, ok := values[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: action is not a string", types.ErrInvalidDataFormat)
	}
	beneficiary, ok := values[1].(common.Address)
	if !ok {
		return nil, fmt.Errorf("%w: beneficiary is not an address", types.ErrInvalidDataFormat)
	}
	switch types.Action(action) {
	case types.ActionSupply, types.ActionRepay:
		return &Message{Action: types.Action(action), Beneficiary: beneficiary}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownAction, action)
	}
}

// action:<hex user>:<amount>:<dest chain>:<hex recipient>
func encodePlaceholder(action types.Action, req types.CrossChainRequest) []byte {
	return []byte(fmt.Sprintf("%s:%s:%d:%d:%s",
		action,
		hex.EncodeToString(req.User[:]),
		req.Amount,
		req.DestChain,
		hex.EncodeToString(req.Recipient.Bytes()),
	))
}

func decodePlaceholder(payload []byte) (*Message, error) {
	parts := strings.Split(string(payload), ":")
	if len(parts) != 5 {
		return nil, fmt.Errorf("%w: expected 5 fields, got %d", types.ErrInvalidDataFormat, len(parts))
	}
	action := types.Action(parts[0])
	if action != types.ActionBorrowCrossChain && action != types.ActionWithdrawCrossChain {
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownAction, parts[0])
	}
	user, err := hex.DecodeString(parts[1])
	if err != nil || len(user) != types.IdentityLength {
		return nil, fmt.Errorf("%w: user %q", types.ErrInvalidDataFormat, parts[1])
	}
	amount, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: amount: %v", types.ErrInvalidDataFormat, err)
	}
	destChain, err := strconv.ParseUint(parts[3], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: dest chain: %v", types.ErrInvalidDataFormat, err)
	}
	recipient, err := hex.DecodeString(parts[4])
	if err != nil || len(recipient) != common.AddressLength {
		return nil, fmt.Errorf("%w: recipient %q", types.ErrInvalidDataFormat, parts[4])
	}
	msg := &Message{
		Action:    action,
		Amount:    amount,
		DestChain: destChain,
		Recipient: common.BytesToAddress(recipient),
	}
	copy(msg.User[:], user)
	return msg, nil
}
