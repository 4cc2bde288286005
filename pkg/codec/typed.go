package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

const (
	TagLength = 16

	typedActionLength     = TagLength + common.AddressLength + 8 + 8
	typedCrossChainLength = TagLength + types.IdentityLength + 8 + 8 + common.AddressLength + 8
)

// TypedCodec writes a 16-byte zero-padded action tag followed by fixed
// little-endian fields and the encode-time unix timestamp.
//
//	supply/repay:      tag | beneficiary[20] | amount u64 | timestamp i64
//	borrow/withdraw:   tag | user[32] | amount u64 | dest_chain u64 | recipient[20] | timestamp i64
type TypedCodec struct {
	clock func() time.Time
}

func NewTypedCodec(clock func() time.Time) *TypedCodec {
	if clock == nil {
		clock = time.Now
	}
	return &TypedCodec{clock: clock}
}

func (c *TypedCodec) Mode() Mode {
	return ModeTyped
}

func (c *TypedCodec) EncodeSupply(intent types.Supply) ([]byte, error) {
	return c.encodeAction(types.ActionSupply, intent.Beneficiary, intent.Amount), nil
}

func (c *TypedCodec) EncodeRepay(intent types.Repay) ([]byte, error) {
	return c.encodeAction(types.ActionRepay, intent.Beneficiary, intent.Amount), nil
}

func (c *TypedCodec) EncodeBorrow(intent types.BorrowCrossChain) ([]byte, error) {
	return c.encodeCrossChain(types.ActionBorrowCrossChain, types.CrossChainRequest(intent)), nil
}

func (c *TypedCodec) EncodeWithdraw(intent types.WithdrawCrossChain) ([]byte, error) {
	return c.encodeCrossChain(types.ActionWithdrawCrossChain, types.CrossChainRequest(intent)), nil
}

// Tag returns the on-wire tag of action. Tags longer than TagLength are cut,
// so withdrawCrossChain travels as "withdrawCrossCha".
func Tag(action types.Action) [TagLength]byte {
	var tag [TagLength]byte
	copy(tag[:], action)
	return tag
}

func (c *TypedCodec) encodeAction(action types.Action, beneficiary common.Address, amount uint64) []byte {
	buf := make([]byte, 0, typedActionLength)
	tag := Tag(action)
	buf = append(buf, tag[:]...)
	buf = append(buf, beneficiary.Bytes()...)
	buf = binary.LittleEndian.AppendUint64(buf, amount)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(c.clock().Unix()))
	return buf
}

func (c *TypedCodec) encodeCrossChain(action types.Action, req types.CrossChainRequest) []byte {
	buf := make([]byte, 0, typedCrossChainLength)
	tag := Tag(action)
	buf = append(buf, tag[:]...)
	buf = append(buf, req.User[:]...)
	buf = binary.LittleEndian.AppendUint64(buf, req.Amount)
	buf = binary.LittleEndian.AppendUint64(buf, req.DestChain)
	buf = append(buf, req.Recipient.Bytes()...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(c.clock().Unix()))
	return buf
}

func (c *TypedCodec) Decode(payload []byte) (*Message, error) {
	return DecodeTyped(payload)
}

// DecodeTyped parses a typed message. Short input fails with ErrTruncated,
// an unrecognised tag with ErrUnknownAction.
func DecodeTyped(payload []byte) (*Message, error) {
	if len(payload) < TagLength {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d for the tag", types.ErrTruncated, len(payload), TagLength)
	}
	tag := string(bytes.TrimRight(payload[:TagLength], "\x00"))
	body := payload[TagLength:]
	switch tag {
	case string(types.ActionSupply):
		return decodeTypedAction(types.ActionSupply, body)
	case string(types.ActionRepay):
		return decodeTypedAction(types.ActionRepay, body)
	case trimmedTag(types.ActionBorrowCrossChain):
		return decodeTypedCrossChain(types.ActionBorrowCrossChain, body)
	case trimmedTag(types.ActionWithdrawCrossChain):
		return decodeTypedCrossChain(types.ActionWithdrawCrossChain, body)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownAction, tag)
	}
}

func trimmedTag(action types.Action) string {
	tag := Tag(action)
	return string(bytes.TrimRight(tag[:], "\x00"))
}

func decodeTypedAction(action types.Action, body []byte) (*Message, error) {
	if len(body) < typedActionLength-TagLength {
		return nil, fmt.Errorf("%w: %s body is %d bytes", types.ErrTruncated, action, len(body))
	}
	msg := &Message{Action: action}
	msg.Beneficiary = common.BytesToAddress(body[:common.AddressLength])
	body = body[common.AddressLength:]
	msg.Amount = binary.LittleEndian.Uint64(body[:8])
	msg.Timestamp = time.Unix(int64(binary.LittleEndian.Uint64(body[8:16])), 0)
	return msg, nil
}

func decodeTypedCrossChain(action types.Action, body []byte) (*Message, error) {
	if len(body) < typedCrossChainLength-TagLength {
		return nil, fmt.Errorf("%w: %s body is %d bytes", types.ErrTruncated, action, len(body))
	}
	msg := &Message{Action: action}
	copy(msg.User[:], body[:types.IdentityLength])
	body = body[types.IdentityLength:]
	msg.Amount = binary.LittleEndian.Uint64(body[0:8])
	msg.DestChain = binary.LittleEndian.Uint64(body[8:16])
	msg.Recipient = common.BytesToAddress(body[16 : 16+common.AddressLength])
	body = body[16+common.AddressLength:]
	msg.Timestamp = time.Unix(int64(binary.LittleEndian.Uint64(body[:8])), 0)
	return msg, nil
}
