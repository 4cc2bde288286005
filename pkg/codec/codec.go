package codec

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

type Mode string

const (
	ModeLegacy Mode = "legacy"
	ModeABI    Mode = "abi"
	ModeTyped  Mode = "typed"
)

// Codec turns outbound intents into the payload the remote lending protocol
// decodes. Implementations are pure apart from the typed codec's clock.
type Codec interface {
	Mode() Mode
	EncodeSupply(intent types.Supply) ([]byte, error)
	EncodeRepay(intent types.Repay) ([]byte, error)
	EncodeBorrow(intent types.BorrowCrossChain) ([]byte, error)
	EncodeWithdraw(intent types.WithdrawCrossChain) ([]byte, error)
	Decode(payload []byte) (*Message, error)
}

// Message is a decoded payload. Fields not carried by Action are zero.
type Message struct {
	Action      types.Action
	Beneficiary common.Address
	User        types.Identity
	Asset       common.Address
	Amount      uint64
	DestChain   uint64
	Recipient   common.Address
	Timestamp   time.Time
}

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeLegacy, "":
		return ModeLegacy, nil
	case ModeABI:
		return ModeABI, nil
	case ModeTyped:
		return ModeTyped, nil
	default:
		return "", fmt.Errorf("unknown codec mode %q", s)
	}
}

// New returns the codec for mode. clock is only used by the typed codec and
// defaults to time.Now.
func New(mode Mode, clock func() time.Time) (Codec, error) {
	switch mode {
	case ModeLegacy, "":
		return NewLegacyCodec(), nil
	case ModeABI:
		return NewABICodec(), nil
	case ModeTyped:
		return NewTypedCodec(clock), nil
	default:
		return nil, fmt.Errorf("unknown codec mode %q", mode)
	}
}
