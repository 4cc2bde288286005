package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

const SignatureLength = 64

// InboundCall is a delivery from the gateway. Caller is the account that
// invoked the bridge, Signer the account presented as the TSS authority.
// Sequence must be the mailbox sequence plus one.
type InboundCall struct {
	Caller    Identity
	Signer    Identity
	Sequence  uint64
	Amount    uint64
	Sender    common.Address
	Payload   []byte
	Signature []byte
}

// InboundRecord is the single-slot mailbox. Each accepted call overwrites it.
type InboundRecord struct {
	LastSender  common.Address `json:"last_sender"`
	LastMessage string         `json:"last_message"`
	Sequence    uint64         `json:"sequence"`
}

// InboundEntry is one accepted call in the append-only history.
type InboundEntry struct {
	Sequence   uint64
	Sender     common.Address
	Amount     uint64
	Message    string
	ReceivedAt time.Time
}
