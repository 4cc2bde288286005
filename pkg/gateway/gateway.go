package gateway

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

type CallKind string

const (
	KindDepositNative CallKind = "deposit_native"
	KindDepositToken  CallKind = "deposit_token"
	KindCall          CallKind = "call"
)

// Submission is one outbound gateway call. Amount is nil for message-only
// calls; Asset is nil when the amount is the native coin.
type Submission struct {
	ID          uuid.UUID
	Asset       *common.Address
	Amount      *uint64
	Destination common.Address
	Payload     []byte
	Revert      types.RevertPolicy
}

func (s *Submission) Kind() CallKind {
	switch {
	case s.Amount == nil:
		return KindCall
	case s.Asset == nil:
		return KindDepositNative
	default:
		return KindDepositToken
	}
}

// Gateway is the external cross-chain messaging capability. Submit returns
// once the call is accepted for relay, or an error if it was not.
type Gateway interface {
	Submit(ctx context.Context, submission *Submission) error
}
