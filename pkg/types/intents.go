package types

import (
	"github.com/ethereum/go-ethereum/common"
)

type Action string

const (
	ActionSupply             Action = "supply"
	ActionRepay              Action = "repay"
	ActionBorrowCrossChain   Action = "borrowCrossChain"
	ActionWithdrawCrossChain Action = "withdrawCrossChain"
)

// Supply credits Beneficiary on the remote lending protocol.
type Supply struct {
	Beneficiary common.Address
	Amount      uint64
}

type Repay struct {
	Beneficiary common.Address
	Amount      uint64
}

// CrossChainRequest asks the remote protocol to release funds on DestChain.
type CrossChainRequest struct {
	User      Identity
	Asset     common.Address
	Amount    uint64
	DestChain uint64
	Recipient common.Address
}

type BorrowCrossChain CrossChainRequest

type WithdrawCrossChain CrossChainRequest
