package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
)

const (
	EVENT_CONTRACT_INITIALIZED             = "ContractInitialized"
	EVENT_DEPOSIT_INITIATED                = "DepositInitiated"
	EVENT_REPAY_INITIATED                  = "RepayInitiated"
	EVENT_BORROW_CROSS_CHAIN_INITIATED     = "BorrowCrossChainInitiated"
	EVENT_WITHDRAW_CROSS_CHAIN_INITIATED   = "WithdrawCrossChainInitiated"
	EVENT_ASSET_ADDED                      = "AssetAdded"
	EVENT_ASSET_REMOVED                    = "AssetRemoved"
	EVENT_LENDING_PROTOCOL_ADDRESS_UPDATED = "LendingProtocolAddressUpdated"
	EVENT_PAUSE_STATE_CHANGED              = "PauseStateChanged"
	EVENT_INBOUND_ACCEPTED                 = "InboundAccepted"
)

// Event is a domain event emitted after an entry point commits.
type Event interface {
	EventName() string
}

type ContractInitialized struct {
	Authority             Identity       `json:"authority"`
	RemoteProtocolAddress common.Address `json:"remote_protocol_address"`
	RemoteChainID         uint64         `json:"remote_chain_id"`
}

type DepositInitiated struct {
	User        Identity       `json:"user"`
	Asset       AssetID        `json:"asset"`
	Amount      uint64         `json:"amount"`
	Beneficiary common.Address `json:"beneficiary"`
}

type RepayInitiated struct {
	User        Identity       `json:"user"`
	Asset       AssetID        `json:"asset"`
	Amount      uint64         `json:"amount"`
	Beneficiary common.Address `json:"beneficiary"`
}

type BorrowCrossChainInitiated struct {
	User      Identity       `json:"user"`
	Asset     common.Address `json:"asset"`
	Amount    uint64         `json:"amount"`
	DestChain uint64         `json:"dest_chain"`
	Recipient common.Address `json:"recipient"`
}

type WithdrawCrossChainInitiated struct {
	User      Identity       `json:"user"`
	Asset     common.Address `json:"asset"`
	Amount    uint64         `json:"amount"`
	DestChain uint64         `json:"dest_chain"`
	Recipient common.Address `json:"recipient"`
}

type AssetAdded struct {
	Asset    AssetID `json:"asset"`
	Decimals uint8   `json:"decimals"`
	IsNative bool    `json:"is_native"`
}

type AssetRemoved struct {
	Asset AssetID `json:"asset"`
}

type LendingProtocolAddressUpdated struct {
	Old     common.Address `json:"old"`
	New     common.Address `json:"new"`
	ChainID uint64         `json:"chain_id"`
}

type PauseStateChanged struct {
	IsPaused bool `json:"is_paused"`
}

type InboundAccepted struct {
	Sequence uint64         `json:"sequence"`
	Sender   common.Address `json:"sender"`
	Amount   uint64         `json:"amount"`
	Message  string         `json:"message"`
}

func (ContractInitialized) EventName() string { return EVENT_CONTRACT_INITIALIZED }
func (DepositInitiated) EventName() string    { return EVENT_DEPOSIT_INITIATED }
func (RepayInitiated) EventName() string      { return EVENT_REPAY_INITIATED }
func (BorrowCrossChainInitiated) EventName() string {
	return EVENT_BORROW_CROSS_CHAIN_INITIATED
}
func (WithdrawCrossChainInitiated) EventName() string {
	return EVENT_WITHDRAW_CROSS_CHAIN_INITIATED
}
func (AssetAdded) EventName() string   { return EVENT_ASSET_ADDED }
func (AssetRemoved) EventName() string { return EVENT_ASSET_REMOVED }
func (LendingProtocolAddressUpdated) EventName() string {
	return EVENT_LENDING_PROTOCOL_ADDRESS_UPDATED
}
func (PauseStateChanged) EventName() string { return EVENT_PAUSE_STATE_CHANGED }
func (InboundAccepted) EventName() string   { return EVENT_INBOUND_ACCEPTED }

// EventEnvelope carries an event through the bus to its sinks.
type EventEnvelope struct {
	ID        uuid.UUID
	Name      string
	Component string
	EmittedAt time.Time
	Data      Event
}

func NewEventEnvelope(component string, event Event) *EventEnvelope {
	return &EventEnvelope{
		ID:        uuid.New(),
		Name:      event.EventName(),
		Component: component,
		EmittedAt: time.Now().UTC(),
		Data:      event,
	}
}
