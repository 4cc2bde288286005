package custody

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/scalarorg/lending-bridge/pkg/types"
)

type holdState int

const (
	holdPending holdState = iota
	holdSettled
	holdReleased
)

// Hold is value moved from a user into contract custody whose outbound call
// has not completed yet. Settle keeps it there, Release refunds it.
type Hold struct {
	ID     uuid.UUID
	Owner  types.Identity
	Asset  types.AssetID
	Amount uint64
	state  holdState
}

type balanceKey struct {
	owner types.Identity
	asset types.AssetID
}

// Ledger is an in-memory custody book: user balances, the contract's
// balance per asset, and outstanding holds.
//
// supply is the total ever credited per asset. Every user balance and the
// contract balance are bounded by it, so no later addition can wrap.
type Ledger struct {
	mu       sync.Mutex
	balances map[balanceKey]uint64
	contract map[types.AssetID]uint64
	supply   map[types.AssetID]uint64
	holds    map[uuid.UUID]*Hold
}

func NewLedger() *Ledger {
	return &Ledger{
		balances: make(map[balanceKey]uint64),
		contract: make(map[types.AssetID]uint64),
		supply:   make(map[types.AssetID]uint64),
		holds:    make(map[uuid.UUID]*Hold),
	}
}

// Credit funds owner's balance. It fails without effect when the asset's
// total supply would overflow a u64.
func (l *Ledger) Credit(owner types.Identity, asset types.AssetID, amount uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if amount > math.MaxUint64-l.supply[asset] {
		return fmt.Errorf("%w: crediting %d overflows the %s supply of %d",
			types.ErrInvalidAmount, amount, asset, l.supply[asset])
	}
	l.supply[asset] += amount
	l.balances[balanceKey{owner, asset}] += amount
	return nil
}

func (l *Ledger) Balance(owner types.Identity, asset types.AssetID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[balanceKey{owner, asset}]
}

func (l *Ledger) ContractBalance(asset types.AssetID) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.contract[asset]
}

func (l *Ledger) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.holds)
}

// Hold moves amount from owner into contract custody in one step. It fails
// without effect when the balance is short.
func (l *Ledger) Hold(ctx context.Context, owner types.Identity, asset types.AssetID, amount uint64) (*Hold, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := balanceKey{owner, asset}
	if l.balances[key] < amount {
		return nil, fmt.Errorf("%w: %s holds %d of %s, needs %d",
			types.ErrInsufficientBalance, owner, l.balances[key], asset, amount)
	}
	l.balances[key] -= amount
	l.contract[asset] += amount
	hold := &Hold{ID: uuid.New(), Owner: owner, Asset: asset, Amount: amount}
	l.holds[hold.ID] = hold
	log.Debug().Str("hold", hold.ID.String()).Str("owner", owner.String()).
		Uint64("amount", amount).Msg("[Ledger] [Hold] funds held")
	return hold, nil
}

// Settle finalises a hold.
func (l *Ledger) Settle(ctx context.Context, hold *Hold) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.take(hold); err != nil {
		return err
	}
	hold.state = holdSettled
	return nil
}

// Release returns a held amount to its owner.
func (l *Ledger) Release(ctx context.Context, hold *Hold) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.take(hold); err != nil {
		return err
	}
	hold.state = holdReleased
	l.contract[hold.Asset] -= hold.Amount
	l.balances[balanceKey{hold.Owner, hold.Asset}] += hold.Amount
	log.Debug().Str("hold", hold.ID.String()).Msg("[Ledger] [Release] funds returned")
	return nil
}

func (l *Ledger) take(hold *Hold) error {
	if hold == nil {
		return fmt.Errorf("nil hold")
	}
	if _, ok := l.holds[hold.ID]; !ok || hold.state != holdPending {
		return fmt.Errorf("hold %s is not pending", hold.ID)
	}
	delete(l.holds, hold.ID)
	return nil
}
