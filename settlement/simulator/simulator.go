// Package simulator provides an in-memory settlement network.
//
// Ledger keeps ckBTC balances per account and applies transfers atomically.
// It stands in for the real settlement network in tests and local runs.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/settlement"
	"github.com/xraph/carbonlock/types"
)

// DefaultOpeningBalance is credited to an account the first time it is seen.
const DefaultOpeningBalance types.Amount = 1_000_000

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrDuplicateReference = errors.New("duplicate transfer reference")
	ErrInvalidReference   = errors.New("missing transfer reference")
)

// Compile-time interface check.
var _ settlement.Collaborator = (*Ledger)(nil)

// Ledger is an in-memory settlement.Collaborator.
type Ledger struct {
	mu        sync.Mutex
	opening   types.Amount
	balances  map[identity.Principal]types.Amount
	applied   map[string]struct{}
	transfers []settlement.TransferRequest
	latency   time.Duration
	failure   string
	failNext  []string
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithOpeningBalance sets the balance credited to accounts on first use.
func WithOpeningBalance(a types.Amount) Option {
	return func(l *Ledger) { l.opening = a }
}

// WithBalance sets the balance of one account up front.
func WithBalance(account identity.Principal, a types.Amount) Option {
	return func(l *Ledger) { l.balances[account] = a }
}

// WithLatency delays every transfer by d, or until the context ends.
func WithLatency(d time.Duration) Option {
	return func(l *Ledger) { l.latency = d }
}

// WithFailure makes every transfer fail with reason.
func WithFailure(reason string) Option {
	return func(l *Ledger) { l.failure = reason }
}

// New creates a Ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		opening:  DefaultOpeningBalance,
		balances: make(map[identity.Principal]types.Amount),
		applied:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// FailNext queues a failure reason for the next transfer only.
func (l *Ledger) FailNext(reason string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.failNext = append(l.failNext, reason)
}

// DoTransfer moves req.Amount from req.From to req.To. A reference is
// accepted at most once, whether or not the transfer succeeded.
func (l *Ledger) DoTransfer(ctx context.Context, req settlement.TransferRequest) error {
	if req.Reference.IsNil() {
		return ErrInvalidReference
	}

	if l.latency > 0 {
		timer := time.NewTimer(l.latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ref := req.Reference.String()
	if _, dup := l.applied[ref]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateReference, ref)
	}
	l.applied[ref] = struct{}{}

	if len(l.failNext) > 0 {
		reason := l.failNext[0]
		l.failNext = l.failNext[1:]
		return errors.New(reason)
	}
	if l.failure != "" {
		return errors.New(l.failure)
	}

	fromBal, err := l.balanceLocked(req.From).Sub(req.Amount)
	if err != nil {
		return ErrInsufficientFunds
	}
	if req.From == req.To {
		l.transfers = append(l.transfers, req)
		return nil
	}
	toBal, err := l.balanceLocked(req.To).Add(req.Amount)
	if err != nil {
		return err
	}

	l.balances[req.From] = fromBal
	l.balances[req.To] = toBal
	l.transfers = append(l.transfers, req)
	return nil
}

// GetBalance returns the balance of account.
func (l *Ledger) GetBalance(_ context.Context, _, account identity.Principal) (types.Amount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balanceLocked(account), nil
}

// Transfers returns the transfers applied so far, oldest first.
func (l *Ledger) Transfers() []settlement.TransferRequest {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]settlement.TransferRequest(nil), l.transfers...)
}

func (l *Ledger) balanceLocked(account identity.Principal) types.Amount {
	bal, ok := l.balances[account]
	if !ok {
		bal = l.opening
		l.balances[account] = bal
	}
	return bal
}
