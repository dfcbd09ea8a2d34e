package store

import (
	"context"

	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/settlement"
)

// Store is the unified storage interface for all Carbonlock entities.
// Instead of embedding the sub-interfaces, we explicitly declare all methods
// to avoid naming conflicts.
type Store interface {
	// Contract methods
	CreateContract(ctx context.Context, c *contract.Contract) error
	GetContract(ctx context.Context, contractID uint64) (*contract.Contract, error)
	ListContracts(ctx context.Context, opts contract.ListOpts) ([]*contract.Contract, error)
	UpdateContract(ctx context.Context, c *contract.Contract) error
	DeleteContract(ctx context.Context, contractID uint64) error

	// Credit methods
	CreateCredit(ctx context.Context, c *credit.Credit) error
	GetCredit(ctx context.Context, creditID uint64) (*credit.Credit, error)
	ListCredits(ctx context.Context, opts credit.ListOpts) ([]*credit.Credit, error)
	UpdateCredit(ctx context.Context, c *credit.Credit) error

	// Transaction methods
	CreateTransaction(ctx context.Context, t *settlement.Transaction) error
	GetTransaction(ctx context.Context, txID uint64) (*settlement.Transaction, error)
	ListTransactions(ctx context.Context, opts settlement.ListOpts) ([]*settlement.Transaction, error)
	ResolveTransaction(ctx context.Context, t *settlement.Transaction) error

	// Event methods
	AppendEvent(ctx context.Context, e *event.Event, capacity int) error
	ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error)

	// HighWater returns the highest identifier persisted per class so an
	// engine restarted on this store never reissues one.
	HighWater(ctx context.Context) (id.Watermarks, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}

// ContractStore adapts the contract methods of s to contract.Store.
func ContractStore(s Store) contract.Store { return contractStore{s} }

// CreditStore adapts the credit methods of s to credit.Store.
func CreditStore(s Store) credit.Store { return creditStore{s} }

// TransactionStore adapts the transaction methods of s to settlement.Store.
func TransactionStore(s Store) settlement.Store { return transactionStore{s} }

// EventStore adapts the event methods of s to event.Store.
func EventStore(s Store) event.Store { return eventStore{s} }

type contractStore struct{ s Store }

func (a contractStore) Create(ctx context.Context, c *contract.Contract) error {
	return a.s.CreateContract(ctx, c)
}

func (a contractStore) Get(ctx context.Context, contractID uint64) (*contract.Contract, error) {
	return a.s.GetContract(ctx, contractID)
}

func (a contractStore) List(ctx context.Context, opts contract.ListOpts) ([]*contract.Contract, error) {
	return a.s.ListContracts(ctx, opts)
}

func (a contractStore) Update(ctx context.Context, c *contract.Contract) error {
	return a.s.UpdateContract(ctx, c)
}

func (a contractStore) Delete(ctx context.Context, contractID uint64) error {
	return a.s.DeleteContract(ctx, contractID)
}

type creditStore struct{ s Store }

func (a creditStore) Create(ctx context.Context, c *credit.Credit) error {
	return a.s.CreateCredit(ctx, c)
}

func (a creditStore) Get(ctx context.Context, creditID uint64) (*credit.Credit, error) {
	return a.s.GetCredit(ctx, creditID)
}

func (a creditStore) List(ctx context.Context, opts credit.ListOpts) ([]*credit.Credit, error) {
	return a.s.ListCredits(ctx, opts)
}

func (a creditStore) Update(ctx context.Context, c *credit.Credit) error {
	return a.s.UpdateCredit(ctx, c)
}

type transactionStore struct{ s Store }

func (a transactionStore) Create(ctx context.Context, t *settlement.Transaction) error {
	return a.s.CreateTransaction(ctx, t)
}

func (a transactionStore) Get(ctx context.Context, txID uint64) (*settlement.Transaction, error) {
	return a.s.GetTransaction(ctx, txID)
}

func (a transactionStore) List(ctx context.Context, opts settlement.ListOpts) ([]*settlement.Transaction, error) {
	return a.s.ListTransactions(ctx, opts)
}

func (a transactionStore) Resolve(ctx context.Context, t *settlement.Transaction) error {
	return a.s.ResolveTransaction(ctx, t)
}

type eventStore struct{ s Store }

func (a eventStore) Append(ctx context.Context, e *event.Event, capacity int) error {
	return a.s.AppendEvent(ctx, e, capacity)
}

func (a eventStore) List(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	return a.s.ListEvents(ctx, opts)
}
