package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/settlement"
	"github.com/xraph/carbonlock/store"
)

// Compile-time interface check.
var _ store.Store = (*Store)(nil)

// Store keeps every entity in process memory. State is lost when the
// process exits. Values are copied on the way in and out, so callers never
// share memory with the store.
type Store struct {
	mu sync.RWMutex

	// Contract storage
	contracts map[uint64]*contract.Contract

	// Credit storage
	credits map[uint64]*credit.Credit

	// Transaction storage
	transactions map[uint64]*settlement.Transaction

	// Event log
	events   *event.Ring
	eventSeq uint64

	closed bool
}

// New creates an empty memory store.
func New() *Store {
	return &Store{
		contracts:    make(map[uint64]*contract.Contract),
		credits:      make(map[uint64]*credit.Credit),
		transactions: make(map[uint64]*settlement.Transaction),
		events:       event.NewRing(event.DefaultCapacity),
	}
}

// Contract Store implementation
func (s *Store) CreateContract(_ context.Context, c *contract.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return carbonlock.ErrStoreClosed
	}
	if _, exists := s.contracts[c.ID]; exists {
		return carbonlock.ErrAlreadyExists
	}
	s.contracts[c.ID] = c.Clone()
	return nil
}

func (s *Store) GetContract(_ context.Context, contractID uint64) (*contract.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.contracts[contractID]; ok {
		return c.Clone(), nil
	}
	return nil, carbonlock.ErrContractNotFound
}

func (s *Store) ListContracts(_ context.Context, opts contract.ListOpts) ([]*contract.Contract, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*contract.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		if opts.Status != "" && c.Status != opts.Status {
			continue
		}
		if opts.Seller != "" && c.Seller != opts.Seller {
			continue
		}
		result = append(result, c.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateContract(_ context.Context, c *contract.Contract) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return carbonlock.ErrStoreClosed
	}
	if _, exists := s.contracts[c.ID]; !exists {
		return carbonlock.ErrContractNotFound
	}
	s.contracts[c.ID] = c.Clone()
	return nil
}

func (s *Store) DeleteContract(_ context.Context, contractID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return carbonlock.ErrStoreClosed
	}
	if _, exists := s.contracts[contractID]; !exists {
		return carbonlock.ErrContractNotFound
	}
	delete(s.contracts, contractID)
	return nil
}

// Credit Store implementation
func (s *Store) CreateCredit(_ context.Context, c *credit.Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return carbonlock.ErrStoreClosed
	}
	if _, exists := s.credits[c.ID]; exists {
		return carbonlock.ErrAlreadyExists
	}
	s.credits[c.ID] = c.Clone()
	return nil
}

func (s *Store) GetCredit(_ context.Context, creditID uint64) (*credit.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if c, ok := s.credits[creditID]; ok {
		return c.Clone(), nil
	}
	return nil, carbonlock.ErrCreditNotFound
}

func (s *Store) ListCredits(_ context.Context, opts credit.ListOpts) ([]*credit.Credit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*credit.Credit, 0, len(s.credits))
	for _, c := range s.credits {
		if opts.Owner != "" && c.Owner != opts.Owner {
			continue
		}
		result = append(result, c.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) UpdateCredit(_ context.Context, c *credit.Credit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return carbonlock.ErrStoreClosed
	}
	if _, exists := s.credits[c.ID]; !exists {
		return carbonlock.ErrCreditNotFound
	}
	s.credits[c.ID] = c.Clone()
	return nil
}

// Transaction Store implementation
func (s *Store) CreateTransaction(_ context.Context, t *settlement.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return carbonlock.ErrStoreClosed
	}
	if _, exists := s.transactions[t.TxID]; exists {
		return carbonlock.ErrAlreadyExists
	}
	s.transactions[t.TxID] = t.Clone()
	return nil
}

func (s *Store) GetTransaction(_ context.Context, txID uint64) (*settlement.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if t, ok := s.transactions[txID]; ok {
		return t.Clone(), nil
	}
	return nil, carbonlock.ErrTransactionNotFound
}

func (s *Store) ListTransactions(_ context.Context, opts settlement.ListOpts) ([]*settlement.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*settlement.Transaction, 0, len(s.transactions))
	for _, t := range s.transactions {
		if opts.Status != "" && t.Status != opts.Status {
			continue
		}
		if opts.Account != "" && t.From != opts.Account && t.To != opts.Account {
			continue
		}
		result = append(result, t.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].TxID < result[j].TxID })

	return paginate(result, opts.Offset, opts.Limit), nil
}

func (s *Store) ResolveTransaction(_ context.Context, t *settlement.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return carbonlock.ErrStoreClosed
	}
	cur, ok := s.transactions[t.TxID]
	if !ok {
		return carbonlock.ErrTransactionNotFound
	}
	if cur.Status != settlement.StatusPending {
		return fmt.Errorf("%w: tx %d is %s", carbonlock.ErrTransactionResolved, t.TxID, cur.Status)
	}
	if !t.Status.IsTerminal() {
		return fmt.Errorf("%w: tx %d resolved to %s", carbonlock.ErrInvalidInput, t.TxID, t.Status)
	}
	s.transactions[t.TxID] = t.Clone()
	return nil
}

// Event Store implementation
func (s *Store) AppendEvent(_ context.Context, e *event.Event, capacity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return carbonlock.ErrStoreClosed
	}
	if capacity > 0 && capacity != s.events.Cap() {
		s.events = resize(s.events, capacity)
	}
	s.events.Append(*e)
	if e.Seq > s.eventSeq {
		s.eventSeq = e.Seq
	}
	return nil
}

func (s *Store) ListEvents(_ context.Context, opts event.ListOpts) ([]*event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.events.List()
	result := make([]*event.Event, 0, len(all))
	for i := range all {
		e := all[i]
		if opts.Type != "" && e.Type != opts.Type {
			continue
		}
		if opts.ContractID != 0 && e.ContractID != opts.ContractID {
			continue
		}
		result = append(result, &e)
	}

	return paginate(result, opts.Offset, opts.Limit), nil
}

// HighWater reports the largest identifier stored per class.
func (s *Store) HighWater(_ context.Context) (id.Watermarks, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w := id.Watermarks{id.ClassEvent: s.eventSeq}
	for k := range s.contracts {
		w[id.ClassContract] = max(w[id.ClassContract], k)
	}
	for k := range s.credits {
		w[id.ClassCredit] = max(w[id.ClassCredit], k)
	}
	for k := range s.transactions {
		w[id.ClassTransaction] = max(w[id.ClassTransaction], k)
	}
	return w, nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return carbonlock.ErrStoreClosed
	}
	return nil
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true
	return nil
}

// Helper functions
func paginate[T any](items []T, offset, limit int) []T {
	start := offset
	if start < 0 {
		start = 0
	}
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if limit <= 0 || end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// resize copies the newest events of r into a ring of the given capacity.
func resize(r *event.Ring, capacity int) *event.Ring {
	next := event.NewRing(capacity)
	for _, e := range r.List() {
		next.Append(e)
	}
	return next
}
