package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/settlement"
	clstore "github.com/xraph/carbonlock/store"
)

// Collection name constants.
const (
	colContracts    = "carbonlock_contracts"
	colCredits      = "carbonlock_credits"
	colTransactions = "carbonlock_transactions"
	colEvents       = "carbonlock_events"
)

// compile-time interface check
var _ clstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all carbonlock collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("carbonlock/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Contract Store ====================

func (s *Store) CreateContract(ctx context.Context, c *contract.Contract) error {
	m, err := toContractModel(c)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carbonlock.ErrAlreadyExists
		}
		return fmt.Errorf("carbonlock/mongo: create contract: %w", err)
	}
	return nil
}

func (s *Store) GetContract(ctx context.Context, contractID uint64) (*contract.Contract, error) {
	var m contractModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(contractID)}). //nolint:gosec // out-of-range ids simply miss
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carbonlock.ErrContractNotFound
		}
		return nil, fmt.Errorf("carbonlock/mongo: get contract: %w", err)
	}
	return fromContractModel(&m), nil
}

func (s *Store) ListContracts(ctx context.Context, opts contract.ListOpts) ([]*contract.Contract, error) {
	var models []contractModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.Seller != "" {
		filter["seller"] = opts.Seller.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("carbonlock/mongo: list contracts: %w", err)
	}

	result := make([]*contract.Contract, len(models))
	for i := range models {
		result[i] = fromContractModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdateContract(ctx context.Context, c *contract.Contract) error {
	m, err := toContractModel(c)
	if err != nil {
		return err
	}
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("carbonlock/mongo: update contract: %w", err)
	}
	if res.MatchedCount() == 0 {
		return carbonlock.ErrContractNotFound
	}
	return nil
}

func (s *Store) DeleteContract(ctx context.Context, contractID uint64) error {
	res, err := s.mdb.NewDelete((*contractModel)(nil)).
		Filter(bson.M{"_id": int64(contractID)}). //nolint:gosec // out-of-range ids simply miss
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("carbonlock/mongo: delete contract: %w", err)
	}
	if res.DeletedCount() == 0 {
		return carbonlock.ErrContractNotFound
	}
	return nil
}

// ==================== Credit Store ====================

func (s *Store) CreateCredit(ctx context.Context, c *credit.Credit) error {
	m, err := toCreditModel(c)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carbonlock.ErrAlreadyExists
		}
		return fmt.Errorf("carbonlock/mongo: create credit: %w", err)
	}
	return nil
}

func (s *Store) GetCredit(ctx context.Context, creditID uint64) (*credit.Credit, error) {
	var m creditModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(creditID)}). //nolint:gosec // out-of-range ids simply miss
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carbonlock.ErrCreditNotFound
		}
		return nil, fmt.Errorf("carbonlock/mongo: get credit: %w", err)
	}
	return fromCreditModel(&m), nil
}

func (s *Store) ListCredits(ctx context.Context, opts credit.ListOpts) ([]*credit.Credit, error) {
	var models []creditModel

	filter := bson.M{}
	if opts.Owner != "" {
		filter["owner"] = opts.Owner.String()
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("carbonlock/mongo: list credits: %w", err)
	}

	result := make([]*credit.Credit, len(models))
	for i := range models {
		result[i] = fromCreditModel(&models[i])
	}
	return result, nil
}

func (s *Store) UpdateCredit(ctx context.Context, c *credit.Credit) error {
	m, err := toCreditModel(c)
	if err != nil {
		return err
	}
	res, err := s.mdb.NewUpdate(m).
		Filter(bson.M{"_id": m.ID}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("carbonlock/mongo: update credit: %w", err)
	}
	if res.MatchedCount() == 0 {
		return carbonlock.ErrCreditNotFound
	}
	return nil
}

// ==================== Transaction Store ====================

func (s *Store) CreateTransaction(ctx context.Context, t *settlement.Transaction) error {
	m, err := toTransactionModel(t)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return carbonlock.ErrAlreadyExists
		}
		return fmt.Errorf("carbonlock/mongo: create transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, txID uint64) (*settlement.Transaction, error) {
	var m transactionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": int64(txID)}). //nolint:gosec // out-of-range ids simply miss
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, carbonlock.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("carbonlock/mongo: get transaction: %w", err)
	}
	return fromTransactionModel(&m)
}

func (s *Store) ListTransactions(ctx context.Context, opts settlement.ListOpts) ([]*settlement.Transaction, error) {
	var models []transactionModel

	filter := bson.M{}
	if opts.Status != "" {
		filter["status"] = string(opts.Status)
	}
	if opts.Account != "" {
		filter["$or"] = bson.A{
			bson.M{"from_account": opts.Account.String()},
			bson.M{"to_account": opts.Account.String()},
		}
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("carbonlock/mongo: list transactions: %w", err)
	}

	result := make([]*settlement.Transaction, len(models))
	for i := range models {
		t, err := fromTransactionModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = t
	}
	return result, nil
}

// ResolveTransaction writes the outcome only while the document is still pending.
func (s *Store) ResolveTransaction(ctx context.Context, t *settlement.Transaction) error {
	if !t.Status.IsTerminal() {
		return fmt.Errorf("%w: tx %d resolved to %s", carbonlock.ErrInvalidInput, t.TxID, t.Status)
	}
	res, err := s.mdb.NewUpdate((*transactionModel)(nil)).
		Filter(bson.M{
			"_id":    int64(t.TxID), //nolint:gosec // out-of-range ids simply miss
			"status": string(settlement.StatusPending),
		}).
		Set("status", string(t.Status)).
		Set("failure_reason", t.FailureReason).
		Set("resolved_at", t.ResolvedAt).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("carbonlock/mongo: resolve transaction: %w", err)
	}
	if res.MatchedCount() == 0 {
		if _, err := s.GetTransaction(ctx, t.TxID); err != nil {
			return err
		}
		return fmt.Errorf("%w: tx %d", carbonlock.ErrTransactionResolved, t.TxID)
	}
	return nil
}

// ==================== Event Store ====================

// AppendEvent inserts e and prunes events that fell out of the window.
func (s *Store) AppendEvent(ctx context.Context, e *event.Event, capacity int) error {
	m, err := toEventModel(e)
	if err != nil {
		return err
	}
	if _, err := s.mdb.NewInsert(m).Exec(ctx); err != nil {
		return fmt.Errorf("carbonlock/mongo: append event: %w", err)
	}
	if capacity <= 0 {
		return nil
	}

	// Keep the newest capacity documents by seq; seq may have gaps.
	var boundary []eventModel
	err = s.mdb.NewFind(&boundary).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "_id", Value: -1}}).
		Skip(int64(capacity)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("carbonlock/mongo: prune events: %w", err)
	}
	if len(boundary) == 0 {
		return nil
	}
	_, err = s.mdb.NewDelete((*eventModel)(nil)).
		Filter(bson.M{"_id": bson.M{"$lte": boundary[0].Seq}}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("carbonlock/mongo: prune events: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel

	filter := bson.M{}
	if opts.Type != "" {
		filter["type"] = string(opts.Type)
	}
	if opts.ContractID != 0 {
		filter["contract_id"] = int64(opts.ContractID) //nolint:gosec // bounded by the contracts collection
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "_id", Value: 1}})

	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("carbonlock/mongo: list events: %w", err)
	}

	result := make([]*event.Event, len(models))
	for i := range models {
		e, err := fromEventModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = e
	}
	return result, nil
}

// ==================== Identity ====================

func (s *Store) HighWater(ctx context.Context) (id.Watermarks, error) {
	var (
		contracts    []contractModel
		credits      []creditModel
		transactions []transactionModel
		events       []eventModel
	)
	newest := bson.D{{Key: "_id", Value: -1}}

	w := make(id.Watermarks, 4)
	if err := s.mdb.NewFind(&contracts).Filter(bson.M{}).Sort(newest).Limit(1).Scan(ctx); err != nil {
		return nil, fmt.Errorf("carbonlock/mongo: high water of contracts: %w", err)
	}
	if len(contracts) > 0 {
		w[id.ClassContract] = uint64(contracts[0].ID)
	}
	if err := s.mdb.NewFind(&credits).Filter(bson.M{}).Sort(newest).Limit(1).Scan(ctx); err != nil {
		return nil, fmt.Errorf("carbonlock/mongo: high water of credits: %w", err)
	}
	if len(credits) > 0 {
		w[id.ClassCredit] = uint64(credits[0].ID)
	}
	if err := s.mdb.NewFind(&transactions).Filter(bson.M{}).Sort(newest).Limit(1).Scan(ctx); err != nil {
		return nil, fmt.Errorf("carbonlock/mongo: high water of transactions: %w", err)
	}
	if len(transactions) > 0 {
		w[id.ClassTransaction] = uint64(transactions[0].TxID)
	}
	if err := s.mdb.NewFind(&events).Filter(bson.M{}).Sort(newest).Limit(1).Scan(ctx); err != nil {
		return nil, fmt.Errorf("carbonlock/mongo: high water of events: %w", err)
	}
	if len(events) > 0 {
		w[id.ClassEvent] = uint64(events[0].Seq)
	}
	return w, nil
}

// ==================== Helpers ====================

// isNoDocuments checks if an error wraps mongo.ErrNoDocuments.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all carbonlock collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colContracts: {
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "seller", Value: 1}}},
		},
		colCredits: {
			{Keys: bson.D{{Key: "owner", Value: 1}}},
		},
		colTransactions: {
			{
				Keys:    bson.D{{Key: "reference", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "status", Value: 1}}},
			{Keys: bson.D{{Key: "from_account", Value: 1}}},
			{Keys: bson.D{{Key: "to_account", Value: 1}}},
		},
		colEvents: {
			{
				Keys:    bson.D{{Key: "event_id", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
			{Keys: bson.D{{Key: "contract_id", Value: 1}, {Key: "_id", Value: 1}}},
		},
	}
}
