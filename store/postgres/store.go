package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/settlement"
	clstore "github.com/xraph/carbonlock/store"
)

// compile-time interface check
var _ clstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("carbonlock/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("carbonlock/postgres: migration failed: %w", err)
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
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetContract(ctx context.Context, contractID uint64) (*contract.Contract, error) {
	m := new(contractModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(contractID)). //nolint:gosec // out-of-range ids simply miss
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carbonlock.ErrContractNotFound
		}
		return nil, err
	}
	return fromContractModel(m), nil
}

func (s *Store) ListContracts(ctx context.Context, opts contract.ListOpts) ([]*contract.Contract, error) {
	var models []contractModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if opts.Seller != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("seller = $%d", argIdx), opts.Seller.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return carbonlock.ErrContractNotFound
	}
	return nil
}

func (s *Store) DeleteContract(ctx context.Context, contractID uint64) error {
	res, err := s.pg.NewDelete((*contractModel)(nil)).
		Where("id = $1", int64(contractID)). //nolint:gosec // out-of-range ids simply miss
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
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
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetCredit(ctx context.Context, creditID uint64) (*credit.Credit, error) {
	m := new(creditModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", int64(creditID)). //nolint:gosec // out-of-range ids simply miss
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carbonlock.ErrCreditNotFound
		}
		return nil, err
	}
	return fromCreditModel(m)
}

func (s *Store) ListCredits(ctx context.Context, opts credit.ListOpts) ([]*credit.Credit, error) {
	var models []creditModel
	q := s.pg.NewSelect(&models)

	if opts.Owner != "" {
		q = q.Where("owner = $1", opts.Owner.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}

	result := make([]*credit.Credit, len(models))
	for i := range models {
		c, err := fromCreditModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = c
	}
	return result, nil
}

func (s *Store) UpdateCredit(ctx context.Context, c *credit.Credit) error {
	m, err := toCreditModel(c)
	if err != nil {
		return err
	}
	res, err := s.pg.NewUpdate(m).WherePK().Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
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
	_, err = s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) GetTransaction(ctx context.Context, txID uint64) (*settlement.Transaction, error) {
	m := new(transactionModel)
	err := s.pg.NewSelect(m).
		Where("tx_id = $1", int64(txID)). //nolint:gosec // out-of-range ids simply miss
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, carbonlock.ErrTransactionNotFound
		}
		return nil, err
	}
	return fromTransactionModel(m)
}

func (s *Store) ListTransactions(ctx context.Context, opts settlement.ListOpts) ([]*settlement.Transaction, error) {
	var models []transactionModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Status != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("status = $%d", argIdx), string(opts.Status))
	}
	if opts.Account != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("(from_account = $%d OR to_account = $%d)", argIdx, argIdx), opts.Account.String())
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("tx_id ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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

// ResolveTransaction writes the outcome only while the row is still pending.
func (s *Store) ResolveTransaction(ctx context.Context, t *settlement.Transaction) error {
	if !t.Status.IsTerminal() {
		return fmt.Errorf("%w: tx %d resolved to %s", carbonlock.ErrInvalidInput, t.TxID, t.Status)
	}
	res, err := s.pg.NewUpdate((*transactionModel)(nil)).
		Set("status = $1", string(t.Status)).
		Set("failure_reason = $2", t.FailureReason).
		Set("resolved_at = $3", t.ResolvedAt).
		Where("tx_id = $4", int64(t.TxID)). //nolint:gosec // out-of-range ids simply miss
		Where("status = $5", string(settlement.StatusPending)).
		Exec(ctx)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
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
	if _, err := s.pg.NewInsert(m).Exec(ctx); err != nil {
		return err
	}
	if capacity <= 0 {
		return nil
	}

	// Keep the newest capacity rows by seq; seq may have gaps.
	var boundary []eventModel
	err = s.pg.NewSelect(&boundary).
		OrderExpr("seq DESC").
		Offset(capacity).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return fmt.Errorf("carbonlock/postgres: prune events: %w", err)
	}
	if len(boundary) == 0 {
		return nil
	}
	_, err = s.pg.NewDelete((*eventModel)(nil)).
		Where("seq <= $1", boundary[0].Seq).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("carbonlock/postgres: prune events: %w", err)
	}
	return nil
}

func (s *Store) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	var models []eventModel
	q := s.pg.NewSelect(&models)

	argIdx := 0
	if opts.Type != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("type = $%d", argIdx), string(opts.Type))
	}
	if opts.ContractID != 0 {
		argIdx++
		q = q.Where(fmt.Sprintf("contract_id = $%d", argIdx), int64(opts.ContractID)) //nolint:gosec // bounded by the contracts table
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("seq ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	queries := map[id.Class]string{
		id.ClassContract:    `SELECT COALESCE(MAX(id), 0) FROM carbonlock_contracts`,
		id.ClassCredit:      `SELECT COALESCE(MAX(id), 0) FROM carbonlock_credits`,
		id.ClassTransaction: `SELECT COALESCE(MAX(tx_id), 0) FROM carbonlock_transactions`,
		id.ClassEvent:       `SELECT COALESCE(MAX(seq), 0) FROM carbonlock_events`,
	}

	w := make(id.Watermarks, len(queries))
	for class, query := range queries {
		var high int64
		if err := s.pg.NewRaw(query).Scan(ctx, &high); err != nil {
			return nil, fmt.Errorf("carbonlock/postgres: high water of %s: %w", class, err)
		}
		w[class] = uint64(high) //nolint:gosec // ids are stored non-negative
	}
	return w, nil
}

// ==================== Helpers ====================

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
