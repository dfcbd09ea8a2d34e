package carbonlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/settlement"
	"github.com/xraph/carbonlock/types"
)

// reasonTimeout is recorded when the settlement network does not answer
// within the settlement timeout.
const reasonTimeout = "settlement timed out"

// ──────────────────────────────────────────────────
// Settlement ledger
// ──────────────────────────────────────────────────

// ConfigureSettlement records the endpoint identity of the settlement
// network. It can be called again to point at a different endpoint.
func (e *Engine) ConfigureSettlement(_ context.Context, endpoint identity.Principal) error {
	if endpoint.IsZero() {
		return ValidationError{Field: "endpoint", Message: "required"}
	}

	e.settleMu.Lock()
	prev := e.endpoint
	e.endpoint = endpoint
	e.settleMu.Unlock()

	e.logger.Info("settlement configured",
		"endpoint", endpoint,
		"previous", prev,
	)
	return nil
}

// SettlementEndpoint returns the configured endpoint and whether one is set.
func (e *Engine) SettlementEndpoint() (identity.Principal, bool) {
	e.settleMu.RLock()
	defer e.settleMu.RUnlock()
	return e.endpoint, !e.endpoint.IsZero()
}

func (e *Engine) settlementTarget() (settlement.Collaborator, identity.Principal, error) {
	e.settleMu.RLock()
	defer e.settleMu.RUnlock()
	if e.collaborator == nil || e.endpoint.IsZero() {
		return nil, "", ErrNotConfigured
	}
	return e.collaborator, e.endpoint, nil
}

// Transfer moves amount from one account to another on the settlement
// network and returns the id of the recorded transaction.
//
// The transaction is stored pending before the network is called and the
// network is called exactly once. Its outcome is stored even when ctx is
// cancelled meanwhile. A failed transfer returns a *SettlementError.
func (e *Engine) Transfer(ctx context.Context, from, to identity.Principal, amount types.Amount) (uint64, error) {
	collab, endpoint, err := e.settlementTarget()
	if err != nil {
		return 0, err
	}
	if from.IsZero() {
		return 0, ValidationError{Field: "from", Message: "required"}
	}
	if to.IsZero() {
		return 0, ValidationError{Field: "to", Message: "required"}
	}

	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("carbonlock: wait for settlement slot: %w", err)
		}
	}

	e.mu.Lock()
	tx := &settlement.Transaction{
		TxID:      e.issuer.Next(id.ClassTransaction),
		Reference: id.NewSettlementRef(),
		From:      from,
		To:        to,
		Amount:    amount,
		Status:    settlement.StatusPending,
		Timestamp: e.clock.Now(),
	}
	err = e.transactions.Create(ctx, tx)
	e.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("carbonlock: record transaction: %w", err)
	}

	e.logger.Debug("transfer submitted",
		"tx_id", tx.TxID,
		"reference", tx.Reference,
		"from", from,
		"to", to,
		"amount", amount,
	)
	e.plugins.EmitTransferSubmitted(ctx, tx)

	start := time.Now()
	reason := e.callTransfer(ctx, collab, settlement.TransferRequest{
		Endpoint:  endpoint,
		Reference: tx.Reference,
		From:      from,
		To:        to,
		Amount:    amount,
	})
	elapsed := time.Since(start)

	// The network has answered; its outcome must be recorded regardless of
	// the caller.
	ctx = context.WithoutCancel(ctx)

	e.mu.Lock()
	tx.Resolve(reason, e.clock.Now())
	err = e.transactions.Resolve(ctx, tx)
	e.mu.Unlock()
	if err != nil {
		e.logger.Error("failed to record transfer outcome",
			"tx_id", tx.TxID,
			"status", tx.Status,
			"error", err,
		)
		return tx.TxID, fmt.Errorf("carbonlock: resolve transaction %d: %w", tx.TxID, err)
	}

	if tx.Status == settlement.StatusFailed {
		e.logger.Warn("transfer failed",
			"tx_id", tx.TxID,
			"reason", tx.FailureReason,
			"elapsed", elapsed,
		)
		e.plugins.EmitTransferFailed(ctx, tx, elapsed)
		return tx.TxID, &SettlementError{TxID: tx.TxID, Reason: tx.FailureReason}
	}

	e.logger.Info("transfer confirmed",
		"tx_id", tx.TxID,
		"amount", amount,
		"elapsed", elapsed,
	)
	e.plugins.EmitTransferConfirmed(ctx, tx, elapsed)
	return tx.TxID, nil
}

// callTransfer performs the network call and returns the failure reason,
// or "" on success.
func (e *Engine) callTransfer(ctx context.Context, collab settlement.Collaborator, req settlement.TransferRequest) string {
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.settlementTimeout)
	defer cancel()

	err := collab.DoTransfer(callCtx, req)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(callCtx.Err(), context.DeadlineExceeded):
		return reasonTimeout
	default:
		if msg := err.Error(); msg != "" {
			return msg
		}
		return "transfer rejected"
	}
}

// GetTransaction returns a copy of the transaction.
func (e *Engine) GetTransaction(ctx context.Context, txID uint64) (*settlement.Transaction, error) {
	return e.transactions.Get(ctx, txID)
}

// ListTransactions returns copies of the matching transactions.
func (e *Engine) ListTransactions(ctx context.Context, opts settlement.ListOpts) ([]*settlement.Transaction, error) {
	return e.transactions.List(ctx, opts)
}

// QueryBalance returns the balance of account on the settlement network.
func (e *Engine) QueryBalance(ctx context.Context, account identity.Principal) (types.Amount, error) {
	collab, endpoint, err := e.settlementTarget()
	if err != nil {
		return 0, err
	}
	if account.IsZero() {
		return 0, ValidationError{Field: "account", Message: "required"}
	}

	callCtx, cancel := context.WithTimeout(ctx, e.settlementTimeout)
	defer cancel()

	bal, err := collab.GetBalance(callCtx, endpoint, account)
	if err != nil {
		return 0, fmt.Errorf("carbonlock: query balance: %w", err)
	}
	return bal, nil
}
