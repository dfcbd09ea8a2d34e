// Package audithook bridges Carbonlock lifecycle events to an audit trail
// backend.
//
// It defines a local Recorder interface so the package does not depend on
// any audit backend. Callers inject a RecorderFunc adapter at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/plugin"
	"github.com/xraph/carbonlock/settlement"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin              = (*Extension)(nil)
	_ plugin.OnContractCreated   = (*Extension)(nil)
	_ plugin.OnContractPurchased = (*Extension)(nil)
	_ plugin.OnContractExpired   = (*Extension)(nil)
	_ plugin.OnContractSettled   = (*Extension)(nil)
	_ plugin.OnExpirySweep       = (*Extension)(nil)
	_ plugin.OnCreditCreated     = (*Extension)(nil)
	_ plugin.OnRiskScoreUpdated  = (*Extension)(nil)
	_ plugin.OnTransferSubmitted = (*Extension)(nil)
	_ plugin.OnTransferConfirmed = (*Extension)(nil)
	_ plugin.OnTransferFailed    = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a backend-neutral audit record.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Carbonlock lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Contract lifecycle hooks
// ──────────────────────────────────────────────────

// OnContractCreated implements plugin.OnContractCreated.
func (e *Extension) OnContractCreated(ctx context.Context, c *contract.Contract) error {
	return e.record(ctx, ActionContractCreated, SeverityInfo, OutcomeSuccess,
		ResourceContract, formatID(c.ID), CategoryTrading, "",
		"seller", c.Seller.String(),
		"amount_tonnes", c.AmountTonnes,
		"price_usd", c.PriceUSD,
		"delivery_year", c.DeliveryYear,
		"notional_usd", c.Notional().StringFixed(2),
	)
}

// OnContractPurchased implements plugin.OnContractPurchased.
func (e *Extension) OnContractPurchased(ctx context.Context, c *contract.Contract) error {
	var buyer string
	if c.Buyer != nil {
		buyer = c.Buyer.String()
	}
	return e.record(ctx, ActionContractPurchased, SeverityInfo, OutcomeSuccess,
		ResourceContract, formatID(c.ID), CategoryTrading, "",
		"buyer", buyer,
		"seller", c.Seller.String(),
	)
}

// OnContractExpired implements plugin.OnContractExpired.
func (e *Extension) OnContractExpired(ctx context.Context, c *contract.Contract) error {
	return e.record(ctx, ActionContractExpired, SeverityInfo, OutcomeSuccess,
		ResourceContract, formatID(c.ID), CategoryTrading, "",
		"delivery_year", c.DeliveryYear,
	)
}

// OnContractSettled implements plugin.OnContractSettled.
func (e *Extension) OnContractSettled(ctx context.Context, c *contract.Contract, tx *settlement.Transaction) error {
	return e.record(ctx, ActionContractSettled, SeverityInfo, OutcomeSuccess,
		ResourceContract, formatID(c.ID), CategorySettlement, "",
		"tx_id", tx.TxID,
		"amount", tx.Amount.String(),
	)
}

// OnExpirySweep implements plugin.OnExpirySweep. Sweeps that expired
// nothing are not audited.
func (e *Extension) OnExpirySweep(ctx context.Context, expired int, elapsed time.Duration) error {
	if expired == 0 {
		return nil
	}
	return e.record(ctx, ActionExpirySweep, SeverityInfo, OutcomeSuccess,
		ResourceContract, "", CategoryMaintenance, "",
		"expired", expired,
		"elapsed_ms", elapsed.Milliseconds(),
	)
}

// ──────────────────────────────────────────────────
// Credit hooks
// ──────────────────────────────────────────────────

// OnCreditCreated implements plugin.OnCreditCreated.
func (e *Extension) OnCreditCreated(ctx context.Context, c *credit.Credit) error {
	return e.record(ctx, ActionCreditCreated, SeverityInfo, OutcomeSuccess,
		ResourceCredit, formatID(c.ID), CategoryRisk, "",
		"owner", c.Owner.String(),
	)
}

// OnRiskScoreUpdated implements plugin.OnRiskScoreUpdated.
func (e *Extension) OnRiskScoreUpdated(ctx context.Context, c *credit.Credit, previous *uint8) error {
	kv := []any{"history_len", len(c.RiskScoreHistory)}
	if c.RiskScore != nil {
		kv = append(kv, "score", *c.RiskScore)
	}
	if previous != nil {
		kv = append(kv, "previous", *previous)
	}
	return e.record(ctx, ActionRiskScoreUpdated, SeverityInfo, OutcomeSuccess,
		ResourceCredit, formatID(c.ID), CategoryRisk, "", kv...)
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnTransferSubmitted implements plugin.OnTransferSubmitted.
func (e *Extension) OnTransferSubmitted(ctx context.Context, tx *settlement.Transaction) error {
	return e.record(ctx, ActionTransferSubmitted, SeverityInfo, OutcomePending,
		ResourceTransaction, formatID(tx.TxID), CategorySettlement, "",
		transferMeta(tx)...,
	)
}

// OnTransferConfirmed implements plugin.OnTransferConfirmed.
func (e *Extension) OnTransferConfirmed(ctx context.Context, tx *settlement.Transaction, elapsed time.Duration) error {
	return e.record(ctx, ActionTransferConfirmed, SeverityInfo, OutcomeSuccess,
		ResourceTransaction, formatID(tx.TxID), CategorySettlement, "",
		append(transferMeta(tx), "elapsed_ms", elapsed.Milliseconds())...,
	)
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (e *Extension) OnTransferFailed(ctx context.Context, tx *settlement.Transaction, elapsed time.Duration) error {
	return e.record(ctx, ActionTransferFailed, SeverityCritical, OutcomeFailure,
		ResourceTransaction, formatID(tx.TxID), CategorySettlement, tx.FailureReason,
		append(transferMeta(tx), "elapsed_ms", elapsed.Milliseconds())...,
	)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

func formatID(v uint64) string { return strconv.FormatUint(v, 10) }

func transferMeta(tx *settlement.Transaction) []any {
	return []any{
		"reference", tx.Reference.String(),
		"from", tx.From.String(),
		"to", tx.To.String(),
		"amount", tx.Amount.String(),
	}
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	reason string,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
