// Package plugin provides an extensible plugin system for Carbonlock.
// Plugins can hook into contract, credit and settlement lifecycle events to
// extend functionality. Hook errors are logged and never fail the operation
// that triggered them.
package plugin

import (
	"context"
	"time"

	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/settlement"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the engine starts.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the engine stops.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Contract lifecycle hooks
// ──────────────────────────────────────────────────

// OnContractCreated is called when a new contract is created.
type OnContractCreated interface {
	Plugin
	OnContractCreated(ctx context.Context, c *contract.Contract) error
}

// OnContractPurchased is called when a contract is bought.
type OnContractPurchased interface {
	Plugin
	OnContractPurchased(ctx context.Context, c *contract.Contract) error
}

// OnContractExpired is called when a contract expires.
type OnContractExpired interface {
	Plugin
	OnContractExpired(ctx context.Context, c *contract.Contract) error
}

// OnContractSettled is called when a contract is paid for.
type OnContractSettled interface {
	Plugin
	OnContractSettled(ctx context.Context, c *contract.Contract, tx *settlement.Transaction) error
}

// OnExpirySweep is called after each scheduled expiry run.
type OnExpirySweep interface {
	Plugin
	OnExpirySweep(ctx context.Context, expired int, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Credit hooks
// ──────────────────────────────────────────────────

// OnCreditCreated is called when a new credit is registered.
type OnCreditCreated interface {
	Plugin
	OnCreditCreated(ctx context.Context, c *credit.Credit) error
}

// OnRiskScoreUpdated is called after a credit receives a new risk score.
// previous is nil when the credit had no score.
type OnRiskScoreUpdated interface {
	Plugin
	OnRiskScoreUpdated(ctx context.Context, c *credit.Credit, previous *uint8) error
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnTransferSubmitted is called once a pending transaction is recorded,
// before the settlement network is called.
type OnTransferSubmitted interface {
	Plugin
	OnTransferSubmitted(ctx context.Context, tx *settlement.Transaction) error
}

// OnTransferConfirmed is called when the settlement network accepts a transfer.
type OnTransferConfirmed interface {
	Plugin
	OnTransferConfirmed(ctx context.Context, tx *settlement.Transaction, elapsed time.Duration) error
}

// OnTransferFailed is called when a transfer ends in failure.
type OnTransferFailed interface {
	Plugin
	OnTransferFailed(ctx context.Context, tx *settlement.Transaction, elapsed time.Duration) error
}

// ──────────────────────────────────────────────────
// Event log hooks
// ──────────────────────────────────────────────────

// OnEventAppended is called for every event written to the log.
type OnEventAppended interface {
	Plugin
	OnEventAppended(ctx context.Context, e *event.Event) error
}
