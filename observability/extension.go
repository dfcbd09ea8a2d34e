// Package observability provides a metrics extension for Carbonlock that
// records lifecycle event counts through a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/plugin"
	"github.com/xraph/carbonlock/settlement"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin              = (*MetricsExtension)(nil)
	_ plugin.OnContractCreated   = (*MetricsExtension)(nil)
	_ plugin.OnContractPurchased = (*MetricsExtension)(nil)
	_ plugin.OnContractExpired   = (*MetricsExtension)(nil)
	_ plugin.OnContractSettled   = (*MetricsExtension)(nil)
	_ plugin.OnExpirySweep       = (*MetricsExtension)(nil)
	_ plugin.OnCreditCreated     = (*MetricsExtension)(nil)
	_ plugin.OnRiskScoreUpdated  = (*MetricsExtension)(nil)
	_ plugin.OnTransferSubmitted = (*MetricsExtension)(nil)
	_ plugin.OnTransferConfirmed = (*MetricsExtension)(nil)
	_ plugin.OnTransferFailed    = (*MetricsExtension)(nil)
	_ plugin.OnEventAppended     = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records marketplace lifecycle metrics.
// Register it as a Carbonlock plugin to track them automatically.
type MetricsExtension struct {
	// Contract metrics
	ContractCreated   Counter
	ContractPurchased Counter
	ContractExpired   Counter
	ContractSettled   Counter
	ContractTonnes    Histogram
	ContractNotional  Histogram

	// Expiry sweep metrics
	ExpirySweeps       Counter
	ExpirySweepLatency Histogram

	// Credit metrics
	CreditCreated    Counter
	RiskScoreUpdates Counter
	RiskScore        Histogram

	// Settlement metrics
	TransferSubmitted Counter
	TransferConfirmed Counter
	TransferFailed    Counter
	TransferLatency   Histogram
	TransferAmount    Histogram

	// Event log metrics
	EventsAppended Counter
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions, or NewPrometheusFactory standalone.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		// Contract metrics
		ContractCreated:   factory.Counter("carbonlock.contract.created"),
		ContractPurchased: factory.Counter("carbonlock.contract.purchased"),
		ContractExpired:   factory.Counter("carbonlock.contract.expired"),
		ContractSettled:   factory.Counter("carbonlock.contract.settled"),
		ContractTonnes:    factory.Histogram("carbonlock.contract.amount_tonnes"),
		ContractNotional:  factory.Histogram("carbonlock.contract.notional_usd"),

		// Expiry sweep metrics
		ExpirySweeps:       factory.Counter("carbonlock.expiry.sweeps"),
		ExpirySweepLatency: factory.Histogram("carbonlock.expiry.sweep.latency_ms"),

		// Credit metrics
		CreditCreated:    factory.Counter("carbonlock.credit.created"),
		RiskScoreUpdates: factory.Counter("carbonlock.credit.risk_score.updates"),
		RiskScore:        factory.Histogram("carbonlock.credit.risk_score"),

		// Settlement metrics
		TransferSubmitted: factory.Counter("carbonlock.transfer.submitted"),
		TransferConfirmed: factory.Counter("carbonlock.transfer.confirmed"),
		TransferFailed:    factory.Counter("carbonlock.transfer.failed"),
		TransferLatency:   factory.Histogram("carbonlock.transfer.latency_ms"),
		TransferAmount:    factory.Histogram("carbonlock.transfer.amount"),

		// Event log metrics
		EventsAppended: factory.Counter("carbonlock.events.appended"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// ──────────────────────────────────────────────────
// Contract lifecycle hooks
// ──────────────────────────────────────────────────

// OnContractCreated implements plugin.OnContractCreated.
func (m *MetricsExtension) OnContractCreated(_ context.Context, c *contract.Contract) error {
	m.ContractCreated.Inc()
	m.ContractTonnes.Observe(float64(c.AmountTonnes))
	notional, _ := c.Notional().Float64()
	m.ContractNotional.Observe(notional)
	return nil
}

// OnContractPurchased implements plugin.OnContractPurchased.
func (m *MetricsExtension) OnContractPurchased(_ context.Context, _ *contract.Contract) error {
	m.ContractPurchased.Inc()
	return nil
}

// OnContractExpired implements plugin.OnContractExpired.
func (m *MetricsExtension) OnContractExpired(_ context.Context, _ *contract.Contract) error {
	m.ContractExpired.Inc()
	return nil
}

// OnContractSettled implements plugin.OnContractSettled.
func (m *MetricsExtension) OnContractSettled(_ context.Context, _ *contract.Contract, _ *settlement.Transaction) error {
	m.ContractSettled.Inc()
	return nil
}

// OnExpirySweep implements plugin.OnExpirySweep.
func (m *MetricsExtension) OnExpirySweep(_ context.Context, _ int, elapsed time.Duration) error {
	m.ExpirySweeps.Inc()
	m.ExpirySweepLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// ──────────────────────────────────────────────────
// Credit hooks
// ──────────────────────────────────────────────────

// OnCreditCreated implements plugin.OnCreditCreated.
func (m *MetricsExtension) OnCreditCreated(_ context.Context, _ *credit.Credit) error {
	m.CreditCreated.Inc()
	return nil
}

// OnRiskScoreUpdated implements plugin.OnRiskScoreUpdated.
func (m *MetricsExtension) OnRiskScoreUpdated(_ context.Context, c *credit.Credit, _ *uint8) error {
	m.RiskScoreUpdates.Inc()
	if c.RiskScore != nil {
		m.RiskScore.Observe(float64(*c.RiskScore))
	}
	return nil
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnTransferSubmitted implements plugin.OnTransferSubmitted.
func (m *MetricsExtension) OnTransferSubmitted(_ context.Context, tx *settlement.Transaction) error {
	m.TransferSubmitted.Inc()
	m.TransferAmount.Observe(float64(tx.Amount))
	return nil
}

// OnTransferConfirmed implements plugin.OnTransferConfirmed.
func (m *MetricsExtension) OnTransferConfirmed(_ context.Context, _ *settlement.Transaction, elapsed time.Duration) error {
	m.TransferConfirmed.Inc()
	m.TransferLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnTransferFailed implements plugin.OnTransferFailed.
func (m *MetricsExtension) OnTransferFailed(_ context.Context, _ *settlement.Transaction, elapsed time.Duration) error {
	m.TransferFailed.Inc()
	m.TransferLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}

// OnEventAppended implements plugin.OnEventAppended.
func (m *MetricsExtension) OnEventAppended(_ context.Context, _ *event.Event) error {
	m.EventsAppended.Inc()
	return nil
}
