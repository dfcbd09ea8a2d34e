package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"

	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/settlement"
)

// DefaultHookTimeout bounds a single hook call.
const DefaultHookTimeout = 5 * time.Second

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger
	timeout time.Duration

	// Type-cached plugin lists for efficient dispatch
	onInit              []OnInit
	onShutdown          []OnShutdown
	onContractCreated   []OnContractCreated
	onContractPurchased []OnContractPurchased
	onContractExpired   []OnContractExpired
	onContractSettled   []OnContractSettled
	onExpirySweep       []OnExpirySweep
	onCreditCreated     []OnCreditCreated
	onRiskScoreUpdated  []OnRiskScoreUpdated
	onTransferSubmitted []OnTransferSubmitted
	onTransferConfirmed []OnTransferConfirmed
	onTransferFailed    []OnTransferFailed
	onEventAppended     []OnEventAppended
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{
		logger:  slog.Default(),
		timeout: DefaultHookTimeout,
	}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// WithTimeout sets how long a single hook may run.
func (r *Registry) WithTimeout(d time.Duration) *Registry {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnContractCreated); ok {
		r.onContractCreated = append(r.onContractCreated, v)
	}
	if v, ok := p.(OnContractPurchased); ok {
		r.onContractPurchased = append(r.onContractPurchased, v)
	}
	if v, ok := p.(OnContractExpired); ok {
		r.onContractExpired = append(r.onContractExpired, v)
	}
	if v, ok := p.(OnContractSettled); ok {
		r.onContractSettled = append(r.onContractSettled, v)
	}
	if v, ok := p.(OnExpirySweep); ok {
		r.onExpirySweep = append(r.onExpirySweep, v)
	}
	if v, ok := p.(OnCreditCreated); ok {
		r.onCreditCreated = append(r.onCreditCreated, v)
	}
	if v, ok := p.(OnRiskScoreUpdated); ok {
		r.onRiskScoreUpdated = append(r.onRiskScoreUpdated, v)
	}
	if v, ok := p.(OnTransferSubmitted); ok {
		r.onTransferSubmitted = append(r.onTransferSubmitted, v)
	}
	if v, ok := p.(OnTransferConfirmed); ok {
		r.onTransferConfirmed = append(r.onTransferConfirmed, v)
	}
	if v, ok := p.(OnTransferFailed); ok {
		r.onTransferFailed = append(r.onTransferFailed, v)
	}
	if v, ok := p.(OnEventAppended); ok {
		r.onEventAppended = append(r.onEventAppended, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", implementedInterfaces(p),
	)

	return nil
}

var hookTypes = []struct {
	name  string
	iface reflect.Type
}{
	{"OnInit", reflect.TypeOf((*OnInit)(nil)).Elem()},
	{"OnShutdown", reflect.TypeOf((*OnShutdown)(nil)).Elem()},
	{"OnContractCreated", reflect.TypeOf((*OnContractCreated)(nil)).Elem()},
	{"OnContractPurchased", reflect.TypeOf((*OnContractPurchased)(nil)).Elem()},
	{"OnContractExpired", reflect.TypeOf((*OnContractExpired)(nil)).Elem()},
	{"OnContractSettled", reflect.TypeOf((*OnContractSettled)(nil)).Elem()},
	{"OnExpirySweep", reflect.TypeOf((*OnExpirySweep)(nil)).Elem()},
	{"OnCreditCreated", reflect.TypeOf((*OnCreditCreated)(nil)).Elem()},
	{"OnRiskScoreUpdated", reflect.TypeOf((*OnRiskScoreUpdated)(nil)).Elem()},
	{"OnTransferSubmitted", reflect.TypeOf((*OnTransferSubmitted)(nil)).Elem()},
	{"OnTransferConfirmed", reflect.TypeOf((*OnTransferConfirmed)(nil)).Elem()},
	{"OnTransferFailed", reflect.TypeOf((*OnTransferFailed)(nil)).Elem()},
	{"OnEventAppended", reflect.TypeOf((*OnEventAppended)(nil)).Elem()},
}

// implementedInterfaces returns the hook interfaces p implements.
func implementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)
	for _, h := range hookTypes {
		if v.Implements(h.iface) {
			interfaces = append(interfaces, h.name)
		}
	}
	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// emit runs call for every cached hook of type T, logging failures.
func emit[T Plugin](ctx context.Context, r *Registry, hook string, list func(*Registry) []T, call func(T) error) {
	r.mu.RLock()
	plugins := list(r)
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return call(p)
		}); err != nil {
			r.logger.Warn("plugin "+hook+" failed",
				"plugin", p.Name(),
				"error", err,
			)
		}
	}
}

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	emit(ctx, r, "OnInit", func(r *Registry) []OnInit { return r.onInit },
		func(p OnInit) error { return p.OnInit(ctx, engine) })
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	emit(ctx, r, "OnShutdown", func(r *Registry) []OnShutdown { return r.onShutdown },
		func(p OnShutdown) error { return p.OnShutdown(ctx) })
}

// EmitContractCreated emits a contract created event.
func (r *Registry) EmitContractCreated(ctx context.Context, c *contract.Contract) {
	emit(ctx, r, "OnContractCreated", func(r *Registry) []OnContractCreated { return r.onContractCreated },
		func(p OnContractCreated) error { return p.OnContractCreated(ctx, c.Clone()) })
}

// EmitContractPurchased emits a contract purchased event.
func (r *Registry) EmitContractPurchased(ctx context.Context, c *contract.Contract) {
	emit(ctx, r, "OnContractPurchased", func(r *Registry) []OnContractPurchased { return r.onContractPurchased },
		func(p OnContractPurchased) error { return p.OnContractPurchased(ctx, c.Clone()) })
}

// EmitContractExpired emits a contract expired event.
func (r *Registry) EmitContractExpired(ctx context.Context, c *contract.Contract) {
	emit(ctx, r, "OnContractExpired", func(r *Registry) []OnContractExpired { return r.onContractExpired },
		func(p OnContractExpired) error { return p.OnContractExpired(ctx, c.Clone()) })
}

// EmitContractSettled emits a contract settled event.
func (r *Registry) EmitContractSettled(ctx context.Context, c *contract.Contract, tx *settlement.Transaction) {
	emit(ctx, r, "OnContractSettled", func(r *Registry) []OnContractSettled { return r.onContractSettled },
		func(p OnContractSettled) error { return p.OnContractSettled(ctx, c.Clone(), tx.Clone()) })
}

// EmitExpirySweep emits the result of an expiry run.
func (r *Registry) EmitExpirySweep(ctx context.Context, expired int, elapsed time.Duration) {
	emit(ctx, r, "OnExpirySweep", func(r *Registry) []OnExpirySweep { return r.onExpirySweep },
		func(p OnExpirySweep) error { return p.OnExpirySweep(ctx, expired, elapsed) })
}

// EmitCreditCreated emits a credit created event.
func (r *Registry) EmitCreditCreated(ctx context.Context, c *credit.Credit) {
	emit(ctx, r, "OnCreditCreated", func(r *Registry) []OnCreditCreated { return r.onCreditCreated },
		func(p OnCreditCreated) error { return p.OnCreditCreated(ctx, c.Clone()) })
}

// EmitRiskScoreUpdated emits a risk score update.
func (r *Registry) EmitRiskScoreUpdated(ctx context.Context, c *credit.Credit, previous *uint8) {
	emit(ctx, r, "OnRiskScoreUpdated", func(r *Registry) []OnRiskScoreUpdated { return r.onRiskScoreUpdated },
		func(p OnRiskScoreUpdated) error { return p.OnRiskScoreUpdated(ctx, c.Clone(), previous) })
}

// EmitTransferSubmitted emits a transfer submitted event.
func (r *Registry) EmitTransferSubmitted(ctx context.Context, tx *settlement.Transaction) {
	emit(ctx, r, "OnTransferSubmitted", func(r *Registry) []OnTransferSubmitted { return r.onTransferSubmitted },
		func(p OnTransferSubmitted) error { return p.OnTransferSubmitted(ctx, tx.Clone()) })
}

// EmitTransferConfirmed emits a transfer confirmed event.
func (r *Registry) EmitTransferConfirmed(ctx context.Context, tx *settlement.Transaction, elapsed time.Duration) {
	emit(ctx, r, "OnTransferConfirmed", func(r *Registry) []OnTransferConfirmed { return r.onTransferConfirmed },
		func(p OnTransferConfirmed) error { return p.OnTransferConfirmed(ctx, tx.Clone(), elapsed) })
}

// EmitTransferFailed emits a transfer failed event.
func (r *Registry) EmitTransferFailed(ctx context.Context, tx *settlement.Transaction, elapsed time.Duration) {
	emit(ctx, r, "OnTransferFailed", func(r *Registry) []OnTransferFailed { return r.onTransferFailed },
		func(p OnTransferFailed) error { return p.OnTransferFailed(ctx, tx.Clone(), elapsed) })
}

// EmitEventAppended emits an event log append.
func (r *Registry) EmitEventAppended(ctx context.Context, e *event.Event) {
	emit(ctx, r, "OnEventAppended", func(r *Registry) []OnEventAppended { return r.onEventAppended },
		func(p OnEventAppended) error {
			cp := *e
			return p.OnEventAppended(ctx, &cp)
		})
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the settlement pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	timer := time.NewTimer(r.timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return err
	case <-timer.C:
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
