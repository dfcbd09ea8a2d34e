package carbonlock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/time/rate"

	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/plugin"
	"github.com/xraph/carbonlock/settlement"
	"github.com/xraph/carbonlock/store"
	"github.com/xraph/carbonlock/types"
)

// DefaultSettlementTimeout bounds a single call to the settlement network.
const DefaultSettlementTimeout = 30 * time.Second

// Engine is the marketplace core. It owns contracts, credits, settlement
// transactions and the event log, and is safe for concurrent use.
type Engine struct {
	store        store.Store
	contracts    contract.Store
	credits      credit.Store
	transactions settlement.Store
	events       event.Store

	plugins *plugin.Registry
	logger  *slog.Logger
	clock   types.Clock
	issuer  *id.Issuer

	// mu serialises local mutations. It is never held across a call to
	// the settlement network.
	mu       sync.Mutex
	settling map[uint64]struct{}

	settleMu          sync.RWMutex
	collaborator      settlement.Collaborator
	endpoint          identity.Principal
	settlementTimeout time.Duration
	limiter           *rate.Limiter

	eventCapacity int
	riskOracle    identity.Principal
	autoMigrate   bool

	// Background workers
	expirySchedule string
	cron           *cron.Cron
}

// New creates a new Engine on top of s.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:             s,
		contracts:         store.ContractStore(s),
		credits:           store.CreditStore(s),
		transactions:      store.TransactionStore(s),
		events:            store.EventStore(s),
		plugins:           plugin.NewRegistry(),
		logger:            slog.Default(),
		clock:             types.NewMonotonicClock(types.SystemClock),
		issuer:            id.NewIssuer(),
		settling:          make(map[uint64]struct{}),
		settlementTimeout: DefaultSettlementTimeout,
		eventCapacity:     event.DefaultCapacity,
		autoMigrate:       true,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock sets the time source. Readings are made monotonic.
func WithClock(c types.Clock) Option {
	return func(e *Engine) {
		e.clock = types.NewMonotonicClock(c)
	}
}

// WithSettlement sets the settlement network transport.
func WithSettlement(c settlement.Collaborator) Option {
	return func(e *Engine) {
		e.collaborator = c
	}
}

// WithSettlementTimeout bounds each call to the settlement network.
func WithSettlementTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.settlementTimeout = d
		}
	}
}

// WithSettlementRateLimit caps outbound transfers at perSecond with the
// given burst. Transfers wait for a token before a transaction is issued.
func WithSettlementRateLimit(perSecond float64, burst int) Option {
	return func(e *Engine) {
		if perSecond <= 0 {
			e.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		e.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithEventLogCapacity sets how many events the log retains.
func WithEventLogCapacity(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.eventCapacity = n
		}
	}
}

// WithRiskOracle restricts risk score updates to the given principal.
func WithRiskOracle(p identity.Principal) Option {
	return func(e *Engine) {
		e.riskOracle = p
	}
}

// WithAutoMigrate controls whether Start migrates the store. It is on by
// default.
func WithAutoMigrate(enabled bool) Option {
	return func(e *Engine) {
		e.autoMigrate = enabled
	}
}

// WithExpirySchedule runs ExpireOverdue on a standard five-field cron
// schedule (for example "0 * * * *") while the engine is started.
func WithExpirySchedule(spec string) Option {
	return func(e *Engine) {
		e.expirySchedule = spec
	}
}

// ValidateSchedule reports whether spec is a valid expiry schedule.
func ValidateSchedule(spec string) error {
	if _, err := cron.ParseStandard(spec); err != nil {
		return ValidationError{Field: "expiry_schedule", Message: err.Error()}
	}
	return nil
}

// Store returns the underlying store.
func (e *Engine) Store() store.Store { return e.store }

// Plugins returns the plugin registry.
func (e *Engine) Plugins() *plugin.Registry { return e.plugins }

// Logger returns the engine logger.
func (e *Engine) Logger() *slog.Logger { return e.logger }

// Start migrates the store unless disabled, resumes identity sequences from it and starts
// background workers.
func (e *Engine) Start(ctx context.Context) error {
	if e.autoMigrate {
		if err := e.store.Migrate(ctx); err != nil {
			return err
		}
	}

	w, err := e.store.HighWater(ctx)
	if err != nil {
		return fmt.Errorf("carbonlock: load identity high water: %w", err)
	}
	e.issuer.SeedAll(w)

	// Initialize plugins
	e.plugins.EmitInit(ctx, e)

	if e.expirySchedule != "" {
		if err := e.startExpiryWorker(); err != nil {
			return err
		}
	}

	e.logger.Info("carbonlock started",
		"event_log_capacity", e.eventCapacity,
		"settlement_timeout", e.settlementTimeout,
		"expiry_schedule", e.expirySchedule,
		"next_contract_id", w[id.ClassContract]+1,
	)

	return nil
}

// Stop shuts down background workers, notifies plugins and closes the store.
func (e *Engine) Stop() error {
	if e.cron != nil {
		<-e.cron.Stop().Done()
		e.cron = nil
	}

	ctx := context.Background()
	e.plugins.EmitShutdown(ctx)

	var errs MultiError
	errs.Add(e.store.Close())
	return errs.ErrOrNil()
}

// ──────────────────────────────────────────────────
// Event log
// ──────────────────────────────────────────────────

// appendEvent records a lifecycle transition. Callers hold e.mu so that
// sequence order matches the order transitions were applied.
func (e *Engine) appendEvent(ctx context.Context, typ event.Type, contractID, creditID uint64, details string) (*event.Event, error) {
	ev := &event.Event{
		ID:         id.NewEventID(),
		Seq:        e.issuer.Next(id.ClassEvent),
		Type:       typ,
		ContractID: contractID,
		CreditID:   creditID,
		Timestamp:  e.clock.Now(),
		Details:    details,
	}
	if err := e.events.Append(ctx, ev, e.eventCapacity); err != nil {
		e.logger.Error("failed to append event",
			"type", typ,
			"contract_id", contractID,
			"error", err,
		)
		return nil, fmt.Errorf("carbonlock: append %s event: %w", typ, err)
	}
	return ev, nil
}

// ListEvents returns the retained events in emission order.
func (e *Engine) ListEvents(ctx context.Context, opts event.ListOpts) ([]*event.Event, error) {
	return e.events.List(ctx, opts)
}
