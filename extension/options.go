package extension

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/plugin"
	"github.com/xraph/carbonlock/settlement"
	"github.com/xraph/carbonlock/store"
)

// Option configures the Carbonlock Forge extension.
type Option func(*Extension)

// WithStore sets the store for the engine.
func WithStore(s store.Store) Option {
	return func(e *Extension) {
		e.store = s
	}
}

// WithGroveDB builds the store on db using the named driver
// ("sqlite", "postgres" or "mongo"). WithStore takes precedence.
func WithGroveDB(driver string, db *grove.DB) Option {
	return func(e *Extension) {
		e.config.GroveDriver = driver
		e.groveDB = db
	}
}

// WithEngineOption passes a carbonlock.Option through to the underlying engine.
func WithEngineOption(opt carbonlock.Option) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, opt)
	}
}

// WithPlugin registers a carbonlock plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Extension) {
		e.engineOpts = append(e.engineOpts, carbonlock.WithPlugin(p))
	}
}

// WithSettlement sets the settlement network transport.
func WithSettlement(c settlement.Collaborator) Option {
	return func(e *Extension) { e.collaborator = c }
}

// WithConfig sets the Forge extension configuration.
func WithConfig(cfg Config) Option {
	return func(e *Extension) { e.config = cfg }
}

// WithDisableMigrate prevents auto-migration on start.
func WithDisableMigrate() Option {
	return func(e *Extension) { e.config.DisableMigrate = true }
}

// WithRequireConfig requires config to be present in YAML files.
// If true and no config is found, Register returns an error.
func WithRequireConfig(require bool) Option {
	return func(e *Extension) { e.config.RequireConfig = require }
}

// WithEventLogCapacity sets how many lifecycle events are retained.
func WithEventLogCapacity(n int) Option {
	return func(e *Extension) { e.config.EventLogCapacity = n }
}

// WithSettlementEndpoint configures the settlement endpoint at start.
func WithSettlementEndpoint(endpoint string) Option {
	return func(e *Extension) { e.config.SettlementEndpoint = endpoint }
}

// WithSettlementTimeout bounds each call to the settlement network.
func WithSettlementTimeout(d time.Duration) Option {
	return func(e *Extension) { e.config.SettlementTimeout = d }
}

// WithSettlementRateLimit caps outbound transfers.
func WithSettlementRateLimit(perSecond float64, burst int) Option {
	return func(e *Extension) {
		e.config.SettlementRatePerSecond = perSecond
		e.config.SettlementBurst = burst
	}
}

// WithExpirySchedule sets the cron expression for the overdue contract sweep.
func WithExpirySchedule(spec string) Option {
	return func(e *Extension) { e.config.ExpirySchedule = spec }
}

// WithRiskOracle restricts risk score updates to one principal.
func WithRiskOracle(principal string) Option {
	return func(e *Extension) { e.config.RiskOracle = principal }
}
