// Package extension provides the Forge extension adapter for Carbonlock.
//
// It implements the forge.Extension interface to integrate Carbonlock
// into a Forge application with DI registration and lifecycle management.
//
// Configuration can be provided programmatically via Option functions
// or via YAML configuration files under "extensions.carbonlock" or
// "carbonlock" keys.
package extension

import (
	"context"
	"errors"
	"fmt"

	"github.com/xraph/forge"
	"github.com/xraph/grove"
	"github.com/xraph/vessel"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/settlement"
	"github.com/xraph/carbonlock/settlement/simulator"
	"github.com/xraph/carbonlock/store"
	"github.com/xraph/carbonlock/store/memory"
	mongostore "github.com/xraph/carbonlock/store/mongo"
	pgstore "github.com/xraph/carbonlock/store/postgres"
	sqlitestore "github.com/xraph/carbonlock/store/sqlite"
)

// ExtensionName is the name registered with Forge.
const ExtensionName = "carbonlock"

// ExtensionDescription is the human-readable description.
const ExtensionDescription = "Carbon-credit futures marketplace core"

// ExtensionVersion is the semantic version.
const ExtensionVersion = "0.1.0"

// Ensure Extension implements forge.Extension at compile time.
var _ forge.Extension = (*Extension)(nil)

// Extension adapts Carbonlock as a Forge extension.
type Extension struct {
	*forge.BaseExtension

	config       Config
	engine       *carbonlock.Engine
	store        store.Store
	groveDB      *grove.DB
	collaborator settlement.Collaborator
	engineOpts   []carbonlock.Option
}

// New creates a new Carbonlock Forge extension with the given options.
func New(opts ...Option) *Extension {
	e := &Extension{
		BaseExtension: forge.NewBaseExtension(ExtensionName, ExtensionVersion, ExtensionDescription),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Engine returns the underlying engine.
// This is nil until Register is called.
func (e *Extension) Engine() *carbonlock.Engine { return e.engine }

// Config returns the resolved configuration.
func (e *Extension) Config() Config { return e.config }

// Register implements [forge.Extension]. It loads configuration,
// initializes the engine, and registers it in the DI container.
func (e *Extension) Register(fapp forge.App) error {
	if err := e.BaseExtension.Register(fapp); err != nil {
		return err
	}

	if err := e.loadConfiguration(); err != nil {
		return err
	}

	if err := e.build(); err != nil {
		return err
	}

	return vessel.Provide(fapp.Container(), func() (*carbonlock.Engine, error) {
		return e.engine, nil
	})
}

// build resolves the store and collaborator and constructs the engine from
// the resolved config.
func (e *Extension) build() error {
	if err := e.config.Validate(); err != nil {
		return err
	}

	if e.store == nil {
		s, err := storeFor(e.config.GroveDriver, e.groveDB)
		if err != nil {
			return err
		}
		e.store = s
	}

	if e.collaborator == nil && e.config.SimulateSettlement {
		e.collaborator = simulator.New()
	}

	e.engine = carbonlock.New(e.store, e.buildEngineOpts()...)
	return nil
}

// storeFor builds the store for a grove driver. Without a database it
// falls back to the memory store.
func storeFor(driver string, db *grove.DB) (store.Store, error) {
	if db == nil {
		if driver != "" {
			return nil, fmt.Errorf("carbonlock: grove driver %q configured without a database", driver)
		}
		return memory.New(), nil
	}

	switch driver {
	case DriverSQLite:
		return sqlitestore.New(db), nil
	case DriverPostgres:
		return pgstore.New(db), nil
	case DriverMongo:
		return mongostore.New(db), nil
	default:
		return nil, carbonlock.ValidationError{Field: "grove_driver", Message: fmt.Sprintf("unknown driver %q", driver)}
	}
}

// Start implements [forge.Extension].
func (e *Extension) Start(ctx context.Context) error {
	if e.engine == nil {
		return errors.New("carbonlock: extension not initialized")
	}

	if err := e.engine.Start(ctx); err != nil {
		return err
	}

	if e.config.SettlementEndpoint != "" {
		if err := e.engine.ConfigureSettlement(ctx, identity.Principal(e.config.SettlementEndpoint)); err != nil {
			return err
		}
	}

	e.MarkStarted()
	return nil
}

// Stop implements [forge.Extension].
func (e *Extension) Stop(_ context.Context) error {
	if e.engine != nil {
		if err := e.engine.Stop(); err != nil {
			e.MarkStopped()
			return err
		}
	}
	e.MarkStopped()
	return nil
}

// Health implements [forge.Extension].
func (e *Extension) Health(ctx context.Context) error {
	if e.store == nil {
		return errors.New("carbonlock: store not initialized")
	}
	return e.store.Ping(ctx)
}

// buildEngineOpts constructs carbonlock.Option values from the resolved config.
func (e *Extension) buildEngineOpts() []carbonlock.Option {
	opts := make([]carbonlock.Option, 0, len(e.engineOpts)+7)

	opts = append(opts,
		carbonlock.WithAutoMigrate(!e.config.DisableMigrate),
		carbonlock.WithEventLogCapacity(e.config.EventLogCapacity),
		carbonlock.WithSettlementTimeout(e.config.SettlementTimeout),
	)
	if e.collaborator != nil {
		opts = append(opts, carbonlock.WithSettlement(e.collaborator))
	}
	if e.config.SettlementRatePerSecond > 0 {
		opts = append(opts, carbonlock.WithSettlementRateLimit(e.config.SettlementRatePerSecond, e.config.SettlementBurst))
	}
	if e.config.ExpirySchedule != "" {
		opts = append(opts, carbonlock.WithExpirySchedule(e.config.ExpirySchedule))
	}
	if e.config.RiskOracle != "" {
		opts = append(opts, carbonlock.WithRiskOracle(identity.Principal(e.config.RiskOracle)))
	}

	// Append any pass-through engine options.
	opts = append(opts, e.engineOpts...)

	return opts
}

// --- Config Loading (mirrors grove/shield extension pattern) ---

// loadConfiguration loads config from YAML files or programmatic sources.
func (e *Extension) loadConfiguration() error {
	programmaticConfig := e.config

	// Try loading from config file.
	fileConfig, configLoaded := e.tryLoadFromConfigFile()

	if !configLoaded {
		if programmaticConfig.RequireConfig {
			return errors.New("carbonlock: configuration is required but not found in config files; " +
				"ensure 'extensions.carbonlock' or 'carbonlock' key exists in your config")
		}

		// Use programmatic config merged with defaults.
		e.config = mergeWithDefaults(programmaticConfig)
	} else {
		// Config loaded from YAML -- merge with programmatic options.
		e.config = mergeConfigurations(fileConfig, programmaticConfig)
	}

	e.Logger().Debug("carbonlock: configuration loaded",
		forge.F("disable_migrate", e.config.DisableMigrate),
		forge.F("event_log_capacity", e.config.EventLogCapacity),
		forge.F("settlement_endpoint", e.config.SettlementEndpoint),
		forge.F("settlement_timeout", e.config.SettlementTimeout),
		forge.F("expiry_schedule", e.config.ExpirySchedule),
		forge.F("grove_driver", e.config.GroveDriver),
	)

	return nil
}

// tryLoadFromConfigFile attempts to load config from YAML files.
func (e *Extension) tryLoadFromConfigFile() (Config, bool) {
	cm := e.App().Config()
	var cfg Config

	// Try "extensions.carbonlock" first (namespaced pattern).
	if cm.IsSet("extensions.carbonlock") {
		if err := cm.Bind("extensions.carbonlock", &cfg); err == nil {
			e.Logger().Debug("carbonlock: loaded config from file",
				forge.F("key", "extensions.carbonlock"),
			)
			return cfg, true
		}
		e.Logger().Warn("carbonlock: failed to bind extensions.carbonlock config",
			forge.F("error", "bind failed"),
		)
	}

	// Try legacy "carbonlock" key.
	if cm.IsSet("carbonlock") {
		if err := cm.Bind("carbonlock", &cfg); err == nil {
			e.Logger().Debug("carbonlock: loaded config from file",
				forge.F("key", "carbonlock"),
			)
			return cfg, true
		}
		e.Logger().Warn("carbonlock: failed to bind carbonlock config",
			forge.F("error", "bind failed"),
		)
	}

	return Config{}, false
}
