package extension

import (
	"errors"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/event"
)

// Grove driver names accepted by Config.GroveDriver.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// ErrConfigNotFound is returned by LoadConfig when the document has no
// carbonlock section.
var ErrConfigNotFound = errors.New("carbonlock: no 'extensions.carbonlock' or 'carbonlock' section in config")

// Config holds the Carbonlock extension configuration.
// Fields can be set programmatically via Option functions or loaded from
// YAML configuration files (under "extensions.carbonlock" or "carbonlock" keys).
type Config struct {
	// DisableMigrate prevents auto-migration on start.
	DisableMigrate bool `json:"disable_migrate" mapstructure:"disable_migrate" yaml:"disable_migrate"`

	// EventLogCapacity is the number of lifecycle events retained
	// (default: 100).
	EventLogCapacity int `json:"event_log_capacity" mapstructure:"event_log_capacity" yaml:"event_log_capacity"`

	// SettlementEndpoint, when set, is configured on the engine at start.
	SettlementEndpoint string `json:"settlement_endpoint" mapstructure:"settlement_endpoint" yaml:"settlement_endpoint"`

	// SettlementTimeout bounds each call to the settlement network
	// (default: 30s).
	SettlementTimeout time.Duration `json:"settlement_timeout" mapstructure:"settlement_timeout" yaml:"settlement_timeout"`

	// SettlementRatePerSecond caps outbound transfers. Zero disables the limit.
	SettlementRatePerSecond float64 `json:"settlement_rate_per_second" mapstructure:"settlement_rate_per_second" yaml:"settlement_rate_per_second"`

	// SettlementBurst is the burst allowed above SettlementRatePerSecond
	// (default: 1).
	SettlementBurst int `json:"settlement_burst" mapstructure:"settlement_burst" yaml:"settlement_burst"`

	// SimulateSettlement uses the in-memory settlement simulator when no
	// collaborator was provided programmatically.
	SimulateSettlement bool `json:"simulate_settlement" mapstructure:"simulate_settlement" yaml:"simulate_settlement"`

	// ExpirySchedule is a five-field cron expression for the overdue
	// contract sweep. Empty disables the sweep.
	ExpirySchedule string `json:"expiry_schedule" mapstructure:"expiry_schedule" yaml:"expiry_schedule"`

	// RiskOracle, when set, is the only principal allowed to update risk
	// scores.
	RiskOracle string `json:"risk_oracle" mapstructure:"risk_oracle" yaml:"risk_oracle"`

	// GroveDriver selects the store built on the grove.DB passed with
	// WithGroveDB: "sqlite", "postgres" or "mongo".
	GroveDriver string `json:"grove_driver" mapstructure:"grove_driver" yaml:"grove_driver"`

	// RequireConfig requires config to be present in YAML files.
	// If true and no config is found, Register returns an error.
	RequireConfig bool `json:"-" yaml:"-"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EventLogCapacity:  event.DefaultCapacity,
		SettlementTimeout: carbonlock.DefaultSettlementTimeout,
		SettlementBurst:   1,
	}
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	if c.EventLogCapacity < 0 {
		return carbonlock.ValidationError{Field: "event_log_capacity", Message: "must not be negative"}
	}
	if c.SettlementTimeout < 0 {
		return carbonlock.ValidationError{Field: "settlement_timeout", Message: "must not be negative"}
	}
	if c.SettlementRatePerSecond < 0 {
		return carbonlock.ValidationError{Field: "settlement_rate_per_second", Message: "must not be negative"}
	}
	if c.ExpirySchedule != "" {
		if err := carbonlock.ValidateSchedule(c.ExpirySchedule); err != nil {
			return err
		}
	}
	switch c.GroveDriver {
	case "", DriverSQLite, DriverPostgres, DriverMongo:
	default:
		return carbonlock.ValidationError{Field: "grove_driver", Message: fmt.Sprintf("unknown driver %q", c.GroveDriver)}
	}
	return nil
}

// LoadConfig reads a YAML document and returns the carbonlock section
// merged with defaults. The section is looked up under
// "extensions.carbonlock" first, then "carbonlock".
func LoadConfig(r io.Reader) (Config, error) {
	var doc struct {
		Extensions struct {
			Carbonlock *Config `yaml:"carbonlock"`
		} `yaml:"extensions"`
		Carbonlock *Config `yaml:"carbonlock"`
	}
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, ErrConfigNotFound
		}
		return Config{}, fmt.Errorf("carbonlock: parse config: %w", err)
	}

	cfg := doc.Extensions.Carbonlock
	if cfg == nil {
		cfg = doc.Carbonlock
	}
	if cfg == nil {
		return Config{}, ErrConfigNotFound
	}

	merged := mergeWithDefaults(*cfg)
	if err := merged.Validate(); err != nil {
		return Config{}, err
	}
	return merged, nil
}

// mergeWithDefaults fills zero-valued fields with defaults.
func mergeWithDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if cfg.EventLogCapacity == 0 {
		cfg.EventLogCapacity = defaults.EventLogCapacity
	}
	if cfg.SettlementTimeout == 0 {
		cfg.SettlementTimeout = defaults.SettlementTimeout
	}
	if cfg.SettlementBurst == 0 {
		cfg.SettlementBurst = defaults.SettlementBurst
	}
	return cfg
}

// mergeConfigurations merges YAML config with programmatic options.
// YAML config takes precedence for most fields; programmatic values fill gaps.
func mergeConfigurations(yamlConfig, programmaticConfig Config) Config {
	// Programmatic bool flags override when true.
	if programmaticConfig.DisableMigrate {
		yamlConfig.DisableMigrate = true
	}
	if programmaticConfig.SimulateSettlement {
		yamlConfig.SimulateSettlement = true
	}

	// String fields: YAML takes precedence.
	if yamlConfig.SettlementEndpoint == "" {
		yamlConfig.SettlementEndpoint = programmaticConfig.SettlementEndpoint
	}
	if yamlConfig.ExpirySchedule == "" {
		yamlConfig.ExpirySchedule = programmaticConfig.ExpirySchedule
	}
	if yamlConfig.RiskOracle == "" {
		yamlConfig.RiskOracle = programmaticConfig.RiskOracle
	}
	if yamlConfig.GroveDriver == "" {
		yamlConfig.GroveDriver = programmaticConfig.GroveDriver
	}

	// Duration/int fields: YAML takes precedence, programmatic fills gaps.
	if yamlConfig.EventLogCapacity == 0 {
		yamlConfig.EventLogCapacity = programmaticConfig.EventLogCapacity
	}
	if yamlConfig.SettlementTimeout == 0 {
		yamlConfig.SettlementTimeout = programmaticConfig.SettlementTimeout
	}
	if yamlConfig.SettlementRatePerSecond == 0 {
		yamlConfig.SettlementRatePerSecond = programmaticConfig.SettlementRatePerSecond
	}
	if yamlConfig.SettlementBurst == 0 {
		yamlConfig.SettlementBurst = programmaticConfig.SettlementBurst
	}

	yamlConfig.RequireConfig = programmaticConfig.RequireConfig

	// Fill remaining zeros with defaults.
	return mergeWithDefaults(yamlConfig)
}
