package extension_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/extension"
)

func TestLoadConfig(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want extension.Config
	}{
		{
			name: "namespaced",
			doc: `
extensions:
  carbonlock:
    event_log_capacity: 250
    settlement_endpoint: ckbtc-ledger
    settlement_timeout: 5s
    expiry_schedule: "0 * * * *"
    grove_driver: postgres
`,
			want: extension.Config{
				EventLogCapacity:   250,
				SettlementEndpoint: "ckbtc-ledger",
				SettlementTimeout:  5 * time.Second,
				SettlementBurst:    1,
				ExpirySchedule:     "0 * * * *",
				GroveDriver:        extension.DriverPostgres,
			},
		},
		{
			name: "top level with defaults",
			doc: `
carbonlock:
  simulate_settlement: true
  settlement_rate_per_second: 2.5
  settlement_burst: 4
  risk_oracle: oracle-principal
`,
			want: extension.Config{
				EventLogCapacity:        100,
				SettlementTimeout:       carbonlock.DefaultSettlementTimeout,
				SettlementRatePerSecond: 2.5,
				SettlementBurst:         4,
				SimulateSettlement:      true,
				RiskOracle:              "oracle-principal",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extension.LoadConfig(strings.NewReader(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		target error
	}{
		{"empty document", "", extension.ErrConfigNotFound},
		{"other section", "ledger:\n  base_path: /x\n", extension.ErrConfigNotFound},
		{"bad schedule", "carbonlock:\n  expiry_schedule: nonsense\n", carbonlock.ErrInvalidInput},
		{"bad driver", "carbonlock:\n  grove_driver: oracle\n", carbonlock.ErrInvalidInput},
		{"negative capacity", "carbonlock:\n  event_log_capacity: -1\n", carbonlock.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := extension.LoadConfig(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, tt.target)
		})
	}

	_, err := extension.LoadConfig(strings.NewReader("carbonlock: [unclosed"))
	require.Error(t, err)
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := extension.DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 100, cfg.EventLogCapacity)
	assert.Equal(t, 30*time.Second, cfg.SettlementTimeout)
}
