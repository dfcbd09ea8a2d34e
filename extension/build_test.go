package extension

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/settlement"
	"github.com/xraph/carbonlock/store/memory"
)

func TestBuildWithSimulatedSettlement(t *testing.T) {
	e := New(
		WithEventLogCapacity(10),
		WithSettlementTimeout(time.Second),
		WithRiskOracle("oracle"),
	)
	e.config.SimulateSettlement = true
	e.config = mergeWithDefaults(e.config)

	require.NoError(t, e.build())
	require.NotNil(t, e.Engine())
	assert.IsType(t, &memory.Store{}, e.store)
	require.NotNil(t, e.collaborator)

	ctx := context.Background()
	eng := e.Engine()
	require.NoError(t, eng.Start(ctx))
	defer eng.Stop()

	require.NoError(t, eng.ConfigureSettlement(ctx, "ckbtc-ledger"))
	txID, err := eng.Transfer(ctx, "a", "b", 1)
	require.NoError(t, err)

	tx, err := eng.GetTransaction(ctx, txID)
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusConfirmed, tx.Status)

	cid, err := eng.CreateCredit(ctx)
	require.NoError(t, err)
	require.ErrorIs(t, eng.UpdateRiskScore(ctx, cid, 1), carbonlock.ErrForbidden)
}

func TestStoreForRequiresDatabaseForDriver(t *testing.T) {
	_, err := storeFor(DriverSQLite, nil)
	require.Error(t, err)

	s, err := storeFor("", nil)
	require.NoError(t, err)
	assert.IsType(t, &memory.Store{}, s)
}

func TestMergeConfigurations(t *testing.T) {
	file := Config{EventLogCapacity: 50, ExpirySchedule: "@daily"}
	prog := Config{
		EventLogCapacity:   10,
		ExpirySchedule:     "@hourly",
		SettlementEndpoint: "ep",
		DisableMigrate:     true,
		RequireConfig:      true,
	}

	got := mergeConfigurations(file, prog)
	assert.Equal(t, 50, got.EventLogCapacity)
	assert.Equal(t, "@daily", got.ExpirySchedule)
	assert.Equal(t, "ep", got.SettlementEndpoint)
	assert.True(t, got.DisableMigrate)
	assert.True(t, got.RequireConfig)
	assert.Equal(t, carbonlock.DefaultSettlementTimeout, got.SettlementTimeout)
}
