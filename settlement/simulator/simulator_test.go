package simulator_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/settlement"
	"github.com/xraph/carbonlock/settlement/simulator"
	"github.com/xraph/carbonlock/types"
)

const (
	alice identity.Principal = "alice"
	bob   identity.Principal = "bob"
)

func request(from, to identity.Principal, amount uint64) settlement.TransferRequest {
	return settlement.TransferRequest{
		Endpoint:  "ckbtc-ledger",
		Reference: id.NewSettlementRef(),
		From:      from,
		To:        to,
		Amount:    types.Amount(amount),
	}
}

func TestTransferMovesFunds(t *testing.T) {
	ctx := context.Background()
	l := simulator.New()

	require.NoError(t, l.DoTransfer(ctx, request(alice, bob, 500)))

	a, err := l.GetBalance(ctx, "", alice)
	require.NoError(t, err)
	b, err := l.GetBalance(ctx, "", bob)
	require.NoError(t, err)

	assert.Equal(t, simulator.DefaultOpeningBalance-500, a)
	assert.Equal(t, simulator.DefaultOpeningBalance+500, b)
	assert.Len(t, l.Transfers(), 1)
}

func TestTransferInsufficientFunds(t *testing.T) {
	ctx := context.Background()
	l := simulator.New(simulator.WithBalance(alice, 10))

	err := l.DoTransfer(ctx, request(alice, bob, 11))
	require.ErrorIs(t, err, simulator.ErrInsufficientFunds)
	assert.Equal(t, "insufficient funds", err.Error())

	a, _ := l.GetBalance(ctx, "", alice)
	b, _ := l.GetBalance(ctx, "", bob)
	assert.EqualValues(t, 10, a)
	assert.Equal(t, simulator.DefaultOpeningBalance, b)
	assert.Empty(t, l.Transfers())
}

func TestTransferRejectsDuplicateReference(t *testing.T) {
	ctx := context.Background()
	l := simulator.New()

	req := request(alice, bob, 1)
	require.NoError(t, l.DoTransfer(ctx, req))
	require.ErrorIs(t, l.DoTransfer(ctx, req), simulator.ErrDuplicateReference)

	a, _ := l.GetBalance(ctx, "", alice)
	assert.Equal(t, simulator.DefaultOpeningBalance-1, a)
}

func TestTransferRequiresReference(t *testing.T) {
	req := request(alice, bob, 1)
	req.Reference = id.Nil
	require.ErrorIs(t, simulator.New().DoTransfer(context.Background(), req), simulator.ErrInvalidReference)
}

func TestForcedFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("fail next", func(t *testing.T) {
		l := simulator.New()
		l.FailNext("ledger unavailable")

		err := l.DoTransfer(ctx, request(alice, bob, 1))
		require.EqualError(t, err, "ledger unavailable")
		require.NoError(t, l.DoTransfer(ctx, request(alice, bob, 1)))
	})

	t.Run("always fail", func(t *testing.T) {
		l := simulator.New(simulator.WithFailure("offline"))
		for i := 0; i < 3; i++ {
			require.EqualError(t, l.DoTransfer(ctx, request(alice, bob, 1)), "offline")
		}
	})
}

func TestLatencyHonoursContext(t *testing.T) {
	l := simulator.New(simulator.WithLatency(time.Hour))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := l.DoTransfer(ctx, request(alice, bob, 1))
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, l.Transfers())
}

func TestSelfTransferKeepsBalance(t *testing.T) {
	ctx := context.Background()
	l := simulator.New(simulator.WithOpeningBalance(42))

	require.NoError(t, l.DoTransfer(ctx, request(alice, alice, 40)))
	a, _ := l.GetBalance(ctx, "", alice)
	assert.EqualValues(t, 42, a)
}
