package plugin_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/plugin"
	"github.com/xraph/carbonlock/settlement"
)

type recorder struct {
	name string
	mu   sync.Mutex
	seen []string
	err  error
}

func (r *recorder) Name() string { return r.name }

func (r *recorder) add(s string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seen = append(r.seen, s)
	return r.err
}

func (r *recorder) OnContractCreated(_ context.Context, c *contract.Contract) error {
	c.Status = contract.StatusExpired // must not leak back to the caller
	return r.add("created")
}

func (r *recorder) OnTransferFailed(_ context.Context, tx *settlement.Transaction, _ time.Duration) error {
	return r.add("failed:" + tx.FailureReason)
}

type blocker struct{}

func (blocker) Name() string { return "blocker" }

func (blocker) OnContractPurchased(ctx context.Context, _ *contract.Contract) error {
	<-ctx.Done()
	return ctx.Err()
}

func quietRegistry() *plugin.Registry {
	return plugin.NewRegistry().WithLogger(slog.New(slog.DiscardHandler))
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	r := quietRegistry()
	require.NoError(t, r.Register(&recorder{name: "a"}))
	require.Error(t, r.Register(&recorder{name: "a"}))
	assert.Equal(t, 1, r.Count())
	assert.NotNil(t, r.Get("a"))
	assert.Nil(t, r.Get("missing"))
	assert.Len(t, r.List(), 1)
}

func TestEmitDispatchesOnlyImplementedHooks(t *testing.T) {
	r := quietRegistry()
	rec := &recorder{name: "rec"}
	require.NoError(t, r.Register(rec))

	ctx := context.Background()
	c := &contract.Contract{ID: 1, Status: contract.StatusCreated}
	r.EmitContractCreated(ctx, c)
	r.EmitContractPurchased(ctx, c)
	r.EmitTransferFailed(ctx, &settlement.Transaction{FailureReason: "nope"}, time.Millisecond)

	assert.Equal(t, []string{"created", "failed:nope"}, rec.seen)
	assert.Equal(t, contract.StatusCreated, c.Status, "hooks receive a copy")
}

func TestHookErrorsDoNotPropagate(t *testing.T) {
	r := quietRegistry()
	rec := &recorder{name: "rec", err: errors.New("boom")}
	require.NoError(t, r.Register(rec))

	assert.NotPanics(t, func() {
		r.EmitContractCreated(context.Background(), &contract.Contract{ID: 1})
	})
	assert.Equal(t, []string{"created"}, rec.seen)
}

func TestSlowHookTimesOut(t *testing.T) {
	r := quietRegistry().WithTimeout(20 * time.Millisecond)
	require.NoError(t, r.Register(blocker{}))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	r.EmitContractPurchased(ctx, &contract.Contract{ID: 1})
	assert.Less(t, time.Since(start), time.Second)
}
