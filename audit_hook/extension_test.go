package audithook_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	audithook "github.com/xraph/carbonlock/audit_hook"
	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/settlement"
)

type memRecorder struct {
	mu     sync.Mutex
	events []*audithook.AuditEvent
}

func (m *memRecorder) Record(_ context.Context, e *audithook.AuditEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *memRecorder) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Action)
	}
	return out
}

func TestContractEventsAreAudited(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec)
	ctx := context.Background()

	c := &contract.Contract{ID: 12, Seller: "s", AmountTonnes: 4, PriceUSD: 10.125, DeliveryYear: 2030}
	require.NoError(t, ext.OnContractCreated(ctx, c))

	b := c.Seller
	c.Buyer = &b
	require.NoError(t, ext.OnContractPurchased(ctx, c))
	require.NoError(t, ext.OnContractExpired(ctx, c))

	require.Len(t, rec.events, 3)
	created := rec.events[0]
	assert.Equal(t, audithook.ActionContractCreated, created.Action)
	assert.Equal(t, audithook.ResourceContract, created.Resource)
	assert.Equal(t, "12", created.ResourceID)
	assert.Equal(t, "40.50", created.Metadata["notional_usd"])
	assert.Equal(t, audithook.OutcomeSuccess, created.Outcome)
}

func TestTransferFailureCarriesReason(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec)

	tx := &settlement.Transaction{
		TxID:          3,
		Reference:     id.NewSettlementRef(),
		From:          "a",
		To:            "b",
		Amount:        7,
		Status:        settlement.StatusFailed,
		FailureReason: "insufficient funds",
	}
	require.NoError(t, ext.OnTransferFailed(context.Background(), tx, 15*time.Millisecond))

	require.Len(t, rec.events, 1)
	evt := rec.events[0]
	assert.Equal(t, audithook.ActionTransferFailed, evt.Action)
	assert.Equal(t, audithook.SeverityCritical, evt.Severity)
	assert.Equal(t, audithook.OutcomeFailure, evt.Outcome)
	assert.Equal(t, "insufficient funds", evt.Reason)
	assert.Equal(t, int64(15), evt.Metadata["elapsed_ms"])
	assert.Equal(t, tx.Reference.String(), evt.Metadata["reference"])
}

func TestRiskScoreMetadata(t *testing.T) {
	rec := &memRecorder{}
	ext := audithook.New(rec)

	c := &credit.Credit{ID: 5}
	c.RecordRiskScore(20)
	prev := uint8(20)
	c.RecordRiskScore(30)
	require.NoError(t, ext.OnRiskScoreUpdated(context.Background(), c, &prev))

	require.Len(t, rec.events, 1)
	meta := rec.events[0].Metadata
	assert.Equal(t, uint8(30), meta["score"])
	assert.Equal(t, uint8(20), meta["previous"])
	assert.Equal(t, 2, meta["history_len"])
}

func TestActionFilters(t *testing.T) {
	tests := []struct {
		name string
		opts []audithook.Option
		want []string
	}{
		{
			name: "all by default",
			want: []string{audithook.ActionCreditCreated, audithook.ActionExpirySweep},
		},
		{
			name: "enabled only",
			opts: []audithook.Option{audithook.WithEnabledActions(audithook.ActionExpirySweep)},
			want: []string{audithook.ActionExpirySweep},
		},
		{
			name: "disabled",
			opts: []audithook.Option{audithook.WithDisabledActions(audithook.ActionExpirySweep)},
			want: []string{audithook.ActionCreditCreated},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &memRecorder{}
			ext := audithook.New(rec, tt.opts...)
			ctx := context.Background()

			require.NoError(t, ext.OnCreditCreated(ctx, &credit.Credit{ID: 1, Owner: "o"}))
			require.NoError(t, ext.OnExpirySweep(ctx, 0, time.Millisecond)) // skipped: nothing expired
			require.NoError(t, ext.OnExpirySweep(ctx, 2, time.Millisecond))

			assert.Equal(t, tt.want, rec.actions())
		})
	}
}

func TestRecorderErrorsAreSwallowed(t *testing.T) {
	ext := audithook.New(
		audithook.RecorderFunc(func(context.Context, *audithook.AuditEvent) error {
			return errors.New("backend down")
		}),
		audithook.WithLogger(slog.New(slog.DiscardHandler)),
	)
	assert.NoError(t, ext.OnCreditCreated(context.Background(), &credit.Credit{ID: 1}))
}
