package memory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/settlement"
	"github.com/xraph/carbonlock/store/memory"
)

func TestContractRoundTripIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := &contract.Contract{ID: 1, Seller: "s", AmountTonnes: 10, Status: contract.StatusCreated}
	require.NoError(t, s.CreateContract(ctx, c))
	require.ErrorIs(t, s.CreateContract(ctx, c), carbonlock.ErrAlreadyExists)

	c.Status = contract.StatusExpired // caller's copy only
	got, err := s.GetContract(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, contract.StatusCreated, got.Status)

	b := identity.Principal("b")
	got.Buyer = &b
	got.Status = contract.StatusPurchased
	require.NoError(t, s.UpdateContract(ctx, got))
	b = "changed"

	again, err := s.GetContract(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, again.Buyer)
	assert.Equal(t, "b", string(*again.Buyer))

	_, err = s.GetContract(ctx, 2)
	require.ErrorIs(t, err, carbonlock.ErrContractNotFound)
	require.ErrorIs(t, s.UpdateContract(ctx, &contract.Contract{ID: 2}), carbonlock.ErrContractNotFound)
}

func TestDeleteContract(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	require.NoError(t, s.CreateContract(ctx, &contract.Contract{ID: 1, Seller: "s", AmountTonnes: 1}))
	require.NoError(t, s.DeleteContract(ctx, 1))

	_, err := s.GetContract(ctx, 1)
	require.ErrorIs(t, err, carbonlock.ErrContractNotFound)
	require.ErrorIs(t, s.DeleteContract(ctx, 1), carbonlock.ErrContractNotFound)

	all, err := s.ListContracts(ctx, contract.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestListContractsPaginates(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	for i := uint64(1); i <= 5; i++ {
		require.NoError(t, s.CreateContract(ctx, &contract.Contract{ID: i, Seller: "s", Status: contract.StatusCreated}))
	}

	page, err := s.ListContracts(ctx, contract.ListOpts{Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, uint64(2), page[0].ID)
	assert.Equal(t, uint64(3), page[1].ID)

	tail, err := s.ListContracts(ctx, contract.ListOpts{Offset: 10})
	require.NoError(t, err)
	assert.Empty(t, tail)
}

func TestCreditHistoryIsCopied(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	c := &credit.Credit{ID: 1, Owner: "o"}
	c.RecordRiskScore(10)
	require.NoError(t, s.CreateCredit(ctx, c))
	c.RiskScoreHistory[0] = 99

	got, err := s.GetCredit(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []uint8{10}, got.RiskScoreHistory)

	_, err = s.GetCredit(ctx, 9)
	require.ErrorIs(t, err, carbonlock.ErrCreditNotFound)
}

func TestResolveTransactionOnce(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	tx := &settlement.Transaction{
		TxID:      1,
		Reference: id.NewSettlementRef(),
		From:      "a",
		To:        "b",
		Amount:    5,
		Status:    settlement.StatusPending,
		Timestamp: 100,
	}
	require.NoError(t, s.CreateTransaction(ctx, tx))

	pending := tx.Clone()
	require.ErrorIs(t, s.ResolveTransaction(ctx, pending), carbonlock.ErrInvalidInput)

	require.True(t, tx.Resolve("", 101))
	require.NoError(t, s.ResolveTransaction(ctx, tx))

	failed := tx.Clone()
	failed.Status = settlement.StatusFailed
	require.ErrorIs(t, s.ResolveTransaction(ctx, failed), carbonlock.ErrTransactionResolved)

	got, err := s.GetTransaction(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, settlement.StatusConfirmed, got.Status)
	assert.Equal(t, int64(101), got.ResolvedAt)

	missing := tx.Clone()
	missing.TxID = 2
	require.ErrorIs(t, s.ResolveTransaction(ctx, missing), carbonlock.ErrTransactionNotFound)

	byAccount, err := s.ListTransactions(ctx, settlement.ListOpts{Account: "b"})
	require.NoError(t, err)
	assert.Len(t, byAccount, 1)
}

func TestAppendEventHonoursCapacity(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	for seq := uint64(1); seq <= 8; seq++ {
		require.NoError(t, s.AppendEvent(ctx, &event.Event{
			ID:         id.NewEventID(),
			Seq:        seq,
			Type:       event.TypeCreated,
			ContractID: seq,
		}, 5))
	}

	events, err := s.ListEvents(ctx, event.ListOpts{})
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, uint64(4), events[0].Seq)
	assert.Equal(t, uint64(8), events[4].Seq)

	only, err := s.ListEvents(ctx, event.ListOpts{ContractID: 6})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, uint64(6), only[0].Seq)
}

func TestAppendEventKeepsCapacityAcrossSeqGaps(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	// Failed appends leave holes in the sequence.
	for _, seq := range []uint64{1, 2, 5, 6, 9, 14} {
		require.NoError(t, s.AppendEvent(ctx, &event.Event{
			ID:   id.NewEventID(),
			Seq:  seq,
			Type: event.TypeCreated,
		}, 4))
	}

	events, err := s.ListEvents(ctx, event.ListOpts{})
	require.NoError(t, err)
	require.Len(t, events, 4)
	seqs := make([]uint64, len(events))
	for i, e := range events {
		seqs[i] = e.Seq
	}
	assert.Equal(t, []uint64{5, 6, 9, 14}, seqs)
}

func TestHighWater(t *testing.T) {
	ctx := context.Background()
	s := memory.New()

	w, err := s.HighWater(ctx)
	require.NoError(t, err)
	for _, class := range id.Classes() {
		assert.Zero(t, w[class], class)
	}

	require.NoError(t, s.CreateContract(ctx, &contract.Contract{ID: 7}))
	require.NoError(t, s.CreateContract(ctx, &contract.Contract{ID: 3}))
	require.NoError(t, s.CreateCredit(ctx, &credit.Credit{ID: 2}))
	require.NoError(t, s.AppendEvent(ctx, &event.Event{Seq: 11}, 0))

	w, err = s.HighWater(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), w[id.ClassContract])
	assert.Equal(t, uint64(2), w[id.ClassCredit])
	assert.Zero(t, w[id.ClassTransaction])
	assert.Equal(t, uint64(11), w[id.ClassEvent])
}

func TestClosedStoreRejectsWrites(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	require.NoError(t, s.Ping(ctx))
	require.NoError(t, s.Close())

	require.ErrorIs(t, s.Ping(ctx), carbonlock.ErrStoreClosed)
	require.ErrorIs(t, s.CreateContract(ctx, &contract.Contract{ID: 1}), carbonlock.ErrStoreClosed)
	require.ErrorIs(t, s.AppendEvent(ctx, &event.Event{Seq: 1}, 0), carbonlock.ErrStoreClosed)
	require.ErrorIs(t, s.DeleteContract(ctx, 1), carbonlock.ErrStoreClosed)
}
