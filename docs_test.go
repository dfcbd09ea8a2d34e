package carbonlock_test

import (
	"context"
	"log"
	"log/slog"
	"testing"
	"time"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/settlement/simulator"
	"github.com/xraph/carbonlock/store/memory"
	"github.com/xraph/carbonlock/types"
)

// TestDocumentationExamples verifies that the examples in the package
// documentation work as written.
func TestDocumentationExamples(t *testing.T) {
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		store := memory.New()

		eng := carbonlock.New(store,
			carbonlock.WithLogger(slog.New(slog.DiscardHandler)),
			carbonlock.WithSettlement(simulator.New()),
			carbonlock.WithSettlementTimeout(5*time.Second),
			carbonlock.WithExpirySchedule("0 * * * *"),
		)

		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop()

		contractID, err := eng.CreateContract(ctx, contract.Input{
			Seller:       "forest-coop",
			AmountTonnes: 500,
			PriceUSD:     18.75,
			DeliveryYear: 2031,
		})
		if err != nil {
			t.Fatal(err)
		}

		// Callers are attached by the host after authentication
		buyerCtx := identity.WithCaller(ctx, "airline-treasury")
		if err := eng.BuyContract(buyerCtx, contractID); err != nil {
			t.Fatal(err)
		}

		if err := eng.ConfigureSettlement(ctx, "ckbtc-ledger"); err != nil {
			t.Fatal(err)
		}
		txID, err := eng.SettleContract(ctx, contractID, types.Amount(250_000))
		if err != nil {
			t.Fatal(err)
		}
		log.Printf("contract %d settled by tx %d\n", contractID, txID)

		events, err := eng.ListEvents(ctx, event.ListOpts{ContractID: contractID})
		if err != nil {
			t.Fatal(err)
		}
		if len(events) != 3 {
			t.Fatalf("expected 3 events, got %d", len(events))
		}
	})

	t.Run("AmountExamples", func(t *testing.T) {
		a, err := types.Coins(1) // 1 ckBTC
		if err != nil {
			t.Fatal(err)
		}
		b := types.Amount(50_000_000)

		sum, err := a.Add(b)
		if err != nil {
			t.Fatal(err)
		}
		if got := sum.FormatMajor(); got != "1.50000000" {
			t.Errorf("FormatMajor = %q", got)
		}

		if _, err := b.Sub(a); err == nil {
			t.Error("expected insufficient amount error")
		}
	})
}
