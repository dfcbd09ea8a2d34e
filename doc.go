// Package carbonlock provides the state and settlement core of a
// carbon-credit futures marketplace.
//
// Carbonlock is a library, not a service. The host owns transport, caller
// authentication and process lifecycle, and drives an Engine directly. The
// engine provides:
//
//   - Futures contract lifecycle (created, purchased, expired, settled)
//   - Carbon credits with a bounded risk score history
//   - Settlement transfers against an external network, at most once each
//   - A bounded, ordered audit log of lifecycle events
//   - Pluggable lifecycle hooks for audit trails and metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/carbonlock"
//	    "github.com/xraph/carbonlock/settlement/simulator"
//	    "github.com/xraph/carbonlock/store/memory"
//	)
//
//	eng := carbonlock.New(memory.New(),
//	    carbonlock.WithSettlement(simulator.New()),
//	    carbonlock.WithExpirySchedule("0 * * * *"),
//	)
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Callers
//
// The engine reads the authenticated caller from the context. Attach it with
// identity.WithCaller before calling BuyContract, CreateCredit or
// UpdateRiskScore:
//
//	ctx = identity.WithCaller(ctx, "buyer-principal")
//	err := eng.BuyContract(ctx, contractID)
//
// # Identifiers
//
// Contracts, credits, transactions and events are numbered from 1 in
// separate sequences that never skip or reuse a value. On Start the engine
// resumes each sequence from the highest value found in the store.
// Settlement references and event ids are TypeIDs:
//
//	stl_01h2xcejqtf2nbrexx3vqjhp41  // settlement reference
//	evt_01h455vb4pex5vsknk084sn02q  // event id
//
// # Amounts
//
// Settlement amounts are types.Amount, an unsigned count of the smallest
// ckBTC unit (eight decimals). Contract prices are USD per tonne and the
// notional value is computed with decimal arithmetic.
package carbonlock
