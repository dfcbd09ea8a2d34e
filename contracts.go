package carbonlock

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/types"
)

// ──────────────────────────────────────────────────
// Contract lifecycle
// ──────────────────────────────────────────────────

// CreateContract records a new futures contract in the created state and
// returns its id. in.Buyer, if set, is kept as the designated buyer; the
// actual buyer is assigned on purchase.
func (e *Engine) CreateContract(ctx context.Context, in contract.Input) (uint64, error) {
	if err := validateInput(in); err != nil {
		return 0, err
	}

	e.mu.Lock()
	now := e.clock.Now()
	c := &contract.Contract{
		Entity:          types.NewEntity(now),
		ID:              e.issuer.Next(id.ClassContract),
		Seller:          in.Seller,
		DesignatedBuyer: in.Buyer,
		AmountTonnes:    in.AmountTonnes,
		PriceUSD:        in.PriceUSD,
		DeliveryYear:    in.DeliveryYear,
		Status:          contract.StatusCreated,
	}
	if err := e.contracts.Create(ctx, c); err != nil {
		e.mu.Unlock()
		return 0, fmt.Errorf("carbonlock: create contract: %w", err)
	}
	ev, err := e.appendEvent(ctx, event.TypeCreated, c.ID, 0, "")
	if err != nil {
		err = e.undo(err, "contract", c.ID, e.contracts.Delete(ctx, c.ID))
		e.mu.Unlock()
		return 0, err
	}
	e.mu.Unlock()

	e.logger.Info("contract created",
		"contract_id", c.ID,
		"seller", c.Seller,
		"amount_tonnes", c.AmountTonnes,
		"notional_usd", c.Notional().StringFixed(2),
	)
	e.plugins.EmitContractCreated(ctx, c)
	e.plugins.EmitEventAppended(ctx, ev)
	return c.ID, nil
}

// BuyContract purchases a created contract for the caller attached to ctx,
// or for the designated buyer when ctx carries no caller.
func (e *Engine) BuyContract(ctx context.Context, contractID uint64) error {
	buyer, ok := identity.Caller(ctx)

	c, ev, err := e.transition(ctx, contractID, contract.StatusPurchased, event.TypePurchased, "",
		func(c *contract.Contract) error {
			if !ok {
				buyer = c.DesignatedBuyer
			}
			if buyer.IsZero() {
				return ValidationError{Field: "buyer", Message: "no caller and no designated buyer"}
			}
			c.Buyer = &buyer
			return nil
		})
	if err != nil {
		return err
	}

	e.logger.Info("contract purchased",
		"contract_id", c.ID,
		"buyer", buyer,
	)
	e.plugins.EmitContractPurchased(ctx, c)
	e.plugins.EmitEventAppended(ctx, ev)
	return nil
}

// ExpireContract moves a created contract to expired. Purchased, settled
// and already expired contracts are rejected with ErrInvalidTransition.
func (e *Engine) ExpireContract(ctx context.Context, contractID uint64) error {
	c, ev, err := e.transition(ctx, contractID, contract.StatusExpired, event.TypeExpired, "", nil)
	if err != nil {
		return err
	}

	e.logger.Info("contract expired", "contract_id", c.ID)
	e.plugins.EmitContractExpired(ctx, c)
	e.plugins.EmitEventAppended(ctx, ev)
	return nil
}

// SettleContract pays for a purchased contract by transferring amount from
// its buyer to its seller. On confirmation the contract becomes settled and
// the transaction id is returned. On failure the contract stays purchased
// and the transfer error is returned.
func (e *Engine) SettleContract(ctx context.Context, contractID uint64, amount types.Amount) (uint64, error) {
	e.mu.Lock()
	c, err := e.contracts.Get(ctx, contractID)
	if err != nil {
		e.mu.Unlock()
		return 0, err
	}
	if !contract.CanTransition(c.Status, contract.StatusSettled) || c.Buyer == nil {
		e.mu.Unlock()
		return 0, &TransitionError{ContractID: contractID, From: string(c.Status), To: string(contract.StatusSettled)}
	}
	if _, busy := e.settling[contractID]; busy {
		e.mu.Unlock()
		return 0, fmt.Errorf("%w: contract %d is already being settled", ErrInvalidTransition, contractID)
	}
	e.settling[contractID] = struct{}{}
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		delete(e.settling, contractID)
		e.mu.Unlock()
	}()

	txID, err := e.Transfer(ctx, *c.Buyer, c.Seller, amount)
	if err != nil {
		return 0, err
	}

	// The transfer is confirmed; record it even if the caller went away.
	ctx = context.WithoutCancel(ctx)
	c, ev, err := e.transition(ctx, contractID, contract.StatusSettled, event.TypeSettled,
		"tx_id="+strconv.FormatUint(txID, 10),
		func(c *contract.Contract) error {
			c.SettlementTxID = txID
			return nil
		})
	if err != nil {
		e.logger.Error("confirmed transfer could not be applied to contract",
			"contract_id", contractID,
			"tx_id", txID,
			"error", err,
		)
		return txID, err
	}

	tx, err := e.transactions.Get(ctx, txID)
	if err != nil {
		return txID, err
	}

	e.logger.Info("contract settled",
		"contract_id", c.ID,
		"tx_id", txID,
		"amount", amount,
	)
	e.plugins.EmitContractSettled(ctx, c, tx)
	e.plugins.EmitEventAppended(ctx, ev)
	return txID, nil
}

// ExpireOverdue expires every created contract whose delivery year ended
// before now (seconds since the epoch) and returns how many it expired.
func (e *Engine) ExpireOverdue(ctx context.Context, now int64) (int, error) {
	year := time.Unix(now, 0).UTC().Year()

	created, err := e.contracts.List(ctx, contract.ListOpts{Status: contract.StatusCreated})
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, c := range created {
		if int(c.DeliveryYear) >= year {
			continue
		}
		if err := e.ExpireContract(ctx, c.ID); err != nil {
			// Bought or expired by someone else since the listing.
			if errors.Is(err, ErrInvalidTransition) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// GetContract returns a copy of the contract.
func (e *Engine) GetContract(ctx context.Context, contractID uint64) (*contract.Contract, error) {
	return e.contracts.Get(ctx, contractID)
}

// ListContracts returns copies of the matching contracts. Callers must not
// rely on their order.
func (e *Engine) ListContracts(ctx context.Context, opts contract.ListOpts) ([]*contract.Contract, error) {
	return e.contracts.List(ctx, opts)
}

// transition applies one lifecycle move under the engine lock. mutate, if
// set, runs after the move is validated and before the contract is stored.
// Nothing is stored and no event is emitted when the move is not allowed.
func (e *Engine) transition(
	ctx context.Context,
	contractID uint64,
	to contract.Status,
	typ event.Type,
	details string,
	mutate func(*contract.Contract) error,
) (*contract.Contract, *event.Event, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	c, err := e.contracts.Get(ctx, contractID)
	if err != nil {
		return nil, nil, err
	}
	if !contract.CanTransition(c.Status, to) {
		return nil, nil, &TransitionError{ContractID: contractID, From: string(c.Status), To: string(to)}
	}
	prev := c.Clone()
	if mutate != nil {
		if err := mutate(c); err != nil {
			return nil, nil, err
		}
	}
	c.Status = to
	c.Touch(e.clock.Now())

	if err := e.contracts.Update(ctx, c); err != nil {
		return nil, nil, fmt.Errorf("carbonlock: update contract %d: %w", contractID, err)
	}
	ev, err := e.appendEvent(ctx, typ, contractID, 0, details)
	if err != nil {
		return nil, nil, e.undo(err, "contract", contractID, e.contracts.Update(ctx, prev))
	}
	return c, ev, nil
}

// undo reports err after a rollback of the change that preceded it. A
// failed rollback is logged and joined to err.
func (e *Engine) undo(err error, kind string, entityID uint64, rollbackErr error) error {
	if rollbackErr == nil {
		return err
	}
	e.logger.Error("failed to roll back "+kind+" after event append failure",
		kind+"_id", entityID,
		"error", rollbackErr,
	)
	var errs MultiError
	errs.Add(err)
	errs.Add(fmt.Errorf("carbonlock: roll back %s %d: %w", kind, entityID, rollbackErr))
	return errs.ErrOrNil()
}

func validateInput(in contract.Input) error {
	if in.Seller.IsZero() {
		return ValidationError{Field: "seller", Message: "required"}
	}
	if in.AmountTonnes == 0 {
		return ValidationError{Field: "amount_tonnes", Message: "must be greater than zero"}
	}
	if math.IsNaN(in.PriceUSD) || math.IsInf(in.PriceUSD, 0) {
		return ValidationError{Field: "price_usd", Message: "must be a finite number"}
	}
	if in.PriceUSD < 0 {
		return ValidationError{Field: "price_usd", Message: "must not be negative"}
	}
	return nil
}
