package carbonlock

import (
	"context"
	"fmt"
	"strconv"

	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/types"
)

// ──────────────────────────────────────────────────
// Credit registry
// ──────────────────────────────────────────────────

// CreateCredit registers a credit owned by the caller attached to ctx, or by
// identity.Anonymous, and returns its id.
func (e *Engine) CreateCredit(ctx context.Context) (uint64, error) {
	e.mu.Lock()
	c := &credit.Credit{
		Entity:           types.NewEntity(e.clock.Now()),
		ID:               e.issuer.Next(id.ClassCredit),
		Owner:            identity.CallerOrAnonymous(ctx),
		RiskScoreHistory: []uint8{},
	}
	err := e.credits.Create(ctx, c)
	e.mu.Unlock()
	if err != nil {
		return 0, fmt.Errorf("carbonlock: create credit: %w", err)
	}

	e.logger.Info("credit created",
		"credit_id", c.ID,
		"owner", c.Owner,
	)
	e.plugins.EmitCreditCreated(ctx, c)
	return c.ID, nil
}

// UpdateRiskScore sets the current risk score of a credit and appends it to
// the bounded score history. When a risk oracle is configured only that
// principal may call it.
func (e *Engine) UpdateRiskScore(ctx context.Context, creditID uint64, score uint8) error {
	if !e.riskOracle.IsZero() {
		if caller, _ := identity.Caller(ctx); caller != e.riskOracle {
			return fmt.Errorf("%w: %q may not update risk scores", ErrForbidden, caller)
		}
	}

	e.mu.Lock()
	c, err := e.credits.Get(ctx, creditID)
	if err != nil {
		e.mu.Unlock()
		return err
	}
	prev := c.Clone()
	var previous *uint8
	if c.RiskScore != nil {
		p := *c.RiskScore
		previous = &p
	}
	c.RecordRiskScore(score)
	c.Touch(e.clock.Now())

	if err := e.credits.Update(ctx, c); err != nil {
		e.mu.Unlock()
		return fmt.Errorf("carbonlock: update credit %d: %w", creditID, err)
	}
	ev, err := e.appendEvent(ctx, event.TypeRiskScoreUpdated, 0, creditID,
		"score="+strconv.FormatUint(uint64(score), 10))
	if err != nil {
		err = e.undo(err, "credit", creditID, e.credits.Update(ctx, prev))
		e.mu.Unlock()
		return err
	}
	e.mu.Unlock()

	e.logger.Debug("risk score updated",
		"credit_id", creditID,
		"score", score,
		"history_len", len(c.RiskScoreHistory),
	)
	e.plugins.EmitRiskScoreUpdated(ctx, c, previous)
	e.plugins.EmitEventAppended(ctx, ev)
	return nil
}

// GetCredit returns a copy of the credit.
func (e *Engine) GetCredit(ctx context.Context, creditID uint64) (*credit.Credit, error) {
	return e.credits.Get(ctx, creditID)
}

// ListCredits returns copies of the matching credits.
func (e *Engine) ListCredits(ctx context.Context, opts credit.ListOpts) ([]*credit.Credit, error) {
	return e.credits.List(ctx, opts)
}
