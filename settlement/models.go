package settlement

import (
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/types"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFailed    Status = "failed"
)

// IsTerminal reports whether s is a final outcome.
func (s Status) IsTerminal() bool {
	return s == StatusConfirmed || s == StatusFailed
}

// Transaction records one transfer attempt. It is stored pending before the
// collaborator is called and resolved exactly once afterwards.
type Transaction struct {
	TxID          uint64             `json:"tx_id"`
	Reference     id.SettlementRef   `json:"reference"`
	From          identity.Principal `json:"from"`
	To            identity.Principal `json:"to"`
	Amount        types.Amount       `json:"amount"`
	Status        Status             `json:"status"`
	FailureReason string             `json:"failure_reason,omitempty"`
	Timestamp     int64              `json:"timestamp"`
	ResolvedAt    int64              `json:"resolved_at,omitempty"`
}

// Resolve moves a pending transaction to its outcome. A non-empty reason
// marks it failed. It reports false, leaving t unchanged, when t was already
// resolved.
func (t *Transaction) Resolve(reason string, now int64) bool {
	if t.Status != StatusPending {
		return false
	}
	if reason != "" {
		t.Status = StatusFailed
		t.FailureReason = reason
	} else {
		t.Status = StatusConfirmed
	}
	if now < t.Timestamp {
		now = t.Timestamp
	}
	t.ResolvedAt = now
	return true
}

// Clone returns a copy of t.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	out := *t
	return &out
}
