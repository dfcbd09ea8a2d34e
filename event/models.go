package event

import "github.com/xraph/carbonlock/id"

// DefaultCapacity is the number of events the log retains.
const DefaultCapacity = 100

type Type string

const (
	TypeCreated          Type = "created"
	TypePurchased        Type = "purchased"
	TypeExpired          Type = "expired"
	TypeSettled          Type = "settled"
	TypeRiskScoreUpdated Type = "risk_score_updated"
)

// Event records one lifecycle transition. Events are never mutated once
// appended.
//
// Seq is the emission order across the whole log. CreditID is only set for
// risk-score events, which carry a zero ContractID.
type Event struct {
	ID         id.EventID `json:"id"`
	Seq        uint64     `json:"seq"`
	Type       Type       `json:"type"`
	ContractID uint64     `json:"contract_id"`
	CreditID   uint64     `json:"credit_id,omitempty"`
	Timestamp  int64      `json:"timestamp"`
	Details    string     `json:"details,omitempty"`
}
