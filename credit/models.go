package credit

import (
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/types"
)

// HistoryLen is the number of risk scores a credit remembers.
const HistoryLen = 10

type Credit struct {
	types.Entity
	ID               uint64             `json:"id"`
	Owner            identity.Principal `json:"owner"`
	RiskScore        *uint8             `json:"risk_score,omitempty"`
	RiskScoreHistory []uint8            `json:"risk_score_history"`
}

// RecordRiskScore sets the current score and appends it to the history,
// dropping the oldest entries beyond HistoryLen.
func (c *Credit) RecordRiskScore(score uint8) {
	s := score
	c.RiskScore = &s

	c.RiskScoreHistory = append(c.RiskScoreHistory, score)
	if over := len(c.RiskScoreHistory) - HistoryLen; over > 0 {
		trimmed := make([]uint8, HistoryLen)
		copy(trimmed, c.RiskScoreHistory[over:])
		c.RiskScoreHistory = trimmed
	}
}

// Clone returns a deep copy of c.
func (c *Credit) Clone() *Credit {
	if c == nil {
		return nil
	}
	out := *c
	if c.RiskScore != nil {
		s := *c.RiskScore
		out.RiskScore = &s
	}
	out.RiskScoreHistory = append([]uint8(nil), c.RiskScoreHistory...)
	if out.RiskScoreHistory == nil {
		out.RiskScoreHistory = []uint8{}
	}
	return &out
}
