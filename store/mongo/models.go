package mongo

import (
	"fmt"
	"math"

	"github.com/xraph/grove"

	"github.com/xraph/carbonlock"
	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/credit"
	"github.com/xraph/carbonlock/event"
	"github.com/xraph/carbonlock/id"
	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/settlement"
	"github.com/xraph/carbonlock/types"
)

// ==================== Contract models ====================

type contractModel struct {
	grove.BaseModel `grove:"table:carbonlock_contracts"`

	ID              int64   `grove:"id,pk"            bson:"_id"`
	Seller          string  `grove:"seller"           bson:"seller"`
	DesignatedBuyer string  `grove:"designated_buyer" bson:"designated_buyer,omitempty"`
	Buyer           *string `grove:"buyer"            bson:"buyer,omitempty"`
	AmountTonnes    int64   `grove:"amount_tonnes"    bson:"amount_tonnes"`
	PriceUSD        float64 `grove:"price_usd"        bson:"price_usd"`
	DeliveryYear    int32   `grove:"delivery_year"    bson:"delivery_year"`
	Status          string  `grove:"status"           bson:"status"`
	SettlementTxID  int64   `grove:"settlement_tx_id" bson:"settlement_tx_id"`
	CreatedAt       int64   `grove:"created_at"       bson:"created_at"`
	UpdatedAt       int64   `grove:"updated_at"       bson:"updated_at"`
}

func toContractModel(c *contract.Contract) (*contractModel, error) {
	if err := fitsInt64("contract id", c.ID); err != nil {
		return nil, err
	}
	m := &contractModel{
		ID:              int64(c.ID),
		Seller:          c.Seller.String(),
		DesignatedBuyer: c.DesignatedBuyer.String(),
		AmountTonnes:    int64(c.AmountTonnes),
		PriceUSD:        c.PriceUSD,
		DeliveryYear:    int32(c.DeliveryYear),
		Status:          string(c.Status),
		SettlementTxID:  int64(c.SettlementTxID), //nolint:gosec // tx ids come from the same int64-bounded collection
		CreatedAt:       c.CreatedAt,
		UpdatedAt:       c.UpdatedAt,
	}
	if c.Buyer != nil {
		b := c.Buyer.String()
		m.Buyer = &b
	}
	return m, nil
}

func fromContractModel(m *contractModel) *contract.Contract {
	c := &contract.Contract{
		Entity:          types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:              uint64(m.ID),
		Seller:          identity.Principal(m.Seller),
		DesignatedBuyer: identity.Principal(m.DesignatedBuyer),
		AmountTonnes:    uint32(m.AmountTonnes),
		PriceUSD:        m.PriceUSD,
		DeliveryYear:    uint16(m.DeliveryYear),
		Status:          contract.Status(m.Status),
		SettlementTxID:  uint64(m.SettlementTxID),
	}
	if m.Buyer != nil {
		b := identity.Principal(*m.Buyer)
		c.Buyer = &b
	}
	return c
}

// ==================== Credit models ====================

type creditModel struct {
	grove.BaseModel `grove:"table:carbonlock_credits"`

	ID               int64   `grove:"id,pk"              bson:"_id"`
	Owner            string  `grove:"owner"              bson:"owner"`
	RiskScore        *int32  `grove:"risk_score"         bson:"risk_score,omitempty"`
	RiskScoreHistory []int32 `grove:"risk_score_history" bson:"risk_score_history"`
	CreatedAt        int64   `grove:"created_at"         bson:"created_at"`
	UpdatedAt        int64   `grove:"updated_at"         bson:"updated_at"`
}

func toCreditModel(c *credit.Credit) (*creditModel, error) {
	if err := fitsInt64("credit id", c.ID); err != nil {
		return nil, err
	}
	m := &creditModel{
		ID:               int64(c.ID),
		Owner:            c.Owner.String(),
		RiskScoreHistory: make([]int32, len(c.RiskScoreHistory)),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
	for i, s := range c.RiskScoreHistory {
		m.RiskScoreHistory[i] = int32(s)
	}
	if c.RiskScore != nil {
		s := int32(*c.RiskScore)
		m.RiskScore = &s
	}
	return m, nil
}

func fromCreditModel(m *creditModel) *credit.Credit {
	c := &credit.Credit{
		Entity:           types.Entity{CreatedAt: m.CreatedAt, UpdatedAt: m.UpdatedAt},
		ID:               uint64(m.ID),
		Owner:            identity.Principal(m.Owner),
		RiskScoreHistory: make([]uint8, len(m.RiskScoreHistory)),
	}
	for i, s := range m.RiskScoreHistory {
		c.RiskScoreHistory[i] = uint8(s)
	}
	if m.RiskScore != nil {
		s := uint8(*m.RiskScore)
		c.RiskScore = &s
	}
	return c
}

// ==================== Transaction models ====================

type transactionModel struct {
	grove.BaseModel `grove:"table:carbonlock_transactions"`

	TxID          int64  `grove:"tx_id,pk"       bson:"_id"`
	Reference     string `grove:"reference"      bson:"reference"`
	FromAccount   string `grove:"from_account"   bson:"from_account"`
	ToAccount     string `grove:"to_account"     bson:"to_account"`
	Amount        int64  `grove:"amount"         bson:"amount"`
	Status        string `grove:"status"         bson:"status"`
	FailureReason string `grove:"failure_reason" bson:"failure_reason,omitempty"`
	Timestamp     int64  `grove:"timestamp"      bson:"timestamp"`
	ResolvedAt    int64  `grove:"resolved_at"    bson:"resolved_at"`
}

func toTransactionModel(t *settlement.Transaction) (*transactionModel, error) {
	if err := fitsInt64("tx id", t.TxID); err != nil {
		return nil, err
	}
	if err := fitsInt64("amount", uint64(t.Amount)); err != nil {
		return nil, err
	}
	return &transactionModel{
		TxID:          int64(t.TxID),
		Reference:     t.Reference.String(),
		FromAccount:   t.From.String(),
		ToAccount:     t.To.String(),
		Amount:        int64(t.Amount),
		Status:        string(t.Status),
		FailureReason: t.FailureReason,
		Timestamp:     t.Timestamp,
		ResolvedAt:    t.ResolvedAt,
	}, nil
}

func fromTransactionModel(m *transactionModel) (*settlement.Transaction, error) {
	ref, err := id.ParseSettlementRef(m.Reference)
	if err != nil {
		return nil, fmt.Errorf("carbonlock/mongo: tx %d: %w", m.TxID, err)
	}
	return &settlement.Transaction{
		TxID:          uint64(m.TxID),
		Reference:     ref,
		From:          identity.Principal(m.FromAccount),
		To:            identity.Principal(m.ToAccount),
		Amount:        types.Amount(m.Amount),
		Status:        settlement.Status(m.Status),
		FailureReason: m.FailureReason,
		Timestamp:     m.Timestamp,
		ResolvedAt:    m.ResolvedAt,
	}, nil
}

// ==================== Event models ====================

type eventModel struct {
	grove.BaseModel `grove:"table:carbonlock_events"`

	Seq        int64  `grove:"seq,pk"      bson:"_id"`
	ID         string `grove:"id"          bson:"event_id"`
	Type       string `grove:"type"        bson:"type"`
	ContractID int64  `grove:"contract_id" bson:"contract_id"`
	CreditID   int64  `grove:"credit_id"   bson:"credit_id,omitempty"`
	Timestamp  int64  `grove:"timestamp"   bson:"timestamp"`
	Details    string `grove:"details"     bson:"details,omitempty"`
}

func toEventModel(e *event.Event) (*eventModel, error) {
	if err := fitsInt64("event seq", e.Seq); err != nil {
		return nil, err
	}
	return &eventModel{
		Seq:        int64(e.Seq),
		ID:         e.ID.String(),
		Type:       string(e.Type),
		ContractID: int64(e.ContractID), //nolint:gosec // bounded by the contracts collection
		CreditID:   int64(e.CreditID),   //nolint:gosec // bounded by the credits collection
		Timestamp:  e.Timestamp,
		Details:    e.Details,
	}, nil
}

func fromEventModel(m *eventModel) (*event.Event, error) {
	eventID, err := id.ParseEventID(m.ID)
	if err != nil {
		return nil, fmt.Errorf("carbonlock/mongo: event %d: %w", m.Seq, err)
	}
	return &event.Event{
		ID:         eventID,
		Seq:        uint64(m.Seq),
		Type:       event.Type(m.Type),
		ContractID: uint64(m.ContractID),
		CreditID:   uint64(m.CreditID),
		Timestamp:  m.Timestamp,
		Details:    m.Details,
	}, nil
}

// fitsInt64 rejects values BSON cannot hold as an int64.
func fitsInt64(field string, v uint64) error {
	if v > math.MaxInt64 {
		return carbonlock.ValidationError{Field: field, Message: "exceeds the storable range"}
	}
	return nil
}
