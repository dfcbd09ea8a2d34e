package contract

import (
	"github.com/shopspring/decimal"

	"github.com/xraph/carbonlock/identity"
	"github.com/xraph/carbonlock/types"
)

type Status string

const (
	StatusCreated   Status = "created"
	StatusPurchased Status = "purchased"
	StatusExpired   Status = "expired"
	StatusSettled   Status = "settled"
)

// Contract is a carbon-credit futures contract.
//
// Buyer is nil unless the status is purchased or settled; a contract
// expired straight from created never has one. DesignatedBuyer is the
// counterparty named at creation, if any.
type Contract struct {
	types.Entity
	ID              uint64              `json:"id"`
	Seller          identity.Principal  `json:"seller"`
	DesignatedBuyer identity.Principal  `json:"designated_buyer,omitempty"`
	Buyer           *identity.Principal `json:"buyer,omitempty"`
	AmountTonnes    uint32              `json:"amount_tonnes"`
	PriceUSD        float64             `json:"price_usd"`
	DeliveryYear    uint16              `json:"delivery_year"`
	Status          Status              `json:"status"`
	SettlementTxID  uint64              `json:"settlement_tx_id,omitempty"`
}

// Input holds the caller-supplied terms of a new contract.
type Input struct {
	Buyer        identity.Principal
	Seller       identity.Principal
	AmountTonnes uint32
	PriceUSD     float64
	DeliveryYear uint16
}

// Notional returns AmountTonnes × PriceUSD rounded to cents.
func (c *Contract) Notional() decimal.Decimal {
	return decimal.NewFromFloat(c.PriceUSD).
		Mul(decimal.NewFromInt(int64(c.AmountTonnes))).
		Round(2)
}

// Clone returns a deep copy of c.
func (c *Contract) Clone() *Contract {
	if c == nil {
		return nil
	}
	out := *c
	if c.Buyer != nil {
		b := *c.Buyer
		out.Buyer = &b
	}
	return &out
}
