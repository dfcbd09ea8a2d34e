package contract_test

import (
	"testing"

	"github.com/xraph/carbonlock/contract"
	"github.com/xraph/carbonlock/identity"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to contract.Status
		want     bool
	}{
		{contract.StatusCreated, contract.StatusPurchased, true},
		{contract.StatusCreated, contract.StatusExpired, true},
		{contract.StatusCreated, contract.StatusSettled, false},
		{contract.StatusPurchased, contract.StatusSettled, true},
		{contract.StatusPurchased, contract.StatusExpired, false},
		{contract.StatusPurchased, contract.StatusPurchased, false},
		{contract.StatusExpired, contract.StatusExpired, false},
		{contract.StatusExpired, contract.StatusPurchased, false},
		{contract.StatusSettled, contract.StatusExpired, false},
		{contract.Status("bogus"), contract.StatusPurchased, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := contract.CanTransition(tt.from, tt.to); got != tt.want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
			}
		})
	}
}

func TestTerminalStatuses(t *testing.T) {
	tests := []struct {
		status   contract.Status
		terminal bool
	}{
		{contract.StatusCreated, false},
		{contract.StatusPurchased, false},
		{contract.StatusExpired, true},
		{contract.StatusSettled, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.terminal {
				t.Errorf("IsTerminal = %v, want %v", got, tt.terminal)
			}
			if !tt.status.IsValid() {
				t.Errorf("%s should be valid", tt.status)
			}
		})
	}
}

func TestAllowedTransitionsIsACopy(t *testing.T) {
	got := contract.AllowedTransitions(contract.StatusCreated)
	got[0] = contract.StatusSettled

	if contract.CanTransition(contract.StatusCreated, contract.StatusSettled) {
		t.Fatal("mutating the returned slice changed the transition table")
	}
}

func TestNotional(t *testing.T) {
	tests := []struct {
		name   string
		tonnes uint32
		price  float64
		want   string
	}{
		{"Whole", 100, 10, "1000"},
		{"Cents", 3, 10.10, "30.3"},
		{"Float drift", 3, 0.1, "0.3"},
		{"Free", 50, 0, "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &contract.Contract{AmountTonnes: tt.tonnes, PriceUSD: tt.price}
			if got := c.Notional().String(); got != tt.want {
				t.Errorf("Notional = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	buyer := identity.Principal("buyer")
	c := &contract.Contract{ID: 1, Buyer: &buyer}

	cp := c.Clone()
	*cp.Buyer = "someone-else"

	if *c.Buyer != "buyer" {
		t.Errorf("clone shares Buyer with original")
	}
	if (*contract.Contract)(nil).Clone() != nil {
		t.Errorf("Clone of nil should be nil")
	}
}
