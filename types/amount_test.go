package types

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestAmountFormatting(t *testing.T) {
	tests := []struct {
		name    string
		amount  Amount
		major   string
		display string
	}{
		{"Zero", Amount(0), "0.00000000", "0.00000000 ckBTC"},
		{"One unit", Amount(1), "0.00000001", "0.00000001 ckBTC"},
		{"Five hundred", Amount(500), "0.00000500", "0.00000500 ckBTC"},
		{"One coin", Amount(100_000_000), "1.00000000", "1.00000000 ckBTC"},
		{"Fractional", Amount(150_000_000), "1.50000000", "1.50000000 ckBTC"},
		{"Opening balance", Amount(1_000_000), "0.01000000", "0.01000000 ckBTC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.amount.FormatMajor(); got != tt.major {
				t.Errorf("FormatMajor: got %s, want %s", got, tt.major)
			}
			if got := tt.amount.String(); got != tt.display {
				t.Errorf("String: got %s, want %s", got, tt.display)
			}
		})
	}
}

func TestAmountArithmetic(t *testing.T) {
	tests := []struct {
		name    string
		op      func() (Amount, error)
		want    Amount
		wantErr error
	}{
		{"Coins", func() (Amount, error) { return Coins(1) }, 100_000_000, nil},
		{"Coins largest", func() (Amount, error) { return Coins(math.MaxUint64 / 100_000_000) }, 18_446_744_073_700_000_000, nil},
		{"Coins overflow", func() (Amount, error) { return Coins(math.MaxUint64/100_000_000 + 1) }, 0, ErrAmountOverflow},
		{"Coins far out of range", func() (Amount, error) { return Coins(200_000_000_000) }, 0, ErrAmountOverflow},
		{"Add", func() (Amount, error) { return Amount(100).Add(200) }, 300, nil},
		{"Add overflow", func() (Amount, error) { return Amount(math.MaxUint64).Add(1) }, 0, ErrAmountOverflow},
		{"Sub", func() (Amount, error) { return Amount(500).Sub(200) }, 300, nil},
		{"Sub to zero", func() (Amount, error) { return Amount(200).Sub(200) }, 0, nil},
		{"Sub insufficient", func() (Amount, error) { return Amount(100).Sub(200) }, 0, ErrInsufficient},
		{"Sum", func() (Amount, error) { return Sum(100, 200, 300) }, 600, nil},
		{"Sum empty", func() (Amount, error) { return Sum() }, 0, nil},
		{"Sum overflow", func() (Amount, error) { return Sum(math.MaxUint64, 1) }, 0, ErrAmountOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error: got %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAmountJSON(t *testing.T) {
	data, err := json.Marshal(Amount(500))
	if err != nil {
		t.Fatalf("Marshal error: %v", err)
	}

	expected := `{"units":500,"display":"0.00000500 ckBTC"}`
	if string(data) != expected {
		t.Errorf("JSON: got %s, want %s", string(data), expected)
	}

	var fromObject Amount
	if err := json.Unmarshal(data, &fromObject); err != nil {
		t.Fatalf("Unmarshal object error: %v", err)
	}
	if fromObject != 500 {
		t.Errorf("object form: got %d, want 500", fromObject)
	}

	var fromNumber Amount
	if err := json.Unmarshal([]byte("42"), &fromNumber); err != nil {
		t.Fatalf("Unmarshal number error: %v", err)
	}
	if fromNumber != 42 {
		t.Errorf("number form: got %d, want 42", fromNumber)
	}
}

func BenchmarkAmountString(b *testing.B) {
	a := Amount(123_456_789)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = a.String()
	}
}
