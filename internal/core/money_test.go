package core

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCents int64
		wantErr   bool
	}{
		{name: "plain integer", input: "12", wantCents: 1200},
		{name: "two decimals", input: "12.34", wantCents: 1234},
		{name: "negative expense", input: "-42.50", wantCents: -4250},
		{name: "comma as decimal separator", input: "12,34", wantCents: 1234},
		{name: "leading plus", input: "+5.00", wantCents: 500},
		{name: "surrounding whitespace", input: "  7.5 ", wantCents: 750},
		{name: "single decimal digit", input: "0.5", wantCents: 50},
		{name: "rounds half away from zero", input: "0.005", wantCents: 1},
		{name: "zero", input: "0", wantCents: 0},
		{name: "empty string", input: "", wantErr: true},
		{name: "letters", input: "abc", wantErr: true},
		{name: "mixed digits and letters", input: "12abc", wantErr: true},
		{name: "double dot", input: "1.2.3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseAmount(%q) expected error, got %d cents", tt.input, got.Cents)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmount(%q) unexpected error: %v", tt.input, err)
			}
			if got.Cents != tt.wantCents {
				t.Errorf("ParseAmount(%q) = %d cents, want %d", tt.input, got.Cents, tt.wantCents)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{cents: 0, want: "0.00"},
		{cents: 1234, want: "12.34"},
		{cents: -4250, want: "-42.50"},
		{cents: 200000, want: "2000.00"},
		{cents: 5, want: "0.05"},
	}

	for _, tt := range tests {
		got := Money{Cents: tt.cents}.String()
		if got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: -4250}
	b := Money{Cents: 200000}

	if got := a.Add(b); got.Cents != 195750 {
		t.Errorf("Add = %d, want 195750", got.Cents)
	}
	if got := a.Neg(); got.Cents != 4250 {
		t.Errorf("Neg = %d, want 4250", got.Cents)
	}
	if got := a.Abs(); got.Cents != 4250 {
		t.Errorf("Abs = %d, want 4250", got.Cents)
	}
	if got := b.Abs(); got.Cents != 200000 {
		t.Errorf("Abs of positive = %d, want 200000", got.Cents)
	}
	if !a.IsNegative() {
		t.Error("IsNegative should be true for -4250")
	}
	if b.IsNegative() {
		t.Error("IsNegative should be false for 200000")
	}
}

func TestSumAmounts(t *testing.T) {
	txs := []Transaction{
		{Amount: Money{Cents: -4250}},
		{Amount: Money{Cents: 200000}},
	}
	if got := SumAmounts(txs); got.Cents != 195750 {
		t.Errorf("SumAmounts = %d cents, want 195750", got.Cents)
	}
	if got := SumAmounts(nil); got.Cents != 0 {
		t.Errorf("SumAmounts(nil) = %d cents, want 0", got.Cents)
	}
}
