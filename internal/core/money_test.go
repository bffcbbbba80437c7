package core

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseMoney(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half away from zero
		{"105", 10500, true},
		{"-1", -100, true},
		{"10000000000", 1_000_000_000_000, true},
		{"-10000000000", -1_000_000_000_000, true},
		{"10000000000.01", 0, false},
		{"184467440737095516.17", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseMoney(tc.in)
		if tc.ok {
			if err != nil || got.Cents != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got.Cents, err)
			}
		} else if err == nil {
			t.Fatalf("%q expected error", tc.in)
		}
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{
		0:     "0.00",
		5:     "0.05",
		10000: "100.00",
		11550: "115.50",
		-250:  "-2.50",
	}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Errorf("Money{%d}.String() = %q, want %q", cents, got, want)
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := Money{Cents: 6000}
	b := Money{Cents: 4500}
	if got := a.Add(b); got.Cents != 10500 {
		t.Fatalf("add: got %d", got.Cents)
	}
	if got := b.Sub(a); !got.IsNegative() {
		t.Fatalf("sub: expected negative, got %d", got.Cents)
	}
	if !a.Add(b).GreaterOrEqual(Money{Cents: 10000}) {
		t.Fatal("105.00 should be >= 100.00")
	}
	if (Money{Cents: 9999}).GreaterOrEqual(Money{Cents: 10000}) {
		t.Fatal("99.99 should not be >= 100.00")
	}
	if f := (Money{Cents: 1234}).Float64(); f != 12.34 {
		t.Fatalf("float: got %v", f)
	}
}

func TestMoneyFromDecimalRejectsOversized(t *testing.T) {
	for _, in := range []string{"10000000000.005", "-10000000000.01", "92233720368547758.08", "1e30"} {
		_, err := MoneyFromDecimal(decimal.RequireFromString(in))
		if !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("%s: expected ErrInvalidAmount, got %v", in, err)
		}
	}

	m, err := MoneyFromDecimal(decimal.RequireFromString("9999999999.994"))
	if err != nil || m.Cents != MaxAmountCents-1 {
		t.Fatalf("got %d (err=%v)", m.Cents, err)
	}
}

func TestMoneyInRange(t *testing.T) {
	if !(Money{Cents: MaxAmountCents}).InRange() || !(Money{Cents: -MaxAmountCents}).InRange() {
		t.Fatal("bounds should be in range")
	}
	if (Money{Cents: MaxAmountCents + 1}).InRange() {
		t.Fatal("above bound should be out of range")
	}
}
