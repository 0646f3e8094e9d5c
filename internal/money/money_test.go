package money

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestRound2(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"10.005", "10.01"},
		{"10.004", "10"},
		{"0", "0"},
		{"-2.505", "-2.51"},
		{"99.999", "100"},
	}
	for _, tc := range cases {
		if got := Round2(dec(tc.in)); !got.Equal(dec(tc.want)) {
			t.Errorf("Round2(%s) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestPercent(t *testing.T) {
	cases := []struct {
		amount string
		pct    string
		want   string
	}{
		{"100", "10", "10"},
		{"40", "10", "4"},
		{"59.99", "15", "9"},
		{"0", "50", "0"},
		{"33.33", "33.33", "11.11"},
	}
	for _, tc := range cases {
		if got := Percent(dec(tc.amount), dec(tc.pct)); !got.Equal(dec(tc.want)) {
			t.Errorf("Percent(%s, %s) = %s, want %s", tc.amount, tc.pct, got, tc.want)
		}
	}
}

func TestRatio(t *testing.T) {
	if got := Ratio(dec("90"), dec("100")); !got.Equal(dec("0.9")) {
		t.Errorf("Ratio(90, 100) = %s, want 0.9", got)
	}
	if got := Ratio(dec("5"), decimal.Zero); !got.IsZero() {
		t.Errorf("Ratio with zero whole = %s, want 0", got)
	}
}

func TestClampZero(t *testing.T) {
	if got := ClampZero(dec("-3.50")); !got.IsZero() {
		t.Errorf("ClampZero(-3.50) = %s, want 0", got)
	}
	if got := ClampZero(dec("3.50")); !got.Equal(dec("3.50")) {
		t.Errorf("ClampZero(3.50) = %s, want 3.50", got)
	}
}

func TestMax(t *testing.T) {
	if got := Max(dec("10"), dec("12")); !got.Equal(dec("12")) {
		t.Errorf("Max(10, 12) = %s, want 12", got)
	}
	if got := Max(dec("12"), dec("10")); !got.Equal(dec("12")) {
		t.Errorf("Max(12, 10) = %s, want 12", got)
	}
}

func TestIsPositive(t *testing.T) {
	if IsPositive(decimal.Zero) {
		t.Error("zero should not be positive")
	}
	if IsPositive(dec("-1")) {
		t.Error("-1 should not be positive")
	}
	if !IsPositive(dec("0.01")) {
		t.Error("0.01 should be positive")
	}
}
