package domain

import (
	"math"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
)

func TestFromFinite(t *testing.T) {
	tests := []struct {
		name   string
		input  float64
		want   string
		wantOK bool
	}{
		{"integer", 2000, "2000", true},
		{"fraction", 0.5, "0.5", true},
		{"negative", -3.25, "-3.25", true},
		{"zero", 0, "0", true},
		{"NaN", math.NaN(), "0", false},
		{"+Inf", math.Inf(1), "0", false},
		{"-Inf", math.Inf(-1), "0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := FromFinite(tt.input)
			if ok != tt.wantOK {
				t.Fatalf("FromFinite(%v) ok = %v, want %v", tt.input, ok, tt.wantOK)
			}
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("FromFinite(%v) = %s, want %s", tt.input, got, want)
			}
		})
	}
}

func TestSafeDivByZero(t *testing.T) {
	if _, ok := SafeDiv(decimal.NewFromInt(1), decimal.Zero); ok {
		t.Error("SafeDiv by zero returned ok")
	}
	got, ok := SafeDiv(decimal.NewFromInt(10), decimal.NewFromInt(4))
	if !ok || !got.Equal(decimal.RequireFromString("2.5")) {
		t.Errorf("SafeDiv(10, 4) = %s, %v, want 2.5, true", got, ok)
	}
}

func TestPercent(t *testing.T) {
	got, ok := Percent(decimal.NewFromInt(100), decimal.NewFromInt(2100))
	if !ok {
		t.Fatal("Percent returned not ok")
	}
	if got.Round(2).String() != "4.76" {
		t.Errorf("Percent(100, 2100) = %s, want ~4.76", got)
	}
	if _, ok := Percent(decimal.NewFromInt(1), decimal.Zero); ok {
		t.Error("Percent with zero whole returned ok")
	}
}

func TestScaleRaw(t *testing.T) {
	tests := []struct {
		name     string
		raw      *big.Int
		decimals uint8
		want     string
	}{
		{"nil", nil, 18, "0"},
		{"one ether", new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil), 18, "1"},
		{"usdc", big.NewInt(1_234_567), 6, "1.234567"},
		{"no decimals", big.NewInt(42), 0, "42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScaleRaw(tt.raw, tt.decimals)
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("ScaleRaw() = %s, want %s", got, want)
			}
		})
	}
}

func TestAddOptional(t *testing.T) {
	one := decimal.NewFromInt(1)
	two := decimal.NewFromInt(2)

	if got := AddOptional(nil, nil); got != nil {
		t.Errorf("AddOptional(nil, nil) = %s, want nil", got)
	}
	if got := AddOptional(&one, nil); got == nil || !got.Equal(one) {
		t.Errorf("AddOptional(1, nil) = %v, want 1", got)
	}
	if got := AddOptional(nil, &two); got == nil || !got.Equal(two) {
		t.Errorf("AddOptional(nil, 2) = %v, want 2", got)
	}
	if got := AddOptional(&one, &two); got == nil || !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("AddOptional(1, 2) = %v, want 3", got)
	}
}
