package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestFormatBRL_Values(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{"zero", "0", "R$\u00a00,00"},
		{"small integer", "5", "R$\u00a05,00"},
		{"with decimals", "42.5", "R$\u00a042,50"},
		{"hundreds", "999.99", "R$\u00a0999,99"},
		{"thousands", "1234.56", "R$\u00a01.234,56"},
		{"base rate", "1097", "R$\u00a01.097,00"},
		{"millions", "1234567.89", "R$\u00a01.234.567,89"},
		{"rounds to cents", "2334.9645", "R$\u00a02.334,96"},
		{"negative", "-250000.5", "-R$\u00a0250.000,50"},
		{"negative rounding to zero", "-0.001", "R$\u00a00,00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatBRL(decimal.RequireFromString(tt.input))
			if got != tt.expect {
				t.Errorf("FormatBRL(%s) = %q, want %q", tt.input, got, tt.expect)
			}
		})
	}
}

func TestFormatPercent(t *testing.T) {
	tests := []struct {
		rate   string
		expect string
	}{
		{"0", "0%"},
		{"0.07", "7%"},
		{"0.14", "14%"},
		{"0.45", "45%"},
		{"1", "100%"},
	}

	for _, tt := range tests {
		if got := FormatPercent(decimal.RequireFromString(tt.rate)); got != tt.expect {
			t.Errorf("FormatPercent(%s) = %q, want %q", tt.rate, got, tt.expect)
		}
	}
}
