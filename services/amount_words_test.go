package services

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestAmountToWordsBRL(t *testing.T) {
	tests := []struct {
		amount string
		want   string
	}{
		{"0", "zero reais"},
		{"1", "um real"},
		{"0.01", "um centavo"},
		{"0.5", "cinquenta centavos"},
		{"2.05", "dois reais e cinco centavos"},
		{"15", "quinze reais"},
		{"21", "vinte e um reais"},
		{"100", "cem reais"},
		{"101", "cento e um reais"},
		{"345", "trezentos e quarenta e cinco reais"},
		{"1000", "mil reais"},
		{"1001", "mil e um reais"},
		{"1200", "mil e duzentos reais"},
		{"1645.5", "mil seiscentos e quarenta e cinco reais e cinquenta centavos"},
		{"18500", "dezoito mil e quinhentos reais"},
		{"19746", "dezenove mil setecentos e quarenta e seis reais"},
		{"100000", "cem mil reais"},
		{"1000000", "um milhão de reais"},
		{"2000000", "dois milhões de reais"},
		{"1500000", "um milhão e quinhentos mil reais"},
		{"1230000", "um milhão, duzentos e trinta mil reais"},
		{"84058.722", "oitenta e quatro mil e cinquenta e oito reais e setenta e dois centavos"},
		{"2000000000000", "dois trilhões de reais"},
		{"1000000000000000", "um quatrilhão de reais"},
		{"3000000000000001", "três quatrilhões e um reais"},
		{"5000000000000000000", "cinco quintilhões de reais"},
		{"-10", "menos dez reais"},
	}

	for _, tt := range tests {
		t.Run(tt.amount, func(t *testing.T) {
			got := AmountToWordsBRL(decimal.RequireFromString(tt.amount))
			if got != tt.want {
				t.Errorf("AmountToWordsBRL(%s) = %q, want %q", tt.amount, got, tt.want)
			}
		})
	}
}

func TestAmountToWordsBRL_OutOfRange(t *testing.T) {
	amount := decimal.RequireFromString("10000000000000000000")
	got := AmountToWordsBRL(amount)
	if got != FormatBRL(amount) {
		t.Errorf("AmountToWordsBRL(1e19) = %q, want the numeral %q", got, FormatBRL(amount))
	}
}
