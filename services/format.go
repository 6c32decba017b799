package services

import (
	"strings"

	"github.com/shopspring/decimal"
)

// currencyPrefix matches pt-BR currency output: "R$" followed by a
// non-breaking space.
const currencyPrefix = "R$\u00a0"

// FormatBRL formats an amount in Brazilian Real notation, e.g. R$ 1.234,56.
// The result always includes exactly 2 decimal places, rounded half away
// from zero.
func FormatBRL(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	if negative {
		amount = amount.Neg()
	}

	raw := amount.StringFixed(2)
	parts := strings.SplitN(raw, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

	result := currencyPrefix + applyThousandsGrouping(intPart, ".") + "," + decPart
	if negative && result != currencyPrefix+"0,00" {
		result = "-" + result
	}
	return result
}

// FormatPercent renders a rate such as 0.14 as "14%".
func FormatPercent(rate decimal.Decimal) string {
	return rate.Mul(decimal.NewFromInt(100)).Round(0).String() + "%"
}

// applyThousandsGrouping inserts sep between every group of three digits,
// counting from the right.
func applyThousandsGrouping(s, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteString(sep)
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
