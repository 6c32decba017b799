package services

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	unitWords = []string{
		"zero", "um", "dois", "três", "quatro", "cinco", "seis", "sete", "oito", "nove",
		"dez", "onze", "doze", "treze", "quatorze", "quinze", "dezesseis", "dezessete", "dezoito", "dezenove",
	}
	tensWords = []string{
		"", "", "vinte", "trinta", "quarenta", "cinquenta", "sessenta", "setenta", "oitenta", "noventa",
	}
	hundredsWords = []string{
		"", "cento", "duzentos", "trezentos", "quatrocentos", "quinhentos",
		"seiscentos", "setecentos", "oitocentos", "novecentos",
	}
	// scale names for groups of three digits above the thousands, singular then plural
	scaleWords = [][2]string{
		{"", ""},
		{"mil", "mil"},
		{"milhão", "milhões"},
		{"bilhão", "bilhões"},
		{"trilhão", "trilhões"},
		{"quatrilhão", "quatrilhões"},
		{"quintilhão", "quintilhões"},
	}

	maxSpelledReais = decimal.NewFromInt(math.MaxInt64)
)

// AmountToWordsBRL spells out a money amount in Brazilian Portuguese, as
// printed next to contract values: 18500 → "dezoito mil e quinhentos reais".
// The amount is rounded to centavos first. Amounts whose reais do not fit
// in an int64 (nine quintillion and above) cannot be spelled and come back as
// the FormatBRL numeral.
func AmountToWordsBRL(amount decimal.Decimal) string {
	if amount.IsNegative() {
		return "menos " + AmountToWordsBRL(amount.Neg())
	}
	amount = amount.Round(2)
	if amount.Truncate(0).GreaterThan(maxSpelledReais) {
		return FormatBRL(amount)
	}
	reais := amount.IntPart()
	centavos := amount.Sub(decimal.NewFromInt(reais)).Mul(decimal.NewFromInt(100)).IntPart()

	var parts []string
	if reais > 0 || centavos == 0 {
		words := integerToWords(reais)
		switch {
		case reais == 1:
			words += " real"
		case reais >= 1_000_000 && reais%1_000_000 == 0:
			words += " de reais"
		default:
			words += " reais"
		}
		parts = append(parts, words)
	}
	if centavos > 0 {
		words := integerToWords(centavos)
		if centavos == 1 {
			words += " centavo"
		} else {
			words += " centavos"
		}
		parts = append(parts, words)
	}
	return strings.Join(parts, " e ")
}

// integerToWords spells out any non-negative int64.
func integerToWords(n int64) string {
	if n == 0 {
		return unitWords[0]
	}

	var groups []int64
	for n > 0 {
		groups = append(groups, n%1000)
		n /= 1000
	}

	var b strings.Builder
	for i := len(groups) - 1; i >= 0; i-- {
		g := groups[i]
		if g == 0 {
			continue
		}
		if b.Len() > 0 {
			if lowerGroupsZero(groups, i) && (g < 100 || g%100 == 0) {
				b.WriteString(" e ")
			} else if i == 0 {
				b.WriteString(" ")
			} else {
				b.WriteString(", ")
			}
		}

		switch {
		case i == 1 && g == 1:
			b.WriteString("mil")
		case i == 0:
			b.WriteString(groupToWords(g))
		default:
			b.WriteString(groupToWords(g))
			b.WriteString(" ")
			if g == 1 {
				b.WriteString(scaleWords[i][0])
			} else {
				b.WriteString(scaleWords[i][1])
			}
		}
	}
	return b.String()
}

// lowerGroupsZero reports whether every group below index i is zero.
func lowerGroupsZero(groups []int64, i int) bool {
	for j := i - 1; j >= 0; j-- {
		if groups[j] != 0 {
			return false
		}
	}
	return true
}

// groupToWords spells out 1..999.
func groupToWords(n int64) string {
	if n == 100 {
		return "cem"
	}
	var parts []string
	if h := n / 100; h > 0 {
		parts = append(parts, hundredsWords[h])
	}
	switch rest := n % 100; {
	case rest == 0:
	case rest < 20:
		parts = append(parts, unitWords[rest])
	default:
		parts = append(parts, tensWords[rest/10])
		if u := rest % 10; u > 0 {
			parts = append(parts, unitWords[u])
		}
	}
	return strings.Join(parts, " e ")
}
