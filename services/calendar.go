package services

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultInstallmentCount is the number of installments printed on a proposal.
const DefaultInstallmentCount = 10

// DatePlaceholder stands in for a missing start or end date.
const DatePlaceholder = "A Definir"

// upfrontDiscount is the discount granted for paying an installment by Pix.
var upfrontDiscount = decimal.RequireFromString("0.90")

var monthNames = [12]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

// InstallmentRow is one line of the payment schedule.
type InstallmentRow struct {
	Index           string
	Description     string
	Value           decimal.Decimal
	DiscountedValue decimal.Decimal
}

// MonthsBetween counts calendar months from start to end inclusively,
// ignoring the day of month. It never returns a negative number; an end in
// the same month as the start counts as one month.
func MonthsBetween(start, end time.Time) int {
	months := (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
	if months < 0 {
		return 0
	}
	return months + 1
}

// GenerateInstallments splits total into count equal installments. The
// first is due at project start, the rest every 30 days after it.
func GenerateInstallments(total decimal.Decimal, count int) ([]InstallmentRow, error) {
	if count < 1 {
		return nil, fmt.Errorf("%w: installment count must be at least 1 (got %d)", ErrInvalidInput, count)
	}

	per := total.Div(decimal.NewFromInt(int64(count)))
	discounted := per.Mul(upfrontDiscount)

	rows := make([]InstallmentRow, count)
	for i := 1; i <= count; i++ {
		desc := "No início dos trabalhos"
		if i > 1 {
			desc = fmt.Sprintf("%d dias após início", (i-1)*30)
		}
		rows[i-1] = InstallmentRow{
			Index:           fmt.Sprintf("%02d/%d", i, count),
			Description:     desc,
			Value:           per,
			DiscountedValue: discounted,
		}
	}
	return rows, nil
}

// FormatDateLong renders a date as "21 de janeiro de 2026".
func FormatDateLong(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), monthNames[t.Month()-1], t.Year())
}

// FormatDateShort renders a date as DD/MM/YYYY, or DatePlaceholder when t is nil.
func FormatDateShort(t *time.Time) string {
	if t == nil || t.IsZero() {
		return DatePlaceholder
	}
	return t.Format("02/01/2006")
}

// DurationText is the contract-period sentence printed on proposals.
func DurationText(months int, start, end string) string {
	return fmt.Sprintf("Período de %d meses, de %s a %s.", months, start, end)
}
