// utils/money.go
package utils

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PercentOf returns ratePercent% of amountCents, rounded half-up to a whole
// cent. Intermediate math stays in decimal so rounding happens exactly once,
// at the final amount.
func PercentOf(amountCents int64, ratePercent float64) int64 {
	result := decimal.NewFromInt(amountCents).
		Mul(decimal.NewFromFloat(ratePercent)).
		Div(decimal.NewFromInt(100))
	// decimal.Round rounds half away from zero, which is half-up for the
	// non-negative amounts this engine deals in.
	return result.Round(0).IntPart()
}

// FormatCents renders a cent amount as a plain decimal string, e.g. 1350 ->
// "13.50". Used by the CSV export and notification messages.
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	return fmt.Sprintf("%s%d.%02d", sign, cents/100, cents%100)
}
