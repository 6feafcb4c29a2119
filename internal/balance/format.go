package balance

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"

	"github.com/mtlprog/walletboard/internal/domain"
)

// fractionDigits returns the standard minor-unit scale of a currency (2 for
// USD, 0 for JPY). Unknown codes fall back to 2.
func fractionDigits(c domain.Currency) int {
	unit, err := currency.ParseISO(c.Code)
	if err != nil {
		return 2
	}
	scale, _ := currency.Standard.Rounding(unit)
	return scale
}

// grouped renders an absolute value with thousands separators, keeping every
// digit of the rounded decimal.
func grouped(v decimal.Decimal, digits int) string {
	fixed := v.Abs().StringFixed(int32(digits))
	intPart, frac, hasFrac := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if hasFrac {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	return b.String()
}

func formatAmount(c domain.Currency, v *decimal.Decimal, unknown string) string {
	if v == nil {
		return unknown
	}
	s := c.Symbol + grouped(*v, fractionDigits(c))
	if v.IsNegative() {
		return "-" + s
	}
	return s
}

func formatChange(c domain.Currency, v *decimal.Decimal) string {
	if v == nil {
		return "-"
	}
	digits := fractionDigits(c)
	return sign(*v, digits) + c.Symbol + grouped(*v, digits)
}

func formatPercent(v *decimal.Decimal) string {
	if v == nil {
		return "-"
	}
	return sign(*v, 2) + grouped(*v, 2) + "%"
}

// sign is empty for values that round to zero at the displayed precision.
func sign(v decimal.Decimal, digits int) string {
	switch v.Round(int32(digits)).Sign() {
	case 1:
		return "+"
	case -1:
		return "-"
	default:
		return ""
	}
}
