package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatMoney renders an amount in US dollars with two decimals ("$1,234.50").
func FormatMoney(amount decimal.Decimal) string {
	return formatDollars(amount, 2, 2)
}

// FormatRate renders a per-unit price. Sub-cent rates keep up to four
// decimals so that "$0.0025" does not collapse to "$0.00".
func FormatRate(amount decimal.Decimal) string {
	return formatDollars(amount, 2, 4)
}

// formatDollars keeps the digits exact: the fraction comes from the decimal
// string and only the integer part goes through the printer for grouping.
func formatDollars(amount decimal.Decimal, minDigits, maxDigits int) string {
	rounded := amount.Round(int32(maxDigits))
	sign := ""
	if rounded.IsNegative() {
		sign = "-"
		rounded = rounded.Abs()
	}

	whole, frac, _ := strings.Cut(rounded.StringFixed(int32(maxDigits)), ".")
	for len(frac) > minDigits && strings.HasSuffix(frac, "0") {
		frac = frac[:len(frac)-1]
	}

	if intPart := rounded.Truncate(0).BigInt(); intPart.IsInt64() {
		whole = printer.Sprintf("%d", intPart.Int64())
	}

	return sign + "$" + whole + "." + frac
}
