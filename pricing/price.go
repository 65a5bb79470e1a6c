// Package pricing picks the billed price of an item, formats money and builds
// the item views and cost estimates served by the API and the CLI.
package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/shopspring/decimal"
)

// Mode selects which standard charge is used as the price of an item
type Mode string

const (
	ModeGrossCharge    Mode = "gross_charge"
	ModeDiscountedCash Mode = "discounted_cash"
)

// ErrUnknownPriceType is returned by ParseMode for anything but the two modes
var ErrUnknownPriceType = errors.New("unknown price type")

// cash price estimated from the gross charge when no cash price is published
var cashRatio = decimal.RequireFromString("0.4")

// ParseMode reads a price type as sent by clients. Empty means fallback.
func ParseMode(s string, fallback Mode) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return fallback, nil
	case ModeGrossCharge:
		return ModeGrossCharge, nil
	case ModeDiscountedCash:
		return ModeDiscountedCash, nil
	}
	return "", fmt.Errorf("%w: %q (expected %s or %s)", ErrUnknownPriceType, s, ModeGrossCharge, ModeDiscountedCash)
}

// Label is the human readable name of the mode
func (m Mode) Label() string {
	if m == ModeDiscountedCash {
		return "Cash price"
	}
	return "Gross charge"
}

// SelectPrice returns the price of item under mode, looking only at the first
// standard charge. Zero amounts count as absent.
//
//	gross_charge:    gross charge, else minimum, else 0
//	discounted_cash: discounted cash, else gross charge x 0.4, else 0
func SelectPrice(item *entities.ChargeItem, mode Mode) decimal.Decimal {
	if len(item.StandardCharges) == 0 {
		return decimal.Zero
	}
	charge := item.StandardCharges[0]

	if mode == ModeDiscountedCash {
		if cash, ok := charge.DiscountedCash.NonZero(); ok {
			return cash
		}
		if gross, ok := charge.GrossCharge.NonZero(); ok {
			return gross.Mul(cashRatio)
		}
		return decimal.Zero
	}

	if gross, ok := charge.GrossCharge.NonZero(); ok {
		return gross
	}
	if minimum, ok := charge.Minimum.NonZero(); ok {
		return minimum
	}
	return decimal.Zero
}
