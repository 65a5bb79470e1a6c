package pricing

import (
	"errors"
	"fmt"
	"time"

	"github.com/giygas/chargemaster-api/chargeparser"
	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MaxEstimateLines = 100
	MaxLineQuantity  = 999
)

var (
	ErrEmptyEstimate   = errors.New("estimate has no lines")
	ErrTooManyLines    = errors.New("too many estimate lines")
	ErrUnknownItem     = errors.New("unknown item")
	ErrInvalidQuantity = errors.New("invalid quantity")
)

// LineRequest asks for quantity units of one item
type LineRequest struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// EstimateRequest is the body of an estimate request
type EstimateRequest struct {
	PriceType string        `json:"price_type,omitempty"`
	Lines     []LineRequest `json:"lines"`
}

// EstimateLine is one priced line of an estimate
type EstimateLine struct {
	ItemID             string          `json:"item_id"`
	Description        string          `json:"description"`
	Codes              string          `json:"codes,omitempty"`
	Quantity           int             `json:"quantity"`
	UnitPrice          decimal.Decimal `json:"unit_price"`
	UnitPriceFormatted string          `json:"unit_price_formatted"`
	LineTotal          decimal.Decimal `json:"line_total"`
	LineTotalFormatted string          `json:"line_total_formatted"`
	DoseInfo           string          `json:"dose_info,omitempty"`
}

// Estimate is a priced list of items
type Estimate struct {
	ID                string          `json:"id"`
	PriceType         Mode            `json:"price_type"`
	PriceLabel        string          `json:"price_label"`
	CreatedAt         time.Time       `json:"created_at"`
	Lines             []EstimateLine  `json:"lines"`
	Subtotal          decimal.Decimal `json:"subtotal"`
	SubtotalFormatted string          `json:"subtotal_formatted"`
	Total             decimal.Decimal `json:"total"`
	TotalFormatted    string          `json:"total_formatted"`
}

// ItemLookup finds an item by id
type ItemLookup func(id string) (entities.ChargeItem, bool)

// NewEstimate prices lines under mode. Lines for the same item are merged in
// first-seen order; the merged quantity must stay within MaxLineQuantity.
func NewEstimate(lookup ItemLookup, mode Mode, lines []LineRequest) (*Estimate, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyEstimate
	}
	if len(lines) > MaxEstimateLines {
		return nil, fmt.Errorf("%w: %d (max %d)", ErrTooManyLines, len(lines), MaxEstimateLines)
	}

	order := make([]string, 0, len(lines))
	quantities := make(map[string]int, len(lines))
	items := make(map[string]entities.ChargeItem, len(lines))

	for _, line := range lines {
		if line.Quantity < 1 || line.Quantity > MaxLineQuantity {
			return nil, fmt.Errorf("%w: %d for item %s (must be between 1 and %d)",
				ErrInvalidQuantity, line.Quantity, line.ItemID, MaxLineQuantity)
		}

		if _, seen := quantities[line.ItemID]; !seen {
			item, ok := lookup(line.ItemID)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrUnknownItem, line.ItemID)
			}
			items[line.ItemID] = item
			order = append(order, line.ItemID)
		}

		quantities[line.ItemID] += line.Quantity
		if quantities[line.ItemID] > MaxLineQuantity {
			return nil, fmt.Errorf("%w: %d for item %s (must be between 1 and %d)",
				ErrInvalidQuantity, quantities[line.ItemID], line.ItemID, MaxLineQuantity)
		}
	}

	estimate := &Estimate{
		ID:         uuid.NewString(),
		PriceType:  mode,
		PriceLabel: mode.Label(),
		CreatedAt:  time.Now().UTC(),
		Lines:      make([]EstimateLine, 0, len(order)),
		Subtotal:   decimal.Zero,
	}

	for _, id := range order {
		item := items[id]
		unitPrice := SelectPrice(&item, mode)
		lineTotal := unitPrice.Mul(decimal.NewFromInt(int64(quantities[id])))

		estimate.Lines = append(estimate.Lines, EstimateLine{
			ItemID:             id,
			Description:        item.Description,
			Codes:              chargeparser.CodeSummary(&item),
			Quantity:           quantities[id],
			UnitPrice:          unitPrice,
			UnitPriceFormatted: FormatMoney(unitPrice),
			LineTotal:          lineTotal,
			LineTotalFormatted: FormatMoney(lineTotal),
			DoseInfo:           DoseSummary(&item),
		})
		estimate.Subtotal = estimate.Subtotal.Add(lineTotal)
	}

	// no adjustments are applied on top of the line totals
	estimate.Total = estimate.Subtotal
	estimate.SubtotalFormatted = FormatMoney(estimate.Subtotal)
	estimate.TotalFormatted = FormatMoney(estimate.Total)

	return estimate, nil
}
