package pricing

import (
	"github.com/giygas/chargemaster-api/chargeparser"
	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/giygas/chargemaster-api/drugparser"
	"github.com/shopspring/decimal"
)

// BadgeKind tags a dose badge
type BadgeKind string

const (
	BadgeStrength BadgeKind = "strength"
	BadgeRoute    BadgeKind = "route"
	BadgeForm     BadgeKind = "form"
	BadgePackage  BadgeKind = "package"
	BadgeTotal    BadgeKind = "total"
)

// Badge is one of the short dose facts displayed under an item
type Badge struct {
	Kind  BadgeKind `json:"kind"`
	Label string    `json:"label"`
}

// ItemView is an item as listed by search and lookup
type ItemView struct {
	ID                 string                        `json:"id"`
	Description        string                        `json:"description"`
	Type               chargeparser.ItemType         `json:"type"`
	TypeLabel          string                        `json:"type_label"`
	Codes              string                        `json:"codes,omitempty"`
	PriceType          Mode                          `json:"price_type"`
	Price              decimal.Decimal               `json:"price"`
	PriceFormatted     string                        `json:"price_formatted"`
	Parsed             *drugparser.ParsedDescription `json:"parsed,omitempty"`
	UnitPrice          drugparser.UnitPrice          `json:"unit_price,omitempty"`
	UnitPriceFormatted string                        `json:"unit_price_formatted,omitempty"`
	Badges             []Badge                       `json:"badges"`
}

// BuildView prices item under mode and derives its dose information.
func BuildView(item *entities.ChargeItem, mode Mode) ItemView {
	price := SelectPrice(item, mode)
	itemType := chargeparser.Classify(item)

	view := ItemView{
		ID:             item.ID,
		Description:    item.Description,
		Type:           itemType,
		TypeLabel:      itemType.Label(),
		Codes:          chargeparser.CodeSummary(item),
		PriceType:      mode,
		Price:          price,
		PriceFormatted: FormatMoney(price),
		Badges:         []Badge{},
	}

	// only drug records get dose facts
	if item.DrugInformation == nil {
		return view
	}

	view.Parsed = drugparser.Parse(item.Description)
	view.UnitPrice = drugparser.CalculateUnitPrice(*item, price)
	if amount, per, ok := drugparser.Headline(view.UnitPrice); ok {
		view.UnitPriceFormatted = FormatRate(amount) + "/" + per
	}
	view.Badges = Badges(item, view.Parsed, view.UnitPrice)

	return view
}

// Badges lists the dose facts of a drug item: strength or concentration,
// route, form, package and total dose, each only when known.
func Badges(item *entities.ChargeItem, parsed *drugparser.ParsedDescription, unitPrice drugparser.UnitPrice) []Badge {
	badges := []Badge{}

	if parsed != nil {
		if conc := parsed.Concentration(); conc != "" {
			badges = append(badges, Badge{BadgeStrength, conc})
		} else if label := parsed.StrengthLabel(); label != "" {
			badges = append(badges, Badge{BadgeStrength, label})
		}
		if parsed.RouteFull != "" {
			badges = append(badges, Badge{BadgeRoute, parsed.RouteFull})
		}
		if parsed.FormFull != "" {
			badges = append(badges, Badge{BadgeForm, parsed.FormFull})
		}
	}

	if pkg := publishedPackage(item); pkg != "" {
		badges = append(badges, Badge{BadgePackage, pkg})
	}

	if dose, unit, ok := drugparser.TotalDose(unitPrice); ok && !dose.IsZero() && unit != "" {
		badges = append(badges, Badge{BadgeTotal, "Total: " + dose.StringFixed(1) + " " + unit})
	}

	return badges
}

// publishedPackage is the package as written in the file, empty unless both
// quantity and type are present.
func publishedPackage(item *entities.ChargeItem) string {
	info := item.DrugInformation
	if info == nil || info.Type == "" {
		return ""
	}
	if _, ok := info.Unit.NonZero(); !ok {
		return ""
	}
	return info.Unit.Decimal().String() + " " + info.Type
}

// DoseSummary is the one-line dose description used on estimate lines
// ("25 MG x 30 EA", "10 ML").
func DoseSummary(item *entities.ChargeItem) string {
	pkg := publishedPackage(item)

	parsed := drugparser.Parse(item.Description)
	if item.DrugInformation == nil || parsed == nil || !parsed.Strength.Valid {
		return pkg
	}

	summary := parsed.StrengthLabel()
	if pkg != "" {
		summary += " x " + pkg
	}
	return summary
}
