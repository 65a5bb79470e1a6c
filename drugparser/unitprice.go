package drugparser

import (
	"encoding/json"
	"strings"

	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/shopspring/decimal"
)

// UnitPriceKind names the shape of a UnitPrice.
type UnitPriceKind string

const (
	KindByMass  UnitPriceKind = "by_mass"
	KindByCount UnitPriceKind = "by_count"
	KindPlain   UnitPriceKind = "plain"
)

const defaultPackageType = "EA"

var (
	one      = decimal.NewFromInt(1)
	thousand = decimal.NewFromInt(1000)
)

// UnitPrice is one of ByMass, ByCount or Plain.
type UnitPrice interface {
	Kind() UnitPriceKind
	Package() string
	isUnitPrice()
}

// ByMass prices a liquid by volume and by dose amount.
type ByMass struct {
	PricePerMl    decimal.NullDecimal `json:"pricePerMl"`
	PricePerMg    decimal.NullDecimal `json:"pricePerMg"`
	TotalDose     decimal.Decimal     `json:"totalDose"`
	DoseUnit      string              `json:"doseUnit"`
	PackageInfo   string              `json:"packageInfo"`
	Concentration string              `json:"concentration,omitempty"`
}

// ByCount prices a discrete dosage form (tablet, capsule) with a known strength.
type ByCount struct {
	PricePerUnit    decimal.Decimal     `json:"pricePerUnit"`
	PricePerMg      decimal.NullDecimal `json:"pricePerMg"`
	TotalDose       decimal.Decimal     `json:"totalDose"`
	DoseUnit        string              `json:"doseUnit"`
	PackageInfo     string              `json:"packageInfo"`
	StrengthPerUnit string              `json:"strengthPerUnit"`
}

// Plain is the price per package unit when no dose can be derived.
type Plain struct {
	PricePerUnit decimal.Decimal `json:"pricePerUnit"`
	PackageInfo  string          `json:"packageInfo"`
}

func (ByMass) Kind() UnitPriceKind  { return KindByMass }
func (ByCount) Kind() UnitPriceKind { return KindByCount }
func (Plain) Kind() UnitPriceKind   { return KindPlain }

func (m ByMass) Package() string  { return m.PackageInfo }
func (c ByCount) Package() string { return c.PackageInfo }
func (p Plain) Package() string   { return p.PackageInfo }

func (ByMass) isUnitPrice()  {}
func (ByCount) isUnitPrice() {}
func (Plain) isUnitPrice()   {}

func (m ByMass) MarshalJSON() ([]byte, error) {
	type alias ByMass
	return json.Marshal(struct {
		Kind UnitPriceKind `json:"kind"`
		alias
	}{KindByMass, alias(m)})
}

func (c ByCount) MarshalJSON() ([]byte, error) {
	type alias ByCount
	return json.Marshal(struct {
		Kind UnitPriceKind `json:"kind"`
		alias
	}{KindByCount, alias(c)})
}

func (p Plain) MarshalJSON() ([]byte, error) {
	type alias Plain
	return json.Marshal(struct {
		Kind UnitPriceKind `json:"kind"`
		alias
	}{KindPlain, alias(p)})
}

// PackageInfo is the resolved package metadata of an item.
type PackageInfo struct {
	Quantity decimal.Decimal
	Type     string
}

func (p PackageInfo) String() string {
	return p.Quantity.String() + " " + p.Type
}

// ResolvePackage applies the package defaults: quantity 1 when absent,
// non-numeric or not positive, type EA when empty. ok is false only when the
// item has no drug information at all.
func ResolvePackage(info *entities.DrugInformation) (PackageInfo, bool) {
	if info == nil {
		return PackageInfo{}, false
	}

	pkg := PackageInfo{Quantity: one, Type: defaultPackageType}
	if q, ok := info.Unit.NonZero(); ok && q.IsPositive() {
		pkg.Quantity = q
	}
	if t := strings.ToUpper(strings.TrimSpace(info.Type)); t != "" {
		pkg.Type = t
	}
	return pkg, true
}

// CalculateUnitPrice derives a comparable unit price for an item billed at
// price. It returns nil when price is zero or the item has no package
// metadata.
func CalculateUnitPrice(item entities.ChargeItem, price decimal.Decimal) UnitPrice {
	if price.IsZero() {
		return nil
	}

	pkg, ok := ResolvePackage(item.DrugInformation)
	if !ok {
		return nil
	}

	parsed := Parse(item.Description)
	hasStrength := parsed != nil && parsed.Strength.Valid

	if hasStrength && parsed.IsConcentration && (pkg.Type == "ML" || pkg.Type == "L") {
		mlQuantity := pkg.Quantity
		if pkg.Type == "L" {
			mlQuantity = mlQuantity.Mul(thousand)
		}

		perAmount := one
		if parsed.ConcentrationPerAmount.Valid && !parsed.ConcentrationPerAmount.Decimal.IsZero() {
			perAmount = parsed.ConcentrationPerAmount.Decimal
		}
		perMl := parsed.Strength.Decimal.Div(perAmount)
		totalDose := perMl.Mul(mlQuantity)

		return ByMass{
			PricePerMl:    decimal.NewNullDecimal(price.Div(mlQuantity)),
			PricePerMg:    perDose(price, totalDose),
			TotalDose:     totalDose,
			DoseUnit:      parsed.StrengthUnit,
			PackageInfo:   pkg.String(),
			Concentration: parsed.Concentration(),
		}
	}

	if hasStrength && (pkg.Type == defaultPackageType || countForms[parsed.Form]) {
		totalDose := parsed.Strength.Decimal.Mul(pkg.Quantity)

		label := pkg.Type
		if parsed.FormFull != "" {
			label = parsed.FormFull
		}

		return ByCount{
			PricePerUnit:    price.Div(pkg.Quantity),
			PricePerMg:      perDose(price, totalDose),
			TotalDose:       totalDose,
			DoseUnit:        parsed.StrengthUnit,
			PackageInfo:     pkg.Quantity.String() + " " + label,
			StrengthPerUnit: parsed.StrengthLabel(),
		}
	}

	return Plain{
		PricePerUnit: price.Div(pkg.Quantity),
		PackageInfo:  pkg.String(),
	}
}

func perDose(price, totalDose decimal.Decimal) decimal.NullDecimal {
	if !totalDose.IsPositive() {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(price.Div(totalDose))
}

// Headline picks the figure a listing shows next to the price: per dose unit
// when known, else per mL, else per package unit.
func Headline(u UnitPrice) (amount decimal.Decimal, per string, ok bool) {
	switch v := u.(type) {
	case ByMass:
		if v.PricePerMg.Valid {
			return v.PricePerMg.Decimal, strings.ToLower(v.DoseUnit), true
		}
		if v.PricePerMl.Valid {
			return v.PricePerMl.Decimal, "mL", true
		}
	case ByCount:
		if v.PricePerMg.Valid {
			return v.PricePerMg.Decimal, strings.ToLower(v.DoseUnit), true
		}
		return v.PricePerUnit, "ea", true
	case Plain:
		return v.PricePerUnit, "ea", true
	}
	return decimal.Zero, "", false
}

// TotalDose returns the dose contained in the package, when one was derived.
func TotalDose(u UnitPrice) (decimal.Decimal, string, bool) {
	switch v := u.(type) {
	case ByMass:
		return v.TotalDose, v.DoseUnit, true
	case ByCount:
		return v.TotalDose, v.DoseUnit, true
	}
	return decimal.Zero, "", false
}
