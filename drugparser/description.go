// Package drugparser extracts dosing facts from free-text chargemaster
// descriptions and derives comparable per-dose prices from them.
//
// Everything in this package is pure: no I/O, no shared mutable state. The
// vocabularies and patterns are compiled once at init and only read after.
package drugparser

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

var (
	// <number> <unit> / <number?> <unit2?>, e.g. "10 MG/ML", "325 MG/10.15ML", "0.025 MG/24HR"
	ratioPattern = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(MG|MCG|G|MEQ|UNITS?|INT'?L?\.?\s*UNITS?|INTERNATIONAL\s*UNITS?)\s*/\s*(\d*\.?\d*)\s*(ML|L|HR|24HR|ACT|DOSE)?`)

	// <number> <unit>, e.g. "500 MG", "25 MCG", "20 MEQ", "5%"
	strengthPattern = regexp.MustCompile(`(?i)(\d+\.?\d*)\s*(MG|MCG|G|MEQ|UNITS?|%)`)
)

// ParsedDescription holds the dosing facts found in a description.
//
// StrengthUnit is set iff Strength is valid, ConcentrationPerAmount and
// ConcentrationPerUnit are set iff IsConcentration, RouteFull iff Route and
// FormFull iff Form.
type ParsedDescription struct {
	Name                   string              `json:"name"`
	Strength               decimal.NullDecimal `json:"strength"`
	StrengthUnit           string              `json:"strengthUnit,omitempty"`
	IsConcentration        bool                `json:"isConcentration"`
	ConcentrationPerAmount decimal.NullDecimal `json:"concentrationPerAmount"`
	ConcentrationPerUnit   string              `json:"concentrationPerUnit,omitempty"`
	Route                  string              `json:"route,omitempty"`
	RouteFull              string              `json:"routeFull,omitempty"`
	Form                   string              `json:"form,omitempty"`
	FormFull               string              `json:"formFull,omitempty"`
}

// Parse extracts form, route, strength or concentration and name from a
// chargemaster description. It returns nil when the description is empty.
func Parse(description string) *ParsedDescription {
	desc := strings.ToUpper(strings.TrimSpace(description))
	if desc == "" {
		return nil
	}

	result := &ParsedDescription{}

	if form, ok := forms.lookup(desc); ok {
		result.Form = form.Code
		result.FormFull = form.Expansion
	}

	if route, ok := routes.lookup(desc); ok {
		result.Route = route.Code
		result.RouteFull = route.Expansion
	}

	if m := ratioPattern.FindStringSubmatch(desc); m != nil {
		if strength, ok := parseNumber(m[1]); ok {
			result.Strength = decimal.NewNullDecimal(strength)
			result.StrengthUnit = normalizeUnit(m[2])
			result.IsConcentration = true

			perAmount, ok := parseNumber(m[3])
			if !ok || !perAmount.IsPositive() {
				perAmount = decimal.NewFromInt(1)
			}
			result.ConcentrationPerAmount = decimal.NewNullDecimal(perAmount)

			result.ConcentrationPerUnit = "ML"
			if m[4] != "" {
				result.ConcentrationPerUnit = strings.ToUpper(m[4])
			}
		}
	} else if m := strengthPattern.FindStringSubmatch(desc); m != nil {
		if strength, ok := parseNumber(m[1]); ok {
			result.Strength = decimal.NewNullDecimal(strength)
			result.StrengthUnit = normalizeUnit(m[2])
		}
	}

	result.Name = extractName(desc)

	return result
}

// Concentration renders the ratio as printed on labels ("100 UNITS/ML",
// "325 MG/10.15ML"). Empty when the description is not a concentration.
func (p *ParsedDescription) Concentration() string {
	if p == nil || !p.IsConcentration || !p.Strength.Valid {
		return ""
	}

	per := ""
	if p.ConcentrationPerAmount.Valid && !p.ConcentrationPerAmount.Decimal.Equal(decimal.NewFromInt(1)) {
		per = p.ConcentrationPerAmount.Decimal.String()
	}
	return p.Strength.Decimal.String() + " " + p.StrengthUnit + "/" + per + p.ConcentrationPerUnit
}

// StrengthLabel renders the flat strength ("25 MG"), empty when absent.
func (p *ParsedDescription) StrengthLabel() string {
	if p == nil || !p.Strength.Valid {
		return ""
	}
	return p.Strength.Decimal.String() + " " + p.StrengthUnit
}

// normalizeUnit upper-cases a unit and collapses every "units" phrasing
// (UNIT, INTL UNITS, INT'L UNITS, INTERNATIONAL UNITS) to UNITS.
func normalizeUnit(unit string) string {
	unit = strings.ToUpper(unit)
	if strings.Contains(unit, "UNIT") {
		return "UNITS"
	}
	return unit
}

func parseNumber(s string) (decimal.Decimal, bool) {
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// extractName returns the leading run of letters, spaces and hyphens before
// the first digit. Without a digit, or when that run is empty, the first two
// words are used instead.
func extractName(desc string) string {
	if idx := strings.IndexFunc(desc, unicode.IsDigit); idx > 0 {
		end := 0
		for i, r := range desc[:idx] {
			if i == 0 && !unicode.IsLetter(r) {
				break
			}
			if !unicode.IsLetter(r) && !unicode.IsSpace(r) && r != '-' {
				break
			}
			end = i + utf8.RuneLen(r)
		}
		if name := strings.TrimSpace(desc[:end]); name != "" {
			return name
		}
	}

	words := strings.Fields(desc)
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.Join(words, " ")
}
