package entities

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var leadingNumber = regexp.MustCompile(`^[-+]?(\d+\.?\d*|\.\d+)`)

// Quantity handles JSON values published either as a number or as a string
// (e.g. "24,945.00", "10 ML"). Raw keeps the published text, Value the
// numeric reading of it when one exists.
type Quantity struct {
	Raw   string
	Value decimal.NullDecimal
}

// NewQuantity builds a Quantity from a decimal value.
func NewQuantity(d decimal.Decimal) Quantity {
	return Quantity{Raw: d.String(), Value: decimal.NewNullDecimal(d)}
}

// ParseQuantity reads a published string. Thousands separators are dropped and
// a leading numeric prefix is accepted ("10 ML" reads as 10).
func ParseQuantity(s string) Quantity {
	q := Quantity{Raw: s}
	cleaned := strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if cleaned == "" {
		return q
	}

	if d, err := decimal.NewFromString(cleaned); err == nil {
		q.Value = decimal.NewNullDecimal(d)
		return q
	}

	if prefix := leadingNumber.FindString(cleaned); prefix != "" {
		if d, err := decimal.NewFromString(strings.TrimSuffix(prefix, ".")); err == nil {
			q.Value = decimal.NewNullDecimal(d)
		}
	}
	return q
}

func (q *Quantity) UnmarshalJSON(data []byte) error {
	text := strings.TrimSpace(string(data))
	if text == "null" {
		*q = Quantity{}
		return nil
	}

	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = ParseQuantity(s)
		return nil
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		// booleans, objects... are kept as raw text without a value
		*q = Quantity{Raw: text}
		return nil
	}
	*q = Quantity{Raw: text, Value: decimal.NewNullDecimal(d)}
	return nil
}

func (q Quantity) MarshalJSON() ([]byte, error) {
	if q.Value.Valid {
		return []byte(q.Value.Decimal.String()), nil
	}
	if q.Raw == "" {
		return []byte("null"), nil
	}
	return json.Marshal(q.Raw)
}

// IsSet reports whether the quantity holds a numeric value.
func (q Quantity) IsSet() bool {
	return q.Value.Valid
}

// Decimal returns the numeric value, or zero when there is none.
func (q Quantity) Decimal() decimal.Decimal {
	if !q.Value.Valid {
		return decimal.Zero
	}
	return q.Value.Decimal
}

// NonZero returns the value and true only when it is set and not zero, which
// is how the published files signal an absent amount.
func (q Quantity) NonZero() (decimal.Decimal, bool) {
	if !q.Value.Valid || q.Value.Decimal.IsZero() {
		return decimal.Zero, false
	}
	return q.Value.Decimal, true
}
