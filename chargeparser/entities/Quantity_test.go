package entities

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestQuantityUnmarshal(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantSet  bool
		expected string
	}{
		{"number", `10`, true, "10"},
		{"decimal number", `0.025`, true, "0.025"},
		{"string number", `"30"`, true, "30"},
		{"thousands separators", `"24,945.00"`, true, "24945"},
		{"leading number with unit", `"10 ML"`, true, "10"},
		{"empty string", `""`, false, ""},
		{"not a number", `"N/A"`, false, ""},
		{"null", `null`, false, ""},
		{"boolean", `true`, false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var q Quantity
			if err := json.Unmarshal([]byte(tt.input), &q); err != nil {
				t.Fatalf("Unmarshal(%s) returned error: %v", tt.input, err)
			}

			if q.IsSet() != tt.wantSet {
				t.Fatalf("IsSet() = %v, want %v", q.IsSet(), tt.wantSet)
			}

			if tt.wantSet && !q.Decimal().Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("Decimal() = %s, want %s", q.Decimal(), tt.expected)
			}
		})
	}
}

func TestQuantityNonZero(t *testing.T) {
	if _, ok := NewQuantity(decimal.Zero).NonZero(); ok {
		t.Error("zero quantity should not be reported as present")
	}

	if _, ok := (Quantity{}).NonZero(); ok {
		t.Error("unset quantity should not be reported as present")
	}

	v, ok := NewQuantity(decimal.NewFromInt(12)).NonZero()
	if !ok || !v.Equal(decimal.NewFromInt(12)) {
		t.Errorf("NonZero() = %s, %v, want 12, true", v, ok)
	}
}

func TestChargeItemDecoding(t *testing.T) {
	raw := `{
		"description": "METOPROLOL TARTRATE TAB 25 MG",
		"code_information": [{"code": "00378-0018-01", "type": "NDC"}, {"code": "250", "type": "RC"}],
		"drug_information": {"unit": "30", "type": "EA"},
		"standard_charges": [{"setting": "both", "gross_charge": 15, "discounted_cash": "6.00"}]
	}`

	var item ChargeItem
	if err := json.Unmarshal([]byte(raw), &item); err != nil {
		t.Fatalf("failed to decode item: %v", err)
	}

	if item.DrugInformation == nil {
		t.Fatal("expected drug information to be decoded")
	}
	if !item.DrugInformation.Unit.Decimal().Equal(decimal.NewFromInt(30)) {
		t.Errorf("unit = %s, want 30", item.DrugInformation.Unit.Decimal())
	}
	if item.FirstCode() != "00378-0018-01" {
		t.Errorf("FirstCode() = %q", item.FirstCode())
	}
	if !item.HasCodeType("RC") || item.HasCodeType("CPT") {
		t.Error("HasCodeType returned unexpected results")
	}
	if got := item.StandardCharges[0].DiscountedCash.Decimal(); !got.Equal(decimal.NewFromInt(6)) {
		t.Errorf("discounted cash = %s, want 6", got)
	}
}

func TestChargeItemWithoutDrugInformation(t *testing.T) {
	var item ChargeItem
	if err := json.Unmarshal([]byte(`{"description": "ROOM PRIVATE", "standard_charges": []}`), &item); err != nil {
		t.Fatalf("failed to decode item: %v", err)
	}
	if item.DrugInformation != nil {
		t.Error("missing drug_information should decode to nil")
	}
}

func TestHeader(t *testing.T) {
	f := ChargeFile{HospitalAddress: []string{"1 Main St", "Suite 2"}, LastUpdatedOn: "2026-01-01"}
	h := f.Header()
	if h.Name != "Hospital" {
		t.Errorf("Name = %q, want default", h.Name)
	}
	if h.Address != "1 Main St" {
		t.Errorf("Address = %q, want first line", h.Address)
	}
}
