package entities

// ChargeItem is one entry of standard_charge_information.
type ChargeItem struct {
	// ID is computed at load time, it is not part of the published file.
	ID              string           `json:"id"`
	Description     string           `json:"description"`
	CodeInformation []Code           `json:"code_information"`
	DrugInformation *DrugInformation `json:"drug_information,omitempty"`
	StandardCharges []StandardCharge `json:"standard_charges"`

	// SearchKey is pre-computed: folded description + codes
	SearchKey string `json:"-"`
}

type Code struct {
	Code string `json:"code"`
	Type string `json:"type"`
}

// DrugInformation is the package metadata of a drug item. Unit is the package
// quantity and Type the package unit code (EA, ML, L...).
type DrugInformation struct {
	Unit Quantity `json:"unit"`
	Type string   `json:"type"`
}

type StandardCharge struct {
	Setting                string   `json:"setting,omitempty"`
	GrossCharge            Quantity `json:"gross_charge"`
	DiscountedCash         Quantity `json:"discounted_cash"`
	Minimum                Quantity `json:"minimum"`
	Maximum                Quantity `json:"maximum"`
	AdditionalGenericNotes string   `json:"additional_generic_notes,omitempty"`
}

// FirstCode returns the first published code, or an empty string.
func (i *ChargeItem) FirstCode() string {
	if len(i.CodeInformation) == 0 {
		return ""
	}
	return i.CodeInformation[0].Code
}

// HasCodeType reports whether the item carries a code of one of the given types.
func (i *ChargeItem) HasCodeType(types ...string) bool {
	for _, c := range i.CodeInformation {
		for _, t := range types {
			if c.Type == t {
				return true
			}
		}
	}
	return false
}

// Notes returns the generic notes of the first standard charge.
func (i *ChargeItem) Notes() string {
	if len(i.StandardCharges) == 0 {
		return ""
	}
	return i.StandardCharges[0].AdditionalGenericNotes
}
