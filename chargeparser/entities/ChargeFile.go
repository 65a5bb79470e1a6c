package entities

// ChargeFile is the hospital standard-charge file as published by the hospital.
type ChargeFile struct {
	HospitalName              string       `json:"hospital_name"`
	HospitalAddress           []string     `json:"hospital_address"`
	HospitalLocation          []string     `json:"hospital_location,omitempty"`
	LastUpdatedOn             string       `json:"last_updated_on"`
	Version                   string       `json:"version,omitempty"`
	StandardChargeInformation []ChargeItem `json:"standard_charge_information"`
}

// Hospital is the header of a charge file without its items.
type Hospital struct {
	Name          string `json:"name"`
	Address       string `json:"address"`
	LastUpdatedOn string `json:"last_updated_on"`
	Version       string `json:"version,omitempty"`
}

// Header returns the hospital information of the file, keeping only the
// first address line.
func (f *ChargeFile) Header() Hospital {
	h := Hospital{
		Name:          f.HospitalName,
		LastUpdatedOn: f.LastUpdatedOn,
		Version:       f.Version,
	}
	if h.Name == "" {
		h.Name = "Hospital"
	}
	if len(f.HospitalAddress) > 0 {
		h.Address = f.HospitalAddress[0]
	}
	return h
}
