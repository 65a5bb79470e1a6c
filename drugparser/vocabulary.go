package drugparser

import "regexp"

// Abbreviation is a chargemaster abbreviation and its readable expansion.
type Abbreviation struct {
	Code      string
	Expansion string
	pattern   *regexp.Regexp
}

// vocabulary is ordered: the first whole-word match in table order wins.
type vocabulary []Abbreviation

func newVocabulary(entries [][2]string) vocabulary {
	v := make(vocabulary, 0, len(entries))
	for _, e := range entries {
		v = append(v, Abbreviation{
			Code:      e[0],
			Expansion: e[1],
			pattern:   regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(e[0]) + `\b`),
		})
	}
	return v
}

func (v vocabulary) lookup(desc string) (Abbreviation, bool) {
	for _, a := range v {
		if a.pattern.MatchString(desc) {
			return a, true
		}
	}
	return Abbreviation{}, false
}

var routes = newVocabulary([][2]string{
	{"PO", "Oral"},
	{"IV", "Intravenous"},
	{"IM", "Intramuscular"},
	{"SC", "Subcutaneous"},
	{"SQ", "Subcutaneous"},
	{"TD", "Transdermal"},
	{"TOP", "Topical"},
	{"PR", "Rectal"},
	{"SL", "Sublingual"},
	{"INH", "Inhalation"},
	{"NA", "Nasal"},
	{"OP", "Ophthalmic"},
	{"OT", "Otic"},
	{"VAG", "Vaginal"},
	{"EX", "External"},
	{"RE", "Rectal"},
})

var forms = newVocabulary([][2]string{
	{"SOLN", "Solution"},
	{"SOLR", "Solution for Reconstitution"},
	{"SOSY", "Syrup"},
	{"SUSP", "Suspension"},
	{"TABS", "Tablet"},
	{"TAB", "Tablet"},
	{"TBEC", "Enteric Coated Tablet"},
	{"TBDP", "Disintegrating Tablet"},
	{"CAPS", "Capsule"},
	{"CAP", "Capsule"},
	{"CPEP", "Capsule Extended Release"},
	{"CREA", "Cream"},
	{"OINT", "Ointment"},
	{"NEBU", "Nebulizer Solution"},
	{"INJ", "Injection"},
	{"PACK", "Packet"},
	{"SUPP", "Suppository"},
	{"GEL", "Gel"},
	{"LOTN", "Lotion"},
	{"PWDR", "Powder"},
	{"AERO", "Aerosol"},
})

// forms priced per tablet/capsule outside an EA package; other tablet and
// capsule variants only qualify through the EA package type
var countForms = map[string]bool{
	"TABS": true,
	"CAPS": true,
}

// Routes returns the route vocabulary in match order.
func Routes() []Abbreviation {
	return append([]Abbreviation(nil), routes...)
}

// Forms returns the dosage-form vocabulary in match order.
func Forms() []Abbreviation {
	return append([]Abbreviation(nil), forms...)
}
