package chargeparser

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ItemType is the coarse category shown next to an item
type ItemType string

const (
	ItemTypePharmacy  ItemType = "pharmacy"
	ItemTypeRoom      ItemType = "room"
	ItemTypeProcedure ItemType = "procedure"
	ItemTypeSupply    ItemType = "supply"
	ItemTypeOther     ItemType = "other"
)

var itemTypeLabels = map[ItemType]string{
	ItemTypePharmacy:  "Rx",
	ItemTypeRoom:      "Room",
	ItemTypeProcedure: "Proc",
	ItemTypeSupply:    "Supply",
	ItemTypeOther:     "Other",
}

// Label returns the short badge text of the type
func (t ItemType) Label() string {
	if label, ok := itemTypeLabels[t]; ok {
		return label
	}
	return itemTypeLabels[ItemTypeOther]
}

// codePriority orders codes from most to least telling
var codePriority = map[string]int{
	"NDC":   0,
	"CPT":   1,
	"HCPCS": 2,
	"CDM":   3,
	"RC":    4,
}

// Classify derives the item type from its notes, codes and package data.
// Checks run in order and the first hit wins.
func Classify(item *entities.ChargeItem) ItemType {
	notes := strings.ToLower(item.Notes())

	switch {
	case strings.Contains(notes, "pharmacy") || item.HasCodeType("NDC") || item.DrugInformation != nil:
		return ItemTypePharmacy
	case strings.Contains(notes, "room") || strings.Contains(strings.ToLower(item.Description), "room"):
		return ItemTypeRoom
	case item.HasCodeType("CPT", "HCPCS"):
		return ItemTypeProcedure
	case strings.Contains(notes, "supply") || item.HasCodeType("RC"):
		return ItemTypeSupply
	default:
		return ItemTypeOther
	}
}

// CodeSummary returns the two most relevant codes as "TYPE: code | TYPE: code".
func CodeSummary(item *entities.ChargeItem) string {
	if len(item.CodeInformation) == 0 {
		return ""
	}

	codes := make([]entities.Code, len(item.CodeInformation))
	copy(codes, item.CodeInformation)
	sort.SliceStable(codes, func(i, j int) bool {
		return rank(codes[i].Type) < rank(codes[j].Type)
	})

	if len(codes) > 2 {
		codes = codes[:2]
	}

	parts := make([]string, 0, len(codes))
	for _, c := range codes {
		parts = append(parts, c.Type+": "+c.Code)
	}
	return strings.Join(parts, " | ")
}

func rank(codeType string) int {
	if p, ok := codePriority[codeType]; ok {
		return p
	}
	return len(codePriority)
}

// ItemID hashes the description and the first code. The same record gets the
// same ID across reloads.
func ItemID(item *entities.ChargeItem) string {
	h := xxhash.New()
	_, _ = h.WriteString(item.Description)
	_, _ = h.WriteString("\x00")
	_, _ = h.WriteString(item.FirstCode())
	return fmt.Sprintf("%016x", h.Sum64())
}

// assignIDs sets a unique ID on every item. Records sharing description and
// first code get an ordinal suffix in file order.
func assignIDs(items []entities.ChargeItem) int {
	seen := make(map[string]int, len(items))
	collisions := 0

	for i := range items {
		id := ItemID(&items[i])
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s-%d", id, n)
			collisions++
		}
		items[i].ID = id
	}
	return collisions
}

// FoldText lower-cases s and strips accents so that "Cafe" matches "café".
func FoldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// SearchKey builds the text a query is matched against: the description and
// the codes, on separate lines so a match never spans both.
func SearchKey(item *entities.ChargeItem) string {
	codes := make([]string, 0, len(item.CodeInformation))
	for _, c := range item.CodeInformation {
		codes = append(codes, c.Code)
	}
	return FoldText(item.Description) + "\n" + FoldText(strings.Join(codes, " "))
}
