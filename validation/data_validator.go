// Package validation checks loaded charge items and user input for the
// chargemaster API.
package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/giygas/chargemaster-api/drugparser"
	"github.com/giygas/chargemaster-api/interfaces"
	"github.com/giygas/chargemaster-api/logging"
	"github.com/giygas/chargemaster-api/pricing"
)

const (
	minQueryLength       = 2
	maxQueryLength       = 100
	maxQueryWords        = 8
	maxDescriptionLength = 200
	maxItemDescription   = 1000
	reportSampleSize     = 10

	// unit price kind reported for drug items that could not be priced
	unpricedKind = "none"
)

// Pre-compiled regex patterns, compiled once at package initialization
var (
	// Latin letters, digits and the punctuation found in chargemaster descriptions
	inputRegex = regexp.MustCompile(`^[\p{Latin}0-9\s\-\.\+'/%,()#]+$`)

	// 16 hex digits, optionally suffixed by a duplicate counter
	itemIDRegex = regexp.MustCompile(`^[0-9a-f]{16}(-\d{1,6})?$`)

	// strings.Contains is faster than regex for these
	dangerousPatterns = []string{
		"<script", "</script>", "javascript:", "vbscript:", "onload=", "onerror=",
		"onclick=", "onmouseover=", "onfocus=", "onblur=", "onchange=", "onsubmit=",
		"eval(", "expression(", "url(", "import ", "@import", "binding(", "behavior(",
		// SQL injection patterns
		"' or ", "\" or ", "union select", "drop table", "delete from", "insert into",
		"update set", "--", "/*", "*/", "xp_", "sp_", "exec(", "execute(",
		// Command injection patterns
		"; ", "| ", "& ", "`", "$(", "${",
		// Path traversal patterns
		"../", "..\\", "%2e%2e", "file://",
		// LDAP injection patterns
		"*)(", "*|(", "*)%",
		// NoSQL injection patterns
		"{$ne:", "{$gt:", "{$where:", "{$or:", "{$regex:", "{$expr:",
	}

	// Descriptions are echoed back, so markup is refused even though the
	// character set is otherwise free
	markupPatterns = []string{
		"<script", "</script>", "<iframe", "<img", "<svg", "javascript:", "vbscript:",
		"onload=", "onerror=", "onclick=", "onmouseover=", "data:text/html",
	}
)

// DataValidatorImpl implements the interfaces.DataValidator interface
type DataValidatorImpl struct{}

// NewDataValidator creates a new data validator
func NewDataValidator() interfaces.DataValidator {
	return &DataValidatorImpl{}
}

// ValidateItem checks if a charge item is usable
func (v *DataValidatorImpl) ValidateItem(item *entities.ChargeItem) error {
	if item == nil {
		return fmt.Errorf("item is nil")
	}

	if item.ID == "" {
		return fmt.Errorf("item without id: %q", item.Description)
	}

	if strings.TrimSpace(item.Description) == "" {
		return fmt.Errorf("empty description for item %s", item.ID)
	}

	if n := utf8.RuneCountInString(item.Description); n > maxItemDescription {
		return fmt.Errorf("description too long for item %s: %d characters", item.ID, n)
	}

	for _, code := range item.CodeInformation {
		if strings.TrimSpace(code.Code) == "" || strings.TrimSpace(code.Type) == "" {
			return fmt.Errorf("incomplete code for item %s", item.ID)
		}
	}

	if len(item.StandardCharges) == 0 {
		return fmt.Errorf("no standard charges for item %s", item.ID)
	}

	return nil
}

// CheckDuplicateIDs validates that item IDs are unique
func (v *DataValidatorImpl) CheckDuplicateIDs(items []entities.ChargeItem) error {
	duplicates := duplicateIDs(items)

	if len(duplicates) > 0 {
		logging.Error("Duplicate item IDs detected",
			"count", len(duplicates),
			"duplicates", duplicates,
		)
		return fmt.Errorf("found %d duplicate item IDs", len(duplicates))
	}

	return nil
}

// ValidateDataIntegrity fails on problems that make the data set unusable:
// no items, missing or duplicate IDs. Issues with single items only show up
// in ReportDataQuality.
func (v *DataValidatorImpl) ValidateDataIntegrity(items []entities.ChargeItem) error {
	if len(items) == 0 {
		return fmt.Errorf("no charge items found")
	}

	seen := make(map[string]bool, len(items))
	for i := range items {
		id := items[i].ID
		if id == "" {
			return fmt.Errorf("item %d has no id", i)
		}
		if seen[id] {
			return fmt.Errorf("duplicate item id found: %s", id)
		}
		seen[id] = true
	}

	return nil
}

// ReportDataQuality generates a data quality report with all issues found
func (v *DataValidatorImpl) ReportDataQuality(items []entities.ChargeItem) *interfaces.DataQualityReport {
	report := &interfaces.DataQualityReport{
		TotalItems:                  len(items),
		DuplicateIDs:                duplicateIDs(items),
		ItemsWithoutChargesIDs:      []string{},
		DrugItemsWithoutStrengthIDs: []string{},
		UnitPriceKinds:              map[string]int{},
	}

	for i := range items {
		item := &items[i]

		if strings.TrimSpace(item.Description) == "" {
			report.ItemsWithoutDescription++
		}

		if pricing.SelectPrice(item, pricing.ModeGrossCharge).IsZero() {
			report.ItemsWithoutCharges++
			if len(report.ItemsWithoutChargesIDs) < reportSampleSize {
				report.ItemsWithoutChargesIDs = append(report.ItemsWithoutChargesIDs, item.ID)
			}
		}

		if len(item.CodeInformation) == 0 {
			report.ItemsWithoutCodes++
		}

		if item.DrugInformation == nil {
			continue
		}

		report.DrugItems++
		if parsed := drugparser.Parse(item.Description); parsed == nil || !parsed.Strength.Valid {
			report.DrugItemsWithoutStrength++
			if len(report.DrugItemsWithoutStrengthIDs) < reportSampleSize {
				report.DrugItemsWithoutStrengthIDs = append(report.DrugItemsWithoutStrengthIDs, item.ID)
			}
		}

		kind := unpricedKind
		if unitPrice := drugparser.CalculateUnitPrice(*item, pricing.SelectPrice(item, pricing.ModeGrossCharge)); unitPrice != nil {
			kind = string(unitPrice.Kind())
		}
		report.UnitPriceKinds[kind]++
	}

	return report
}

// ValidateInput validates search queries
func (v *DataValidatorImpl) ValidateInput(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("input cannot be empty")
	}

	length := utf8.RuneCountInString(input)
	if length < minQueryLength {
		return fmt.Errorf("input too short: minimum %d characters", minQueryLength)
	}

	if length > maxQueryLength {
		return fmt.Errorf("input too long: maximum %d characters", maxQueryLength)
	}

	// Word count validation to prevent DoS attacks with many short words
	if len(strings.Fields(input)) > maxQueryWords {
		return fmt.Errorf("search query too complex: maximum %d words allowed", maxQueryWords)
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range dangerousPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("input contains potentially dangerous content")
		}
	}

	if !inputRegex.MatchString(input) {
		return fmt.Errorf("input contains invalid characters. Only letters, numbers, spaces and - . + ' / %% , ( ) # are allowed")
	}

	if !strings.ContainsFunc(input, func(r rune) bool { return unicode.IsLetter(r) || unicode.IsDigit(r) }) {
		return fmt.Errorf("input must contain at least one letter or number")
	}

	if v.hasExcessiveRepetition(input) {
		return fmt.Errorf("input contains excessive character repetition")
	}

	return nil
}

// ValidateDescription validates free text sent to the parse endpoint
func (v *DataValidatorImpl) ValidateDescription(input string) error {
	if strings.TrimSpace(input) == "" {
		return fmt.Errorf("description cannot be empty")
	}

	if !utf8.ValidString(input) {
		return fmt.Errorf("description is not valid UTF-8")
	}

	if n := utf8.RuneCountInString(input); n > maxDescriptionLength {
		return fmt.Errorf("description too long: maximum %d characters", maxDescriptionLength)
	}

	if strings.ContainsFunc(input, unicode.IsControl) {
		return fmt.Errorf("description contains control characters")
	}

	lowerInput := strings.ToLower(input)
	for _, pattern := range markupPatterns {
		if strings.Contains(lowerInput, pattern) {
			return fmt.Errorf("description contains potentially dangerous content")
		}
	}

	return nil
}

// ValidateItemID validates item IDs and returns the normalized form.
// No whitespace is tolerated inside the ID, only around it.
func (v *DataValidatorImpl) ValidateItemID(input string) (string, error) {
	id := strings.ToLower(strings.TrimSpace(input))
	if id == "" {
		return "", fmt.Errorf("input cannot be empty")
	}

	if !itemIDRegex.MatchString(id) {
		return "", fmt.Errorf("invalid item id: expected 16 hexadecimal characters")
	}

	return id, nil
}

// hasExcessiveRepetition checks for potential DoS patterns with excessive character repetition
func (v *DataValidatorImpl) hasExcessiveRepetition(input string) bool {
	// Check for the same character repeated more than 10 times consecutively
	for i := 0; i < len(input)-10; i++ {
		allSame := true
		for j := 1; j <= 10; j++ {
			if input[i] != input[i+j] {
				allSame = false
				break
			}
		}
		if allSame {
			return true
		}
	}
	return false
}

// duplicateIDs lists every id seen more than once, once each, in first-seen order
func duplicateIDs(items []entities.ChargeItem) []string {
	counts := make(map[string]int, len(items))
	duplicates := []string{}

	for i := range items {
		counts[items[i].ID]++
		if counts[items[i].ID] == 2 {
			duplicates = append(duplicates, items[i].ID)
		}
	}

	return duplicates
}
