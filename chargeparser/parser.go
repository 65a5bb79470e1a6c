package chargeparser

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/giygas/chargemaster-api/interfaces"
	"github.com/giygas/chargemaster-api/logging"
)

// Compile-time check to ensure ChargesParser implements Parser interface
var _ interfaces.Parser = (*ChargesParser)(nil)

// ChargesParser implements the Parser interface
type ChargesParser struct {
	source  string
	timeout time.Duration
}

// NewChargesParser creates a parser reading from source, an http(s) URL or a
// local path. timeout bounds remote downloads.
func NewChargesParser(source string, timeout time.Duration) *ChargesParser {
	return &ChargesParser{
		source:  source,
		timeout: timeout,
	}
}

// ParseCharges implements the Parser interface
func (p *ChargesParser) ParseCharges(ctx context.Context) (entities.Hospital, []entities.ChargeItem, error) {
	body, err := fetchSource(ctx, p.source, p.timeout)
	if err != nil {
		return entities.Hospital{}, nil, err
	}

	file, err := Decode(body)
	if err != nil {
		return entities.Hospital{}, nil, fmt.Errorf("failed to parse %s: %w", p.source, err)
	}

	items := PrepareItems(file.StandardChargeInformation)
	logging.Info("Charge file parsed successfully", "source", p.source, "items", len(items))

	return file.Header(), items, nil
}

// Decode unmarshals a charge file already converted to UTF-8.
func Decode(body []byte) (*entities.ChargeFile, error) {
	var file entities.ChargeFile
	if err := json.Unmarshal(body, &file); err != nil {
		return nil, fmt.Errorf("invalid charge file: %w", err)
	}
	if file.StandardChargeInformation == nil {
		return nil, fmt.Errorf("invalid charge file: missing standard_charge_information")
	}
	return &file, nil
}

// PrepareItems trims descriptions, assigns IDs and computes search keys. It
// works in place and returns the same slice.
func PrepareItems(items []entities.ChargeItem) []entities.ChargeItem {
	for i := range items {
		items[i].Description = strings.TrimSpace(items[i].Description)
	}

	if collisions := assignIDs(items); collisions > 0 {
		logging.Warn("Items sharing description and first code", "count", collisions)
	}

	for i := range items {
		items[i].SearchKey = SearchKey(&items[i])
	}
	return items
}
