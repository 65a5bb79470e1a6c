package data

import (
	"strings"

	"github.com/giygas/chargemaster-api/chargeparser"
	"github.com/giygas/chargemaster-api/chargeparser/entities"
)

const (
	// MinQueryLength is the shortest query that triggers a search
	MinQueryLength = 2
	// MaxResults caps the number of items a search returns
	MaxResults = 100
)

// Search returns the items whose description or codes contain query, in file
// order. Matching ignores case and accents. A limit outside 1..MaxResults
// means MaxResults.
func Search(items []entities.ChargeItem, query string, limit int) []entities.ChargeItem {
	needle := chargeparser.FoldText(strings.TrimSpace(query))
	if len([]rune(needle)) < MinQueryLength {
		return []entities.ChargeItem{}
	}

	if limit <= 0 || limit > MaxResults {
		limit = MaxResults
	}

	results := make([]entities.ChargeItem, 0, min(limit, 16))
	for i := range items {
		key := items[i].SearchKey
		if key == "" {
			key = chargeparser.SearchKey(&items[i])
		}
		if strings.Contains(key, needle) {
			results = append(results, items[i])
			if len(results) == limit {
				break
			}
		}
	}
	return results
}
