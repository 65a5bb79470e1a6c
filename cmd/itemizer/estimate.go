package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/giygas/chargemaster-api/pricing"
	"github.com/giygas/chargemaster-api/validation"
	"github.com/spf13/cobra"
)

func estimateCmd(opts *options) *cobra.Command {
	var itemFlags []string

	cmd := &cobra.Command{
		Use:   "estimate --item ID[=QTY] ...",
		Short: "Price a list of items",
		Long: `Price a list of items under the selected price type. Repeated items
are merged; the quantity defaults to 1.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if len(itemFlags) == 0 {
				return fmt.Errorf("at least one --item is required")
			}

			lines := make([]pricing.LineRequest, 0, len(itemFlags))
			for _, flag := range itemFlags {
				line, err := parseLineFlag(flag)
				if err != nil {
					return err
				}
				lines = append(lines, line)
			}

			_, items, err := opts.loadCharges(cmd.Context())
			if err != nil {
				return err
			}

			byID := make(map[string]entities.ChargeItem, len(items))
			for _, item := range items {
				byID[item.ID] = item
			}

			estimate, err := pricing.NewEstimate(func(id string) (entities.ChargeItem, bool) {
				item, ok := byID[id]
				return item, ok
			}, opts.mode, lines)
			if err != nil {
				return err
			}

			return writeJSON(cmd.OutOrStdout(), estimate)
		},
	}

	cmd.Flags().StringArrayVarP(&itemFlags, "item", "i", nil, "item to price as ID or ID=QTY (repeatable)")

	return cmd
}

// parseLineFlag reads "ID" or "ID=QTY"
func parseLineFlag(flag string) (pricing.LineRequest, error) {
	rawID, rawQty, hasQty := strings.Cut(flag, "=")

	id, err := validation.NewDataValidator().ValidateItemID(rawID)
	if err != nil {
		return pricing.LineRequest{}, fmt.Errorf("--item %q: %w", flag, err)
	}

	quantity := 1
	if hasQty {
		quantity, err = strconv.Atoi(strings.TrimSpace(rawQty))
		if err != nil {
			return pricing.LineRequest{}, fmt.Errorf("--item %q: quantity must be a whole number", flag)
		}
	}

	return pricing.LineRequest{ItemID: id, Quantity: quantity}, nil
}
