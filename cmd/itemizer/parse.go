package main

import (
	"fmt"
	"strings"

	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/giygas/chargemaster-api/drugparser"
	"github.com/giygas/chargemaster-api/handlers"
	"github.com/giygas/chargemaster-api/pricing"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// parseOutput is the parse result, with a unit price when --price is given
type parseOutput struct {
	handlers.ParseResponse
	UnitPrice          drugparser.UnitPrice `json:"unit_price,omitempty"`
	UnitPriceFormatted string               `json:"unit_price_formatted,omitempty"`
}

func parseCmd() *cobra.Command {
	var (
		price       string
		packageQty  string
		packageUnit string
	)

	cmd := &cobra.Command{
		Use:   "parse <description>",
		Short: "Parse a drug description",
		Long: `Parse a chargemaster drug description into name, strength, route and form.

With --price and a package (--package-qty, --package-unit) the unit price the
API would show for such an item is computed as well.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			description := strings.Join(args, " ")
			out := parseOutput{
				ParseResponse: handlers.ParseResponse{
					Description: description,
					Parsed:      drugparser.Parse(description),
				},
			}

			if price != "" {
				amount, err := decimal.NewFromString(strings.ReplaceAll(price, ",", ""))
				if err != nil {
					return fmt.Errorf("invalid --price %q: %w", price, err)
				}

				item := entities.ChargeItem{Description: description}
				if packageQty != "" {
					item.DrugInformation = &entities.DrugInformation{
						Unit: entities.ParseQuantity(packageQty),
						Type: packageUnit,
					}
				}

				out.UnitPrice = drugparser.CalculateUnitPrice(item, amount)
				if headline, per, ok := drugparser.Headline(out.UnitPrice); ok {
					out.UnitPriceFormatted = pricing.FormatRate(headline) + "/" + per
				}
			}

			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&price, "price", "", "package price, e.g. 15.00")
	cmd.Flags().StringVar(&packageQty, "package-qty", "", "package quantity, e.g. 30")
	cmd.Flags().StringVar(&packageUnit, "package-unit", "EA", "package unit code (EA, ML, L...)")

	return cmd
}
