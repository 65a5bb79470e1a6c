package main

import (
	"strings"

	"github.com/giygas/chargemaster-api/data"
	"github.com/giygas/chargemaster-api/handlers"
	"github.com/giygas/chargemaster-api/pricing"
	"github.com/giygas/chargemaster-api/validation"
	"github.com/spf13/cobra"
)

func searchCmd(opts *options) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search items by description or code",
		Long: `Search the charge file the way /v1/items does: case and accent
insensitive substring match on the description and the codes, in file order.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			if err := validation.NewDataValidator().ValidateInput(query); err != nil {
				return err
			}

			_, items, err := opts.loadCharges(cmd.Context())
			if err != nil {
				return err
			}

			matches := data.Search(items, query, limit)
			views := make([]pricing.ItemView, 0, len(matches))
			for i := range matches {
				views = append(views, pricing.BuildView(&matches[i], opts.mode))
			}

			return writeJSON(cmd.OutOrStdout(), handlers.SearchResponse{
				Query:     query,
				PriceType: opts.mode,
				Count:     len(views),
				Results:   views,
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results (1-100)")

	return cmd
}
