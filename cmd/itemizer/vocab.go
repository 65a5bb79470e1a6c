package main

import (
	"fmt"

	"github.com/giygas/chargemaster-api/drugparser"
	"github.com/spf13/cobra"
)

func vocabCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "vocab [routes|forms]",
		Short:     "List the route and form abbreviations the parser knows",
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"routes", "forms"},
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			show := func(title string, entries []drugparser.Abbreviation) {
				fmt.Fprintln(out, title)
				for _, a := range entries {
					fmt.Fprintf(out, "  %-8s %s\n", a.Code, a.Expansion)
				}
			}

			if len(args) == 0 || args[0] == "routes" {
				show("Routes:", drugparser.Routes())
			}
			if len(args) == 0 || args[0] == "forms" {
				show("Forms:", drugparser.Forms())
			}
			return nil
		},
	}
}
