package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/giygas/chargemaster-api/chargeparser"
	"github.com/giygas/chargemaster-api/chargeparser/entities"
	"github.com/giygas/chargemaster-api/config"
	"github.com/giygas/chargemaster-api/logging"
	"github.com/giygas/chargemaster-api/pricing"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// options are the flags shared by every command
type options struct {
	source    string
	priceType string
	timeout   time.Duration
	verbose   bool

	mode pricing.Mode
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "itemizer",
		Short: "Inspect a hospital standard-charge file",
		Long: `itemizer reads a hospital standard-charge file and answers the same
questions as the API: what a drug description means, which items match a
search and what a list of items would cost.

Examples:
  itemizer parse "HEPARIN 5000 UNITS/ML INJ"
  itemizer search insulin --source ./standard_charges.json
  itemizer estimate --item 3f2a9c01d4e5b6a7=2 --price-type discounted_cash`,
		SilenceUsage: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return opts.complete()
		},
	}

	cmd.PersistentFlags().StringVar(&opts.source, "source", "", "charge file URL or path (default $DATA_SOURCE, then "+config.DefaultDataSource+")")
	cmd.PersistentFlags().StringVar(&opts.priceType, "price-type", "", "gross_charge or discounted_cash (default $DEFAULT_PRICE_TYPE, then "+config.DefaultPriceType+")")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", config.DefaultDownloadTimeout, "download timeout for remote sources")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log progress to the console")

	cmd.AddCommand(parseCmd())
	cmd.AddCommand(searchCmd(opts))
	cmd.AddCommand(estimateCmd(opts))
	cmd.AddCommand(vocabCmd())

	return cmd
}

// complete fills unset flags from the environment and checks them
func (o *options) complete() error {
	// A missing .env is not an error
	_ = godotenv.Load()

	level := "warn"
	if o.verbose {
		level = "debug"
	}
	logging.InitLoggerWithOptions(logging.Options{Env: config.EnvProduction, LogLevel: level})

	if o.source == "" {
		o.source = envOr("DATA_SOURCE", config.DefaultDataSource)
	}
	if o.priceType == "" {
		o.priceType = envOr("DEFAULT_PRICE_TYPE", config.DefaultPriceType)
	}

	mode, err := pricing.ParseMode(o.priceType, pricing.ModeGrossCharge)
	if err != nil {
		return err
	}
	o.mode = mode

	if o.timeout <= 0 {
		return fmt.Errorf("--timeout must be positive, got %s", o.timeout)
	}
	return nil
}

// loadCharges reads the charge file named by --source
func (o *options) loadCharges(ctx context.Context) (entities.Hospital, []entities.ChargeItem, error) {
	hospital, items, err := chargeparser.NewChargesParser(o.source, o.timeout).ParseCharges(ctx)
	if err != nil {
		return entities.Hospital{}, nil, fmt.Errorf("failed to load %s: %w", o.source, err)
	}
	return hospital, items, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
