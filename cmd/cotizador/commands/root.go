package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ecoalliance/cotizador/internal/config"
	"github.com/ecoalliance/cotizador/internal/repository/filestore"
	"github.com/ecoalliance/cotizador/internal/service/pricing"
	"github.com/ecoalliance/cotizador/internal/service/quotation"
	"github.com/ecoalliance/cotizador/pkg/logger"
)

var (
	envFile string
	verbose bool

	cfg    *config.Config
	log    *zap.Logger
	loc    *time.Location
	engine *pricing.Engine
)

// Execute runs the CLI against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "cotizador",
		Short:        "Machinery quotation calculator",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(envFile)
			if err != nil {
				return err
			}
			cfg = loaded

			level := "error"
			if verbose {
				level = "debug"
			}
			log, err = logger.New(logger.Options{Level: level, Development: true})
			if err != nil {
				return err
			}
			loc, err = cfg.Reporting.Location()
			if err != nil {
				return err
			}
			engine = pricing.NewEngine(cfg.Pricing.Tariff, logger.Named(log, "pricing"), pricing.WithLocation(loc))
			return nil
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env", "", "path to a .env file (default ./.env when present)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log normalization warnings to stderr")

	root.AddCommand(calcCmd(), quoteCmd(), summaryCmd())
	return root
}

// newQuotationService builds the service, persisting to the configured
// quotations directory only when save is set.
func newQuotationService(save bool) (*quotation.Service, error) {
	var sink quotation.Sink
	if save {
		store, err := openStore()
		if err != nil {
			return nil, err
		}
		sink = store
	}
	return quotation.NewService(engine, cfg.Pricing, sink, logger.Named(log, "quotation")), nil
}

func openStore() (*filestore.Store, error) {
	return filestore.New(cfg.Storage.QuotationsDir, logger.Named(log, "filestore"))
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
