package commands

import (
	"github.com/spf13/cobra"

	"github.com/ecoalliance/cotizador/internal/domain/models"
)

// calc --base <eur> [--markup pct] [--discount pct]
func calcCmd() *cobra.Command {
	var base, markup, discount float64

	cmd := &cobra.Command{
		Use:   "calc",
		Short: "Apply markup and discount to a base price",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := newQuotationService(false)
			if err != nil {
				return err
			}

			req := models.PriceRequest{BasePrice: models.Num(base)}
			if cmd.Flags().Changed("markup") {
				req.Markup = models.Num(markup)
			}
			if cmd.Flags().Changed("discount") {
				req.Discount = models.Num(discount)
			}
			return printJSON(cmd.OutOrStdout(), svc.Price(req))
		},
	}
	cmd.Flags().Float64Var(&base, "base", 0, "base price in EUR")
	cmd.Flags().Float64Var(&markup, "markup", 0, "markup percentage (default from QUOTE_DEFAULT_MARKUP)")
	cmd.Flags().Float64Var(&discount, "discount", 0, "discount percentage (default from QUOTE_DEFAULT_DISCOUNT)")
	_ = cmd.MarkFlagRequired("base")
	return cmd
}
