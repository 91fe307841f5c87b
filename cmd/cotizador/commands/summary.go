package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ecoalliance/cotizador/internal/service/reporting"
)

// summary [--date YYYY-MM-DD]
func summaryCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Summarize the quotations stored for a day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			day := time.Now().In(loc)
			if date != "" {
				parsed, err := time.ParseInLocation("2006-01-02", date, loc)
				if err != nil {
					return fmt.Errorf("invalid --date %q: %w", date, err)
				}
				day = parsed
			}

			store, err := openStore()
			if err != nil {
				return err
			}
			summary, err := reporting.NewService(store, nil, log).Summarize(cmd.Context(), day)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), reporting.Describe(summary))
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "day to summarize (default today)")
	return cmd
}
