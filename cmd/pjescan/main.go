// pjescan scrapes the PJe Comunica portal for a day range and upserts the
// publications it finds. Without flags it resumes from the stored watermark.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"PrazoScanner/internal/app"
	"PrazoScanner/internal/config"
)

func main() {
	var (
		fromFlag string
		toFlag   string
		dryRun   bool
	)

	cmd := &cobra.Command{
		Use:          "pjescan",
		Short:        "Scrape PJe Comunica publications into the deadlines database",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			from, err := parseDayFlag(fromFlag)
			if err != nil {
				return fmt.Errorf("--from: %w", err)
			}
			to, err := parseDayFlag(toFlag)
			if err != nil {
				return fmt.Errorf("--to: %w", err)
			}

			cfg := config.Load()
			pje, closeDB, err := app.NewPJeScanner(cmd.Context(), cfg, dryRun)
			if err != nil {
				return err
			}
			defer closeDB()

			total, err := pje.Run(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "total de publicações gravadas: %d\n", total)
			return nil
		},
	}
	cmd.Flags().StringVar(&fromFlag, "from", "", "first day to scrape (YYYY-MM-DD, default: watermark)")
	cmd.Flags().StringVar(&toFlag, "to", "", "last day to scrape (YYYY-MM-DD, default: today)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "log normalized samples without writing")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func parseDayFlag(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse("2006-01-02", s)
}
