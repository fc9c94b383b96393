package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"rateio/internal/config"
	"rateio/internal/cycle"
	"rateio/internal/normalize"
	"rateio/pkg/models"
)

var cycleCmd = &cobra.Command{
	Use:   "cycle [reading-date]",
	Short: "Show which report cycle a reading date belongs to",
	Long: `Apply the billing-cycle rule to a reading date (DD/MM/YYYY): readings
after the cutoff day belong to the following month's report, December
wrapping into January of the next year.`,
	Example: `  # After the default cutoff (12), rolls into the next month
  rateio cycle 13/01/2026

  # On or before the cutoff, stays in the reading's month
  rateio cycle 10/02/2026

  # Custom cutoff
  rateio cycle 14/03/2026 --cutoff-day 15`,
	Args: cobra.ExactArgs(1),
	RunE: runCycle,
}

func init() {
	rootCmd.AddCommand(cycleCmd)

	cycleCmd.Flags().Int("cutoff-day", 0, "Billing-cycle cutoff day (default: CUTOFF_DAY or 12)")
}

func runCycle(cmd *cobra.Command, args []string) error {
	cutoffDay, _ := cmd.Flags().GetInt("cutoff-day")
	if cutoffDay == 0 {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		cutoffDay = cfg.CutoffDay
	}

	readingDate := normalize.ParseDate(args[0])
	assigned := cycle.Assign(readingDate, cutoffDay)
	if assigned == models.DateSentinel {
		return fmt.Errorf("unrecognized reading date %q, expected DD/MM/YYYY", args[0])
	}

	fmt.Println(assigned)
	return nil
}
