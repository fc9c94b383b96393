package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"rateio/internal/config"
	"rateio/internal/logger"
	"rateio/internal/normalize"
	"rateio/internal/pipeline"
	"rateio/internal/report"
	"rateio/internal/roster"
	"rateio/pkg/models"
)

var batchCmd = &cobra.Command{
	Use:   "batch [folder-path]",
	Short: "Process a folder of invoice PDFs into a report CSV",
	Long: `Process every PDF invoice in a folder and write one record per file to
a CSV report.

Each file goes through extraction, reconciliation, cycle assignment and the
customer-roster join. Files that fail to parse still produce a record with
an ERROR_/PENDING_ placeholder identifier and an error reason; a corrupt
PDF never aborts the batch. Re-running over the same inputs produces
identical output: records are sorted by account identifier, not by worker
completion order.

When --cycle is given, only records assigned to that report cycle are kept
and the number of excluded records is printed.

Relevant environment variables:
  ROSTER_PATH        - customer roster CSV (uc, name, customer id)
  CUTOFF_DAY         - billing-cycle cutoff day (default: 12)
  RECENT_YEARS_BACK  - reading-date heuristic window (default: 1)
  ISSUE_DATE_DEFAULT - last-resort issue date, DD/MM/YYYY (default: today)
  BATCH_WORKERS      - number of parallel workers (default: 8)`,
	Example: `  # Process a folder against the roster from ROSTER_PATH
  rateio batch ./faturas --out report.csv

  # Only the February 2026 report cycle
  rateio batch ./faturas --cycle 02/2026 --out report-02-2026.csv

  # Explicit roster and a single worker
  rateio batch ./faturas --roster clientes.csv --workers 1 --out report.csv

  # Inspect counts without writing the CSV
  rateio batch ./faturas --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("roster", "", "Customer roster CSV path (default: ROSTER_PATH)")
	batchCmd.Flags().String("cycle", "", "Keep only records assigned to this MM/YYYY cycle")
	batchCmd.Flags().Int("cutoff-day", 0, "Billing-cycle cutoff day (default: CUTOFF_DAY or 12)")
	batchCmd.Flags().Int("workers", 0, "Parallel workers (default: BATCH_WORKERS or 8)")
	batchCmd.Flags().StringP("out", "o", "report.csv", "Output CSV path")
	batchCmd.Flags().Bool("dry-run", false, "Process files but don't write the CSV")
}

func runBatch(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("batch")

	folderPath := args[0]
	rosterPath, _ := cmd.Flags().GetString("roster")
	targetCycle, _ := cmd.Flags().GetString("cycle")
	cutoffDay, _ := cmd.Flags().GetInt("cutoff-day")
	workers, _ := cmd.Flags().GetInt("workers")
	outPath, _ := cmd.Flags().GetString("out")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if rosterPath == "" {
		rosterPath = cfg.RosterPath
	}
	if targetCycle == "" {
		targetCycle = cfg.TargetCycle
	}
	if cutoffDay == 0 {
		cutoffDay = cfg.CutoffDay
	}
	if workers == 0 {
		workers = cfg.BatchWorkers
	}

	if targetCycle != "" {
		if _, ok := normalize.ParseMonthYear(targetCycle); !ok {
			return fmt.Errorf("invalid cycle %q, expected MM/YYYY", targetCycle)
		}
	}

	folderInfo, err := os.Stat(folderPath)
	if err != nil {
		return fmt.Errorf("folder not found: %s", folderPath)
	}
	if !folderInfo.IsDir() {
		return fmt.Errorf("path is not a directory: %s", folderPath)
	}

	var customerBase roster.Roster
	if rosterPath != "" {
		customerBase, err = roster.LoadCSV(rosterPath)
		if err != nil {
			return fmt.Errorf("failed to load roster: %w", err)
		}
	} else {
		log.Warn().Msg("No roster configured, records will not carry customer names")
	}

	pdfFiles, err := pipeline.FindPDFs(folderPath)
	if err != nil {
		return fmt.Errorf("failed to list PDF files: %w", err)
	}
	if len(pdfFiles) == 0 {
		fmt.Println("No PDF files found in folder.")
		return nil
	}

	log.Info().
		Str("folder", folderPath).
		Int("files", len(pdfFiles)).
		Str("target_cycle", targetCycle).
		Int("cutoff_day", cutoffDay).
		Int("workers", workers).
		Bool("dry_run", dryRun).
		Msg("Starting invoice batch")

	fmt.Println(strings.Repeat("=", 70))
	fmt.Println("                    INVOICE BATCH PROCESSING")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Folder: %s\n", folderPath)
	fmt.Printf("PDF files: %d\n", len(pdfFiles))
	if targetCycle != "" {
		fmt.Printf("Target cycle: %s\n", targetCycle)
	}
	if dryRun {
		fmt.Println("Mode: dry run (no CSV output)")
	}
	fmt.Println()

	processor := pipeline.New(pipeline.Options{
		CutoffDay:        cutoffDay,
		TargetCycle:      targetCycle,
		RecentYearsBack:  cfg.RecentYearsBack,
		IssueDateDefault: cfg.IssueDateDefault,
		Workers:          workers,
		Roster:           customerBase,
	})

	records, stats := processor.Process(cmd.Context(), pdfFiles)

	for _, rec := range records {
		marker := "OK "
		switch {
		case rec.Status == models.StatusNeedsAttention:
			marker = "ERR"
		case rec.Status == models.StatusNoRosterMatch:
			marker = "N/R"
		case rec.NeedsReview():
			marker = "REV"
		}
		fmt.Printf("[%s] %s  %s  R$ %.2f  %s\n",
			marker, rec.UC, rec.AssignedCycle, rec.TotalPayable, rec.SourceFile)
	}

	fmt.Println()
	fmt.Println(strings.Repeat("=", 40))
	fmt.Println("               SUMMARY")
	fmt.Println(strings.Repeat("=", 40))
	fmt.Printf("Records:          %d\n", stats.Processed)
	if targetCycle != "" {
		fmt.Printf("Excluded (cycle): %d\n", stats.Excluded)
	}
	if stats.Errors > 0 {
		fmt.Printf("With errors:      %d\n", stats.Errors)
	}
	if stats.NoRoster > 0 {
		fmt.Printf("No roster match:  %d\n", stats.NoRoster)
	}

	if !dryRun {
		if err := report.WriteFile(outPath, records); err != nil {
			return err
		}
		fmt.Printf("\nReport written to %s\n", outPath)
	}

	log.Info().
		Int("records", stats.Processed).
		Int("excluded", stats.Excluded).
		Int("errors", stats.Errors).
		Int("no_roster", stats.NoRoster).
		Msg("Invoice batch completed")

	return nil
}
