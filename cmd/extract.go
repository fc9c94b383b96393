package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"rateio/internal/config"
	"rateio/internal/cycle"
	"rateio/internal/extract"
	"rateio/internal/logger"
	"rateio/internal/reconcile"
)

var extractCmd = &cobra.Command{
	Use:   "extract [pdf-file]",
	Short: "Extract structured billing data from one invoice PDF",
	Long: `Parse a single electricity-invoice PDF and print the extracted record
as JSON.

Extraction reads the first page of the PDF and matches each billing field
against an ordered chain of patterns, so layout drift across invoice
template versions degrades gracefully: a field whose patterns all miss
keeps its default instead of failing the file. The record also carries the
reconciled total (recomputed from the line items), the discrepancy against
the printed total, and the assigned report cycle.

Relevant environment variables:
  CUTOFF_DAY         - billing-cycle cutoff day (default: 12)
  RECENT_YEARS_BACK  - reading-date heuristic window (default: 1)
  ISSUE_DATE_DEFAULT - last-resort issue date, DD/MM/YYYY (default: today)`,
	Example: `  # Extract one invoice to stdout
  rateio extract fatura.pdf

  # Save the record to a file
  rateio extract fatura.pdf -o record.json

  # Use a different cycle cutoff
  rateio extract fatura.pdf --cutoff-day 15`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().StringP("output", "o", "", "Output file path (default: stdout)")
	extractCmd.Flags().Int("cutoff-day", 0, "Billing-cycle cutoff day (default: CUTOFF_DAY or 12)")
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("extract-cmd")

	pdfPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	cutoffDay, _ := cmd.Flags().GetInt("cutoff-day")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cutoffDay == 0 {
		cutoffDay = cfg.CutoffDay
	}

	log.Info().
		Str("file", pdfPath).
		Int("cutoff_day", cutoffDay).
		Msg("Extracting single invoice")

	pageText, err := extract.PageText(pdfPath)
	if err != nil {
		return fmt.Errorf("failed to read invoice text: %w", err)
	}

	extractor := extract.New(extract.Options{
		RecentYearsBack:  cfg.RecentYearsBack,
		IssueDateDefault: cfg.IssueDateDefault,
	})
	rec := extractor.Extract(pageText, filepath.Base(pdfPath))
	reconcile.NewValidator().Reconcile(rec)
	rec.AssignedCycle = cycle.Assign(rec.ReadingCurrent, cutoffDay)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	if outputPath == "" {
		fmt.Println(string(data))
	} else {
		if err := os.WriteFile(outputPath, append(data, '\n'), 0644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		fmt.Printf("Record written to %s\n", outputPath)
	}

	if rec.HasError() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", rec.ErrorReason)
	}
	if rec.NeedsReview() {
		fmt.Fprintf(os.Stderr, "Warning: reconciliation discrepancy R$ %.2f, review recommended\n", rec.Discrepancy)
	}

	log.Info().
		Str("uc", rec.UC).
		Float64("total", rec.TotalPayable).
		Str("cycle", rec.AssignedCycle).
		Msg("Invoice extracted")

	return nil
}
