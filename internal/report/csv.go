// Package report renders the pipeline's record stream as a flat CSV: the
// unstyled data dump the spreadsheet-facing report writer consumes. Columns
// follow the report layout the operation reads: identification, dates,
// metering, monetary values, unit prices, taxes, computed fields,
// classification, status.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"rateio/pkg/models"
)

var header = []string{
	"uc", "installation", "cnpj", "customer_id", "customer_name", "source_file",
	"reference_month", "assigned_cycle", "due_date", "issue_date",
	"reading_prev", "reading_current", "reading_next",
	"meter_prev", "meter_current", "consumption_kwh",
	"compensated_energy_kwh", "accumulated_balance_kwh",
	"total_payable", "consumption_value", "compensated_value",
	"injected_value", "cip", "flag_surcharge",
	"unit_price_consumption", "unit_price_compensated",
	"icms", "pis", "cofins", "icms_rate", "pis_rate", "cofins_rate",
	"reconciled_total", "discrepancy", "needs_review",
	"supply_type", "classification", "flag_color", "flag_label",
	"status", "error_reason",
}

// Write renders records as CSV, header first.
func Write(w io.Writer, records []*models.InvoiceRecord) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return fmt.Errorf("report: failed to write header: %w", err)
	}
	for _, rec := range records {
		if err := writer.Write(row(rec)); err != nil {
			return fmt.Errorf("report: failed to write record %s: %w", rec.UC, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile renders records to a CSV file, truncating any existing content.
func WriteFile(path string, records []*models.InvoiceRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("report: failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := Write(file, records); err != nil {
		return err
	}
	return file.Close()
}

func row(rec *models.InvoiceRecord) []string {
	return []string{
		rec.UC, rec.Installation, rec.CNPJ, rec.CustomerID, rec.CustomerName, rec.SourceFile,
		rec.ReferenceMonth, rec.AssignedCycle, rec.DueDate, rec.IssueDate,
		rec.ReadingPrev, rec.ReadingCurrent, rec.ReadingNext,
		amount(rec.MeterPrev), amount(rec.MeterCurrent), amount(rec.Consumption),
		amount(rec.CompensatedEnergy), amount(rec.AccumulatedBalance),
		amount(rec.TotalPayable), amount(rec.ConsumptionValue), amount(rec.CompensatedValue),
		amount(rec.InjectedValue), amount(rec.CIP), amount(rec.FlagSurcharge),
		rate(rec.UnitPriceConsumption), rate(rec.UnitPriceCompensated),
		amount(rec.ICMS), amount(rec.PIS), amount(rec.COFINS),
		rate(rec.ICMSRate), rate(rec.PISRate), rate(rec.COFINSRate),
		amount(rec.ReconciledTotal), amount(rec.Discrepancy), strconv.FormatBool(rec.NeedsReview()),
		rec.SupplyType, rec.Classification, rec.FlagColor, rec.FlagLabel,
		rec.Status, rec.ErrorReason,
	}
}

// amount renders monetary and energy figures with two decimals.
func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// rate renders unit prices and tax fractions without losing precision.
func rate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
