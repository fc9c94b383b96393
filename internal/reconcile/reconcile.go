// Package reconcile recomputes an invoice's total from its extracted line
// items and reports how far the printed total drifts from it. A large
// discrepancy is a review signal for the operator, never a reason to reject
// the record: extraction noise and rounding both produce small drifts.
package reconcile

import (
	"math"

	"github.com/rs/zerolog"

	"rateio/internal/logger"
	"rateio/pkg/models"
)

// Validator fills the computed fields of extracted records.
type Validator struct {
	log zerolog.Logger
}

// NewValidator creates a cross-validator.
func NewValidator() *Validator {
	return &Validator{log: logger.WithComponent("reconcile")}
}

// Reconcile computes the record's reconciled total and discrepancy in place.
// The reconciled total sums consumption, CIP, the tariff-flag surcharge and
// the two credit lines (compensated and injected energy, typically
// negative). The discrepancy is only meaningful against a positive extracted
// total; otherwise it stays 0.
func (v *Validator) Reconcile(rec *models.InvoiceRecord) {
	rec.ReconciledTotal = rec.ConsumptionValue +
		rec.CIP +
		rec.FlagSurcharge +
		rec.CompensatedValue +
		rec.InjectedValue

	if rec.TotalPayable > 0 {
		rec.Discrepancy = rec.TotalPayable - math.Abs(rec.ReconciledTotal)
	}

	if rec.NeedsReview() {
		v.log.Warn().
			Str("uc", rec.UC).
			Str("file", rec.SourceFile).
			Float64("total_payable", rec.TotalPayable).
			Float64("reconciled", rec.ReconciledTotal).
			Float64("discrepancy", rec.Discrepancy).
			Msg("Reconciliation discrepancy above review threshold")
	}
}
