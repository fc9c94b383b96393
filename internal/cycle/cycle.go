// Package cycle assigns invoices to monthly report cycles. The billing
// convention: a meter reading taken after the cutoff day belongs to the
// following month's report, so a late-January reading lands in the February
// cycle alongside early-February readings.
package cycle

import (
	"time"

	"rateio/internal/normalize"
	"rateio/pkg/models"
)

// DefaultCutoffDay is the conventional cutoff used by the rateio reports.
const DefaultCutoffDay = 12

// Assign maps a current-reading date (DD/MM/YYYY) to the MM/YYYY cycle it
// belongs to. Readings after cutoffDay roll into the next month, December
// wrapping into January of the next year. Missing or unparseable dates
// yield the "-" sentinel; Assign is total and never fails.
func Assign(readingDate string, cutoffDay int) string {
	if readingDate == "" || readingDate == models.DateSentinel {
		return models.DateSentinel
	}

	dt, err := time.Parse(normalize.OutputDateFormat, readingDate)
	if err != nil {
		return models.DateSentinel
	}

	month := dt.Month()
	year := dt.Year()
	if dt.Day() > cutoffDay {
		if month == time.December {
			month = time.January
			year++
		} else {
			month++
		}
	}

	return normalize.FormatMonthYear(month, year)
}
