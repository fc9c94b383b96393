// Package normalize converts raw invoice text tokens (Brazilian-locale
// amounts, dates, month references) into typed values. Every function here
// recovers from bad input instead of failing: unparseable amounts become 0.0
// and unparseable dates pass through, so a single mangled token never aborts
// an extraction.
package normalize

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"rateio/internal/logger"
)

// OutputDateFormat is the canonical date layout used across all records.
const OutputDateFormat = "02/01/2006"

// dateFormats are tried in order by ParseDate. DD/MM/YYYY first since it is
// what the invoices print; the rest cover roster exports and OCR-era layouts.
var dateFormats = []string{
	"02/01/2006",
	"2006-01-02",
	"02-01-2006",
	"02/01/06",
	"02.01.2006",
}

var currencyRunes = regexp.MustCompile(`[R$\s]`)

// ParseAmount converts a Brazilian or mixed-locale numeric string to a
// float64. It strips currency symbols and whitespace, recognizes
// parenthesized and leading-minus negatives, treats a comma as the decimal
// separator (with dots before it as thousands separators), and when only
// dots appear treats all but the last as thousands separators. Any input it
// cannot make sense of yields 0.0 and a warning log; it never fails.
func ParseAmount(text string) float64 {
	raw := text
	cleaned := strings.TrimSpace(text)
	if cleaned == "" || cleaned == "-" || strings.EqualFold(cleaned, "N/A") {
		return 0.0
	}

	cleaned = currencyRunes.ReplaceAllString(cleaned, "")

	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		cleaned = cleaned[1 : len(cleaned)-1]
		negative = true
	} else if strings.HasPrefix(cleaned, "-") {
		cleaned = cleaned[1:]
		negative = true
	}

	// Stray separators at the end come from truncated regex captures.
	cleaned = strings.TrimRight(cleaned, ".,")
	if cleaned == "" {
		return 0.0
	}

	if strings.Contains(cleaned, ",") {
		// Brazilian format: comma is the decimal separator, dots before it
		// are thousands separators (1.234,56 or 1234,56).
		parts := strings.SplitN(cleaned, ",", 2)
		integer := strings.ReplaceAll(parts[0], ".", "")
		if len(parts) == 2 {
			cleaned = integer + "." + parts[1]
		} else {
			cleaned = integer
		}
	} else if strings.Count(cleaned, ".") > 1 {
		// Only dots present: keep the last as decimal (1.234.56 -> 1234.56).
		idx := strings.LastIndex(cleaned, ".")
		cleaned = strings.ReplaceAll(cleaned[:idx], ".", "") + cleaned[idx:]
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		log := logger.WithComponent("normalize")
		log.Warn().
			Str("input", raw).
			Str("cleaned", cleaned).
			Msg("Unparseable amount, defaulting to 0.0")
		return 0.0
	}

	if negative {
		return -value
	}
	return value
}

// ParseDate normalizes a date token into DD/MM/YYYY. Empty, "-" and "N/A"
// inputs map to the sentinel "-"; an unrecognized format is returned
// unchanged so the raw token stays visible in reports.
func ParseDate(text string) string {
	cleaned := strings.TrimSpace(text)
	if cleaned == "" || cleaned == "-" || strings.EqualFold(cleaned, "N/A") {
		return "-"
	}

	for _, format := range dateFormats {
		if dt, err := time.Parse(format, cleaned); err == nil {
			return dt.Format(OutputDateFormat)
		}
	}
	return cleaned
}

// ParseMonthYear parses an MM/YYYY cycle reference. The returned time is the
// first day of that month.
func ParseMonthYear(text string) (time.Time, bool) {
	cleaned := strings.TrimSpace(text)
	dt, err := time.Parse("01/2006", cleaned)
	if err != nil {
		return time.Time{}, false
	}
	return dt, true
}

// FormatMonthYear renders a month and year as MM/YYYY.
func FormatMonthYear(month time.Month, year int) string {
	return fmt.Sprintf("%02d/%d", int(month), year)
}
