package extract

import (
	"strings"

	"rateio/pkg/models"
)

// NormalizeFlagColor maps a raw tariff-flag label to one of the canonical
// colors. Unrecognized labels pass through verbatim so nothing printed on
// the invoice is lost.
func NormalizeFlagColor(label string) string {
	if label == "" {
		return ""
	}
	upper := strings.ToUpper(label)
	switch {
	case strings.Contains(upper, "VERDE"):
		return models.FlagGreen
	case strings.Contains(upper, "AMAREL"):
		return models.FlagYellow
	case strings.Contains(upper, "VERMELH"):
		return models.FlagRed
	}
	return label
}
