// Package models defines the data structures shared across the extraction
// pipeline and its consumers.
package models

// Record status values set by the batch pipeline.
const (
	// StatusOK means extraction succeeded and the account was found in the roster.
	StatusOK = "OK"

	// StatusNeedsAttention means extraction failed partially or completely;
	// ErrorReason carries the first failure encountered.
	StatusNeedsAttention = "NEEDS_ATTENTION"

	// StatusNoRosterMatch means extraction succeeded but the account
	// identifier is not present in the customer roster.
	StatusNoRosterMatch = "NO_ROSTER_MATCH"
)

// Normalized tariff-flag colors. Unrecognized labels pass through verbatim.
const (
	FlagGreen  = "GREEN"
	FlagYellow = "YELLOW"
	FlagRed    = "RED"
)

// DateSentinel marks a date that could not be extracted.
const DateSentinel = "-"

// ReviewThreshold is the discrepancy magnitude (in currency units) above
// which a record is flagged for manual review.
const ReviewThreshold = 1.00

// InvoiceRecord holds everything extracted from a single invoice PDF plus
// the computed and roster-joined fields. Monetary and energy figures default
// to 0.0 when a field could not be located; dates default to DateSentinel.
// Partial records are valid: a non-empty ErrorReason never implies the other
// fields are empty.
type InvoiceRecord struct {
	// Identification
	UC           string `json:"uc"`           // account/contract identifier; never empty (placeholder when not extracted)
	Installation string `json:"installation"` // installation id
	CNPJ         string `json:"cnpj"`         // customer tax id as printed on the invoice
	CustomerName string `json:"customerName"` // joined from roster
	CustomerID   string `json:"customerId"`   // joined from roster
	SourceFile   string `json:"sourceFile"`   // base name of the PDF the record came from

	// Cycle data
	ReferenceMonth string `json:"referenceMonth"` // MM/YYYY as printed on the invoice
	DueDate        string `json:"dueDate"`        // DD/MM/YYYY
	IssueDate      string `json:"issueDate"`      // DD/MM/YYYY; falls back to current reading date, then a caller default
	ReadingPrev    string `json:"readingPrev"`    // previous meter-reading date
	ReadingCurrent string `json:"readingCurrent"` // current meter-reading date
	ReadingNext    string `json:"readingNext"`    // next scheduled reading date

	// Metering (kWh)
	MeterPrev          float64 `json:"meterPrev"`          // previous register reading
	MeterCurrent       float64 `json:"meterCurrent"`       // current register reading
	Consumption        float64 `json:"consumption"`        // measured consumption
	CompensatedEnergy  float64 `json:"compensatedEnergy"`  // generation credits applied this cycle
	AccumulatedBalance float64 `json:"accumulatedBalance"` // remaining credit balance

	// Monetary (R$)
	TotalPayable     float64 `json:"totalPayable"`
	ConsumptionValue float64 `json:"consumptionValue"`
	CompensatedValue float64 `json:"compensatedValue"` // typically negative (credit)
	InjectedValue    float64 `json:"injectedValue"`    // typically negative (credit)
	CIP              float64 `json:"cip"`              // public-lighting contribution
	FlagSurcharge    float64 `json:"flagSurcharge"`    // tariff-flag surcharge

	// Unit prices (R$/kWh)
	UnitPriceConsumption float64 `json:"unitPriceConsumption"`
	UnitPriceCompensated float64 `json:"unitPriceCompensated"`

	// Taxes: monetary values plus rates as fractions in 0..1
	ICMS       float64 `json:"icms"`
	PIS        float64 `json:"pis"`
	COFINS     float64 `json:"cofins"`
	ICMSRate   float64 `json:"icmsRate"`
	PISRate    float64 `json:"pisRate"`
	COFINSRate float64 `json:"cofinsRate"`

	// Classification
	SupplyType     string `json:"supplyType"`
	Classification string `json:"classification"`
	FlagColor      string `json:"flagColor"`      // GREEN, YELLOW, RED or the raw label when unrecognized
	FlagLabel      string `json:"flagLabel"`      // label exactly as printed

	// Computed by the cross-validator
	ReconciledTotal float64 `json:"reconciledTotal"` // sum of itemized values (credits negative)
	Discrepancy     float64 `json:"discrepancy"`     // TotalPayable - |ReconciledTotal|, only when TotalPayable > 0

	// Pipeline status
	AssignedCycle string `json:"assignedCycle"` // MM/YYYY cycle the record belongs to, or DateSentinel
	Status        string `json:"status"`
	ErrorReason   string `json:"errorReason"`   // first failure encountered; empty when extraction was clean
}

// HasError reports whether any extraction failure was recorded.
func (r *InvoiceRecord) HasError() bool {
	return r.ErrorReason != ""
}

// SetError records the first failure reason; later failures are ignored.
func (r *InvoiceRecord) SetError(reason string) {
	if r.ErrorReason == "" {
		r.ErrorReason = reason
	}
}

// NeedsReview reports whether the reconciliation discrepancy is large enough
// to warrant manual inspection. Only meaningful when a total was extracted.
func (r *InvoiceRecord) NeedsReview() bool {
	if r.TotalPayable <= 0 {
		return false
	}
	d := r.Discrepancy
	if d < 0 {
		d = -d
	}
	return d >= ReviewThreshold
}
