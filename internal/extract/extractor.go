// Package extract turns the raw first-page text of an electricity invoice
// into a structured InvoiceRecord. Extraction is best-effort: every field
// has an ordered fallback chain of patterns, a miss keeps the field's
// default, and no field failure ever discards the record.
package extract

import (
	"sort"
	"time"

	"github.com/rs/zerolog"

	"rateio/internal/logger"
	"rateio/internal/normalize"
	"rateio/pkg/models"
)

// Options configures an Extractor.
type Options struct {
	// RecentYearsBack bounds the heuristic reading-date collection: only
	// date tokens from (current year - RecentYearsBack) through the current
	// year are considered reading dates. Stale anchor dates elsewhere on
	// the page (contract dates, regulatory notices) fall outside it.
	RecentYearsBack int

	// IssueDateDefault (DD/MM/YYYY) is the last-resort issue date when the
	// page has neither an issue-date label nor a current reading date.
	// Empty means the current date at extraction time.
	IssueDateDefault string

	// Now is overridable for tests. Nil means time.Now.
	Now func() time.Time
}

// Extractor parses invoice page text. It is stateless across calls and safe
// for concurrent use.
type Extractor struct {
	recentYearsBack  int
	issueDateDefault string
	now              func() time.Time
	log              zerolog.Logger
}

// New creates an Extractor.
func New(opts Options) *Extractor {
	if opts.RecentYearsBack < 0 {
		opts.RecentYearsBack = 0
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Extractor{
		recentYearsBack:  opts.RecentYearsBack,
		issueDateDefault: opts.IssueDateDefault,
		now:              now,
		log:              logger.WithComponent("extract"),
	}
}

// Extract parses one invoice page into a record. The returned record always
// carries an identifier: when none can be found on the page it gets a
// PENDING_<file> placeholder and an error reason, but it is still usable.
func (e *Extractor) Extract(pageText, sourceFile string) *models.InvoiceRecord {
	rec := EmptyRecord(sourceFile)

	for _, chain := range fieldChains {
		for _, pattern := range chain.patterns {
			if groups := pattern.FindStringSubmatch(pageText); groups != nil {
				chain.assign(rec, groups)
				break
			}
		}
	}

	e.extractReadingDates(pageText, rec)
	e.resolveIssueDate(pageText, rec)
	extractMeterTriplet(pageText, rec)
	extractTaxes(pageText, rec)
	extractLineItems(pageText, rec)
	extractCIPFallback(pageText, rec)
	rec.FlagColor = NormalizeFlagColor(rec.FlagLabel)

	if rec.UC == "" {
		rec.UC = "PENDING_" + sourceFile
		rec.SetError(ReasonIdentifierNotFound)
		e.log.Warn().
			Str("file", sourceFile).
			Msg("Account identifier not found, emitting placeholder record")
	}

	e.log.Debug().
		Str("file", sourceFile).
		Str("uc", rec.UC).
		Float64("total", rec.TotalPayable).
		Str("reference_month", rec.ReferenceMonth).
		Msg("Invoice page extracted")

	return rec
}

// EmptyRecord returns a record with every field at its documented default.
// The pipeline uses it to emit records for files whose text never became
// available.
func EmptyRecord(sourceFile string) *models.InvoiceRecord {
	return &models.InvoiceRecord{
		SourceFile:     sourceFile,
		DueDate:        models.DateSentinel,
		IssueDate:      models.DateSentinel,
		ReadingPrev:    models.DateSentinel,
		ReadingCurrent: models.DateSentinel,
		ReadingNext:    models.DateSentinel,
		AssignedCycle:  models.DateSentinel,
	}
}

// extractReadingDates fills the previous/current/next reading dates. The
// structural table match is preferred; when the layout lacks the table
// header, all recent date tokens on the page are collected, deduplicated and
// sorted, and the first, second and last become the three reading dates.
func (e *Extractor) extractReadingDates(pageText string, rec *models.InvoiceRecord) {
	if groups := reReadingTable.FindStringSubmatch(pageText); groups != nil {
		rec.ReadingPrev = normalize.ParseDate(groups[1])
		rec.ReadingCurrent = normalize.ParseDate(groups[2])
		rec.ReadingNext = normalize.ParseDate(groups[3])
		return
	}

	currentYear := e.now().Year()
	minYear := currentYear - e.recentYearsBack

	seen := make(map[string]bool)
	var dates []time.Time
	for _, token := range reAnyDate.FindAllString(pageText, -1) {
		if seen[token] {
			continue
		}
		seen[token] = true
		dt, err := time.Parse(normalize.OutputDateFormat, token)
		if err != nil {
			continue
		}
		if dt.Year() < minYear || dt.Year() > currentYear+1 {
			continue
		}
		dates = append(dates, dt)
	}

	if len(dates) < 3 {
		return
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	rec.ReadingPrev = dates[0].Format(normalize.OutputDateFormat)
	rec.ReadingCurrent = dates[1].Format(normalize.OutputDateFormat)
	rec.ReadingNext = dates[len(dates)-1].Format(normalize.OutputDateFormat)
}

// resolveIssueDate applies the issue-date fallback chain: label variants,
// then the current reading date, then the configured default. Downstream
// consumers rely on the issue date never being empty.
func (e *Extractor) resolveIssueDate(pageText string, rec *models.InvoiceRecord) {
	for _, pattern := range issueDatePatterns {
		if groups := pattern.FindStringSubmatch(pageText); groups != nil {
			rec.IssueDate = normalize.ParseDate(groups[1])
			return
		}
	}
	if rec.ReadingCurrent != models.DateSentinel {
		rec.IssueDate = rec.ReadingCurrent
		return
	}
	if e.issueDateDefault != "" {
		rec.IssueDate = e.issueDateDefault
		return
	}
	rec.IssueDate = e.now().Format(normalize.OutputDateFormat)
}

func extractMeterTriplet(pageText string, rec *models.InvoiceRecord) {
	groups := reMeterTriplet.FindStringSubmatch(pageText)
	if groups == nil {
		return
	}
	rec.MeterPrev = normalize.ParseAmount(groups[1])
	rec.MeterCurrent = normalize.ParseAmount(groups[2])
	rec.Consumption = normalize.ParseAmount(groups[3])
}

// extractTaxes scopes the search to the tax table so the three-number rows
// cannot latch onto ICMS mentions elsewhere on the page. Convention for the
// (base, rate, value) rows: the rate is the second number, stored as a 0..1
// fraction; the monetary value is the third.
func extractTaxes(pageText string, rec *models.InvoiceRecord) {
	section := reTaxSection.FindStringSubmatch(pageText)
	if section == nil {
		return
	}
	taxText := section[1]

	if g := reICMSRow.FindStringSubmatch(taxText); g != nil {
		rec.ICMSRate = normalize.ParseAmount(g[2]) / 100
		rec.ICMS = normalize.ParseAmount(g[3])
	}
	if g := rePISRow.FindStringSubmatch(taxText); g != nil {
		rec.PISRate = normalize.ParseAmount(g[2]) / 100
		rec.PIS = normalize.ParseAmount(g[3])
	}
	if g := reCOFINSRow.FindStringSubmatch(taxText); g != nil {
		rec.COFINSRate = normalize.ParseAmount(g[2]) / 100
		rec.COFINS = normalize.ParseAmount(g[3])
	}
}

// extractLineItems parses the "Itens de Fatura" rows. Each row carries six
// numbers; the last is the line's monetary total and keeps its printed sign,
// so the compensated and injected-energy credits come out negative.
func extractLineItems(pageText string, rec *models.InvoiceRecord) {
	section := reItemsSection.FindStringSubmatch(pageText)
	if section == nil {
		return
	}
	itemsText := section[1]

	if g := reConsumptionRow.FindStringSubmatch(itemsText); g != nil {
		rec.Consumption = normalize.ParseAmount(g[1])
		rec.UnitPriceConsumption = normalize.ParseAmount(g[2])
		rec.ConsumptionValue = normalize.ParseAmount(g[6])
		// The row's fifth column is the line ICMS; use it when the tax
		// table was missing.
		if rec.ICMS == 0 {
			rec.ICMS = normalize.ParseAmount(g[5])
		}
	}
	if g := reCompensatedRow.FindStringSubmatch(itemsText); g != nil {
		rec.CompensatedEnergy = normalize.ParseAmount(g[1])
		rec.UnitPriceCompensated = normalize.ParseAmount(g[2])
		rec.CompensatedValue = normalize.ParseAmount(g[6])
	}
	if g := reInjectedRow.FindStringSubmatch(itemsText); g != nil {
		rec.InjectedValue = normalize.ParseAmount(g[6])
	}
}

// extractCIPFallback looks for the public-lighting charge in the financial
// items section when no Cip label matched directly.
func extractCIPFallback(pageText string, rec *models.InvoiceRecord) {
	if rec.CIP != 0 {
		return
	}
	section := reFinancialsSection.FindStringSubmatch(pageText)
	if section == nil {
		return
	}
	if g := reFirstNumber.FindStringSubmatch(section[1]); g != nil {
		rec.CIP = normalize.ParseAmount(g[1])
	}
}
