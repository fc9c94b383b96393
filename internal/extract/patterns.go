package extract

import (
	"regexp"

	"rateio/internal/normalize"
	"rateio/pkg/models"
)

// patternChain is one field's ordered fallback chain: candidate patterns of
// decreasing specificity tried in order, first match wins, a miss leaves the
// record's default in place. Keeping the chains as data (rather than
// repeated search-and-assign code) is what lets a single extractor cover the
// layout drift across invoice template versions.
type patternChain struct {
	field    string
	patterns []*regexp.Regexp
	assign   func(rec *models.InvoiceRecord, groups []string)
}

// fieldChains covers every field that is a single label-anchored capture.
// Reading dates, the meter triplet, the tax table and the invoice-item rows
// need section scoping or multi-value assignment and live in extractor.go.
var fieldChains = []patternChain{
	{
		field: "uc",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Conta\s*Contrato\s*(\d{10})`),
			regexp.MustCompile(`(?i)Contrato\s*(\d{10})`),
			regexp.MustCompile(`(?i)UC\s*(\d{10})`),
			regexp.MustCompile(`(?i)INSTALA[ÇC][ÃA]O\s*[:\-]?\s*(\d{6,12})`),
			// Windowed fallback: label and digits separated by up to ~200
			// characters of unrelated text (multi-line extraction artifacts).
			regexp.MustCompile(`(?i)INSTALA[ÇC][ÃA]O[\s\S]{0,200}?(\d{6,12})`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) { rec.UC = g[1] },
	},
	{
		field: "installation",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)INSTALA[ÇC][ÃA]O:\s*(\d+)`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) { rec.Installation = g[1] },
	},
	{
		field: "reference_month",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Conta\s*M[êe]s\s*(\d{2}/\d{4})`),
			regexp.MustCompile(`(?i)REFER[ÊE]NCIA\s*:?\s*(\d{2}/\d{4})`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) { rec.ReferenceMonth = g[1] },
	},
	{
		field: "total_payable",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Total\s*a\s*Pagar\s*R\$\s*([\d.,]+)`),
			regexp.MustCompile(`(?i)VALOR\s*DOCUMENTO\s*([\d.,]+)`),
			regexp.MustCompile(`(?i)R\$\s*([\d.,]+)\s*\n\s*Vencimento`),
			regexp.MustCompile(`(?i)VALOR\s*COBRADO\s*R?\$?\s*([\d.,]+)`),
			regexp.MustCompile(`(?i)Total\s*R\$\s*([\d.,]+)`),
			regexp.MustCompile(`(?i)R\$\s*([\d.,]+)\s*Total`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) {
			rec.TotalPayable = normalize.ParseAmount(g[1])
		},
	},
	{
		field: "due_date",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Vencimento\s*:?\s*(\d{2}/\d{2}/\d{4})`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) {
			rec.DueDate = normalize.ParseDate(g[1])
		},
	},
	{
		field: "compensated_energy",
		patterns: []*regexp.Regexp{
			// Label-before-value layout: "CONSUMO COMPENSADO ... (123,45 kWh)"
			regexp.MustCompile(`(?is)CONSUMO\s*COMPENSADO.*?\((\d+[.,]\d+)\s*kWh\)`),
			// Value-after-header layout: "Consumo Compensado ... (kWh) 123,45"
			regexp.MustCompile(`(?i)Consumo\s*Compensado.*?\(kWh\)\s*(\d+[.,]\d+)`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) {
			rec.CompensatedEnergy = normalize.ParseAmount(g[1])
		},
	},
	{
		field: "accumulated_balance",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Saldo\s*Acumulado\s*Geral\s*Total:\s*([\d.,]+)`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) {
			rec.AccumulatedBalance = normalize.ParseAmount(g[1])
		},
	},
	{
		field: "flag_surcharge",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Adicional\s*Bandeira\D*?(-?[\d.,]+)`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) {
			rec.FlagSurcharge = normalize.ParseAmount(g[1])
		},
	},
	{
		field: "cip",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bCip\b\D*?([\d.,]+)`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) {
			rec.CIP = normalize.ParseAmount(g[1])
		},
	},
	{
		field: "flag_label",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Band\.\s*Tarif\.:\s*([A-Za-zÀ-ü]+)`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) { rec.FlagLabel = g[1] },
	},
	{
		field: "supply_type",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Tipo\s*de\s*Fornecimento:\s*([A-Za-zÀ-ü]+)`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) { rec.SupplyType = g[1] },
	},
	{
		field: "classification",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)Classifica[çc][ãa]o:\s*([A-Za-zÀ-ü]+)`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) { rec.Classification = g[1] },
	},
	{
		field: "cnpj",
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)CNPJ:\s*([\d./-]+)`),
		},
		assign: func(rec *models.InvoiceRecord, g []string) { rec.CNPJ = g[1] },
	},
}

// Issue-date label variants. Misses fall back to the current reading date
// and finally to the extractor's configured default; downstream
// reconciliation assumes the issue date is never empty.
var issueDatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)Data\s*de\s*Emiss[ãa]o:?\s*(\d{2}/\d{2}/\d{4})`),
	regexp.MustCompile(`(?i)Data\s*Emiss[ãa]o:?\s*(\d{2}/\d{2}/\d{4})`),
	regexp.MustCompile(`(?i)Emiss[ãa]o\s*em\s*(\d{2}/\d{2}/\d{4})`),
	regexp.MustCompile(`(?i)Emiss[ãa]o:?\s*(\d{2}/\d{2}/\d{4})`),
}

var (
	// Structural reading-dates table header followed by previous/current
	// dates, the day count, and the next scheduled reading.
	reReadingTable = regexp.MustCompile(`(?is)Leitura\s*Anterior\s*Leitura\s*Atual.*?(\d{2}/\d{2}/\d{4})\s+(\d{2}/\d{2}/\d{4})\s+\d+\s+(\d{2}/\d{2}/\d{4})`)

	// Heuristic fallback: every date-like token on the page.
	reAnyDate = regexp.MustCompile(`\d{2}/\d{2}/\d{4}`)

	// Meter-reading triplet. The literal 1,00 is the meter constant, fixed
	// at 1.00 across this dataset; the kWh-suffixed figure is the measured
	// consumption.
	reMeterTriplet = regexp.MustCompile(`(\d+[.,]\d+)\s+(\d+[.,]\d+)\s+1,00\s+(\d+[.,]?\d*)\s+kWh`)

	// Tax table bounded by its literal headers. RE2 has no lookahead, so
	// the section terminators are consumed by a non-capturing group; only
	// group 1 is used.
	reTaxSection = regexp.MustCompile(`(?is)Tributo.*?Base.*?Al[íi]quota.*?Valor.*?(ICMS.*?PIS.*?COFINS.*?)(?:\n\s*\n|\n[A-ZÀ-Ü]|\z)`)

	// Per-tax three-number rows inside the tax section: base, rate, value.
	reICMSRow   = regexp.MustCompile(`ICMS\D*?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)`)
	rePISRow    = regexp.MustCompile(`PIS\D*?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)`)
	reCOFINSRow = regexp.MustCompile(`COFINS\D*?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)`)

	// Itemized-values section and its six-number rows: quantity, unit price
	// with taxes, two intermediate columns, line ICMS, line total. The line
	// total keeps its printed sign, so credit rows come out negative.
	reItemsSection      = regexp.MustCompile(`(?is)Itens\s*de\s*Fatura(.*?)(?:ITENS\s*FINANCEIROS|\n\s*\n|\z)`)
	reConsumptionRow    = regexp.MustCompile(`(?i)Consumo\s*\(kWh\)\D*?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)\D+?(-?[\d.,]+)`)
	reCompensatedRow    = regexp.MustCompile(`(?i)Consumo\s*Compensado\D*?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)\D+?(-?[\d.,]+)`)
	reInjectedRow       = regexp.MustCompile(`(?i)Energia\s*Inj\D*?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)\D+?([\d.,]+)\D+?(-?[\d.,]+)`)
	reFinancialsSection = regexp.MustCompile(`(?is)ITENS\s*FINANCEIROS\s*(.*?)(?:\n\s*\n|\z)`)
	reFirstNumber       = regexp.MustCompile(`([\d.,]+)`)
)
