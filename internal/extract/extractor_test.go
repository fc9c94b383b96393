package extract_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rateio/internal/extract"
	"rateio/pkg/models"
)

// fixedNow pins the extractor clock so the recent-date window and the
// last-resort issue date are stable.
func fixedNow() time.Time {
	return time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC)
}

func newExtractor() *extract.Extractor {
	return extract.New(extract.Options{RecentYearsBack: 1, Now: fixedNow})
}

const samplePage = `EQUATORIAL MARANHAO DISTRIBUIDORA DE ENERGIA S.A.
CNPJ: 06.272.793/0001-84
Classificação: Comercial
Tipo de Fornecimento: BIFASICO
Conta Contrato 0021456789
INSTALAÇÃO: 7001234
Conta Mês 01/2026
Data de Emissão: 15/01/2026
Vencimento 25/01/2026
Total a Pagar R$ 245,67
Leitura Anterior Leitura Atual Nº de Dias Próxima Leitura
12/12/2025 13/01/2026 32 12/02/2026
Energia Ativa 4512,00 4892,00 1,00 380 kWh
Saldo Acumulado Geral Total: 1.234,56
Band. Tarif.: Amarela
Tributo Base de Cálculo (R$) Alíquota (%) Valor (R$)
ICMS 198,45 20,00 39,69
PIS 210,12 1,65 3,47
COFINS 210,12 7,60 15,97
Itens de Fatura Quant. Preço Unit Tarifa Valor (R$)
Consumo (kWh) 380,00 0,89 0,75 285,20 39,69 338,20
Consumo Compensado (kWh) 250,00 0,65 0,60 150,00 0,00 -162,50
Energia Inj. GD III (kWh) 250,00 0,60 0,55 0,00 0,00 -150,00
Adicional Bandeira Amarela 12,34
ITENS FINANCEIROS
Cip-Ilum Pub Pref Municipal 15,89
`

func TestExtractFullPage(t *testing.T) {
	rec := newExtractor().Extract(samplePage, "fatura_jan.pdf")

	require.False(t, rec.HasError())
	assert.Equal(t, "fatura_jan.pdf", rec.SourceFile)

	// Identification.
	assert.Equal(t, "0021456789", rec.UC)
	assert.Equal(t, "7001234", rec.Installation)
	assert.Equal(t, "06.272.793/0001-84", rec.CNPJ)
	assert.Equal(t, "01/2026", rec.ReferenceMonth)

	// Dates.
	assert.Equal(t, "15/01/2026", rec.IssueDate)
	assert.Equal(t, "25/01/2026", rec.DueDate)
	assert.Equal(t, "12/12/2025", rec.ReadingPrev)
	assert.Equal(t, "13/01/2026", rec.ReadingCurrent)
	assert.Equal(t, "12/02/2026", rec.ReadingNext)

	// Metering.
	assert.InDelta(t, 4512.00, rec.MeterPrev, 1e-9)
	assert.InDelta(t, 4892.00, rec.MeterCurrent, 1e-9)
	assert.InDelta(t, 380.00, rec.Consumption, 1e-9)
	assert.InDelta(t, 250.00, rec.CompensatedEnergy, 1e-9)
	assert.InDelta(t, 1234.56, rec.AccumulatedBalance, 1e-9)

	// Monetary values. The compensated and injected credits keep the
	// printed minus sign.
	assert.InDelta(t, 245.67, rec.TotalPayable, 1e-9)
	assert.InDelta(t, 338.20, rec.ConsumptionValue, 1e-9)
	assert.InDelta(t, -162.50, rec.CompensatedValue, 1e-9)
	assert.InDelta(t, -150.00, rec.InjectedValue, 1e-9)
	assert.InDelta(t, 15.89, rec.CIP, 1e-9)
	assert.InDelta(t, 12.34, rec.FlagSurcharge, 1e-9)
	assert.InDelta(t, 0.89, rec.UnitPriceConsumption, 1e-9)
	assert.InDelta(t, 0.65, rec.UnitPriceCompensated, 1e-9)

	// Taxes: rate column stored as a 0..1 fraction, value column as money.
	assert.InDelta(t, 0.20, rec.ICMSRate, 1e-9)
	assert.InDelta(t, 39.69, rec.ICMS, 1e-9)
	assert.InDelta(t, 0.0165, rec.PISRate, 1e-9)
	assert.InDelta(t, 3.47, rec.PIS, 1e-9)
	assert.InDelta(t, 0.076, rec.COFINSRate, 1e-9)
	assert.InDelta(t, 15.97, rec.COFINS, 1e-9)

	// Classification.
	assert.Equal(t, "BIFASICO", rec.SupplyType)
	assert.Equal(t, "Comercial", rec.Classification)
	assert.Equal(t, "Amarela", rec.FlagLabel)
	assert.Equal(t, models.FlagYellow, rec.FlagColor)
}

func TestExtractIdentifierFallbacks(t *testing.T) {
	e := newExtractor()

	t.Run("windowed installation label", func(t *testing.T) {
		text := "INSTALAÇÃO do cliente\nreferente ao fornecimento ativo\n7004567890\n"
		rec := e.Extract(text, "a.pdf")
		require.Equal(t, "7004567890", rec.UC)
		require.False(t, rec.HasError())
	})

	t.Run("missing identifier yields pending placeholder", func(t *testing.T) {
		rec := e.Extract("pagina sem numero de conta\n", "orphan.pdf")
		require.Equal(t, "PENDING_orphan.pdf", rec.UC)
		require.True(t, rec.HasError())
		require.Equal(t, extract.ReasonIdentifierNotFound, rec.ErrorReason)
		// A placeholder record is still a record: defaults hold.
		require.Equal(t, models.DateSentinel, rec.DueDate)
		require.Equal(t, 0.0, rec.TotalPayable)
	})
}

func TestExtractTotalFallbacks(t *testing.T) {
	e := newExtractor()

	t.Run("valor documento layout", func(t *testing.T) {
		rec := e.Extract("Conta Contrato 0021456789\nVALOR DOCUMENTO 1.234,56\n", "a.pdf")
		require.InDelta(t, 1234.56, rec.TotalPayable, 1e-9)
	})

	t.Run("amount adjacent to due date", func(t *testing.T) {
		rec := e.Extract("Conta Contrato 0021456789\nR$ 99,90\nVencimento 10/03/2026\n", "a.pdf")
		require.InDelta(t, 99.90, rec.TotalPayable, 1e-9)
		require.Equal(t, "10/03/2026", rec.DueDate)
	})
}

func TestExtractCompensatedEnergyLayouts(t *testing.T) {
	e := newExtractor()

	rec := e.Extract("Conta Contrato 0021456789\nCONSUMO COMPENSADO GD II\nenergia creditada (250,50 kWh)\n", "a.pdf")
	require.InDelta(t, 250.50, rec.CompensatedEnergy, 1e-9)
}

func TestExtractReadingDatesHeuristic(t *testing.T) {
	e := newExtractor()

	t.Run("recent dates sorted into prev current next", func(t *testing.T) {
		// No structural table header; 2019 is outside the recent window
		// and the duplicate current date collapses.
		text := "Contrato firmado em 10/03/2019\nNotas 12/12/2025 13/01/2026\nAgenda 13/01/2026 12/02/2026\n"
		rec := e.Extract(text, "a.pdf")

		require.Equal(t, "12/12/2025", rec.ReadingPrev)
		require.Equal(t, "13/01/2026", rec.ReadingCurrent)
		require.Equal(t, "12/02/2026", rec.ReadingNext)
		// Issue date falls back to the current reading date.
		require.Equal(t, "13/01/2026", rec.IssueDate)
	})

	t.Run("fewer than three dates keeps sentinels", func(t *testing.T) {
		rec := e.Extract("Avisos 12/12/2025 13/01/2026\n", "a.pdf")
		require.Equal(t, models.DateSentinel, rec.ReadingPrev)
		require.Equal(t, models.DateSentinel, rec.ReadingCurrent)
		require.Equal(t, models.DateSentinel, rec.ReadingNext)
	})
}

func TestResolveIssueDateFallbacks(t *testing.T) {
	t.Run("configured default", func(t *testing.T) {
		e := extract.New(extract.Options{IssueDateDefault: "01/02/2026", Now: fixedNow})
		rec := e.Extract("sem datas aqui\n", "a.pdf")
		require.Equal(t, "01/02/2026", rec.IssueDate)
	})

	t.Run("current date as last resort", func(t *testing.T) {
		e := extract.New(extract.Options{Now: fixedNow})
		rec := e.Extract("sem datas aqui\n", "a.pdf")
		require.Equal(t, "15/02/2026", rec.IssueDate)
	})
}

func TestExtractCIPFromFinancialItems(t *testing.T) {
	e := newExtractor()

	text := "Conta Contrato 0021456789\nITENS FINANCEIROS\nIluminacao Publica Municipal 18,45\n"
	rec := e.Extract(text, "a.pdf")
	require.InDelta(t, 18.45, rec.CIP, 1e-9)
}

func TestLineItemICMSFallback(t *testing.T) {
	e := newExtractor()

	// No tax table on the page; the consumption row's fifth column supplies
	// the ICMS value.
	text := "Conta Contrato 0021456789\nItens de Fatura\nConsumo (kWh) 380,00 0,89 0,75 285,20 39,69 338,20\n"
	rec := e.Extract(text, "a.pdf")
	require.InDelta(t, 39.69, rec.ICMS, 1e-9)
	require.Equal(t, 0.0, rec.ICMSRate)
}

func TestEmptyRecordDefaults(t *testing.T) {
	rec := extract.EmptyRecord("x.pdf")
	require.Equal(t, "x.pdf", rec.SourceFile)
	require.Equal(t, models.DateSentinel, rec.DueDate)
	require.Equal(t, models.DateSentinel, rec.IssueDate)
	require.Equal(t, models.DateSentinel, rec.ReadingPrev)
	require.Equal(t, models.DateSentinel, rec.ReadingCurrent)
	require.Equal(t, models.DateSentinel, rec.ReadingNext)
	require.Equal(t, models.DateSentinel, rec.AssignedCycle)
	require.Empty(t, rec.UC)
}
