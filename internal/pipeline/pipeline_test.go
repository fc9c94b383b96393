package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rateio/internal/pipeline"
	"rateio/internal/roster"
	"rateio/pkg/models"
)

func fixedNow() time.Time {
	return time.Date(2026, time.February, 15, 10, 0, 0, 0, time.UTC)
}

// invoiceText builds a minimal but extractable invoice page.
func invoiceText(uc, readingCurrent string) string {
	return fmt.Sprintf(`Conta Contrato %s
Conta Mês 01/2026
Data de Emissão: 15/01/2026
Total a Pagar R$ 100,00
Leitura Anterior Leitura Atual Nº de Dias Próxima Leitura
10/12/2025 %s 30 10/02/2026
`, uc, readingCurrent)
}

// sourceFromMap serves page text keyed by file base name; unknown files fail.
func sourceFromMap(pages map[string]string) func(string) (string, error) {
	return func(path string) (string, error) {
		text, ok := pages[filepath.Base(path)]
		if !ok {
			return "", errors.New("boom")
		}
		return text, nil
	}
}

func TestProcessMixedBatch(t *testing.T) {
	source := sourceFromMap(map[string]string{
		"good.pdf": invoiceText("0021456789", "13/01/2026"),
		"nouc.pdf": "pagina sem numero de conta\n",
	})
	customers := roster.Roster{
		"0021456789": {Name: "ACME Ltda", CustomerID: "42"},
	}

	p := pipeline.New(pipeline.Options{
		Workers:    4,
		TextSource: source,
		Roster:     customers,
		Now:        fixedNow,
	})

	records, stats := p.Process(context.Background(), []string{
		"invoices/good.pdf", "invoices/bad.pdf", "invoices/nouc.pdf",
	})

	require.Len(t, records, 3)
	require.Equal(t, 3, stats.Processed)
	require.Equal(t, 2, stats.Errors)
	require.Equal(t, 0, stats.Excluded)
	require.Equal(t, 0, stats.NoRoster)

	// Output is sorted by identifier, so the clean record leads and the
	// placeholder identifiers follow.
	good, bad, pending := records[0], records[1], records[2]

	assert.Equal(t, "0021456789", good.UC)
	assert.Equal(t, models.StatusOK, good.Status)
	assert.Equal(t, "ACME Ltda", good.CustomerName)
	assert.Equal(t, "42", good.CustomerID)
	assert.Equal(t, "02/2026", good.AssignedCycle)
	assert.False(t, good.HasError())

	assert.Equal(t, "ERROR_bad.pdf", bad.UC)
	assert.Equal(t, models.StatusNeedsAttention, bad.Status)
	assert.Equal(t, "boom", bad.ErrorReason)
	assert.Equal(t, models.DateSentinel, bad.AssignedCycle)

	assert.Equal(t, "PENDING_nouc.pdf", pending.UC)
	assert.Equal(t, models.StatusNeedsAttention, pending.Status)
	assert.NotEmpty(t, pending.ErrorReason)
}

func TestProcessRosterStatuses(t *testing.T) {
	source := sourceFromMap(map[string]string{
		"a.pdf": invoiceText("9999888877", "13/01/2026"),
	})

	t.Run("identifier missing from roster", func(t *testing.T) {
		p := pipeline.New(pipeline.Options{
			TextSource: source,
			Roster:     roster.Roster{"0021456789": {Name: "ACME Ltda"}},
			Now:        fixedNow,
		})
		records, stats := p.Process(context.Background(), []string{"a.pdf"})

		require.Len(t, records, 1)
		require.Equal(t, models.StatusNoRosterMatch, records[0].Status)
		require.Equal(t, 1, stats.NoRoster)
		require.Empty(t, records[0].CustomerName)
	})

	t.Run("no roster disables the join", func(t *testing.T) {
		p := pipeline.New(pipeline.Options{TextSource: source, Now: fixedNow})
		records, stats := p.Process(context.Background(), []string{"a.pdf"})

		require.Len(t, records, 1)
		require.Equal(t, models.StatusOK, records[0].Status)
		require.Equal(t, 0, stats.NoRoster)
	})
}

func TestProcessTargetCycleFilter(t *testing.T) {
	pages := map[string]string{}
	var paths []string
	for i := 1; i <= 3; i++ {
		name := fmt.Sprintf("jan%d.pdf", i)
		pages[name] = invoiceText(fmt.Sprintf("100000000%d", i), "13/01/2026")
		paths = append(paths, name)
	}
	for i := 4; i <= 5; i++ {
		name := fmt.Sprintf("fev%d.pdf", i)
		pages[name] = invoiceText(fmt.Sprintf("100000000%d", i), "20/02/2026")
		paths = append(paths, name)
	}

	p := pipeline.New(pipeline.Options{
		Workers:     2,
		TargetCycle: "02/2026",
		TextSource:  sourceFromMap(pages),
		Now:         fixedNow,
	})
	records, stats := p.Process(context.Background(), paths)

	require.Equal(t, 3, stats.Processed)
	require.Equal(t, 2, stats.Excluded)
	require.Len(t, records, 3)
	for _, rec := range records {
		require.Equal(t, "02/2026", rec.AssignedCycle)
	}
}

// Two runs over the same inputs must produce identical records regardless of
// worker interleaving.
func TestProcessDeterministic(t *testing.T) {
	pages := map[string]string{}
	var paths []string
	for i := 0; i < 8; i++ {
		name := fmt.Sprintf("f%d.pdf", i)
		pages[name] = invoiceText(fmt.Sprintf("200000000%d", i), "13/01/2026")
		paths = append(paths, name)
	}

	opts := pipeline.Options{Workers: 4, TextSource: sourceFromMap(pages), Now: fixedNow}

	first, _ := pipeline.New(opts).Process(context.Background(), paths)
	second, _ := pipeline.New(opts).Process(context.Background(), paths)

	require.Equal(t, first, second)
	for i := 1; i < len(first); i++ {
		require.Less(t, first[i-1].UC, first[i].UC)
	}
}

func TestProcessCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := pipeline.New(pipeline.Options{
		TextSource: sourceFromMap(map[string]string{"a.pdf": invoiceText("0021456789", "13/01/2026")}),
		Now:        fixedNow,
	})
	records, stats := p.Process(ctx, []string{"a.pdf", "b.pdf"})

	require.Len(t, records, 2)
	require.Equal(t, 2, stats.Errors)
	for _, rec := range records {
		require.Equal(t, models.StatusNeedsAttention, rec.Status)
		require.Contains(t, rec.ErrorReason, "batch canceled")
	}
}

func TestProcessContainsPanics(t *testing.T) {
	source := func(path string) (string, error) {
		panic("corrupt xref table")
	}

	p := pipeline.New(pipeline.Options{TextSource: source, Now: fixedNow})
	records, stats := p.Process(context.Background(), []string{"evil.pdf"})

	require.Len(t, records, 1)
	require.Equal(t, 1, stats.Errors)
	require.Equal(t, "ERROR_evil.pdf", records[0].UC)
	require.Contains(t, records[0].ErrorReason, "extraction panic")
	require.Equal(t, models.StatusNeedsAttention, records[0].Status)
}

func TestFindPDFs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "sub"), 0o755))
	for _, name := range []string{"a.pdf", "B.PDF", "note.txt", filepath.Join("sub", "c.pdf")} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	files, err := pipeline.FindPDFs(dir)
	require.NoError(t, err)
	require.Len(t, files, 3)
	for _, f := range files {
		require.NotContains(t, f, "note.txt")
	}
}
