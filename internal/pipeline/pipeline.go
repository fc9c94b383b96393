// Package pipeline drives batch extraction: it walks a set of invoice PDFs,
// runs extraction, reconciliation, cycle assignment and the roster join for
// each one, and returns one record per input file. Files are independent, so
// they are processed by a small worker pool; the output is sorted by account
// identifier so re-running the batch over the same inputs yields identical
// records regardless of worker interleaving.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"rateio/internal/cycle"
	"rateio/internal/extract"
	"rateio/internal/logger"
	"rateio/internal/reconcile"
	"rateio/internal/roster"
	"rateio/pkg/models"
)

// Options configures a Processor. The zero value is usable: cutoff day and
// workers fall back to defaults and the roster join is skipped when no
// roster is supplied.
type Options struct {
	// CutoffDay for billing-cycle assignment. Zero means the default (12).
	CutoffDay int

	// TargetCycle (MM/YYYY) filters the output to one report cycle.
	// Records outside it are excluded and counted, never silently lost.
	TargetCycle string

	// RecentYearsBack bounds the reading-date heuristic (see extract.Options).
	RecentYearsBack int

	// IssueDateDefault is the last-resort issue date (see extract.Options).
	IssueDateDefault string

	// Workers sizes the pool. Zero or negative means 1.
	Workers int

	// TextSource supplies page text per file. Nil means extract.PageText.
	TextSource extract.TextSource

	// Roster joins customer name/id onto records. Nil disables the join.
	Roster roster.Roster

	// Now is overridable for tests. Nil means time.Now.
	Now func() time.Time
}

// Stats summarizes one batch run.
type Stats struct {
	Processed int // records returned
	Excluded  int // records dropped by the target-cycle filter
	Errors    int // records carrying an error reason
	NoRoster  int // records whose identifier was not in the roster
}

// Processor runs the extraction pipeline over batches of files.
type Processor struct {
	opts      Options
	extractor *extract.Extractor
	validator *reconcile.Validator
	source    extract.TextSource
	log       zerolog.Logger
}

// New creates a Processor from explicit options; there is no process-wide
// pipeline state.
func New(opts Options) *Processor {
	if opts.CutoffDay == 0 {
		opts.CutoffDay = cycle.DefaultCutoffDay
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	source := opts.TextSource
	if source == nil {
		source = extract.PageText
	}
	return &Processor{
		opts: opts,
		extractor: extract.New(extract.Options{
			RecentYearsBack:  opts.RecentYearsBack,
			IssueDateDefault: opts.IssueDateDefault,
			Now:              opts.Now,
		}),
		validator: reconcile.NewValidator(),
		source:    source,
		log:       logger.WithComponent("pipeline"),
	}
}

// FindPDFs returns every .pdf file under folder.
func FindPDFs(folder string) ([]string, error) {
	var pdfFiles []string

	err := filepath.Walk(folder, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".pdf") {
			pdfFiles = append(pdfFiles, path)
		}
		return nil
	})

	return pdfFiles, err
}

// Process extracts every file in paths and returns one record per file plus
// batch statistics. A corrupt or unreadable file yields an error record
// rather than aborting the batch. When a target cycle is configured, only
// matching records are returned and the exclusions are counted and logged.
func (p *Processor) Process(ctx context.Context, paths []string) ([]*models.InvoiceRecord, Stats) {
	records := p.runWorkers(ctx, paths)

	sort.Slice(records, func(i, j int) bool {
		if records[i].UC != records[j].UC {
			return records[i].UC < records[j].UC
		}
		return records[i].SourceFile < records[j].SourceFile
	})

	var stats Stats
	kept := records[:0]
	for _, rec := range records {
		if p.opts.TargetCycle != "" && rec.AssignedCycle != p.opts.TargetCycle {
			stats.Excluded++
			continue
		}
		kept = append(kept, rec)
		stats.Processed++
		if rec.HasError() {
			stats.Errors++
		}
		if rec.Status == models.StatusNoRosterMatch {
			stats.NoRoster++
		}
	}

	if p.opts.TargetCycle != "" {
		p.log.Info().
			Str("target_cycle", p.opts.TargetCycle).
			Int("kept", stats.Processed).
			Int("excluded", stats.Excluded).
			Msg("Applied target-cycle filter")
	}

	return kept, stats
}

// runWorkers fans the files out over the pool. Results land in an indexed
// slice, so no ordering is inherited from scheduling.
func (p *Processor) runWorkers(ctx context.Context, paths []string) []*models.InvoiceRecord {
	jobs := make(chan int, len(paths))
	records := make([]*models.InvoiceRecord, len(paths))

	var wg sync.WaitGroup
	for w := 0; w < p.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				records[idx] = p.processOne(paths[idx])
			}
		}()
	}

	for i := range paths {
		if ctx.Err() != nil {
			// Stop submitting; emit error records for what never ran.
			rec := extract.EmptyRecord(filepath.Base(paths[i]))
			rec.UC = "ERROR_" + rec.SourceFile
			rec.SetError(fmt.Sprintf("batch canceled: %v", ctx.Err()))
			rec.Status = models.StatusNeedsAttention
			records[i] = rec
			continue
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	return records
}

// processOne runs the full per-file pipeline. Any failure, including a
// panic inside a PDF parse, is contained here: the file still produces a
// record with a placeholder identifier and an error reason.
func (p *Processor) processOne(path string) (rec *models.InvoiceRecord) {
	sourceFile := filepath.Base(path)

	defer func() {
		if r := recover(); r != nil {
			p.log.Error().
				Str("file", sourceFile).
				Interface("panic", r).
				Msg("Extraction panicked, emitting error record")
			rec = extract.EmptyRecord(sourceFile)
			rec.UC = "ERROR_" + sourceFile
			rec.SetError(fmt.Sprintf("extraction panic: %v", r))
			p.finish(rec)
		}
	}()

	pageText, err := p.source(path)
	if err != nil {
		p.log.Error().
			Err(err).
			Str("file", sourceFile).
			Msg("Failed to read invoice text")
		rec = extract.EmptyRecord(sourceFile)
		rec.UC = "ERROR_" + sourceFile
		rec.SetError(err.Error())
		p.finish(rec)
		return rec
	}

	rec = p.extractor.Extract(pageText, sourceFile)
	p.finish(rec)
	return rec
}

// finish applies the steps shared by clean and error records:
// reconciliation, cycle assignment, roster join and status classification.
func (p *Processor) finish(rec *models.InvoiceRecord) {
	p.validator.Reconcile(rec)
	rec.AssignedCycle = cycle.Assign(rec.ReadingCurrent, p.opts.CutoffDay)

	matched := false
	if p.opts.Roster != nil {
		if entry, ok := p.opts.Roster.Lookup(rec.UC); ok {
			rec.CustomerName = entry.Name
			rec.CustomerID = entry.CustomerID
			matched = true
		}
	}

	switch {
	case rec.HasError():
		rec.Status = models.StatusNeedsAttention
	case p.opts.Roster != nil && !matched:
		rec.Status = models.StatusNoRosterMatch
	default:
		rec.Status = models.StatusOK
	}
}
