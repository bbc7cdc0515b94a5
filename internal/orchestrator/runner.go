// Package orchestrator runs one report end to end: resolve the project, fetch
// collections, enrich, build and write the workbook, then drain downloads.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/garyjia/books-report/internal/attachment"
	"github.com/garyjia/books-report/internal/books"
	"github.com/garyjia/books-report/internal/enrich"
	"github.com/garyjia/books-report/internal/models"
	"github.com/garyjia/books-report/internal/report"
	"github.com/garyjia/books-report/internal/storage"
	"github.com/garyjia/books-report/internal/vendor"
	"github.com/garyjia/books-report/internal/workflow"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Client is the subset of the Books API a run needs
type Client interface {
	enrich.RecordSource
	vendor.Fetcher
	attachment.Opener
	GetProject(ctx context.Context, id string) (*books.Project, error)
	FetchProjects(ctx context.Context, perPage int) ([]books.Project, error)
	FetchRecords(ctx context.Context, t models.RecordType, perPage int) ([]books.Record, error)
	Calls() int64
}

// Result summarises a finished run
type Result struct {
	Project       *books.Project
	ReportPath    string
	Records       int
	Rows          int
	USDRate       float64
	APICalls      int64
	VendorFetches int64
	Attachments   attachment.Stats
	State         workflow.State
	History       []workflow.State
}

// Runner executes report runs. Each Run owns its own vendor cache and
// attachment queue; nothing is shared between runs.
type Runner struct {
	client Client
	opts   Options
	out    io.Writer
	logger *zap.Logger
}

// NewRunner creates a new Runner. out receives user-facing output such as
// the project list printed when the project is unknown.
func NewRunner(client Client, opts Options, out io.Writer, logger *zap.Logger) *Runner {
	return &Runner{
		client: client,
		opts:   opts.withDefaults(),
		out:    out,
		logger: logger,
	}
}

// run is the state of one Run call
type run struct {
	machine workflow.StateMachine
	result  *Result
	vendors *vendor.Cache
	queue   *attachment.Queue
}

// Run generates the report. It returns ErrProjectNotFound or ErrReportFailed
// for the failures that must change the exit status; everything else is
// logged and the run carries on.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	logger := r.logger.With(zap.String("project_id", r.opts.ProjectID))

	rn := &run{
		result:  &Result{},
		vendors: vendor.NewCache(r.client, logger),
	}
	rn.machine = workflow.NewRunMachine(func(from workflow.State, trigger workflow.Trigger, to workflow.State) {
		logger.Info("Run state changed",
			zap.String("from", from.String()),
			zap.String("trigger", trigger.String()),
			zap.String("to", to.String()))
	})
	defer r.finish(rn)

	// Resolving project
	project, err := r.client.GetProject(ctx, r.opts.ProjectID)
	if err != nil {
		logger.Error("Failed to resolve project", zap.Error(err))
		r.fire(ctx, rn, workflow.TriggerProjectNotFound)
		r.suggestProjects(ctx)
		return rn.result, fmt.Errorf("%w: %s", ErrProjectNotFound, r.opts.ProjectID)
	}
	rn.result.Project = project
	r.fire(ctx, rn, workflow.TriggerProjectResolved)

	if r.opts.Downloads {
		rn.queue = r.startQueue(ctx)
	}

	// Fetching collections
	records := r.fetchCollections(ctx)
	rn.result.Records = len(records)
	r.fire(ctx, rn, workflow.TriggerCollectionsFetched)

	// Enriching
	rows := r.enrich(ctx, rn, records)
	rn.result.Rows = len(rows)
	r.fire(ctx, rn, workflow.TriggerRowsEnriched)

	// Building report
	rate := resolveUSDRate(r.opts, rows)
	rn.result.USDRate = rate
	builder := report.NewBuilder(report.Options{
		FeePercent: r.opts.FeePercent,
		TaxPercent: r.opts.TaxPercent,
		USDRate:    rate,
		AuxSheets:  r.opts.AuxSheets,
	}, logger)

	f, err := builder.Build(report.Input{Rows: rows, Meta: r.meta(project)})
	if err != nil {
		logger.Error("Failed to build report", zap.Error(err))
		r.fire(ctx, rn, workflow.TriggerReportFailed)
		return rn.result, fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	defer f.Close()
	r.fire(ctx, rn, workflow.TriggerReportBuilt)

	// Writing
	path := r.reportPath(project)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logger.Error("Failed to create output directory", zap.Error(err))
		r.fire(ctx, rn, workflow.TriggerReportFailed)
		return rn.result, fmt.Errorf("%w: failed to create output directory: %w", ErrReportFailed, err)
	}
	if err := builder.Save(f, path); err != nil {
		logger.Error("Failed to write report", zap.String("path", path), zap.Error(err))
		r.fire(ctx, rn, workflow.TriggerReportFailed)
		return rn.result, fmt.Errorf("%w: %w", ErrReportFailed, err)
	}
	rn.result.ReportPath = path
	r.fire(ctx, rn, workflow.TriggerReportWritten)

	return rn.result, nil
}

// fire advances the run. The transitions Run fires are all configured, so an
// error here is a programming mistake and only logged.
func (r *Runner) fire(ctx context.Context, rn *run, trigger workflow.Trigger) {
	if err := rn.machine.Fire(ctx, trigger); err != nil {
		r.logger.Error("Unexpected run transition", zap.Error(err))
	}
}

// finish tears down run-scoped state once the report is out
func (r *Runner) finish(rn *run) {
	if rn.queue != nil {
		ctx, cancel := context.WithTimeout(context.Background(), r.opts.GracePeriod)
		rn.result.Attachments = rn.queue.Close(ctx)
		cancel()
	}

	rn.result.APICalls = r.client.Calls()
	rn.result.VendorFetches = rn.vendors.Fetches()
	rn.result.State = rn.machine.State()
	rn.result.History = rn.machine.History()

	r.logger.Info("Report run finished",
		zap.String("state", rn.result.State.String()),
		zap.String("report_path", rn.result.ReportPath),
		zap.Int("records", rn.result.Records),
		zap.Int("rows", rn.result.Rows),
		zap.Int64("api_calls", rn.result.APICalls),
		zap.Int64("vendor_fetches", rn.result.VendorFetches),
		zap.Int("attachments_completed", rn.result.Attachments.Completed),
		zap.Int("attachments_failed", rn.result.Attachments.Failed),
		zap.Int("attachments_abandoned", rn.result.Attachments.Abandoned))
}

// fetchCollections fetches every collection concurrently and concatenates
// them in collection order. Partial collections are kept.
func (r *Runner) fetchCollections(ctx context.Context) []books.Record {
	types := r.opts.Collections()
	results := make([][]books.Record, len(types))

	g, gctx := errgroup.WithContext(ctx)
	for i, t := range types {
		g.Go(func() error {
			records, err := r.client.FetchRecords(gctx, t, r.opts.PageSize)
			if err != nil {
				r.logger.Warn("Collection is incomplete, continuing with partial data",
					zap.String("collection", t.Collection()),
					zap.Int("records", len(records)),
					zap.Bool("partial", errors.Is(err, books.ErrPartialCollection)),
					zap.Error(err))
			}
			results[i] = records
			return nil
		})
	}
	_ = g.Wait()

	var all []books.Record
	for i, records := range results {
		r.logger.Info("Collection fetched",
			zap.String("collection", types[i].Collection()),
			zap.Int("records", len(records)))
		all = append(all, records...)
	}
	return all
}

func (r *Runner) enrich(ctx context.Context, rn *run, records []books.Record) []models.ReportRow {
	var scheduler enrich.Scheduler
	if rn.queue != nil {
		scheduler = rn.queue
	}

	enricher := enrich.NewEnricher(r.client, rn.vendors, scheduler, enrich.Options{
		ProjectID:    r.opts.ProjectID,
		Downloads:    rn.queue != nil,
		ResourceBase: r.opts.ResourceBase,
		Rules:        r.opts.Rules,
		Concurrency:  r.opts.Concurrency,
	}, r.logger)

	bar := newProgress(r.opts.Progress, len(records), r.logger)
	defer bar.finish()

	return enricher.EnrichAll(ctx, records, bar.add)
}

// startQueue prepares the extract folders and starts the download workers.
// Downloads are best-effort, so a failure here only disables them.
func (r *Runner) startQueue(ctx context.Context) *attachment.Queue {
	folders := storage.NewFolderManager(r.opts.ExtractDir, r.logger)
	var names []string
	for _, t := range r.opts.Collections() {
		names = append(names, t.Collection())
	}
	if err := folders.PrepareFolders(names...); err != nil {
		r.logger.Warn("Failed to prepare attachment folders, downloads disabled", zap.Error(err))
		return nil
	}

	files := storage.NewLocalFileStorage(r.opts.ExtractDir, r.logger)
	downloader := attachment.NewDownloader(r.client, folders, files, r.logger)
	queue := attachment.NewQueue(downloader, r.opts.Workers, r.logger)
	if r.opts.DownloadTimeout > 0 {
		queue.SetDownloadTimeout(r.opts.DownloadTimeout)
	}
	if err := queue.Start(ctx); err != nil {
		r.logger.Warn("Failed to start attachment queue, downloads disabled", zap.Error(err))
		return nil
	}
	return queue
}

func (r *Runner) meta(project *books.Project) report.Meta {
	return report.Meta{
		Title:         project.ProjectName,
		ProgramID:     project.CustomField(r.opts.ProgramIDField),
		PeriodStart:   project.StartDate,
		PeriodEnd:     project.EndDate,
		Organization:  r.opts.Organization,
		Certification: r.opts.CertificationLines,
	}
}

// reportPath is <output-dir>/<sanitized project name>.xlsx
func (r *Runner) reportPath(project *books.Project) string {
	name := project.ProjectName
	if name == "" {
		name = project.ProjectID
	}
	return filepath.Join(r.opts.OutputDir, storage.SanitizeFileName(name)+".xlsx")
}

// resolveUSDRate picks the rate for the USD total: command line, then
// configuration, then the most recent USD row. Zero means unknown.
func resolveUSDRate(opts Options, rows []models.ReportRow) float64 {
	if opts.USDRateOverride > 0 {
		return opts.USDRateOverride
	}
	if opts.USDRate > 0 {
		return opts.USDRate
	}

	var rate float64
	var latest string
	for _, row := range rows {
		if !row.IsUSD() || row.ExchangeRate <= 0 {
			continue
		}
		if rate == 0 || row.Date >= latest {
			rate, latest = row.ExchangeRate, row.Date
		}
	}
	return rate
}
