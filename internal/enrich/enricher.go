// Package enrich turns upstream records into report rows for one project.
package enrich

import (
	"context"
	"fmt"

	"github.com/garyjia/books-report/internal/books"
	"github.com/garyjia/books-report/internal/models"
	"github.com/garyjia/books-report/internal/storage"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// RecordSource loads a record's detail with its line items
type RecordSource interface {
	GetRecord(ctx context.Context, t models.RecordType, id string) (*books.Record, error)
}

// VendorResolver resolves a vendor id to its display name
type VendorResolver interface {
	Name(ctx context.Context, id string) (string, error)
}

// Scheduler accepts attachment downloads without blocking
type Scheduler interface {
	Enqueue(intent models.AttachmentIntent) bool
}

// Options control which rows are produced
type Options struct {
	ProjectID string
	// Downloads enables attachment scheduling; a nil Scheduler disables it too
	Downloads bool
	// ResourceBase prefixes attachment references, e.g. "https://books.zoho.in/api/v3/"
	ResourceBase string
	Rules        map[models.RecordType]ProjectRule
	Concurrency  int
}

// Enricher builds report rows. It keeps no per-record state and is safe for
// concurrent use.
type Enricher struct {
	source    RecordSource
	vendors   VendorResolver
	scheduler Scheduler
	opts      Options
	logger    *zap.Logger
}

// NewEnricher creates a new Enricher. scheduler may be nil when downloads
// are disabled.
func NewEnricher(source RecordSource, vendors VendorResolver, scheduler Scheduler, opts Options, logger *zap.Logger) *Enricher {
	if opts.Rules == nil {
		opts.Rules = DefaultRules()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Enricher{
		source:    source,
		vendors:   vendors,
		scheduler: scheduler,
		opts:      opts,
		logger:    logger,
	}
}

// Enrich returns the rows of one listed record that belong to the target
// project. Detail and vendor failures are logged and yield no rows.
func (e *Enricher) Enrich(ctx context.Context, listed books.Record) []models.ReportRow {
	logger := e.logger.With(
		zap.String("record_type", string(listed.Type)),
		zap.String("record_id", listed.ID))

	rec, err := e.source.GetRecord(ctx, listed.Type, listed.ID)
	if err != nil {
		logger.Error("Failed to fetch record detail, skipping record", zap.Error(err))
		return nil
	}
	mergeListed(rec, listed)

	vendor := rec.VendorName
	if rec.Type == models.RecordTypeBill && rec.VendorID != "" {
		name, err := e.vendors.Name(ctx, rec.VendorID)
		if err != nil {
			logger.Error("Failed to resolve vendor, skipping record",
				zap.String("vendor_id", rec.VendorID),
				zap.Error(err))
			return nil
		}
		vendor = name
	}

	rule := e.opts.Rules[rec.Type]
	rate := rec.ExchangeRate
	if rate <= 0 {
		rate = 1
	}

	var rows []models.ReportRow
	for _, li := range rec.LineItems {
		if rule.EffectiveProject(rec, li) != e.opts.ProjectID {
			continue
		}

		raw := li.RawAmount(rec.Type)
		rows = append(rows, models.ReportRow{
			Type:          rec.Type,
			RecordID:      rec.ID,
			Date:          rec.Date,
			Reference:     rec.Number,
			Status:        rec.Status,
			Vendor:        vendor,
			LineItemID:    li.LineItemID,
			Description:   li.Label(rec.Type),
			Category:      li.AccountName,
			CurrencyCode:  rec.CurrencyCode,
			ExchangeRate:  rate,
			RawAmount:     raw,
			AmountINR:     raw * rate,
			Notes:         e.notes(rec),
			AttachmentRef: e.attachmentRef(rec),
		})
	}

	// attachments belong to the record, so only records contributing rows
	// are worth downloading
	if len(rows) > 0 {
		e.schedule(logger, rec)
	}

	logger.Debug("Record enriched",
		zap.Int("line_items", len(rec.LineItems)),
		zap.Int("rows", len(rows)))
	return rows
}

// EnrichAll enriches records concurrently and returns rows in record order,
// then line item order. progress is called once per finished record.
func (e *Enricher) EnrichAll(ctx context.Context, records []books.Record, progress func()) []models.ReportRow {
	results := make([][]models.ReportRow, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := range records {
		g.Go(func() error {
			results[i] = e.Enrich(gctx, records[i])
			if progress != nil {
				progress()
			}
			return nil
		})
	}
	_ = g.Wait()

	var rows []models.ReportRow
	for _, r := range results {
		rows = append(rows, r...)
	}
	return rows
}

func (e *Enricher) downloadsEnabled() bool {
	return e.opts.Downloads && e.scheduler != nil
}

func (e *Enricher) notes(rec *books.Record) string {
	if rec.HasAttachment && e.downloadsEnabled() {
		return fmt.Sprintf("%s (attachment: %s)", rec.Number, storage.SanitizeFileName(baseName(rec)))
	}
	return rec.Number
}

func (e *Enricher) attachmentRef(rec *books.Record) string {
	if !rec.HasAttachment {
		return models.AttachmentNotAvailable
	}
	return e.opts.ResourceBase + intentFor(rec).ResourcePath()
}

func (e *Enricher) schedule(logger *zap.Logger, rec *books.Record) {
	if !rec.HasAttachment || !e.downloadsEnabled() {
		return
	}
	if !e.scheduler.Enqueue(intentFor(rec)) {
		logger.Warn("Attachment queue closed, download skipped")
	}
}

func intentFor(rec *books.Record) models.AttachmentIntent {
	return models.AttachmentIntent{
		Type:     rec.Type,
		RecordID: rec.ID,
		BaseName: baseName(rec),
	}
}

// baseName is the reference number, or the record id when there is none
func baseName(rec *books.Record) string {
	if rec.Number != "" {
		return rec.Number
	}
	return rec.ID
}

// mergeListed fills fields some detail endpoints omit from the list entry
func mergeListed(rec *books.Record, listed books.Record) {
	if rec.ID == "" {
		rec.ID = listed.ID
	}
	if rec.Type == "" {
		rec.Type = listed.Type
	}
	if rec.Number == "" {
		rec.Number = listed.Number
	}
	if rec.Date == "" {
		rec.Date = listed.Date
	}
	if rec.Status == "" {
		rec.Status = listed.Status
	}
	if rec.ProjectID == "" {
		rec.ProjectID = listed.ProjectID
	}
	if rec.VendorID == "" {
		rec.VendorID = listed.VendorID
	}
	rec.HasAttachment = rec.HasAttachment || listed.HasAttachment
}
