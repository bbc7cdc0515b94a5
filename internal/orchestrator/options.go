package orchestrator

import (
	"io"
	"time"

	"github.com/garyjia/books-report/internal/enrich"
	"github.com/garyjia/books-report/internal/models"
)

// Options describe one report run
type Options struct {
	ProjectID       string
	Downloads       bool
	IncludeInvoices bool

	// USDRateOverride comes from the command line and wins over USDRate
	USDRateOverride float64
	USDRate         float64
	FeePercent      float64
	TaxPercent      float64
	AuxSheets       bool

	OutputDir          string
	ProgramIDField     string
	Organization       string
	CertificationLines []string

	PageSize     int
	Concurrency  int
	ResourceBase string
	Rules        map[models.RecordType]enrich.ProjectRule

	ExtractDir      string
	Workers         int
	GracePeriod     time.Duration
	DownloadTimeout time.Duration

	// Progress receives the enrichment progress bar; nil disables it
	Progress io.Writer
}

// Collections returns the record types fetched by this run in report order
func (o Options) Collections() []models.RecordType {
	types := []models.RecordType{models.RecordTypeExpense, models.RecordTypeBill}
	if o.IncludeInvoices {
		types = append(types, models.RecordTypeInvoice)
	}
	return types
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = 200
	}
	if o.Concurrency <= 0 {
		o.Concurrency = 4
	}
	if o.OutputDir == "" {
		o.OutputDir = "."
	}
	if o.ExtractDir == "" {
		o.ExtractDir = "extract"
	}
	if o.Workers <= 0 {
		o.Workers = 4
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 2 * time.Minute
	}
	return o
}
