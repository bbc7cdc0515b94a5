package main

import (
	"fmt"
	"strings"

	"github.com/garyjia/books-report/internal/books"
	"github.com/garyjia/books-report/internal/config"
	"github.com/garyjia/books-report/internal/enrich"
	"github.com/garyjia/books-report/internal/models"
	"github.com/garyjia/books-report/internal/orchestrator"
	"github.com/garyjia/books-report/pkg/utils"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type flags struct {
	configFile string
	invoices   bool
	auxSheets  bool
	outputDir  string
	logLevel   string
	logFormat  string
	noProgress bool
}

// args are the validated positional arguments
type args struct {
	token     string
	orgID     string
	projectID string
	downloads bool
	usdRate   float64
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "books-report <token> <organization-id> <project-id> <y|n> [usd-rate]",
		Short: "Build a project expense report from Zoho Books",
		Long: `books-report fetches expenses, bills and optionally invoices from Zoho Books,
keeps the line items of one project and writes them to <project name>.xlsx
with subtotal, fee, tax and total formulas.

The fourth argument enables attachment downloads into extract/<collection>/.
The optional fifth argument is the INR per USD rate used for the USD total.`,
		Args:          cobra.RangeArgs(4, 5),
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, positional []string) error {
			a, err := parseArgs(positional)
			if err != nil {
				return err
			}
			cmd.SilenceUsage = true
			return runReport(cmd, f, a)
		},
	}

	cmd.Flags().StringVar(&f.configFile, "config", "", "config file (YAML)")
	cmd.Flags().BoolVar(&f.invoices, "invoices", false, "include invoices")
	cmd.Flags().BoolVar(&f.auxSheets, "aux-sheets", true, "add the financial report and advance request sheets")
	cmd.Flags().StringVar(&f.outputDir, "output-dir", "", "directory for the report (default: report.output_dir)")
	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "log format (console, json)")
	cmd.Flags().BoolVar(&f.noProgress, "no-progress", false, "disable the progress bar")

	return cmd
}

func parseArgs(positional []string) (args, error) {
	a := args{
		token:     positional[0],
		orgID:     positional[1],
		projectID: positional[2],
	}

	if strings.TrimSpace(a.token) == "" {
		return a, fmt.Errorf("token must not be empty")
	}
	if err := utils.ValidateID("organization id", a.orgID); err != nil {
		return a, err
	}
	if err := utils.ValidateID("project id", a.projectID); err != nil {
		return a, err
	}

	downloads, err := utils.ParseToggle(positional[3])
	if err != nil {
		return a, fmt.Errorf("attachment download toggle: %w", err)
	}
	a.downloads = downloads

	if len(positional) == 5 {
		rate, err := utils.ParseRate(positional[4])
		if err != nil {
			return a, err
		}
		a.usdRate = rate
	}

	return a, nil
}

// applyFlags lets explicitly set flags win over the config file
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	if cmd.Flags().Changed("invoices") {
		cfg.Report.IncludeInvoices = f.invoices
	}
	if cmd.Flags().Changed("aux-sheets") {
		cfg.Report.AuxSheets = f.auxSheets
	}
	if f.outputDir != "" {
		cfg.Report.OutputDir = f.outputDir
	}
	if f.logLevel != "" {
		cfg.Logger.Level = f.logLevel
	}
	if f.logFormat != "" {
		cfg.Logger.Format = f.logFormat
	}
}

func parseRules(raw map[string]string) (map[models.RecordType]enrich.ProjectRule, error) {
	rules := enrich.DefaultRules()
	for collection, value := range raw {
		t := models.RecordType(strings.ToLower(collection))
		if !t.IsValid() {
			return nil, fmt.Errorf("report.project_rules: unknown collection %q", collection)
		}
		rule, err := enrich.ParseProjectRule(value)
		if err != nil {
			return nil, fmt.Errorf("report.project_rules.%s: %w", collection, err)
		}
		rules[t] = rule
	}
	return rules, nil
}

func runReport(cmd *cobra.Command, f *flags, a args) error {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyFlags(cmd, f, cfg)

	rules, err := parseRules(cfg.Report.ProjectRules)
	if err != nil {
		return err
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	logger, runID := utils.WithRunID(logger)
	logger.Info("Starting report run",
		zap.String("organization_id", a.orgID),
		zap.String("project_id", a.projectID),
		zap.Bool("downloads", a.downloads),
		zap.Bool("invoices", cfg.Report.IncludeInvoices))

	client, err := books.NewClient(books.Config{
		BaseURL:        cfg.Books.BaseURL,
		AuthToken:      a.token,
		AuthScheme:     cfg.Books.AuthScheme,
		OrganizationID: a.orgID,
		Timeout:        cfg.Books.Timeout,
		RateLimit:      cfg.Books.RateLimit,
		RateBurst:      cfg.Books.RateBurst,
		MaxRetries:     cfg.Books.MaxRetries,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create Books client: %w", err)
	}

	opts := orchestrator.Options{
		ProjectID:          a.projectID,
		Downloads:          a.downloads,
		IncludeInvoices:    cfg.Report.IncludeInvoices,
		USDRateOverride:    a.usdRate,
		USDRate:            cfg.Report.USDRate,
		FeePercent:         cfg.Report.FeePercent,
		TaxPercent:         cfg.Report.TaxPercent,
		AuxSheets:          cfg.Report.AuxSheets,
		OutputDir:          cfg.Report.OutputDir,
		ProgramIDField:     cfg.Report.ProgramIDField,
		Organization:       cfg.Report.Organization,
		CertificationLines: cfg.Report.CertificationLines,
		PageSize:           cfg.Books.PageSize,
		Concurrency:        cfg.Books.Concurrency,
		ResourceBase:       strings.TrimRight(cfg.Books.BaseURL, "/") + "/",
		Rules:              rules,
		ExtractDir:         cfg.Attachments.ExtractDir,
		Workers:            cfg.Attachments.Workers,
		GracePeriod:        cfg.Attachments.GracePeriod,
		DownloadTimeout:    cfg.Attachments.DownloadTimeout,
	}
	if !f.noProgress {
		opts.Progress = cmd.ErrOrStderr()
	}

	res, err := orchestrator.NewRunner(client, opts, cmd.OutOrStdout(), logger).Run(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s (%d rows, %d API calls, run %s)\n",
		res.ReportPath, res.Rows, res.APICalls, runID)
	if a.downloads {
		fmt.Fprintf(cmd.OutOrStdout(), "Attachments: %d downloaded, %d failed, %d abandoned\n",
			res.Attachments.Completed, res.Attachments.Failed, res.Attachments.Abandoned)
	}
	return nil
}
