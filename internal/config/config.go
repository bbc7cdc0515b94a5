package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

// Config holds all application configuration
type Config struct {
	Books       BooksConfig       `mapstructure:"books"`
	Report      ReportConfig      `mapstructure:"report"`
	Attachments AttachmentsConfig `mapstructure:"attachments"`
	Logger      LoggerConfig      `mapstructure:"logger"`
}

// BooksConfig holds the accounting API client configuration.
// These values are fixed per deployment and never come from the command line.
type BooksConfig struct {
	BaseURL     string        `mapstructure:"base_url"`
	AuthScheme  string        `mapstructure:"auth_scheme"`
	Timeout     time.Duration `mapstructure:"timeout"`
	PageSize    int           `mapstructure:"page_size"`
	RateLimit   float64       `mapstructure:"rate_limit"` // requests per second
	RateBurst   int           `mapstructure:"rate_burst"`
	MaxRetries  int           `mapstructure:"max_retries"`
	Concurrency int           `mapstructure:"concurrency"` // parallel detail fetches
}

// ReportConfig holds spreadsheet layout configuration
type ReportConfig struct {
	OutputDir          string   `mapstructure:"output_dir"`
	FeePercent         float64  `mapstructure:"fee_percent"`
	TaxPercent         float64  `mapstructure:"tax_percent"`
	USDRate            float64  `mapstructure:"usd_rate"`
	IncludeInvoices    bool     `mapstructure:"include_invoices"`
	AuxSheets          bool     `mapstructure:"aux_sheets"`
	ProgramIDField     string   `mapstructure:"program_id_field"`
	Organization       string   `mapstructure:"organization"`
	CertificationLines []string `mapstructure:"certification_lines"`
	// ProjectRules maps a collection to "parent" or "item", see enrich.ProjectRule
	ProjectRules map[string]string `mapstructure:"project_rules"`
}

// AttachmentsConfig holds attachment download configuration
type AttachmentsConfig struct {
	ExtractDir      string        `mapstructure:"extract_dir"`
	Workers         int           `mapstructure:"workers"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	GracePeriod     time.Duration `mapstructure:"grace_period"`
}

// LoggerConfig holds logger configuration
type LoggerConfig struct {
	Level      string `mapstructure:"level"`
	OutputPath string `mapstructure:"output_path"`
	Format     string `mapstructure:"format"`
}

// Load loads configuration from an optional YAML file, a .env file in the
// working directory and environment variables. An empty configPath means
// defaults plus environment only.
func Load(configPath string) (*Config, error) {
	// .env is optional; a missing file is not an error
	if err := gotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)
	bindEnvVars(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Books defaults
	v.SetDefault("books.base_url", "https://books.zoho.in/api/v3/")
	v.SetDefault("books.auth_scheme", "Zoho-oauthtoken")
	v.SetDefault("books.timeout", 30*time.Second)
	v.SetDefault("books.page_size", 200)
	v.SetDefault("books.rate_limit", 1.5)
	v.SetDefault("books.rate_burst", 5)
	v.SetDefault("books.max_retries", 3)
	v.SetDefault("books.concurrency", 8)

	// Report defaults
	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.fee_percent", 10.0)
	v.SetDefault("report.tax_percent", 18.0)
	v.SetDefault("report.usd_rate", 0.0)
	v.SetDefault("report.include_invoices", false)
	v.SetDefault("report.aux_sheets", true)
	v.SetDefault("report.program_id_field", "Program ID")
	v.SetDefault("report.project_rules", map[string]string{
		"expenses": "parent",
		"bills":    "item",
		"invoices": "item",
	})
	v.SetDefault("report.certification_lines", []string{
		"Certified that the expenditure shown above has been incurred for the purpose of the project.",
		"Authorised signatory:",
		"Date:",
	})

	// Attachment defaults
	v.SetDefault("attachments.extract_dir", "extract")
	v.SetDefault("attachments.workers", 4)
	v.SetDefault("attachments.download_timeout", 2*time.Minute)
	v.SetDefault("attachments.grace_period", 2*time.Minute)

	// Logger defaults
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.output_path", "stderr")
	v.SetDefault("logger.format", "console")
}

// bindEnvVars binds environment variables to configuration
func bindEnvVars(v *viper.Viper) {
	v.BindEnv("books.base_url", "BOOKS_BASE_URL")
	v.BindEnv("report.fee_percent", "REPORT_FEE_PERCENT")
	v.BindEnv("report.tax_percent", "REPORT_TAX_PERCENT")
	v.BindEnv("report.usd_rate", "REPORT_USD_RATE")
	v.BindEnv("report.organization", "REPORT_ORGANIZATION")
	v.BindEnv("logger.level", "LOG_LEVEL")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Books.BaseURL == "" {
		return fmt.Errorf("books.base_url is required")
	}
	if c.Books.Timeout <= 0 {
		return fmt.Errorf("books.timeout must be positive")
	}
	// Zoho Books caps per_page at 200
	if c.Books.PageSize < 1 || c.Books.PageSize > 200 {
		return fmt.Errorf("books.page_size must be between 1 and 200, got %d", c.Books.PageSize)
	}
	if c.Books.Concurrency < 1 {
		return fmt.Errorf("books.concurrency must be at least 1")
	}

	if c.Report.FeePercent < 0 {
		return fmt.Errorf("report.fee_percent must not be negative")
	}
	if c.Report.TaxPercent < 0 {
		return fmt.Errorf("report.tax_percent must not be negative")
	}
	if c.Report.USDRate < 0 {
		return fmt.Errorf("report.usd_rate must not be negative")
	}

	if c.Attachments.ExtractDir == "" {
		return fmt.Errorf("attachments.extract_dir is required")
	}
	if c.Attachments.Workers < 1 {
		return fmt.Errorf("attachments.workers must be at least 1")
	}

	return nil
}
