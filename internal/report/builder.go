// Package report lays enriched rows out as an xlsx workbook whose summary
// rows are live formulas.
package report

import (
	"errors"
	"fmt"

	"github.com/garyjia/books-report/internal/models"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// Sheet names
const (
	SheetExpenses        = "Expenses"
	SheetTransactions    = "Transactions"
	SheetFinancialReport = "Financial Report"
	SheetAdvanceRequest  = "Advance Request"
)

// NotAvailable fills rate and USD cells when no USD rate is known
const NotAvailable = "N/A"

var expenseColumns = []string{
	"Date", "Description", "Category", "Amount in INR",
	"Exchange Rate", "Amount in USD", "Notes", "Attachment",
}

var transactionColumns = []string{
	"Transaction Date", "Type", "Record ID", "Reference Number", "Status",
	"Vendor", "Line Item ID", "Description", "Account Name", "Currency",
	"Currency Rate", "Amount", "Amount in INR", "Attachment",
}

// Options are the report-wide settings
type Options struct {
	FeePercent float64
	TaxPercent float64
	USDRate    float64 // <= 0 means unknown
	AuxSheets  bool
}

// Meta describes the project for header and footer blocks
type Meta struct {
	Title         string
	ProgramID     string
	PeriodStart   string
	PeriodEnd     string
	Organization  string
	Certification []string
}

// Period renders the reporting period
func (m Meta) Period() string {
	switch {
	case m.PeriodStart != "" && m.PeriodEnd != "":
		return m.PeriodStart + " to " + m.PeriodEnd
	case m.PeriodStart != "":
		return "From " + m.PeriodStart
	case m.PeriodEnd != "":
		return "Until " + m.PeriodEnd
	}
	return ""
}

// Input is everything needed to build one workbook
type Input struct {
	Rows []models.ReportRow
	// Header and Footer wrap the primary sheet
	Header Block
	Footer Block
	Meta   Meta
}

// Builder produces report workbooks
type Builder struct {
	opts   Options
	logger *zap.Logger
}

// NewBuilder creates a new Builder
func NewBuilder(opts Options, logger *zap.Logger) *Builder {
	return &Builder{
		opts:   opts,
		logger: logger,
	}
}

// Build lays out the workbook in memory. The caller must Close the file.
func (b *Builder) Build(in Input) (*excelize.File, error) {
	f := excelize.NewFile()
	built := false
	defer func() {
		if !built {
			f.Close()
		}
	}()

	st, err := newStyles(f)
	if err != nil {
		return nil, err
	}

	if err := f.SetSheetName(f.GetSheetName(0), SheetExpenses); err != nil {
		return nil, fmt.Errorf("failed to name primary sheet: %w", err)
	}

	layout, err := b.writeExpenses(f, st, in)
	if err != nil {
		return nil, err
	}

	if err := b.writeTransactions(f, st, in.Rows); err != nil {
		return nil, err
	}

	if b.opts.AuxSheets {
		if err := b.writeFinancialReport(f, st, layout, in.Meta); err != nil {
			return nil, err
		}
		if err := b.writeAdvanceRequest(f, st, layout, in.Meta); err != nil {
			return nil, err
		}
	}

	f.SetActiveSheet(0)
	built = true

	b.logger.Debug("Report workbook built",
		zap.Int("rows", len(in.Rows)),
		zap.Int("data_start", layout.DataStart()),
		zap.Int("total_row", layout.TotalRow()),
		zap.Bool("aux_sheets", b.opts.AuxSheets))

	return f, nil
}

// Save writes a built workbook to path
func (b *Builder) Save(f *excelize.File, path string) error {
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	b.logger.Info("Report written", zap.String("path", path))
	return nil
}

// Write builds the workbook and saves it to path
func (b *Builder) Write(in Input, path string) error {
	f, err := b.Build(in)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	defer f.Close()

	return b.Save(f, path)
}

func (b *Builder) writeExpenses(f *excelize.File, st styles, in Input) (Layout, error) {
	w := newSheetWriter(f, SheetExpenses)
	layout := NewLayout(len(in.Header), len(in.Rows))

	w.block(1, in.Header)

	headerRow := layout.ColumnHeaderRow()
	for i, title := range expenseColumns {
		w.set(i+1, headerRow, title)
	}
	w.style(ColDate, ColAttachment, headerRow, st.bold)

	for i, r := range in.Rows {
		row := layout.DataRow(i)
		w.set(ColDate, row, r.Date)
		w.set(ColDescription, row, r.Description)
		w.set(ColCategory, row, r.Category)
		w.set(ColAmountINR, row, r.AmountINR)
		w.style(ColAmountINR, ColAmountINR, row, st.inr)
		if usd, ok := r.AmountUSD(); ok {
			w.set(ColExchangeRate, row, r.ExchangeRate)
			w.style(ColExchangeRate, ColExchangeRate, row, st.rate)
			w.set(ColAmountUSD, row, usd)
			w.style(ColAmountUSD, ColAmountUSD, row, st.usd)
		}
		w.set(ColNotes, row, r.Notes)
		w.set(ColAttachment, row, r.AttachmentRef)
	}

	if _, err := layout.DataRange(ColAmountINR); errors.Is(err, ErrNoRows) {
		b.logger.Warn("Report has no rows for this project, totals will be zero")
	}

	sum := layout.Summary()
	summary := []struct {
		row   int
		label string
		expr  Expr
	}{
		{layout.SubtotalRow(), "Subtotal", sum.Subtotal},
		{layout.FeeRow(), "Fee", sum.Fee},
		{layout.SubtotalWithFeeRow(), "Subtotal with fee", sum.SubtotalWithFee},
		{layout.TaxRow(), "Tax", sum.Tax},
		{layout.TotalRow(), "Total", sum.Total},
	}
	for _, s := range summary {
		w.set(ColCategory, s.row, s.label)
		w.style(ColCategory, ColCategory, s.row, st.bold)
		w.set(ColAmountINR, s.row, s.expr)
		w.style(ColAmountINR, ColAmountINR, s.row, st.inr)
	}

	w.set(ColExchangeRate, layout.FeeRow(), b.opts.FeePercent/100)
	w.style(ColExchangeRate, ColExchangeRate, layout.FeeRow(), st.percent)
	w.set(ColExchangeRate, layout.TaxRow(), b.opts.TaxPercent/100)
	w.style(ColExchangeRate, ColExchangeRate, layout.TaxRow(), st.percent)

	usdRow := layout.TotalUSDRow()
	w.set(ColCategory, usdRow, "Total in USD")
	w.style(ColCategory, ColCategory, usdRow, st.bold)
	if b.opts.USDRate > 0 {
		w.set(ColExchangeRate, usdRow, b.opts.USDRate)
		w.style(ColExchangeRate, ColExchangeRate, usdRow, st.rate)
		w.set(ColAmountUSD, usdRow, sum.TotalUSD)
		w.style(ColAmountUSD, ColAmountUSD, usdRow, st.usd)
	} else {
		w.set(ColExchangeRate, usdRow, NotAvailable)
		w.set(ColAmountUSD, usdRow, NotAvailable)
	}

	w.block(layout.FooterStart(), in.Footer)
	w.widths(12, 40, 24, 16, 14, 16, 30, 40)

	if w.err != nil {
		return layout, w.err
	}
	return layout, nil
}

func (b *Builder) writeTransactions(f *excelize.File, st styles, rows []models.ReportRow) error {
	if _, err := f.NewSheet(SheetTransactions); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", SheetTransactions, err)
	}
	w := newSheetWriter(f, SheetTransactions)

	titles := make([]any, len(transactionColumns))
	for i, title := range transactionColumns {
		titles[i] = title
	}
	w.row(1, titles...)
	w.style(1, len(transactionColumns), 1, st.bold)

	const colINR = 13
	for i, r := range rows {
		row := i + 2
		w.row(row,
			r.Date,
			r.Type.Label(),
			r.RecordID,
			r.Reference,
			r.Status,
			r.Vendor,
			r.LineItemID,
			r.Description,
			r.Category,
			r.CurrencyCode,
			r.ExchangeRate,
			r.RawAmount,
			r.AmountINR,
			r.AttachmentRef,
		)
		w.style(colINR, colINR, row, st.inr)
	}

	if len(rows) > 0 {
		totalRow := len(rows) + 3
		w.set(colINR-1, totalRow, "Total")
		w.style(colINR-1, colINR-1, totalRow, st.bold)
		w.set(colINR, totalRow, Sum(Range{From: Cell(colINR, 2), To: Cell(colINR, len(rows)+1)}))
		w.style(colINR, colINR, totalRow, st.inr)
	}

	w.widths(12, 10, 22, 18, 10, 24, 22, 40, 24, 10, 12, 14, 16, 40)
	return w.err
}

// headerBlock is the title block shared by the auxiliary sheets
func headerBlock(heading string, meta Meta) Block {
	return Block{
		{heading},
		{"Organization", meta.Organization},
		{"Project", meta.Title},
		{"Program ID", meta.ProgramID},
		{"Reporting period", meta.Period()},
		{},
	}
}

// footerBlock is the certification block shared by the auxiliary sheets
func footerBlock(meta Meta) Block {
	footer := Block{{}}
	for _, line := range meta.Certification {
		footer = append(footer, []any{line})
	}
	return append(footer, []any{"Signature", ""}, []any{"Date", ""})
}

func (b *Builder) writeFinancialReport(f *excelize.File, st styles, layout Layout, meta Meta) error {
	if _, err := f.NewSheet(SheetFinancialReport); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", SheetFinancialReport, err)
	}
	w := newSheetWriter(f, SheetFinancialReport)
	expenses := func(col, row int) Ref { return Cell(col, row).On(SheetExpenses) }

	row := 1 + w.block(1, headerBlock("Financial Report", meta))
	w.style(1, 1, 1, st.bold)

	w.row(row, "Category", "Amount in INR")
	w.style(1, 2, row, st.bold)

	first := row + 1
	w.row(first, "Expenditure", expenses(ColAmountINR, layout.SubtotalRow()))
	w.row(first+1, "Fee", expenses(ColAmountINR, layout.FeeRow()))
	w.row(first+2, "Tax", expenses(ColAmountINR, layout.TaxRow()))
	for r := first; r <= first+2; r++ {
		w.style(2, 2, r, st.inr)
	}

	total := first + 3
	w.row(total, "Total", Sum(Range{From: Cell(2, first), To: Cell(2, first+2)}))
	w.style(1, 1, total, st.bold)
	w.style(2, 2, total, st.inr)

	if b.opts.USDRate > 0 {
		w.row(total+1, "Total in USD", Over(Cell(2, total), expenses(ColExchangeRate, layout.TotalUSDRow())))
		w.style(2, 2, total+1, st.usd)
	} else {
		w.row(total+1, "Total in USD", NotAvailable)
	}

	w.block(total+2, footerBlock(meta))
	w.widths(28, 40)
	return w.err
}

func (b *Builder) writeAdvanceRequest(f *excelize.File, st styles, layout Layout, meta Meta) error {
	if _, err := f.NewSheet(SheetAdvanceRequest); err != nil {
		return fmt.Errorf("failed to create %s sheet: %w", SheetAdvanceRequest, err)
	}
	w := newSheetWriter(f, SheetAdvanceRequest)
	expenses := func(col, row int) Ref { return Cell(col, row).On(SheetExpenses) }

	row := 1 + w.block(1, headerBlock("Advance Request Form", meta))
	w.style(1, 1, 1, st.bold)

	w.row(row, "Description", "Amount in INR")
	w.style(1, 2, row, st.bold)

	w.row(row+1, "Project expenditure including fee", expenses(ColAmountINR, layout.SubtotalWithFeeRow()))
	w.row(row+2, "Tax", expenses(ColAmountINR, layout.TaxRow()))
	requested := row + 3
	w.row(requested, "Amount requested", Plus(Cell(2, row+1), Cell(2, row+2)))
	w.style(1, 1, requested, st.bold)
	for r := row + 1; r <= requested; r++ {
		w.style(2, 2, r, st.inr)
	}

	if b.opts.USDRate > 0 {
		w.row(requested+1, "Amount requested in USD", expenses(ColAmountUSD, layout.TotalUSDRow()))
		w.style(2, 2, requested+1, st.usd)
	} else {
		w.row(requested+1, "Amount requested in USD", NotAvailable)
	}

	w.block(requested+2, footerBlock(meta))
	w.widths(36, 40)
	return w.err
}
