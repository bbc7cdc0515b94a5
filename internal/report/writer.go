package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// Block is an opaque run of rows prepended or appended to a sheet. Values are
// written as-is except Expr values, which become formulas.
type Block [][]any

// sheetWriter remembers the first error so layout code reads top to bottom
type sheetWriter struct {
	f     *excelize.File
	sheet string
	err   error
}

func newSheetWriter(f *excelize.File, sheet string) *sheetWriter {
	return &sheetWriter{f: f, sheet: sheet}
}

func (w *sheetWriter) set(col, row int, v any) {
	if w.err != nil || v == nil {
		return
	}
	cell := Cell(col, row).Name()

	if e, ok := v.(Expr); ok {
		if err := w.f.SetCellFormula(w.sheet, cell, Render(e)); err != nil {
			w.err = fmt.Errorf("failed to set formula %s!%s: %w", w.sheet, cell, err)
		}
		return
	}
	if err := w.f.SetCellValue(w.sheet, cell, v); err != nil {
		w.err = fmt.Errorf("failed to set %s!%s: %w", w.sheet, cell, err)
	}
}

func (w *sheetWriter) style(fromCol, toCol, row, styleID int) {
	if w.err != nil {
		return
	}
	from, to := Cell(fromCol, row).Name(), Cell(toCol, row).Name()
	if err := w.f.SetCellStyle(w.sheet, from, to, styleID); err != nil {
		w.err = fmt.Errorf("failed to style %s!%s:%s: %w", w.sheet, from, to, err)
	}
}

// row writes values left to right starting at column A
func (w *sheetWriter) row(row int, values ...any) {
	for i, v := range values {
		w.set(i+1, row, v)
	}
}

// block writes b starting at row and returns the number of rows it occupies
func (w *sheetWriter) block(row int, b Block) int {
	for i, values := range b {
		w.row(row+i, values...)
	}
	return len(b)
}

func (w *sheetWriter) widths(widths ...float64) {
	for i, width := range widths {
		if w.err != nil {
			return
		}
		col := columnName(i + 1)
		if err := w.f.SetColWidth(w.sheet, col, col, width); err != nil {
			w.err = fmt.Errorf("failed to set width of %s!%s: %w", w.sheet, col, err)
		}
	}
}

type styles struct {
	bold    int
	inr     int
	usd     int
	rate    int
	percent int
}

const (
	formatINR  = `"₹"#,##0.00`
	formatUSD  = `"$"#,##0.00`
	formatRate = `0.00##`

	// builtin 0.00%
	numFmtPercent = 10
)

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error

	custom := func(format string) *excelize.Style {
		return &excelize.Style{CustomNumFmt: &format}
	}

	if s.bold, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, fmt.Errorf("failed to create bold style: %w", err)
	}
	if s.inr, err = f.NewStyle(custom(formatINR)); err != nil {
		return s, fmt.Errorf("failed to create INR style: %w", err)
	}
	if s.usd, err = f.NewStyle(custom(formatUSD)); err != nil {
		return s, fmt.Errorf("failed to create USD style: %w", err)
	}
	if s.rate, err = f.NewStyle(custom(formatRate)); err != nil {
		return s, fmt.Errorf("failed to create rate style: %w", err)
	}
	if s.percent, err = f.NewStyle(&excelize.Style{NumFmt: numFmtPercent}); err != nil {
		return s, fmt.Errorf("failed to create percent style: %w", err)
	}
	return s, nil
}
