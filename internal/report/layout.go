package report

// Columns of the primary sheet, 1-based
const (
	ColDate = iota + 1
	ColDescription
	ColCategory
	ColAmountINR
	ColExchangeRate
	ColAmountUSD
	ColNotes
	ColAttachment
)

// Summary row offsets after the last data row. Offset 1 is the blank separator.
const (
	offsetSubtotal = iota + 2
	offsetFee
	offsetSubtotalWithFee
	offsetTax
	offsetTotal
	offsetTotalUSD
)

// Layout derives every row position of the primary sheet from the size of
// the header block and the number of data rows
type Layout struct {
	HeaderRows int
	RowCount   int
}

// NewLayout creates a layout for rowCount data rows under headerRows rows of
// prepended header block
func NewLayout(headerRows, rowCount int) Layout {
	if headerRows < 0 {
		headerRows = 0
	}
	if rowCount < 0 {
		rowCount = 0
	}
	return Layout{HeaderRows: headerRows, RowCount: rowCount}
}

// ColumnHeaderRow is the row holding the column titles
func (l Layout) ColumnHeaderRow() int {
	return l.HeaderRows + 1
}

// DataStart is the first data row
func (l Layout) DataStart() int {
	return l.HeaderRows + 2
}

// DataRow returns the row of the i-th (0-based) data row
func (l Layout) DataRow(i int) int {
	return l.DataStart() + i
}

// DataRange returns the amount range covered by the data rows of col.
// It returns ErrNoRows when there is nothing to cover.
func (l Layout) DataRange(col int) (Range, error) {
	if l.RowCount == 0 {
		return Range{}, ErrNoRows
	}
	return Range{
		From: Cell(col, l.DataStart()),
		To:   Cell(col, l.DataStart()+l.RowCount-1),
	}, nil
}

// summaryRow positions a summary line at dataStart + rowCount + offset
func (l Layout) summaryRow(offset int) int {
	return l.DataStart() + l.RowCount + offset - 1
}

func (l Layout) SubtotalRow() int        { return l.summaryRow(offsetSubtotal) }
func (l Layout) FeeRow() int             { return l.summaryRow(offsetFee) }
func (l Layout) SubtotalWithFeeRow() int { return l.summaryRow(offsetSubtotalWithFee) }
func (l Layout) TaxRow() int             { return l.summaryRow(offsetTax) }
func (l Layout) TotalRow() int           { return l.summaryRow(offsetTotal) }
func (l Layout) TotalUSDRow() int        { return l.summaryRow(offsetTotalUSD) }

// FooterStart is the first row of the appended footer block
func (l Layout) FooterStart() int {
	return l.TotalUSDRow() + 2
}

// Summary holds the formulas of the summary rows
type Summary struct {
	Subtotal        Expr
	Fee             Expr
	SubtotalWithFee Expr
	Tax             Expr
	Total           Expr
	TotalUSD        Expr
}

// Summary builds the summary formulas. Fee, tax and USD rates are read from
// the exchange-rate column of their own rows so they can be edited in place.
func (l Layout) Summary() Summary {
	amount := func(row int) Ref { return Cell(ColAmountINR, row) }
	rate := func(row int) Ref { return Cell(ColExchangeRate, row) }

	var subtotal Expr = Num(0)
	if r, err := l.DataRange(ColAmountINR); err == nil {
		subtotal = Sum(r)
	}

	return Summary{
		Subtotal:        subtotal,
		Fee:             Times(amount(l.SubtotalRow()), rate(l.FeeRow())),
		SubtotalWithFee: Plus(amount(l.SubtotalRow()), amount(l.FeeRow())),
		Tax:             Times(amount(l.SubtotalWithFeeRow()), rate(l.TaxRow())),
		Total:           Plus(amount(l.SubtotalWithFeeRow()), amount(l.TaxRow())),
		TotalUSD:        Over(amount(l.TotalRow()), rate(l.TotalUSDRow())),
	}
}
