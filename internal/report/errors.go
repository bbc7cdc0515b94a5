package report

import "errors"

var (
	// ErrNoRows is reported by Layout.DataRange for an empty report.
	// It is not fatal: the workbook is still written with zero-valued totals.
	ErrNoRows = errors.New("report has no data rows")
)
