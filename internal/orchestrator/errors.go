package orchestrator

import "errors"

var (
	// ErrProjectNotFound is returned after the known projects were listed
	ErrProjectNotFound = errors.New("project not found")

	// ErrReportFailed is returned when the workbook could not be built or written
	ErrReportFailed = errors.New("report generation failed")
)
