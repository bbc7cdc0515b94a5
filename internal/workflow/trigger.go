package workflow

// Trigger represents an event that moves a run forward
type Trigger string

const (
	TriggerProjectResolved    Trigger = "PROJECT_RESOLVED"
	TriggerProjectNotFound    Trigger = "PROJECT_NOT_FOUND"
	TriggerCollectionsFetched Trigger = "COLLECTIONS_FETCHED"
	TriggerRowsEnriched       Trigger = "ROWS_ENRICHED"
	TriggerReportBuilt        Trigger = "REPORT_BUILT"
	TriggerReportWritten      Trigger = "REPORT_WRITTEN"
	TriggerReportFailed       Trigger = "REPORT_FAILED"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
