// Package workflow is a small guarded state machine used to drive a report run.
package workflow

// State represents a stage of a report run
type State string

const (
	StateResolvingProject       State = "RESOLVING_PROJECT"
	StateFetchingCollections    State = "FETCHING_COLLECTIONS"
	StateEnriching              State = "ENRICHING"
	StateBuildingReport         State = "BUILDING_REPORT"
	StateWriting                State = "WRITING"
	StateDone                   State = "DONE"
	StateAbortedProjectNotFound State = "ABORTED_PROJECT_NOT_FOUND"
	StateAbortedReportFailure   State = "ABORTED_REPORT_FAILURE"
)

var validStates = map[State]bool{
	StateResolvingProject:       true,
	StateFetchingCollections:    true,
	StateEnriching:              true,
	StateBuildingReport:         true,
	StateWriting:                true,
	StateDone:                   true,
	StateAbortedProjectNotFound: true,
	StateAbortedReportFailure:   true,
}

var terminalStates = map[State]bool{
	StateDone:                   true,
	StateAbortedProjectNotFound: true,
	StateAbortedReportFailure:   true,
}

// IsTerminal returns true if no further transitions are allowed
func (s State) IsTerminal() bool {
	return terminalStates[s]
}

// IsAborted returns true for the failure terminals
func (s State) IsAborted() bool {
	return s == StateAbortedProjectNotFound || s == StateAbortedReportFailure
}

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid returns true if the state is a known run state
func (s State) IsValid() bool {
	return validStates[s]
}
