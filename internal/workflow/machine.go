package workflow

import "context"

// StateMachine tracks the current state and validates transitions
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire attempts to execute the trigger, transitioning to the new state if allowed
	Fire(ctx context.Context, trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger

	// History returns every state entered so far, the initial state first
	History() []State
}

// TransitionFunc observes a completed transition
type TransitionFunc func(from State, trigger Trigger, to State)

// NewRunMachine returns the state machine of one report run. onTransition
// may be nil.
//
//	RESOLVING_PROJECT -> FETCHING_COLLECTIONS -> ENRICHING -> BUILDING_REPORT -> WRITING -> DONE
//	RESOLVING_PROJECT -> ABORTED_PROJECT_NOT_FOUND
//	BUILDING_REPORT, WRITING -> ABORTED_REPORT_FAILURE
func NewRunMachine(onTransition TransitionFunc) StateMachine {
	b := NewBuilder()

	b.Configure(StateResolvingProject).
		Permit(TriggerProjectResolved, StateFetchingCollections).
		Permit(TriggerProjectNotFound, StateAbortedProjectNotFound)

	b.Configure(StateFetchingCollections).
		Permit(TriggerCollectionsFetched, StateEnriching)

	b.Configure(StateEnriching).
		Permit(TriggerRowsEnriched, StateBuildingReport)

	b.Configure(StateBuildingReport).
		Permit(TriggerReportBuilt, StateWriting).
		Permit(TriggerReportFailed, StateAbortedReportFailure)

	b.Configure(StateWriting).
		Permit(TriggerReportWritten, StateDone).
		Permit(TriggerReportFailed, StateAbortedReportFailure)

	b.OnTransition(onTransition)
	return b.Build(StateResolvingProject)
}
