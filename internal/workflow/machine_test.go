package workflow

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestState_IsTerminal(t *testing.T) {
	tests := []struct {
		state    State
		expected bool
	}{
		{StateResolvingProject, false},
		{StateFetchingCollections, false},
		{StateEnriching, false},
		{StateBuildingReport, false},
		{StateWriting, false},
		{StateDone, true},
		{StateAbortedProjectNotFound, true},
		{StateAbortedReportFailure, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.IsTerminal(); got != tt.expected {
				t.Errorf("State.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestState_IsAborted(t *testing.T) {
	if StateDone.IsAborted() {
		t.Error("DONE should not be aborted")
	}
	if !StateAbortedProjectNotFound.IsAborted() || !StateAbortedReportFailure.IsAborted() {
		t.Error("ABORTED_* states should be aborted")
	}
}

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		state    State
		expected bool
	}{
		{"valid state", StateResolvingProject, true},
		{"valid terminal", StateDone, true},
		{"invalid state", State("INVALID"), false},
		{"empty state", State(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.state.IsValid(); got != tt.expected {
				t.Errorf("State.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestBuilder_Configure(t *testing.T) {
	builder := NewBuilder()

	config := builder.Configure(StateEnriching)
	if config == nil {
		t.Fatal("Configure() returned nil")
	}

	if config2 := builder.Configure(StateEnriching); config != config2 {
		t.Error("Configure() should return same config for same state")
	}
}

func TestBuilder_ConfigurePanics(t *testing.T) {
	tests := []struct {
		name  string
		state State
	}{
		{"invalid state", State("INVALID")},
		{"terminal state", StateDone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("Configure(%s) should panic", tt.state)
				}
			}()
			NewBuilder().Configure(tt.state)
		})
	}
}

func TestBuilder_BuildPanicsOnInvalidInitialState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Build() should panic on invalid initial state")
		}
	}()

	NewBuilder().Build(State("INVALID"))
}

type guardKey struct{}

func TestStateConfiguration_PermitIf(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateBuildingReport).
		PermitIf(TriggerReportBuilt, StateWriting, func(ctx context.Context) bool {
			return ctx.Value(guardKey{}).(bool)
		}).
		PermitIf(TriggerReportBuilt, StateAbortedReportFailure, func(ctx context.Context) bool {
			return !ctx.Value(guardKey{}).(bool)
		})

	machine1 := builder.Build(StateBuildingReport)
	if err := machine1.Fire(context.WithValue(context.Background(), guardKey{}, true), TriggerReportBuilt); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine1.State() != StateWriting {
		t.Errorf("State after Fire() = %v, want %v", machine1.State(), StateWriting)
	}

	machine2 := builder.Build(StateBuildingReport)
	if err := machine2.Fire(context.WithValue(context.Background(), guardKey{}, false), TriggerReportBuilt); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}
	if machine2.State() != StateAbortedReportFailure {
		t.Errorf("State after Fire() = %v, want %v", machine2.State(), StateAbortedReportFailure)
	}
}

func TestStateConfiguration_PermitIf_GuardFails(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateWriting).
		PermitIf(TriggerReportWritten, StateDone, func(ctx context.Context) bool { return false })

	machine := builder.Build(StateWriting)

	err := machine.Fire(context.Background(), TriggerReportWritten)
	if !errors.Is(err, ErrGuardFailed) {
		t.Errorf("Fire() error = %v, want %v", err, ErrGuardFailed)
	}
	if machine.State() != StateWriting {
		t.Errorf("State should remain %v after failed Fire(), got %v", StateWriting, machine.State())
	}
}

func TestStateConfiguration_PermitPanicsOnInvalidState(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("Permit() should panic on invalid target state")
		}
	}()

	NewBuilder().Configure(StateWriting).Permit(TriggerReportWritten, State("INVALID"))
}

func TestRunMachine_HappyPath(t *testing.T) {
	type step struct {
		from    State
		trigger Trigger
		to      State
	}
	var observed []step
	machine := NewRunMachine(func(from State, trigger Trigger, to State) {
		observed = append(observed, step{from, trigger, to})
	})

	steps := []struct {
		trigger       Trigger
		expectedState State
	}{
		{TriggerProjectResolved, StateFetchingCollections},
		{TriggerCollectionsFetched, StateEnriching},
		{TriggerRowsEnriched, StateBuildingReport},
		{TriggerReportBuilt, StateWriting},
		{TriggerReportWritten, StateDone},
	}

	for i, s := range steps {
		if err := machine.Fire(context.Background(), s.trigger); err != nil {
			t.Errorf("Step %d: Fire(%v) failed: %v", i, s.trigger, err)
		}
		if machine.State() != s.expectedState {
			t.Errorf("Step %d: State after Fire(%v) = %v, want %v", i, s.trigger, machine.State(), s.expectedState)
		}
	}

	if !machine.State().IsTerminal() {
		t.Error("Final state should be terminal")
	}
	if triggers := machine.PermittedTriggers(); len(triggers) != 0 {
		t.Errorf("Terminal state should have 0 permitted triggers, got %d", len(triggers))
	}

	want := []State{
		StateResolvingProject, StateFetchingCollections, StateEnriching,
		StateBuildingReport, StateWriting, StateDone,
	}
	if got := machine.History(); !reflect.DeepEqual(got, want) {
		t.Errorf("History() = %v, want %v", got, want)
	}
	if len(observed) != len(steps) {
		t.Fatalf("observer saw %d transitions, want %d", len(observed), len(steps))
	}
	if observed[0] != (step{StateResolvingProject, TriggerProjectResolved, StateFetchingCollections}) {
		t.Errorf("first observed transition = %+v", observed[0])
	}
}

func TestRunMachine_ProjectNotFoundShortCircuits(t *testing.T) {
	machine := NewRunMachine(nil)

	if err := machine.Fire(context.Background(), TriggerProjectNotFound); err != nil {
		t.Fatalf("Fire() failed: %v", err)
	}
	if machine.State() != StateAbortedProjectNotFound {
		t.Errorf("State = %v, want %v", machine.State(), StateAbortedProjectNotFound)
	}

	err := machine.Fire(context.Background(), TriggerCollectionsFetched)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
}

func TestRunMachine_ReportFailure(t *testing.T) {
	for _, from := range []Trigger{TriggerRowsEnriched, TriggerReportBuilt} {
		machine := NewRunMachine(nil)
		path := []Trigger{TriggerProjectResolved, TriggerCollectionsFetched, TriggerRowsEnriched}
		if from == TriggerReportBuilt {
			path = append(path, TriggerReportBuilt)
		}
		for _, trig := range path {
			if err := machine.Fire(context.Background(), trig); err != nil {
				t.Fatalf("Fire(%v) failed: %v", trig, err)
			}
		}

		if err := machine.Fire(context.Background(), TriggerReportFailed); err != nil {
			t.Errorf("Fire(REPORT_FAILED) from %v failed: %v", machine.State(), err)
		}
		if machine.State() != StateAbortedReportFailure {
			t.Errorf("State = %v, want %v", machine.State(), StateAbortedReportFailure)
		}
	}
}

func TestRunMachine_CannotFailBeforeBuilding(t *testing.T) {
	machine := NewRunMachine(nil)

	if machine.CanFire(TriggerReportFailed) {
		t.Error("REPORT_FAILED should not be permitted while resolving the project")
	}

	err := machine.Fire(context.Background(), TriggerReportFailed)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if machine.State() != StateResolvingProject {
		t.Errorf("State should remain %v, got %v", StateResolvingProject, machine.State())
	}
}

func TestStateMachine_PermittedTriggersKeepOrder(t *testing.T) {
	machine := NewRunMachine(nil)

	want := []Trigger{TriggerProjectResolved, TriggerProjectNotFound}
	if got := machine.PermittedTriggers(); !reflect.DeepEqual(got, want) {
		t.Errorf("PermittedTriggers() = %v, want %v", got, want)
	}
}

func TestStateMachine_Independence(t *testing.T) {
	builder := NewBuilder()
	builder.Configure(StateResolvingProject).
		Permit(TriggerProjectResolved, StateFetchingCollections)

	machine1 := builder.Build(StateResolvingProject)
	machine2 := builder.Build(StateResolvingProject)

	if err := machine1.Fire(context.Background(), TriggerProjectResolved); err != nil {
		t.Errorf("Fire() failed: %v", err)
	}

	if machine2.State() != StateResolvingProject {
		t.Errorf("machine2 state = %v, want %v (machines should be independent)", machine2.State(), StateResolvingProject)
	}

	// configuring after Build must not leak into built machines
	builder.Configure(StateResolvingProject).Permit(TriggerProjectNotFound, StateAbortedProjectNotFound)
	if machine2.CanFire(TriggerProjectNotFound) {
		t.Error("built machine should not see later configuration")
	}
}

func TestStateMachine_Fire_NoConfiguration(t *testing.T) {
	machine := NewBuilder().Build(StateEnriching)

	err := machine.Fire(context.Background(), TriggerRowsEnriched)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Fire() error = %v, want %v", err, ErrInvalidTransition)
	}
	if got := machine.PermittedTriggers(); len(got) != 0 {
		t.Errorf("PermittedTriggers() returned %d triggers, want 0", len(got))
	}
}
