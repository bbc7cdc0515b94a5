package workflow

import (
	"context"
	"fmt"
	"sync"
)

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// OnTransition registers an observer called after every transition
	OnTransition(fn TransitionFunc) StateMachineBuilder

	// Build creates a new state machine instance with the given initial state
	Build(initialState State) StateMachine
}

// StateConfiguration configures transitions for a specific state
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf allows a trigger to transition to the target state if the guard passes
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration
}

type transition struct {
	toState State
	guard   GuardFunc
}

type stateConfig struct {
	fromState   State
	transitions map[Trigger][]transition
	order       []Trigger
}

type stateMachineBuilder struct {
	configurations map[State]*stateConfig
	onTransition   TransitionFunc
}

type stateMachine struct {
	mu             sync.Mutex
	currentState   State
	history        []State
	configurations map[State]*stateConfig
	onTransition   TransitionFunc
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}
	if state.IsTerminal() {
		panic(fmt.Sprintf("terminal state cannot have transitions: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{
			fromState:   state,
			transitions: make(map[Trigger][]transition),
		}
		b.configurations[state] = config
	}

	return config
}

// OnTransition registers an observer called after every transition
func (b *stateMachineBuilder) OnTransition(fn TransitionFunc) StateMachineBuilder {
	b.onTransition = fn
	return b
}

// Build creates a new state machine instance with the given initial state.
// Later changes to the builder do not affect machines already built.
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	configs := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitions := make(map[Trigger][]transition, len(config.transitions))
		for trigger, ts := range config.transitions {
			transitions[trigger] = append([]transition(nil), ts...)
		}
		configs[state] = &stateConfig{
			fromState:   state,
			transitions: transitions,
			order:       append([]Trigger(nil), config.order...),
		}
	}

	return &stateMachine{
		currentState:   initialState,
		history:        []State{initialState},
		configurations: configs,
		onTransition:   b.onTransition,
	}
}

// Permit allows a trigger to transition to the target state
func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIf(trigger, toState, nil)
}

// PermitIf allows a trigger to transition to the target state if the guard passes
func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	if _, seen := c.transitions[trigger]; !seen {
		c.order = append(c.order, trigger)
	}
	c.transitions[trigger] = append(c.transitions[trigger], transition{
		toState: toState,
		guard:   guard,
	})

	return c
}

// State returns the current state
func (m *stateMachine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.currentState
}

// CanFire returns true if the trigger is configured for the current state.
// Guards are not evaluated.
func (m *stateMachine) CanFire(trigger Trigger) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}
	return len(config.transitions[trigger]) > 0
}

// Fire executes the trigger, taking the first transition whose guard passes
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) error {
	m.mu.Lock()

	from := m.currentState
	config, exists := m.configurations[from]
	if !exists {
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot fire %s from %s (no configuration)", ErrInvalidTransition, trigger, from)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		m.mu.Unlock()
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, from)
	}

	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			m.currentState = t.toState
			m.history = append(m.history, t.toState)
			observer := m.onTransition
			m.mu.Unlock()

			if observer != nil {
				observer(from, trigger, t.toState)
			}
			return nil
		}
	}

	m.mu.Unlock()
	return fmt.Errorf("%w: %s from %s", ErrGuardFailed, trigger, from)
}

// PermittedTriggers returns the triggers configured for the current state in
// the order they were configured
func (m *stateMachine) PermittedTriggers() []Trigger {
	m.mu.Lock()
	defer m.mu.Unlock()

	config, exists := m.configurations[m.currentState]
	if !exists {
		return []Trigger{}
	}
	return append([]Trigger{}, config.order...)
}

// History returns every state entered so far
func (m *stateMachine) History() []State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]State(nil), m.history...)
}
