package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a trigger is not permitted in the
// current state.
var ErrInvalidTransition = errors.New("invalid state transition")

// Machine tracks one job's state and validates transitions against a fixed
// transition table.
type Machine struct {
	current     State
	transitions map[State]map[Trigger]State
}

// NewMachine creates a machine in StateStart with the pipeline's transition
// table: validation either fails a job outright or leads into extraction;
// extraction may ignore, fail, or hand over to assignment; every path
// converges on the log append.
func NewMachine() *Machine {
	b := newBuilder()
	b.permit(StateStart, TriggerValidate, StateValidated)
	b.permit(StateStart, TriggerFail, StateErrored)
	b.permit(StateValidated, TriggerExtract, StateExtracted)
	b.permit(StateValidated, TriggerIgnore, StateIgnored)
	b.permit(StateValidated, TriggerFail, StateErrored)
	b.permit(StateExtracted, TriggerAssign, StateAssigned)
	b.permit(StateExtracted, TriggerFail, StateErrored)
	b.permit(StateAssigned, TriggerSave, StateSaved)
	b.permit(StateAssigned, TriggerFail, StateErrored)
	b.permit(StateSaved, TriggerLog, StateLogged)
	b.permit(StateIgnored, TriggerLog, StateLogged)
	b.permit(StateErrored, TriggerLog, StateLogged)
	return b.build(StateStart)
}

// State returns the current state.
func (m *Machine) State() State {
	return m.current
}

// CanFire reports whether trigger is permitted in the current state.
func (m *Machine) CanFire(trigger Trigger) bool {
	_, ok := m.transitions[m.current][trigger]
	return ok
}

// Fire executes the trigger, transitioning to the new state if allowed.
func (m *Machine) Fire(trigger Trigger) error {
	next, ok := m.transitions[m.current][trigger]
	if !ok {
		return fmt.Errorf("%w: cannot fire %s from %s", ErrInvalidTransition, trigger, m.current)
	}
	m.current = next
	return nil
}

type builder struct {
	transitions map[State]map[Trigger]State
}

func newBuilder() *builder {
	return &builder{transitions: make(map[State]map[Trigger]State)}
}

func (b *builder) permit(from State, trigger Trigger, to State) {
	if !from.IsValid() || !to.IsValid() {
		panic(fmt.Sprintf("invalid transition %s -> %s", from, to))
	}
	if b.transitions[from] == nil {
		b.transitions[from] = make(map[Trigger]State)
	}
	b.transitions[from][trigger] = to
}

func (b *builder) build(initial State) *Machine {
	if !initial.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initial))
	}
	return &Machine{
		current:     initial,
		transitions: b.transitions,
	}
}
