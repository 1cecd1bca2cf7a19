package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMachine_HappyPath(t *testing.T) {
	m := NewMachine()
	assert.Equal(t, StateStart, m.State())

	for _, trigger := range []Trigger{TriggerValidate, TriggerExtract, TriggerAssign, TriggerSave, TriggerLog} {
		require.NoError(t, m.Fire(trigger))
	}

	assert.Equal(t, StateLogged, m.State())
	assert.True(t, m.State().IsTerminal())
}

func TestMachine_IgnorePathBypassesAssignAndSave(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Fire(TriggerValidate))
	require.NoError(t, m.Fire(TriggerIgnore))

	assert.False(t, m.CanFire(TriggerAssign))
	assert.False(t, m.CanFire(TriggerSave))
	require.NoError(t, m.Fire(TriggerLog))
	assert.Equal(t, StateLogged, m.State())
}

func TestMachine_FailureFromEveryActiveState(t *testing.T) {
	for _, path := range [][]Trigger{
		{},
		{TriggerValidate},
		{TriggerValidate, TriggerExtract},
		{TriggerValidate, TriggerExtract, TriggerAssign},
	} {
		m := NewMachine()
		for _, trigger := range path {
			require.NoError(t, m.Fire(trigger))
		}

		require.NoError(t, m.Fire(TriggerFail))
		assert.Equal(t, StateErrored, m.State())
		require.NoError(t, m.Fire(TriggerLog))
		assert.Equal(t, StateLogged, m.State())
	}
}

func TestMachine_RejectsInvalidTransitions(t *testing.T) {
	m := NewMachine()

	err := m.Fire(TriggerSave)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StateStart, m.State(), "failed fire must not change state")

	require.NoError(t, m.Fire(TriggerValidate))
	assert.ErrorIs(t, m.Fire(TriggerLog), ErrInvalidTransition)
}

func TestMachine_TerminalStateHasNoTransitions(t *testing.T) {
	m := NewMachine()
	require.NoError(t, m.Fire(TriggerValidate))
	require.NoError(t, m.Fire(TriggerIgnore))
	require.NoError(t, m.Fire(TriggerLog))

	for _, trigger := range []Trigger{TriggerValidate, TriggerExtract, TriggerAssign, TriggerSave, TriggerIgnore, TriggerFail, TriggerLog} {
		assert.False(t, m.CanFire(trigger))
	}
}
