package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProcessRecord(t *testing.T) {
	p := NewProcessRecord(1, 5, 3, 100)
	assert.Equal(t, StateNew, p.State)
	assert.Equal(t, 5, p.RemainingTime)
	assert.Equal(t, -1, p.StartTime)
	assert.Equal(t, -1, p.EndTime)
}

func TestTransitionLifecycle(t *testing.T) {
	p := NewProcessRecord(1, 4, 3, 100)
	require.NoError(t, p.Transition(StateReady))
	require.NoError(t, p.Transition(StateRunning))

	run, err := p.Execute(3)
	require.NoError(t, err)
	assert.Equal(t, 3, run)

	err = p.Transition(StateTerminated)
	require.Error(t, err, "cannot terminate with remaining time")
	assert.True(t, errors.Is(err, ErrIllegalTransition))

	require.NoError(t, p.Transition(StateReady))
	require.NoError(t, p.Transition(StateRunning))
	run, err = p.Execute(3)
	require.NoError(t, err)
	assert.Equal(t, 1, run)
	assert.Equal(t, 0, p.RemainingTime)
	require.NoError(t, p.Transition(StateTerminated))
}

func TestTransitionRejectsSkips(t *testing.T) {
	cases := []struct {
		from, to ProcessState
	}{
		{StateNew, StateRunning},
		{StateNew, StateTerminated},
		{StateReady, StateTerminated},
		{StateReady, StateNew},
		{StateTerminated, StateReady},
	}
	for _, c := range cases {
		p := NewProcessRecord(7, 1, 1, 1)
		p.State = c.from
		p.RemainingTime = 0
		err := p.Transition(c.to)
		var transitionErr *TransitionError
		require.True(t, errors.As(err, &transitionErr), "%s -> %s", c.from, c.to)
		assert.Equal(t, c.from, p.State)
	}
}

func TestExecuteRequiresRunning(t *testing.T) {
	p := NewProcessRecord(1, 4, 3, 100)
	_, err := p.Execute(2)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, 4, p.RemainingTime)
}

func TestCloneResetsMutableFields(t *testing.T) {
	p := NewProcessRecord(3, 9, 6, 512)
	p.Seq = 4
	p.State = StateTerminated
	p.RemainingTime = 0
	p.StartTime, p.EndTime = 2, 11
	p.WaitingTime, p.TurnaroundTime = 2, 11

	clone := p.Clone()
	assert.Equal(t, ProcessRecord{
		ID: 3, BurstTime: 9, RemainingTime: 9, Priority: 6, MemoryRequired: 512,
		StartTime: -1, EndTime: -1, State: StateReady, Seq: 4,
	}, *clone)

	clone.RemainingTime = 1
	assert.Equal(t, 0, p.RemainingTime)
}

func TestProcessStateText(t *testing.T) {
	text, err := StateRunning.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "RUNNING", string(text))

	var s ProcessState
	require.NoError(t, s.UnmarshalText([]byte("TERMINATED")))
	assert.Equal(t, StateTerminated, s)
	assert.Error(t, s.UnmarshalText([]byte("ZOMBIE")))
}
