// ABOUTME: Tests for the pure marker state machine
// ABOUTME: Covers the total transition table and marker line classification

package expand

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNext_ValidTransitions(t *testing.T) {
	s, ok := Next(StateUnexpanded, OutcomeDispatch)
	assert.True(t, ok)
	assert.Equal(t, StateInProgress, s)

	s, ok = Next(StateInProgress, OutcomeSuccess)
	assert.True(t, ok)
	assert.Equal(t, StateCompleted, s)

	s, ok = Next(StateInProgress, OutcomeFailure)
	assert.True(t, ok)
	assert.Equal(t, StateError, s)
}

func TestNext_InvalidTransitionsRejected(t *testing.T) {
	tests := []struct {
		state   State
		outcome Outcome
	}{
		{StateUnexpanded, OutcomeSuccess},
		{StateUnexpanded, OutcomeFailure},
		{StateInProgress, OutcomeDispatch},
		{StateCompleted, OutcomeDispatch},
		{StateCompleted, OutcomeSuccess},
		{StateCompleted, OutcomeFailure},
		{StateError, OutcomeDispatch},
		{StateError, OutcomeSuccess},
		{StateError, OutcomeFailure},
	}
	for _, tt := range tests {
		got, ok := Next(tt.state, tt.outcome)
		assert.False(t, ok, "%v + %v must be rejected", tt.state, tt.outcome)
		assert.Equal(t, tt.state, got, "rejected transition must not move state")
	}
}

func TestMarkers_StateOf(t *testing.T) {
	m := Markers{
		Base:       ">>> include",
		InProgress: ">>> including",
		Completed:  ">>> included",
		Error:      ">>> include-error",
	}

	tests := []struct {
		line  string
		state State
		ok    bool
	}{
		{">>> include", StateUnexpanded, true},
		{">>> include   ", StateUnexpanded, true},
		{">>> including", StateInProgress, true},
		{">>> included [2026-08-31T10:00:00Z]", StateCompleted, true},
		{">>> included", StateCompleted, true},
		{">>> include-error", StateError, true},
		{">>> include-error something", StateError, true},
		{">>> includes", 0, false},
		{">>> user", 0, false},
		{"include", 0, false},
	}
	for _, tt := range tests {
		state, ok := m.StateOf(tt.line)
		assert.Equal(t, tt.ok, ok, "line %q", tt.line)
		if tt.ok {
			assert.Equal(t, tt.state, state, "line %q", tt.line)
		}
	}
}

func TestMarkers_CompletedLine(t *testing.T) {
	m := Markers{Completed: ">>> included"}
	ts := time.Date(2026, 8, 31, 10, 30, 0, 0, time.UTC)
	line := m.CompletedLine(ts)
	assert.Equal(t, ">>> included [2026-08-31T10:30:00Z]", line)

	state, ok := m.StateOf(line)
	assert.True(t, ok)
	assert.Equal(t, StateCompleted, state)
}
