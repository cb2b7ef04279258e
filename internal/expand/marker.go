// ABOUTME: Textual block state machine - four marker variants per block type
// ABOUTME: Transition function is pure and total so it can be tested without document mutation

package expand

import (
	"strings"
	"time"
)

// State is a block occurrence's position in its lifecycle, as encoded in
// its marker line.
type State int

const (
	StateUnexpanded State = iota
	StateInProgress
	StateCompleted
	StateError
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateUnexpanded:
		return "unexpanded"
	case StateInProgress:
		return "in-progress"
	case StateCompleted:
		return "completed"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Outcome is an event applied to a block state.
type Outcome int

const (
	// OutcomeDispatch marks the block as handed to its executor.
	OutcomeDispatch Outcome = iota
	// OutcomeSuccess marks the executor's success callback.
	OutcomeSuccess
	// OutcomeFailure marks the executor's error callback.
	OutcomeFailure
)

// Next is the pure transition function over the four-state enum. Transitions
// are monotonic: Unexpanded -> InProgress -> Completed|Error, never reverse,
// never skipping InProgress. Invalid transitions return ok false.
func Next(s State, o Outcome) (State, bool) {
	switch s {
	case StateUnexpanded:
		if o == OutcomeDispatch {
			return StateInProgress, true
		}
	case StateInProgress:
		switch o {
		case OutcomeSuccess:
			return StateCompleted, true
		case OutcomeFailure:
			return StateError, true
		}
	}
	return s, false
}

// Markers holds the four literal marker variants of one block type.
// The completed variant gains a bracketed timestamp when rendered.
type Markers struct {
	Base       string
	InProgress string
	Completed  string
	Error      string
}

// CompletedLine renders the completed marker with its timestamp.
func (m Markers) CompletedLine(ts time.Time) string {
	return m.Completed + " [" + ts.UTC().Format(time.RFC3339) + "]"
}

// StateOf classifies a marker line, returning ok false for lines that are
// not a variant of this block type. Base and in-progress markers match
// exactly; completed markers carry a timestamp suffix and error markers may
// carry trailing text.
func (m Markers) StateOf(line string) (State, bool) {
	line = strings.TrimRight(line, " \t")
	switch {
	case line == m.Base:
		return StateUnexpanded, true
	case line == m.InProgress:
		return StateInProgress, true
	case line == m.Completed || strings.HasPrefix(line, m.Completed+" ["):
		return StateCompleted, true
	case line == m.Error || strings.HasPrefix(line, m.Error+" "):
		return StateError, true
	}
	return 0, false
}
