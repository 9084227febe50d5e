package domain

import (
	"errors"
	"fmt"
)

// ErrIllegalTransition is wrapped by every rejected lifecycle change
var ErrIllegalTransition = errors.New("illegal state transition")

// ValidationError represents a malformed or out of range job descriptor
type ValidationError struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid job descriptor at line %d %q: %s", e.Line, e.Raw, e.Reason)
	}
	return fmt.Sprintf("invalid job descriptor %q: %s", e.Raw, e.Reason)
}

// SourceUnavailableError represents a job source that could not be opened or read
type SourceUnavailableError struct {
	Source string
	Err    error
}

func (e *SourceUnavailableError) Error() string {
	return fmt.Sprintf("job source %s unavailable: %v", e.Source, e.Err)
}

func (e *SourceUnavailableError) Unwrap() error {
	return e.Err
}

// SelectionError represents an invalid choice from the selection interface
type SelectionError struct {
	Input string
}

func (e *SelectionError) Error() string {
	return fmt.Sprintf("invalid choice %q, please enter 0-3", e.Input)
}

// TransitionError represents a rejected lifecycle change
type TransitionError struct {
	PID  int
	From ProcessState
	To   ProcessState
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("process P%d: %s -> %s: %v", e.PID, e.From, e.To, ErrIllegalTransition)
}

func (e *TransitionError) Unwrap() error {
	return ErrIllegalTransition
}
