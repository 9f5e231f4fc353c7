package contracts

import (
	"errors"
	"fmt"
)

// ErrInsufficientHistory marks an instrument as unevaluable: fewer
// observations than the minimum window requires. Callers must treat it
// as "cannot evaluate", never as a silent Hold.
var ErrInsufficientHistory = errors.New("insufficient history")

// InsufficientHistoryError carries the observation counts
type InsufficientHistoryError struct {
	Have int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: have %d observations, need %d", e.Have, e.Need)
}

func (e *InsufficientHistoryError) Unwrap() error {
	return ErrInsufficientHistory
}

// ErrInvalidSignal marks a malformed quant signal or advisory verdict:
// action outside the known set or confidence outside [0,1]. Fatal for
// that instrument's synthesis, never silently clamped.
var ErrInvalidSignal = errors.New("invalid signal")

// InvalidSignalError names the offending track and field
type InvalidSignalError struct {
	Track  string // "quant" or "advisory"
	Field  string // "action" or "confidence"
	Detail string
}

func (e *InvalidSignalError) Error() string {
	return fmt.Sprintf("invalid signal: %s %s: %s", e.Track, e.Field, e.Detail)
}

func (e *InvalidSignalError) Unwrap() error {
	return ErrInvalidSignal
}
