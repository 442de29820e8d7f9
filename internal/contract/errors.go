package contract

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyResult means there were no rows to persist. It is logged, not propagated.
	ErrEmptyResult = errors.New("no rows to persist")

	// ErrMigration means an index migration failed. The stored version is left unchanged.
	ErrMigration = errors.New("index migration failed")
)

// RemoteError wraps a network, HTTP or decoding failure from the history API.
type RemoteError struct {
	SensorID   int
	StatusCode int // Zero when no HTTP response was received
	Err        error
}

func (e *RemoteError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("sensor %d: remote returned %d: %v", e.SensorID, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("sensor %d: remote request failed: %v", e.SensorID, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}
