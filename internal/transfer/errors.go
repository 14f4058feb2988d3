package transfer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the source or target collection does not exist.
	ErrNotFound = errors.New("source or target collection not found")

	// ErrValidation means the request is malformed.
	ErrValidation = errors.New("invalid transfer request")

	// ErrEngineFailure means the transfer could not be set up or finished.
	ErrEngineFailure = errors.New("transfer engine failure")

	// ErrAlreadyFinished means the job's transfer reached a terminal status
	// before Process was called. Nothing is changed.
	ErrAlreadyFinished = errors.New("transfer already finished")

	// ErrAlreadyRunning means another call is processing the same transfer.
	ErrAlreadyRunning = errors.New("transfer already running")
)

// ItemError describes a failure to process a single company id. Item errors
// are logged and counted, never returned to the caller.
type ItemError struct {
	CompanyID int
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("company %d: %v", e.CompanyID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
