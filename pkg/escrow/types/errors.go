package types

import (
	"errors"
	"fmt"
)

type ErrNotFound struct {
	ID int64
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("game %d not found", e.ID)
}

func IsNotFound(err error) bool {
	var e *ErrNotFound
	return errors.As(err, &e)
}

type ErrInvalidWager struct {
	Reason string
}

func (e *ErrInvalidWager) Error() string {
	return fmt.Sprintf("invalid wager: %s", e.Reason)
}

func IsInvalidWager(err error) bool {
	var e *ErrInvalidWager
	return errors.As(err, &e)
}

type ErrUnauthorized struct {
	Caller string
}

func (e *ErrUnauthorized) Error() string {
	return fmt.Sprintf("caller %s is not authorized", e.Caller)
}

func IsUnauthorized(err error) bool {
	var e *ErrUnauthorized
	return errors.As(err, &e)
}

// ErrGameNotActive covers every operation attempted in a lifecycle
// state that does not allow it, including double resolution.
type ErrGameNotActive struct {
	ID int64
}

func (e *ErrGameNotActive) Error() string {
	return fmt.Sprintf("game %d is not active", e.ID)
}

func IsGameNotActive(err error) bool {
	var e *ErrGameNotActive
	return errors.As(err, &e)
}

type ErrInvalidResolution struct {
	Reason string
}

func (e *ErrInvalidResolution) Error() string {
	return fmt.Sprintf("invalid resolution: %s", e.Reason)
}

func IsInvalidResolution(err error) bool {
	var e *ErrInvalidResolution
	return errors.As(err, &e)
}

type ErrDisputeTimeoutNotReached struct {
	ID int64
}

func (e *ErrDisputeTimeoutNotReached) Error() string {
	return fmt.Sprintf("dispute timeout not reached for game %d", e.ID)
}

func IsDisputeTimeoutNotReached(err error) bool {
	var e *ErrDisputeTimeoutNotReached
	return errors.As(err, &e)
}

// ErrTransferFailed wraps a custody adapter failure.
type ErrTransferFailed struct {
	Cause error
}

func (e *ErrTransferFailed) Error() string {
	return fmt.Sprintf("transfer failed: %v", e.Cause)
}

func (e *ErrTransferFailed) Unwrap() error {
	return e.Cause
}

func IsTransferFailed(err error) bool {
	var e *ErrTransferFailed
	return errors.As(err, &e)
}
