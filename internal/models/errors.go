package models

import (
	"errors"
	"fmt"
)

// Reconciliation outcomes. All of them are returned to the caller; none is
// a success in disguise.
var (
	ErrInvalidOrder     = errors.New("invalid order")
	ErrOrderNotExecuted = errors.New("order not executed")
	ErrNoPositionToSell = errors.New("no position to sell")
	ErrOverdraft        = errors.New("sell quantity exceeds held quantity")
	ErrShortPosition    = errors.New("buy does not exactly cover short position")
	ErrDegenerateGroup  = errors.New("duplicate group nets to zero quantity")
	ErrMixedSignGroup   = errors.New("duplicate group mixes long and short quantities")
	ErrPositionNotFound = errors.New("position not found")
)

// StoreError is an opaque failure from a position store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError wraps err as a StoreError for op. A nil err stays nil and
// ErrPositionNotFound passes through unwrapped so callers can branch on it.
func NewStoreError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrPositionNotFound) {
		return err
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// IsStoreError reports whether err came from a position store.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
