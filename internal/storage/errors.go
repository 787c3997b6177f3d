package storage

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrValidation matches every ValidationError.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidAddress matches every InvalidAddressError.
	ErrInvalidAddress = errors.New("invalid address")
	// ErrStorage matches every StorageError.
	ErrStorage = errors.New("storage failure")
	// ErrNotFound is returned when a single record lookup matches nothing.
	ErrNotFound = errors.New("record not found")
)

// ValidationError reports a required field that is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InvalidAddressError reports an address that is neither a collection nor an item.
type InvalidAddressError struct {
	Address string
}

func (e *InvalidAddressError) Error() string {
	return "unsupported address " + strconv.Quote(e.Address)
}

func (e *InvalidAddressError) Is(target error) bool {
	return target == ErrInvalidAddress
}

// StorageError wraps a failure of the underlying database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
