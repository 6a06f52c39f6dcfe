package domain

import (
	"errors"
	"fmt"
)

// Domain errors - used across all layers
var (
	// ErrNameExists indicates a namespace or corpus pathname is already taken
	ErrNameExists = errors.New("name already exists")

	// ErrNamespaceNotFound indicates a pathname does not resolve to anything
	ErrNamespaceNotFound = errors.New("namespace does not exist")

	// ErrIllegalName indicates a pathname violates the naming grammar
	ErrIllegalName = errors.New("illegal name")

	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrInternalInconsistency indicates the name index and the metadata rows
	// disagree. Never auto-repaired; logged as an operational alarm.
	ErrInternalInconsistency = errors.New("internal inconsistency")

	// ErrContentSpanMismatch indicates a vector hit's span length disagrees
	// with the stored text. Signals index corruption; aborts the search.
	ErrContentSpanMismatch = errors.New("content span mismatch")
)

// IllegalNameError carries the offending pathname so callers can correct it.
type IllegalNameError struct {
	Pathname string
}

func (e *IllegalNameError) Error() string {
	return fmt.Sprintf("%q is not a valid pathname", e.Pathname)
}

func (e *IllegalNameError) Unwrap() error { return ErrIllegalName }

// NameExistsError carries the pathname that collided.
type NameExistsError struct {
	Pathname string
}

func (e *NameExistsError) Error() string {
	return fmt.Sprintf("%q already exists", e.Pathname)
}

func (e *NameExistsError) Unwrap() error { return ErrNameExists }

// NamespaceNotFoundError carries the pathname that failed to resolve.
type NamespaceNotFoundError struct {
	Pathname string
}

func (e *NamespaceNotFoundError) Error() string {
	return fmt.Sprintf("%q does not exist", e.Pathname)
}

func (e *NamespaceNotFoundError) Unwrap() error { return ErrNamespaceNotFound }
