package common

import "errors"

var (
	// ErrRecordNotFound is returned when a referenced record does not exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrForbidden is returned when the acting user lacks the authority for
	// the requested operation.
	ErrForbidden = errors.New("forbidden")

	// ErrEditConflict is returned when a conditional update matched no rows
	// because another request changed the record first. Callers may retry.
	ErrEditConflict = errors.New("edit conflict")
)
