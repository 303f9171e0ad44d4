package records

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrInvalidFileType = errors.New("file type not allowed")
	ErrFileTooLarge    = errors.New("file exceeds maximum allowed size")
	ErrTitleRequired   = errors.New("title is required")
	ErrFileRequired    = errors.New("a file must be attached")
	ErrInvalidCategory = errors.New("invalid category")
	ErrNotFound        = errors.New("record not found")
	ErrNoStoredFile    = errors.New("record has no stored file to analyze")
	ErrNotOwner        = errors.New("record does not belong to this user")
)

// StoreErrorClass tags a persistence failure with its cause category so
// handlers can pick the right status and user message without matching on
// error strings.
type StoreErrorClass string

const (
	ClassAuth       StoreErrorClass = "auth"
	ClassPermission StoreErrorClass = "permission"
	ClassDuplicate  StoreErrorClass = "duplicate"
	ClassReference  StoreErrorClass = "reference"
	ClassInternal   StoreErrorClass = "internal"
)

// StoreError wraps a database failure with its classification.
type StoreError struct {
	Class StoreErrorClass
	cause error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error (%s): %v", e.Class, e.cause)
}

func (e *StoreError) Unwrap() error { return e.cause }

// UserMessage returns the message shown to the end user for this class.
func (e *StoreError) UserMessage() string {
	switch e.Class {
	case ClassAuth:
		return "Authentication error. Please sign out and sign in again."
	case ClassPermission:
		return "Permission denied. Please contact support."
	case ClassDuplicate:
		return "A record with this information already exists."
	case ClassReference:
		return "Invalid user session. Please sign out and sign in again."
	default:
		return fmt.Sprintf("Database error: %v", e.cause)
	}
}

// classifyStoreError maps postgres error codes onto StoreError classes.
// Unrecognised failures become ClassInternal; pgx.ErrNoRows stays ErrNotFound.
func classifyStoreError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) || errors.Is(err, ErrNotFound) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return &StoreError{Class: ClassDuplicate, cause: err}
		case "23503":
			return &StoreError{Class: ClassReference, cause: err}
		case "42501":
			return &StoreError{Class: ClassPermission, cause: err}
		case "22P02", "28000":
			return &StoreError{Class: ClassAuth, cause: err}
		}
	}
	return &StoreError{Class: ClassInternal, cause: err}
}
