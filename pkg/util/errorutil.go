package util

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", message, http.StatusBadRequest, details)
}

func NewUnauthenticated(message string) error {
	return NewDomainError("UNAUTHENTICATED", message, http.StatusUnauthorized, nil)
}

// NewNotAuthorized signals the requester lacks reviewer or admin capability.
func NewNotAuthorized(message string) error {
	return NewDomainError("NOT_AUTHORIZED", message, http.StatusForbidden, nil)
}

// NewRateLimited signals the submission quota was hit. The window is carried
// in the details so the caller can render it.
func NewRateLimited(limit, windowSeconds int) error {
	return NewDomainError(
		"RATE_LIMITED",
		fmt.Sprintf("rate limit exceeded: max %d requests every %ds", limit, windowSeconds),
		http.StatusTooManyRequests,
		map[string]any{"limit": limit, "window_seconds": windowSeconds},
	)
}

// NewInvalidID signals a malformed or out-of-range external ticket id.
func NewInvalidID(extID int64) error {
	return NewDomainError("INVALID_ID", "invalid ticket id", http.StatusBadRequest,
		map[string]any{"ticket_id": extID})
}

// NewUnknownTicket signals the external id does not resolve to a ticket.
func NewUnknownTicket(extID int64) error {
	return NewDomainError("UNKNOWN_TICKET", "unknown ticket id", http.StatusNotFound,
		map[string]any{"ticket_id": extID})
}

// NewAlreadyClaimed signals a lost claim race, carrying the winner's id.
func NewAlreadyClaimed(claimantID int64) error {
	return NewDomainError("ALREADY_CLAIMED", "ticket already claimed", http.StatusConflict,
		map[string]any{"claimed_by": claimantID})
}

// NewPersistenceFailure wraps a storage error. The cause is kept for logging
// but never rendered to the caller.
func NewPersistenceFailure(err error) error {
	return &DomainError{
		Code:       "PERSISTENCE_FAILURE",
		Message:    "unexpected storage error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, sql.ErrNoRows) {
		return &DomainError{
			Code:       "UNKNOWN_TICKET",
			Message:    "unknown ticket id",
			HTTPStatus: http.StatusNotFound,
		}
	}
	return &DomainError{
		Code:       "PERSISTENCE_FAILURE",
		Message:    "unexpected storage error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	if err == nil {
		return nil
	}
	return ToDomainError(err)
}

// HasCode reports whether err is a DomainError with the given code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	return errors.As(err, &domainErr) && domainErr.Code == code
}
