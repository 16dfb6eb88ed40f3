package store

import (
	"fmt"
	"net/http"
)

// Error is a domain error with an HTTP status code.
type Error struct {
	Code    int    // HTTP status code
	Message string // User-facing message
	Err     error  // Underlying error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// HTTPCode returns the HTTP status code associated with this error.
func (e *Error) HTTPCode() int { return e.Code }

// WithCause wraps an underlying error without changing the code or message.
func (e *Error) WithCause(err error) *Error {
	return &Error{Code: e.Code, Message: e.Message, Err: err}
}

// Is matches derived errors (WithCause) against their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code && t.Message == e.Message
}

// Sentinel errors.
var (
	ErrLocationNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "location not found",
	}

	ErrItemNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "item not found",
	}

	ErrTagNotFound = &Error{
		Code:    http.StatusNotFound,
		Message: "tag not found",
	}

	ErrInvalidName = &Error{
		Code:    http.StatusBadRequest,
		Message: "name must not be empty",
	}

	ErrInvalidPlan = &Error{
		Code:    http.StatusBadRequest,
		Message: "unknown plan",
	}

	ErrTooDeep = &Error{
		Code:    http.StatusBadRequest,
		Message: "locations can only be nested 15 levels deep",
	}

	ErrWouldCycle = &Error{
		Code:    http.StatusBadRequest,
		Message: "cannot move a location into its own subtree",
	}

	ErrDuplicateTag = &Error{
		Code:    http.StatusConflict,
		Message: "a tag with this name already exists",
	}

	ErrNotABook = &Error{
		Code:    http.StatusBadRequest,
		Message: "item is not a book record",
	}

	ErrIsBook = &Error{
		Code:    http.StatusBadRequest,
		Message: "book records are edited through their title and author",
	}

	ErrInvalidGrouping = &Error{
		Code:    http.StatusBadRequest,
		Message: "books can only be grouped by author or location",
	}
)
