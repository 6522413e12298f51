package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

type Kind string

const (
	KindValidation      Kind = "validation"
	KindNotFound        Kind = "not_found"
	KindNoAssessmentYet Kind = "no_assessment_yet"
	KindForbidden       Kind = "forbidden"
	KindInvalidState    Kind = "invalid_state"
	KindPersistence     Kind = "persistence"
	KindUnavailable     Kind = "unavailable"
)

// Error carries a Kind the HTTP layer maps to a status code, a message that
// is safe to show to the caller, and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Message != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, args ...any) error {
	return New(KindValidation, fmt.Sprintf(format, args...))
}

func NotFound(what string) error {
	return New(KindNotFound, what+" not found")
}

func Forbidden(message string) error {
	return New(KindForbidden, message)
}

func InvalidState(format string, args ...any) error {
	return New(KindInvalidState, fmt.Sprintf(format, args...))
}

func Unavailable(message string) error {
	return New(KindUnavailable, message)
}

var ErrNoAssessmentYet = New(KindNoAssessmentYet, "no resume assessment yet: test your resume first")

// Persistence marks err as a datastore failure. A nil err stays nil.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return Wrap(KindPersistence, "datastore failure", err)
}

// Lift returns err unchanged when it already carries a Kind and wraps it as a
// persistence failure otherwise.
func Lift(err error) error {
	if err == nil {
		return nil
	}
	if KindOf(err) != "" {
		return err
	}
	return Persistence(err)
}

// KindOf reports the Kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

func HTTPStatus(kind Kind) int {
	switch kind {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindForbidden:
		return http.StatusForbidden
	case KindNoAssessmentYet, KindInvalidState:
		return http.StatusConflict
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage is what the caller sees. Persistence and unclassified errors
// never leak their cause.
func PublicMessage(err error) string {
	var e *Error
	if !errors.As(err, &e) || e.Kind == KindPersistence {
		return "temporarily unavailable, please retry"
	}
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}
