package domain

import "errors"

var (
	ErrInvalidRequest     = errors.New("invalid request")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrSignatureMismatch  = errors.New("payment signature mismatch")
	ErrPartialEnrollment  = errors.New("enrollment failed")
	ErrNotificationFailed = errors.New("notification failed")
	ErrPaymentInProgress  = errors.New("payment already being processed")
)

// ErrCourseNotFound and ErrUserNotFound match ErrNotFound under errors.Is.
var (
	ErrCourseNotFound = &notFoundError{entity: "course"}
	ErrUserNotFound   = &notFoundError{entity: "user"}
)

type notFoundError struct {
	entity string
}

func (e *notFoundError) Error() string { return e.entity + " not found" }

func (e *notFoundError) Is(target error) bool { return target == ErrNotFound }
