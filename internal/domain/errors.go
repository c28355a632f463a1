package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDelivery           = errors.New("otp delivery failed")
	ErrOtpNotFound        = errors.New("otp not found")
	ErrOtpExpired         = errors.New("otp expired")
	ErrOtpMismatch        = errors.New("otp mismatch")
	ErrOtpAlreadyConsumed = errors.New("otp already consumed")
	ErrUnverified         = errors.New("email not verified")
	ErrRestaurantNotFound = errors.New("restaurant not found")
)

// Error carries a message that is safe to show to the diner. Kind is one of
// the sentinels above and is what errors.Is matches against.
type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return e.Kind }

func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Message returns the diner-facing text of err, or fallback when err does not
// carry one.
func Message(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Message
	}
	return fallback
}
