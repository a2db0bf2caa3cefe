package booking

import (
	"errors"
	"fmt"
)

// Error codes for the reconciliation pipeline.
const (
	CodeInvalidInput       = "invalidInput"
	CodeDuplicateToken     = "duplicateToken"
	CodeNotFound           = "notFound"
	CodeGatewayError       = "gatewayError"
	CodeVerificationFailed = "verificationFailed"
	CodeOrphanCallback     = "orphanCallback"
	CodeSlotUnavailable    = "slotUnavailable"
	CodeDispatchError      = "dispatchError"
)

// BookingError is the only error type that crosses the orchestrator boundary.
// Adapter failures are translated into one of the codes above before they
// reach the state machine.
type BookingError struct {
	Code    string
	Message string
}

func (e *BookingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewBookingError(code, msg string) error {
	return &BookingError{Code: code, Message: msg}
}

// IsCode reports whether err is a BookingError carrying the given code.
func IsCode(err error, code string) bool {
	var be *BookingError
	return errors.As(err, &be) && be.Code == code
}

// Store sentinels.
var (
	// ErrNotFound covers both unknown and expired tokens; a caller never
	// observes an expired-but-present draft as valid.
	ErrNotFound = &BookingError{Code: CodeNotFound, Message: "booking draft not found"}
	// ErrDuplicateToken means token generation collided. Tokens are 128-bit
	// random values, so a collision is a programming error, never something
	// to paper over by overwriting the existing draft.
	ErrDuplicateToken = &BookingError{Code: CodeDuplicateToken, Message: "booking token already exists"}
)
