package payment

import (
	"context"
	"errors"

	"lumident/models"
)

// ErrVerificationFailed covers every way an inbound callback can be
// untrustworthy: bad signature, missing field, malformed payload. Callers
// must not distinguish the cases to the gateway.
var ErrVerificationFailed = errors.New("payment: callback verification failed")

// GatewayError marks a transient failure talking to the payment gateway
// (network error or non-2xx response).
type GatewayError struct {
	Op  string
	Err error
}

func (e *GatewayError) Error() string {
	return "payment: gateway " + e.Op + " failed: " + e.Err.Error()
}

func (e *GatewayError) Unwrap() error { return e.Err }

// Gateway creates signed payment sessions and verifies inbound callbacks.
type Gateway interface {
	CreateSession(ctx context.Context, draft *models.BookingDraft) (*models.PaymentSession, error)
	VerifyCallback(payload []byte) (*models.PaymentNotification, error)
}
