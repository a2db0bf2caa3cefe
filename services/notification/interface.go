package notification

import "context"

// Mailer delivers a single message through the mail provider.
type Mailer interface {
	Send(ctx context.Context, kind, recipient string, data map[string]string) error
}

// NotificationService dispatches customer notifications on booking state
// transitions. Dispatch is best-effort: it retries with bounded backoff in
// the background and never blocks or reverses the transition that
// triggered it.
type NotificationService interface {
	Dispatch(kind, recipient string, data map[string]string)
}
