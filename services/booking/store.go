package booking

import (
	"context"

	"lumident/models"
)

// DraftStore holds booking drafts between intent submission and the gateway
// callback. Implementations must be safe for concurrent use, must enforce
// expiry lazily on Get, and need not survive a process restart: a lost
// in-flight draft surfaces later as an orphan callback, not a crash.
//
// Expiry-driven cleanup is split in two so the orchestrator can serialize it
// against concurrent callbacks: ExpiredTokens discovers candidates without
// removing anything, and TakeExpired removes a single draft atomically with
// the expiry re-check. Sweeping twice therefore produces no duplicate side
// effects.
type DraftStore interface {
	Put(ctx context.Context, draft *models.BookingDraft) error
	Get(ctx context.Context, token string) (*models.BookingDraft, error)
	Update(ctx context.Context, draft *models.BookingDraft) error
	Remove(ctx context.Context, token string) error
	ExpiredTokens(ctx context.Context) ([]string, error)
	TakeExpired(ctx context.Context, token string) (*models.BookingDraft, error)
}
