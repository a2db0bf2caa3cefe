package notification

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// DefaultNotificationService is the production implementation. Failed sends
// are retried with linear backoff up to MaxAttempts, then dropped with a log
// entry; booking state is never rolled back for a lost notification.
type DefaultNotificationService struct {
	Mailer      Mailer
	Logger      *zap.Logger
	MaxAttempts int
	Backoff     time.Duration
}

func NewDefaultNotificationService(mailer Mailer, logger *zap.Logger, maxAttempts int) *DefaultNotificationService {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &DefaultNotificationService{
		Mailer:      mailer,
		Logger:      logger,
		MaxAttempts: maxAttempts,
		Backoff:     2 * time.Second,
	}
}

// Dispatch fires the notification in the background and returns immediately.
func (s *DefaultNotificationService) Dispatch(kind, recipient string, data map[string]string) {
	go s.deliver(kind, recipient, data)
}

func (s *DefaultNotificationService) deliver(kind, recipient string, data map[string]string) {
	var lastErr error
	for attempt := 1; attempt <= s.MaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		lastErr = s.Mailer.Send(ctx, kind, recipient, data)
		cancel()
		if lastErr == nil {
			s.Logger.Info("Notification delivered",
				zap.String("kind", kind),
				zap.String("recipient", recipient),
				zap.Int("attempt", attempt),
			)
			return
		}
		time.Sleep(time.Duration(attempt) * s.Backoff)
	}
	s.Logger.Error("Notification dropped after retries",
		zap.String("kind", kind),
		zap.String("recipient", recipient),
		zap.Int("attempts", s.MaxAttempts),
		zap.Error(lastErr),
	)
}
