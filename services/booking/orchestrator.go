package booking

import (
	"context"
	"errors"
	"time"

	"lumident/models"
	"lumident/services/calendar"
	"lumident/services/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SubmitIntent validates the booking input, stores a draft, requests a
// payment session from the gateway and returns the redirect target. The
// draft sits in PAYMENT_PENDING until the gateway calls back or the TTL
// sweep collects it.
func (s *DefaultBookingOrchestrator) SubmitIntent(ctx context.Context, input models.BookingInput) (*models.IntentResponse, error) {
	if err := validateIntent(input); err != nil {
		return nil, err
	}

	draft := &models.BookingDraft{
		Token: uuid.New().String(),
		Customer: models.Customer{
			Name:  input.Name,
			Email: input.Email,
			Phone: input.Phone,
		},
		ServiceID: input.ServiceID,
		Slot: models.Slot{
			Start:           input.Start,
			DurationMinutes: input.DurationMinutes,
		},
		Amount:    input.Amount,
		Status:    models.StatusDraft,
		CreatedAt: time.Now(),
	}

	if err := s.Store.Put(ctx, draft); err != nil {
		// A colliding 128-bit random token is a programming error; never
		// overwrite the existing draft.
		s.Logger.Error("Failed to store booking draft",
			zap.String("token", draft.Token),
			zap.Error(err),
		)
		return nil, err
	}

	session, err := s.createSession(ctx, draft)
	if err != nil {
		s.removeDraft(ctx, draft.Token)
		return nil, NewBookingError(CodeGatewayError, "payment session creation failed")
	}

	unlock := s.locks.lock(draft.Token)
	draft.Status = models.StatusPaymentPending
	draft.TransactionID = session.TransactionID
	err = s.Store.Update(ctx, draft)
	unlock()
	if err != nil {
		return nil, err
	}

	s.Logger.Info("Booking intent accepted",
		zap.String("token", draft.Token),
		zap.String("transactionId", session.TransactionID),
		zap.Int64("amount", draft.Amount),
	)
	return &models.IntentResponse{
		Token:       draft.Token,
		RedirectURL: session.RedirectURL,
	}, nil
}

// createSession calls the gateway, retrying transient failures up to the
// configured bound.
func (s *DefaultBookingOrchestrator) createSession(ctx context.Context, draft *models.BookingDraft) (*models.PaymentSession, error) {
	var lastErr error
	for attempt := 0; attempt <= s.GatewayRetries; attempt++ {
		session, err := s.Gateway.CreateSession(ctx, draft)
		if err == nil {
			return session, nil
		}
		lastErr = err

		var gwErr *payment.GatewayError
		if !errors.As(err, &gwErr) {
			break
		}
		s.Logger.Warn("Payment session creation failed",
			zap.String("token", draft.Token),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
	}
	return nil, lastErr
}

// HandleCallback consumes an inbound gateway notification. It never mutates
// state before verification succeeds, and the caller acknowledges the
// gateway regardless of the returned error; the error only classifies the
// outcome for logging.
func (s *DefaultBookingOrchestrator) HandleCallback(ctx context.Context, payload []byte) error {
	notif, err := s.Gateway.VerifyCallback(payload)
	if err != nil {
		s.Logger.Warn("Discarded unverifiable payment callback", zap.Error(err))
		return NewBookingError(CodeVerificationFailed, "callback verification failed")
	}

	unlock := s.locks.lock(notif.Token)
	defer unlock()

	draft, err := s.Store.Get(ctx, notif.Token)
	if err != nil {
		// Unknown or already-expired token. Acknowledge without mutating;
		// expiry cleanup belongs to the sweep.
		s.Logger.Info("Orphan payment callback",
			zap.String("token", notif.Token),
			zap.String("transactionId", notif.TransactionID),
		)
		return NewBookingError(CodeOrphanCallback, "no draft for callback token")
	}

	if draft.Terminal() {
		// Gateway retry after we already settled: idempotent no-op.
		return nil
	}

	// Hard deadline enforced at verification time, independent of what the
	// store's lazy read check caught.
	if draft.Expired(s.TTL, time.Now()) {
		s.Logger.Info("Ignoring callback for expired draft",
			zap.String("token", draft.Token),
			zap.Time("createdAt", draft.CreatedAt),
		)
		return NewBookingError(CodeOrphanCallback, "draft expired before callback")
	}

	if notif.Amount != draft.Amount {
		// Valid signature but the amount differs from the stored draft:
		// partial-parameter tampering or a stale replay.
		s.Logger.Warn("Rejected callback with amount mismatch",
			zap.String("token", draft.Token),
			zap.Int64("notified", notif.Amount),
			zap.Int64("expected", draft.Amount),
		)
		return NewBookingError(CodeVerificationFailed, "callback amount mismatch")
	}

	if notif.Status == models.PaymentPaid {
		return s.commitPaid(ctx, draft, notif)
	}
	return s.settleUnpaid(ctx, draft, notif)
}

// commitPaid reserves the calendar slot and commits the booking. The token
// lock is held across the reservation call: commit atomicity requires that
// the sweep cannot expire the draft between reservation and commit.
func (s *DefaultBookingOrchestrator) commitPaid(ctx context.Context, draft *models.BookingDraft, notif *models.PaymentNotification) error {
	if draft.Status != models.StatusPaymentPending {
		s.Logger.Warn("Ignoring PAID callback for draft not awaiting payment",
			zap.String("token", draft.Token),
			zap.String("status", draft.Status),
		)
		return nil
	}

	reservationID, err := s.Calendar.Reserve(ctx, draft.ServiceID, draft.Slot)
	if err != nil {
		reason := models.ReasonCalendarError
		if errors.Is(err, calendar.ErrSlotTaken) {
			reason = models.ReasonSlotUnavailable
		}
		return s.failPaidDraft(ctx, draft, notif, reason)
	}

	now := time.Now()
	draft.Status = models.StatusPaid
	booking := &models.Booking{
		ID:            uuid.New().String(),
		Token:         draft.Token,
		TransactionID: notif.TransactionID,
		ReservationID: reservationID,
		Customer:      draft.Customer,
		ServiceID:     draft.ServiceID,
		Slot:          draft.Slot,
		Amount:        draft.Amount,
		Currency:      s.Currency,
		Status:        models.StatusPaid,
		PaidAt:        now,
		CreatedAt:     draft.CreatedAt,
	}
	if err := s.Records.CreateBooking(booking); err != nil {
		// The reservation and payment stand; the durable record is repaired
		// from gateway and calendar data during support follow-up.
		s.Logger.Error("Failed to persist confirmed booking",
			zap.String("token", draft.Token),
			zap.Error(err),
		)
	}
	s.removeDraft(ctx, draft.Token)

	s.Notifier.Dispatch(models.NotifyConfirmation, draft.Customer.Email, map[string]string{
		"name":      draft.Customer.Name,
		"serviceId": draft.ServiceID,
		"start":     draft.Slot.Start.Format(time.RFC3339),
		"booking":   booking.ID,
	})
	s.scheduleReminder(draft)

	s.Logger.Info("Booking committed",
		zap.String("token", draft.Token),
		zap.String("reservationId", reservationID),
		zap.String("transactionId", notif.TransactionID),
	)
	return nil
}

// failPaidDraft handles the compensatable case: payment confirmed but the
// slot could not be reserved. The payment record is preserved and flagged
// for refund follow-up; the paid customer is never silently dropped.
func (s *DefaultBookingOrchestrator) failPaidDraft(ctx context.Context, draft *models.BookingDraft, notif *models.PaymentNotification, reason string) error {
	draft.Status = models.StatusFailed
	draft.FailureReason = reason

	record := &models.PaymentRecord{
		ID:            uuid.New().String(),
		Token:         draft.Token,
		TransactionID: notif.TransactionID,
		Customer:      draft.Customer,
		Amount:        notif.Amount,
		Reason:        reason,
		RefundDue:     true,
	}
	if err := s.Records.CreatePaymentRecord(record); err != nil {
		s.Logger.Error("Failed to persist refund-due payment record",
			zap.String("token", draft.Token),
			zap.Error(err),
		)
	}
	s.removeDraft(ctx, draft.Token)

	s.Notifier.Dispatch(models.NotifyFailure, draft.Customer.Email, map[string]string{
		"name":   draft.Customer.Name,
		"reason": reason,
		"refund": "true",
	})

	s.Logger.Warn("Paid booking failed at reservation",
		zap.String("token", draft.Token),
		zap.String("reason", reason),
	)
	return NewBookingError(CodeSlotUnavailable, "slot reservation failed after payment")
}

// settleUnpaid handles CANCELLED and FAILED payment outcomes.
func (s *DefaultBookingOrchestrator) settleUnpaid(ctx context.Context, draft *models.BookingDraft, notif *models.PaymentNotification) error {
	draft.Status = models.StatusFailed
	if notif.Status == models.PaymentCancelled {
		draft.FailureReason = models.ReasonPaymentCancelled
	} else {
		draft.FailureReason = models.ReasonPaymentFailed
	}
	s.removeDraft(ctx, draft.Token)

	s.Notifier.Dispatch(models.NotifyFailure, draft.Customer.Email, map[string]string{
		"name":   draft.Customer.Name,
		"reason": draft.FailureReason,
	})

	s.Logger.Info("Booking settled without payment",
		zap.String("token", draft.Token),
		zap.String("paymentStatus", notif.Status),
	)
	return nil
}

// BookingStatus serves the post-redirect result page: transient drafts
// first, then durable outcomes by token.
func (s *DefaultBookingOrchestrator) BookingStatus(ctx context.Context, token string) (*models.BookingStatus, error) {
	if draft, err := s.Store.Get(ctx, token); err == nil {
		return &models.BookingStatus{
			Token:  token,
			Status: draft.Status,
			Reason: draft.FailureReason,
		}, nil
	}

	if _, err := s.Records.GetBookingByToken(token); err == nil {
		return &models.BookingStatus{Token: token, Status: models.StatusPaid}, nil
	}

	if record, err := s.Records.GetPaymentRecordByToken(token); err == nil {
		return &models.BookingStatus{
			Token:  token,
			Status: models.StatusFailed,
			Reason: record.Reason,
		}, nil
	}

	return nil, ErrNotFound
}

// Sweep collects drafts past their time-to-live. Discovery and removal are
// separate store calls so each removal happens under the same per-token
// lock the callback path uses; a draft mid-commit is never swept.
func (s *DefaultBookingOrchestrator) Sweep(ctx context.Context) int {
	tokens, err := s.Store.ExpiredTokens(ctx)
	if err != nil {
		s.Logger.Error("Expiry sweep discovery failed", zap.Error(err))
		return 0
	}

	expired := 0
	for _, token := range tokens {
		unlock := s.locks.lock(token)
		draft, err := s.Store.TakeExpired(ctx, token)
		unlock()
		if err != nil {
			// Settled by a concurrent callback or an earlier sweep.
			continue
		}
		expired++

		draft.Status = models.StatusExpired
		s.Notifier.Dispatch(models.NotifyExpiry, draft.Customer.Email, map[string]string{
			"name":      draft.Customer.Name,
			"serviceId": draft.ServiceID,
		})
		s.Logger.Info("Booking draft expired",
			zap.String("token", token),
			zap.Time("createdAt", draft.CreatedAt),
		)
	}
	return expired
}

func (s *DefaultBookingOrchestrator) scheduleReminder(draft *models.BookingDraft) {
	if s.Reminders == nil || s.ReminderLead <= 0 {
		return
	}
	fireAt := draft.Slot.Start.Add(-s.ReminderLead)
	if fireAt.Before(time.Now()) {
		return
	}
	payload := models.ReminderPayload{
		Token:     draft.Token,
		Email:     draft.Customer.Email,
		Name:      draft.Customer.Name,
		ServiceID: draft.ServiceID,
		Start:     draft.Slot.Start,
	}
	if err := s.Reminders.ScheduleReminder(context.Background(), payload, fireAt); err != nil {
		s.Logger.Error("Failed to schedule appointment reminder",
			zap.String("token", draft.Token),
			zap.Error(err),
		)
	}
}

func (s *DefaultBookingOrchestrator) removeDraft(ctx context.Context, token string) {
	if err := s.Store.Remove(ctx, token); err != nil {
		s.Logger.Error("Failed to remove booking draft",
			zap.String("token", token),
			zap.Error(err),
		)
	}
}

func validateIntent(input models.BookingInput) error {
	switch {
	case input.Name == "" || input.Email == "" || input.Phone == "":
		return NewBookingError(CodeInvalidInput, "missing customer details")
	case input.ServiceID == "":
		return NewBookingError(CodeInvalidInput, "missing service")
	case input.Amount <= 0:
		return NewBookingError(CodeInvalidInput, "amount must be a positive minor-unit value")
	case input.DurationMinutes <= 0:
		return NewBookingError(CodeInvalidInput, "invalid appointment duration")
	case input.Start.Before(time.Now()):
		return NewBookingError(CodeInvalidInput, "appointment start must be in the future")
	}
	return nil
}
