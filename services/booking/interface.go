package booking

import (
	"context"
	"time"

	bookingRepo "lumident/database/repository/booking"
	"lumident/models"
	"lumident/services/calendar"
	"lumident/services/notification"
	"lumident/services/payment"

	"go.uber.org/zap"
)

// ReminderScheduler enqueues an appointment reminder for later delivery.
// Optional: a nil scheduler disables reminders.
type ReminderScheduler interface {
	ScheduleReminder(ctx context.Context, payload models.ReminderPayload, fireAt time.Time) error
}

// BookingOrchestrator drives the booking-payment reconciliation state
// machine: it accepts booking intents, consumes gateway callbacks and runs
// the expiry sweep.
type BookingOrchestrator interface {
	SubmitIntent(ctx context.Context, input models.BookingInput) (*models.IntentResponse, error)
	HandleCallback(ctx context.Context, payload []byte) error
	BookingStatus(ctx context.Context, token string) (*models.BookingStatus, error)
	Sweep(ctx context.Context) int
}

// DefaultBookingOrchestrator implements BookingOrchestrator.
type DefaultBookingOrchestrator struct {
	Store     DraftStore
	Gateway   payment.Gateway
	Calendar  calendar.Service
	Notifier  notification.NotificationService
	Records   bookingRepo.BookingRepository
	Reminders ReminderScheduler
	Logger    *zap.Logger

	// TTL is the single timeout governing the whole flow; it is re-checked
	// at verification time, not just at store reads.
	TTL time.Duration
	// GatewayRetries bounds re-attempts of payment session creation.
	GatewayRetries int
	// Currency for payment sessions and persisted bookings.
	Currency string
	// ReminderLead is how long before the appointment the reminder fires.
	ReminderLead time.Duration

	locks *tokenLocks
}

// NewDefaultBookingOrchestrator wires the orchestrator with its collaborators.
func NewDefaultBookingOrchestrator(
	store DraftStore,
	gateway payment.Gateway,
	cal calendar.Service,
	notifier notification.NotificationService,
	records bookingRepo.BookingRepository,
	reminders ReminderScheduler,
	logger *zap.Logger,
	ttl time.Duration,
	gatewayRetries int,
	currency string,
	reminderLead time.Duration,
) *DefaultBookingOrchestrator {
	return &DefaultBookingOrchestrator{
		Store:          store,
		Gateway:        gateway,
		Calendar:       cal,
		Notifier:       notifier,
		Records:        records,
		Reminders:      reminders,
		Logger:         logger,
		TTL:            ttl,
		GatewayRetries: gatewayRetries,
		Currency:       currency,
		ReminderLead:   reminderLead,
		locks:          newTokenLocks(),
	}
}
