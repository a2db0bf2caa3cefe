package models

import "time"

// Draft status values. A draft only ever moves forward:
// DRAFT -> PAYMENT_PENDING -> {PAID | FAILED | EXPIRED}.
const (
	StatusDraft          = "DRAFT"
	StatusPaymentPending = "PAYMENT_PENDING"
	StatusPaid           = "PAID"
	StatusExpired        = "EXPIRED"
	StatusFailed         = "FAILED"
)

// Failure reasons recorded on terminal FAILED drafts.
const (
	ReasonSlotUnavailable  = "SLOT_UNAVAILABLE"
	ReasonCalendarError    = "CALENDAR_ERROR"
	ReasonPaymentCancelled = "PAYMENT_CANCELLED"
	ReasonPaymentFailed    = "PAYMENT_FAILED"
)

// Customer identifies who the appointment is for. Contact fields are
// validated at the input layer, the pipeline treats them as opaque.
type Customer struct {
	Name  string `bson:"name" json:"name"`
	Email string `bson:"email" json:"email"`
	Phone string `bson:"phone" json:"phone"`
}

// Slot is a requested calendar interval.
type Slot struct {
	Start           time.Time `bson:"start" json:"start"`
	DurationMinutes int       `bson:"duration_minutes" json:"durationMinutes"`
}

// BookingDraft is a tentative booking held in the transient store while the
// payment is in flight. The token is the correlation key across the gateway
// redirect/callback boundary.
type BookingDraft struct {
	Token         string    `json:"token"`
	Customer      Customer  `json:"customer"`
	ServiceID     string    `json:"serviceId"`
	Slot          Slot      `json:"slot"`
	Amount        int64     `json:"amount"` // minor currency units, never floating point
	Status        string    `json:"status"`
	FailureReason string    `json:"failureReason,omitempty"`
	TransactionID string    `json:"transactionId,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Expired reports whether the draft has outlived its time-to-live at the
// given instant. Expiry is a hard deadline: an expired draft must never be
// promoted to PAID no matter how late the callback is.
func (d *BookingDraft) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(d.CreatedAt) > ttl
}

// Terminal reports whether the draft has reached a final state.
func (d *BookingDraft) Terminal() bool {
	return d.Status == StatusPaid || d.Status == StatusFailed || d.Status == StatusExpired
}

// Booking is a confirmed, paid appointment persisted once reconciliation
// completes.
type Booking struct {
	ID            string    `bson:"id" json:"id"`
	Token         string    `bson:"token" json:"token"`
	TransactionID string    `bson:"transaction_id" json:"transactionId"`
	ReservationID string    `bson:"reservation_id" json:"reservationId"`
	Customer      Customer  `bson:"customer" json:"customer"`
	ServiceID     string    `bson:"service_id" json:"serviceId"`
	Slot          Slot      `bson:"slot" json:"slot"`
	Amount        int64     `bson:"amount" json:"amount"`
	Currency      string    `bson:"currency" json:"currency"`
	Status        string    `bson:"status" json:"status"`
	PaidAt        time.Time `bson:"paid_at" json:"paidAt"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}

// PaymentRecord preserves the outcome of a confirmed payment whose booking
// could not be completed, so paid-but-unbooked customers surface in a refund
// follow-up queue instead of being silently dropped.
type PaymentRecord struct {
	ID            string    `bson:"id" json:"id"`
	Token         string    `bson:"token" json:"token"`
	TransactionID string    `bson:"transaction_id" json:"transactionId"`
	Customer      Customer  `bson:"customer" json:"customer"`
	Amount        int64     `bson:"amount" json:"amount"`
	Reason        string    `bson:"reason" json:"reason"`
	RefundDue     bool      `bson:"refund_due" json:"refundDue"`
	CreatedAt     time.Time `bson:"created_at" json:"createdAt"`
}

// BookingStatus is the client-facing view served to the post-redirect result
// page while it polls for the reconciliation outcome.
type BookingStatus struct {
	Token  string `json:"token"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}
