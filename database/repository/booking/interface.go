package bookingRepo

import "lumident/models"

// BookingRepository persists terminal reconciliation outcomes: confirmed
// bookings and paid-but-unbooked payment records awaiting refund follow-up.
type BookingRepository interface {
	CreateBooking(booking *models.Booking) error
	GetBookingByToken(token string) (*models.Booking, error)
	CreatePaymentRecord(record *models.PaymentRecord) error
	GetPaymentRecordByToken(token string) (*models.PaymentRecord, error)
	ListRefundDue() ([]models.PaymentRecord, error)
}
