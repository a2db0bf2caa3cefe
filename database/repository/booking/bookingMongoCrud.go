// File: database/repository/booking/bookingMongoCrud.go
package bookingRepo

import (
	"errors"
	"fmt"
	"time"

	"lumident/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrRecordNotFound is returned when no document matches the given token.
var ErrRecordNotFound = errors.New("record not found")

// CreateBooking inserts a confirmed booking document.
func (r *MongoBookingRepo) CreateBooking(booking *models.Booking) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if booking.CreatedAt.IsZero() {
		booking.CreatedAt = time.Now()
	}

	_, err := r.bookings.InsertOne(ctx, booking)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

// GetBookingByToken fetches a confirmed booking by its draft token.
func (r *MongoBookingRepo) GetBookingByToken(token string) (*models.Booking, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var booking models.Booking
	err := r.bookings.FindOne(ctx, bson.M{"token": token}).Decode(&booking)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to fetch booking for token %s: %w", token, err)
	}
	return &booking, nil
}

// CreatePaymentRecord inserts a paid-but-unbooked payment record.
func (r *MongoBookingRepo) CreatePaymentRecord(record *models.PaymentRecord) error {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now()
	}

	_, err := r.payments.InsertOne(ctx, record)
	if err != nil {
		return fmt.Errorf("failed to create payment record: %w", err)
	}
	return nil
}

// GetPaymentRecordByToken fetches a payment record by its draft token.
func (r *MongoBookingRepo) GetPaymentRecordByToken(token string) (*models.PaymentRecord, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	var record models.PaymentRecord
	err := r.payments.FindOne(ctx, bson.M{"token": token}).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to fetch payment record for token %s: %w", token, err)
	}
	return &record, nil
}

// ListRefundDue returns payment records still flagged for refund follow-up.
func (r *MongoBookingRepo) ListRefundDue() ([]models.PaymentRecord, error) {
	ctx, cancel := newContext(5 * time.Second)
	defer cancel()

	cursor, err := r.payments.Find(ctx, bson.M{"refund_due": true})
	if err != nil {
		return nil, fmt.Errorf("failed to list refund-due payment records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.PaymentRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode payment records: %w", err)
	}
	return records, nil
}
